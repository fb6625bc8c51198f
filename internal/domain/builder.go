package domain

import (
	"time"

	"github.com/google/uuid"
)

// Builder owns the draft of one protocol under edit. Setters never validate
// content; Validate and the commit methods do.
type Builder struct {
	draft Draft
	now   func() time.Time
	newID func() string
}

type Option func(*Builder)

// WithClock replaces time.Now for commit timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithIDGenerator replaces the uuid generator for protocol and row ids.
func WithIDGenerator(newID func() string) Option {
	return func(b *Builder) { b.newID = newID }
}

// NewBuilder starts a draft. With a nil existing protocol the draft holds the
// form defaults, otherwise a full copy of existing.
func NewBuilder(existing *Protocol, opts ...Option) *Builder {
	b := &Builder{now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(b)
	}
	b.Reset(existing)
	return b
}

// Reset discards the current draft and starts over.
func (b *Builder) Reset(existing *Protocol) {
	if existing != nil {
		b.draft = existing.Draft()
		return
	}
	b.draft = DefaultDraft()
}

// Draft returns a snapshot of the current draft.
func (b *Builder) Draft() Draft { return b.draft.clone() }

// SetField replaces a scalar or enumerated field by its wire name.
func (b *Builder) SetField(name, value string) error {
	f, ok := lookup(draftFields, name)
	if !ok {
		return &ValidationError{Field: name, Reason: ReasonUnknownField}
	}
	*f.ref(&b.draft) = value
	return nil
}

func (b *Builder) SetPruefplakette(v bool) { b.draft.Pruefplakette = v }

func (b *Builder) SetInspectionItem(key string, status InspectionStatus) error {
	k, ok := ParseInspectionKey(key)
	if !ok {
		return &ValidationError{Field: "besichtigungItems." + key, Reason: ReasonUnknownInspectionItem}
	}
	if !status.Valid() {
		return &ValidationError{Field: "besichtigungItems." + key, Reason: ReasonInvalidValue}
	}
	b.draft.BesichtigungItems[k] = status
	return nil
}

func (b *Builder) SetStandard(name string, on bool) error {
	ref, ok := b.draft.Standards.ref(name)
	if !ok {
		return &ValidationError{Field: "standards." + name, Reason: ReasonUnknownField}
	}
	*ref = on
	return nil
}

func (b *Builder) SetMessgeraetField(name, value string) error {
	f, ok := lookup(messgeraetFields, name)
	if !ok {
		return &ValidationError{Field: "messgeraet." + name, Reason: ReasonUnknownField}
	}
	*f.ref(&b.draft.Messgeraet) = value
	return nil
}

// AddMeasurementRow appends a row with default values and returns its id.
func (b *Builder) AddMeasurementRow() string {
	id := b.newID()
	for b.draft.row(id) >= 0 {
		id = b.newID()
	}
	b.draft.Measurements = append(b.draft.Measurements, NewMeasurement(id))
	return id
}

// UpdateMeasurementField sets one column of a row. An unknown row is
// ignored; an unknown column is an error.
func (b *Builder) UpdateMeasurementField(rowID, name, value string) error {
	f, ok := lookup(measurementFields, name)
	if !ok {
		return &ValidationError{Field: "measurements." + name, Reason: ReasonUnknownField}
	}
	if i := b.draft.row(rowID); i >= 0 {
		*f.ref(&b.draft.Measurements[i]) = value
	}
	return nil
}

func (b *Builder) RemoveMeasurementRow(rowID string) {
	if i := b.draft.row(rowID); i >= 0 {
		b.draft.Measurements = append(b.draft.Measurements[:i:i], b.draft.Measurements[i+1:]...)
	}
}

func (b *Builder) Validate() error {
	return b.draft.Validate()
}

// Commit finalizes the draft as a new protocol.
func (b *Builder) Commit() (Protocol, error) {
	if err := b.draft.Validate(); err != nil {
		return Protocol{}, err
	}
	now := b.now()
	return Protocol{id: b.newID(), createdAt: now, updatedAt: now, draft: b.draft.clone()}, nil
}

// CommitEdit finalizes the draft as a new revision of existing, keeping its
// id and createdAt. updatedAt never moves backwards.
func (b *Builder) CommitEdit(existing Protocol) (Protocol, error) {
	if existing.IsZero() {
		return Protocol{}, &ValidationError{Field: "id", Reason: ReasonRequired}
	}
	if err := b.draft.Validate(); err != nil {
		return Protocol{}, err
	}
	now := b.now()
	if now.Before(existing.updatedAt) {
		now = existing.updatedAt
	}
	return Protocol{id: existing.id, createdAt: existing.createdAt, updatedAt: now, draft: b.draft.clone()}, nil
}
