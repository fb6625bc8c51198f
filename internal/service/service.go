// Package service serializes all changes to the protocol collection and fans
// committed changes out to the archive and notifiers.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/elektroprotokolle/pruefprotokoll/internal/domain"
	"github.com/elektroprotokolle/pruefprotokoll/internal/metrics"
	"github.com/elektroprotokolle/pruefprotokoll/internal/repository"
)

var (
	ErrNotFound = errors.New("protocol not found")
	ErrNoDraft  = errors.New("no draft in progress")
)

// Archive is durable storage mirroring the in-memory collection.
type Archive interface {
	Save(ctx context.Context, p domain.Protocol) error
	Delete(ctx context.Context, id string) error
	Load(ctx context.Context) ([]domain.Protocol, error)
}

// Notifier is told about every committed or removed protocol. Failures are
// logged and never undo the change.
type Notifier interface {
	Committed(ctx context.Context, p domain.Protocol, created bool) error
	Removed(ctx context.Context, id string) error
}

type Services struct {
	Protocols   *ProtocolService
	Exports     *ExportService
	Inspections *InspectionService
}

type config struct {
	archive   Archive
	notifiers []Notifier
	uploader  Uploader
	alerter   Alerter
	now       func() time.Time
	newID     func() string
}

type Option func(*config)

func WithArchive(a Archive) Option {
	return func(c *config) { c.archive = a }
}

func WithNotifiers(n ...Notifier) Option {
	return func(c *config) { c.notifiers = append(c.notifiers, n...) }
}

// WithUploader enables publishing exports.
func WithUploader(u Uploader) Option {
	return func(c *config) { c.uploader = u }
}

// WithAlerter enables reminders about due inspections.
func WithAlerter(a Alerter) Option {
	return func(c *config) { c.alerter = a }
}

func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(c *config) { c.newID = newID }
}

func New(opts ...Option) *Services {
	cfg := config{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	protocols := &ProtocolService{
		repo:      repository.NewMemoryWithClock(cfg.now),
		archive:   cfg.archive,
		notifiers: cfg.notifiers,
		now:       cfg.now,
		newID:     cfg.newID,
	}
	return &Services{
		Protocols:   protocols,
		Exports:     &ExportService{protocols: protocols, uploader: cfg.uploader},
		Inspections: &InspectionService{protocols: protocols, alerter: cfg.alerter, now: cfg.now},
	}
}

// ProtocolService owns the collection and the single draft session.
type ProtocolService struct {
	mu        sync.Mutex
	repo      *repository.Memory
	archive   Archive
	notifiers []Notifier
	now       func() time.Time
	newID     func() string

	draft *draftSession
}

type draftSession struct {
	builder *domain.Builder
	editing string
}

// DraftView is the state of the draft session as shown to clients.
type DraftView struct {
	ProtocolID string       `json:"protocolId,omitempty"`
	Draft      domain.Draft `json:"draft"`
}

func (s *ProtocolService) builder(existing *domain.Protocol) *domain.Builder {
	opts := []domain.Option{domain.WithClock(s.now)}
	if s.newID != nil {
		opts = append(opts, domain.WithIDGenerator(s.newID))
	}
	return domain.NewBuilder(existing, opts...)
}

// Restore replaces the collection with the archive contents.
func (s *ProtocolService) Restore(ctx context.Context) (int, error) {
	if s.archive == nil {
		return 0, nil
	}
	ps, err := s.archive.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore protocols: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repo.Load(ps)
	return len(ps), nil
}

func (s *ProtocolService) Get(id string) (domain.Protocol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.repo.Get(id)
	if !ok {
		return domain.Protocol{}, ErrNotFound
	}
	return p, nil
}

func (s *ProtocolService) List() []domain.Protocol {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.List()
}

func (s *ProtocolService) Search(query string) []domain.Protocol {
	s.mu.Lock()
	seq := s.repo.Search(query)
	s.mu.Unlock()
	return slices.Collect(seq)
}

func (s *ProtocolService) Summary() repository.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Summary()
}

// Create builds a new protocol from the form defaults overlaid with patch.
func (s *ProtocolService) Create(ctx context.Context, patch domain.Patch) (domain.Protocol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.builder(nil)
	if err := b.Apply(patch); err != nil {
		return domain.Protocol{}, rejected(err)
	}
	p, err := b.Commit()
	if err != nil {
		return domain.Protocol{}, rejected(err)
	}
	return s.store(ctx, p, true)
}

// Update applies patch on top of the stored protocol with the given id.
func (s *ProtocolService) Update(ctx context.Context, id string, patch domain.Patch) (domain.Protocol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.repo.Get(id)
	if !ok {
		return domain.Protocol{}, ErrNotFound
	}
	b := s.builder(&existing)
	if err := b.Apply(patch); err != nil {
		return domain.Protocol{}, rejected(err)
	}
	p, err := b.CommitEdit(existing)
	if err != nil {
		return domain.Protocol{}, rejected(err)
	}
	return s.store(ctx, p, false)
}

// Delete removes a protocol. Removing an absent id is not an error.
func (s *ProtocolService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.repo.Get(id); !ok {
		return nil
	}
	if s.archive != nil {
		if err := s.archive.Delete(ctx, id); err != nil {
			return fmt.Errorf("archive delete %s: %w", id, err)
		}
	}
	s.repo.Remove(id)
	metrics.ProtocolsRemoved.Inc()
	log.Info().Str("protocol", id).Msg("protocol removed")
	for _, n := range s.notifiers {
		if err := n.Removed(ctx, id); err != nil {
			log.Error().Err(err).Str("protocol", id).Msg("notify removed failed")
		}
	}
	return nil
}

// store puts p into the collection and mirrors the stored record into the
// archive. A failed archive write restores the previous collection.
func (s *ProtocolService) store(ctx context.Context, p domain.Protocol, created bool) (domain.Protocol, error) {
	prev := s.repo.List()
	if created {
		s.repo.Insert(p)
	} else {
		s.repo.Replace(p.ID(), p)
		p, _ = s.repo.Get(p.ID())
	}
	if s.archive != nil {
		if err := s.archive.Save(ctx, p); err != nil {
			s.repo.Load(prev)
			return domain.Protocol{}, fmt.Errorf("archive protocol %s: %w", p.ID(), err)
		}
	}

	kind := "updated"
	if created {
		kind = "created"
	}
	metrics.ProtocolsCommitted.WithLabelValues(kind).Inc()
	log.Info().Str("protocol", p.ID()).Str("anlage", p.Anlage()).Str("kind", kind).Msg("protocol committed")
	for _, n := range s.notifiers {
		if err := n.Committed(ctx, p, created); err != nil {
			log.Error().Err(err).Str("protocol", p.ID()).Msg("notify committed failed")
		}
	}
	return p, nil
}

// rejected counts validation failures by field. Row indexes are dropped
// from the label.
func rejected(err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		field := ve.Field
		if i := strings.IndexByte(field, '['); i >= 0 {
			if j := strings.IndexByte(field[i:], ']'); j >= 0 {
				field = field[:i] + field[i+j+1:]
			}
		}
		metrics.ValidationFailures.WithLabelValues(field).Inc()
	}
	return err
}

// BeginDraft starts a draft session, replacing any draft in progress. An
// empty id starts from the form defaults, otherwise from a copy of the
// stored protocol.
func (s *ProtocolService) BeginDraft(id string) (DraftView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.draft = &draftSession{builder: s.builder(nil)}
		return s.view(), nil
	}
	existing, ok := s.repo.Get(id)
	if !ok {
		return DraftView{}, ErrNotFound
	}
	s.draft = &draftSession{builder: s.builder(&existing), editing: existing.ID()}
	return s.view(), nil
}

func (s *ProtocolService) CurrentDraft() (DraftView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return DraftView{}, ErrNoDraft
	}
	return s.view(), nil
}

// EditDraft runs fn against the draft builder. The draft is left as fn
// leaves it even when fn fails.
func (s *ProtocolService) EditDraft(fn func(*domain.Builder) error) (DraftView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return DraftView{}, ErrNoDraft
	}
	if err := fn(s.draft.builder); err != nil {
		return DraftView{}, err
	}
	return s.view(), nil
}

func (s *ProtocolService) DiscardDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = nil
}

// SubmitDraft commits the draft. On success the session ends; on a
// validation failure the draft stays open for correction.
func (s *ProtocolService) SubmitDraft(ctx context.Context) (domain.Protocol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return domain.Protocol{}, ErrNoDraft
	}

	var (
		p   domain.Protocol
		err error
	)
	created := s.draft.editing == ""
	if created {
		p, err = s.draft.builder.Commit()
	} else {
		existing, ok := s.repo.Get(s.draft.editing)
		if !ok {
			return domain.Protocol{}, ErrNotFound
		}
		p, err = s.draft.builder.CommitEdit(existing)
	}
	if err != nil {
		return domain.Protocol{}, rejected(err)
	}
	if p, err = s.store(ctx, p, created); err != nil {
		return domain.Protocol{}, err
	}
	s.draft = nil
	return p, nil
}

func (s *ProtocolService) view() DraftView {
	return DraftView{ProtocolID: s.draft.editing, Draft: s.draft.builder.Draft()}
}
