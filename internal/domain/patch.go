package domain

import (
	"fmt"
	"maps"
	"slices"
)

// Patch is a batch of form edits, as sent by a client that submits a whole
// form at once. Nil members are left untouched. When Measurements is non-nil
// it replaces the row list: rows carrying a known "id" keep their identity,
// all others are added as new rows.
type Patch struct {
	Fields            map[string]string           `json:"fields,omitempty"`
	Pruefplakette     *bool                       `json:"pruefplakette,omitempty"`
	BesichtigungItems map[string]InspectionStatus `json:"besichtigungItems,omitempty"`
	Standards         map[string]bool             `json:"standards,omitempty"`
	Messgeraet        map[string]string           `json:"messgeraet,omitempty"`
	Measurements      []map[string]string         `json:"measurements,omitempty"`
}

// Apply runs the patch through the builder's setters. It is all or nothing:
// on error the draft is unchanged.
func (b *Builder) Apply(p Patch) error {
	scratch := *b
	scratch.draft = b.draft.clone()
	if err := scratch.apply(p); err != nil {
		return err
	}
	b.draft = scratch.draft
	return nil
}

func (b *Builder) apply(p Patch) error {
	for _, name := range slices.Sorted(maps.Keys(p.Fields)) {
		if err := b.SetField(name, p.Fields[name]); err != nil {
			return err
		}
	}
	if p.Pruefplakette != nil {
		b.SetPruefplakette(*p.Pruefplakette)
	}
	for _, key := range slices.Sorted(maps.Keys(p.BesichtigungItems)) {
		if err := b.SetInspectionItem(key, p.BesichtigungItems[key]); err != nil {
			return err
		}
	}
	for _, name := range slices.Sorted(maps.Keys(p.Standards)) {
		if err := b.SetStandard(name, p.Standards[name]); err != nil {
			return err
		}
	}
	for _, name := range slices.Sorted(maps.Keys(p.Messgeraet)) {
		if err := b.SetMessgeraetField(name, p.Messgeraet[name]); err != nil {
			return err
		}
	}
	if p.Measurements != nil {
		return b.applyRows(p.Measurements)
	}
	return nil
}

func (b *Builder) applyRows(rows []map[string]string) error {
	previous := b.draft.Measurements
	seen := make(map[string]bool, len(rows))
	out := make([]Measurement, 0, len(rows))
	for i, values := range rows {
		var row Measurement
		id := values["id"]
		if j := slices.IndexFunc(previous, func(m Measurement) bool { return m.ID == id }); id != "" && j >= 0 && !seen[id] {
			row = previous[j]
		} else {
			row = NewMeasurement(b.newID())
		}
		seen[row.ID] = true
		for _, name := range slices.Sorted(maps.Keys(values)) {
			if name == "id" {
				continue
			}
			f, ok := lookup(measurementFields, name)
			if !ok {
				return &ValidationError{Field: fmt.Sprintf("measurements[%d].%s", i, name), Reason: ReasonUnknownField}
			}
			*f.ref(&row) = values[name]
		}
		out = append(out, row)
	}
	b.draft.Measurements = out
	return nil
}
