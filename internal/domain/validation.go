package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	ReasonRequired              = "required"
	ReasonMaxLength             = "max length"
	ReasonUnknownField          = "unknown field"
	ReasonUnknownInspectionItem = "unknown inspection item"
	ReasonInvalidValue          = "invalid value"
	ReasonInvalidDate           = "invalid date"
)

// DateLayout is the calendar date format used for kalibrierung and
// naechstePruefung.
const DateLayout = "2006-01-02"

// ValidationError reports the first field of a draft that failed a check.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// field describes one string-valued attribute of T. max == 0 means the
// length is not bounded.
type field[T any] struct {
	name string
	max  int
	ref  func(*T) *string
}

func lookup[T any](fields []field[T], name string) (field[T], bool) {
	for _, f := range fields {
		if f.name == name {
			return f, true
		}
	}
	return field[T]{}, false
}

func checkLength[T any](v *T, fields []field[T], prefix string) error {
	for _, f := range fields {
		if f.max > 0 && utf8.RuneCountInString(*f.ref(v)) > f.max {
			return &ValidationError{Field: prefix + f.name, Reason: ReasonMaxLength}
		}
	}
	return nil
}

func checkDate(name, v string) error {
	if v == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, v); err != nil {
		return &ValidationError{Field: name, Reason: ReasonInvalidDate}
	}
	return nil
}

// Validate runs the commit checks in a fixed order and returns the first
// violation: required fields, then lengths, then enumerations, then dates.
func (d *Draft) Validate() error {
	for _, req := range []struct {
		name  string
		value string
	}{
		{"auftraggeber", d.Auftraggeber},
		{"auftragNr", d.AuftragNr},
		{"anlage", d.Anlage},
	} {
		if req.value == "" {
			return &ValidationError{Field: req.name, Reason: ReasonRequired}
		}
	}

	if err := checkLength(d, draftFields, ""); err != nil {
		return err
	}
	if err := checkLength(&d.Messgeraet, messgeraetFields, "messgeraet."); err != nil {
		return err
	}
	for i := range d.Measurements {
		if err := checkLength(&d.Measurements[i], measurementFields, fmt.Sprintf("measurements[%d].", i)); err != nil {
			return err
		}
	}

	switch {
	case !d.TestType.Valid():
		return &ValidationError{Field: "testType", Reason: ReasonInvalidValue}
	case !d.Netzform.Valid():
		return &ValidationError{Field: "netzform", Reason: ReasonInvalidValue}
	case !d.Ergebnis.Valid():
		return &ValidationError{Field: "ergebnis", Reason: ReasonInvalidValue}
	}
	for i, status := range d.BesichtigungItems {
		if !status.Valid() {
			return &ValidationError{Field: "besichtigungItems." + InspectionKey(i).String(), Reason: ReasonInvalidValue}
		}
	}

	if err := checkDate("messgeraet.kalibrierung", d.Messgeraet.Kalibrierung); err != nil {
		return err
	}
	return checkDate("naechstePruefung", d.NaechstePruefung)
}
