package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"
)

// Standards records which test standards were applied.
type Standards struct {
	VDE0100_700  bool `json:"vde0100_700"`
	VDE0100_0600 bool `json:"vde0100_0600"`
	VDE0105_0100 bool `json:"vde0105_0100"`
	DGUVV3       bool `json:"dguv_v3"`
}

func (s *Standards) ref(name string) (*bool, bool) {
	switch name {
	case "vde0100_700":
		return &s.VDE0100_700, true
	case "vde0100_0600":
		return &s.VDE0100_0600, true
	case "vde0105_0100":
		return &s.VDE0105_0100, true
	case "dguv_v3":
		return &s.DGUVV3, true
	}
	return nil, false
}

// Messgeraet identifies the test instrument used for the measurements.
type Messgeraet struct {
	Fabrikat     string `json:"fabrikat"`
	Typ          string `json:"typ"`
	IdentNr      string `json:"identNr"`
	Kalibrierung string `json:"kalibrierung"`
}

var messgeraetFields = []field[Messgeraet]{
	{"fabrikat", 100, func(m *Messgeraet) *string { return &m.Fabrikat }},
	{"typ", 100, func(m *Messgeraet) *string { return &m.Typ }},
	{"identNr", 50, func(m *Messgeraet) *string { return &m.IdentNr }},
	{"kalibrierung", 0, func(m *Messgeraet) *string { return &m.Kalibrierung }},
}

// Draft is the unchecked content of a protocol while it is being edited.
// Only Builder.Commit, Builder.CommitEdit and Restore turn it into a Protocol.
type Draft struct {
	Auftraggeber  string `json:"auftraggeber"`
	AuftragNr     string `json:"auftragNr"`
	KundenNr      string `json:"kundenNr"`
	Auftragnehmer string `json:"auftragnehmer"`

	Ort     string `json:"ort"`
	Adresse string `json:"adresse"`

	Anlage     string   `json:"anlage"`
	InventarNr string   `json:"inventarNr"`
	TestType   TestType `json:"testType"`

	Netzspannung  string   `json:"netzspannung"`
	Netzform      Netzform `json:"netzform"`
	Netzbetreiber string   `json:"netzbetreiber"`

	BesichtigungItems InspectionItems `json:"besichtigungItems"`
	Standards         Standards       `json:"standards"`
	Messgeraet        Messgeraet      `json:"messgeraet"`

	Ergebnis         Ergebnis `json:"ergebnis"`
	Pruefplakette    bool     `json:"pruefplakette"`
	NaechstePruefung string   `json:"naechstePruefung"`
	Bemerkung        string   `json:"bemerkung"`

	Measurements          []Measurement `json:"measurements"`
	StromkreisverteilerNr string        `json:"stromkreisverteilerNr"`
	Einspeisung           string        `json:"einspeisung"`
	Erdungswiderstand     string        `json:"erdungswiderstand"`
}

// DefaultDraft returns the values a blank inspection form starts with.
func DefaultDraft() Draft {
	return Draft{
		TestType:     TestWiederholungspruefung,
		Netzspannung: "230/400",
		Netzform:     NetzTNCS,
		Standards: Standards{
			VDE0100_700:  true,
			VDE0100_0600: true,
			DGUVV3:       true,
		},
		Ergebnis:      ErgebnisKeineMaengel,
		Pruefplakette: true,
		Measurements:  []Measurement{},
	}
}

func (d Draft) clone() Draft {
	d.Measurements = slices.Clone(d.Measurements)
	if d.Measurements == nil {
		d.Measurements = []Measurement{}
	}
	return d
}

func (d *Draft) row(id string) int {
	return slices.IndexFunc(d.Measurements, func(m Measurement) bool { return m.ID == id })
}

// draftFields lists the scalar fields settable by name, in validation order.
var draftFields = []field[Draft]{
	{"auftraggeber", 200, func(d *Draft) *string { return &d.Auftraggeber }},
	{"auftragNr", 50, func(d *Draft) *string { return &d.AuftragNr }},
	{"kundenNr", 50, func(d *Draft) *string { return &d.KundenNr }},
	{"auftragnehmer", 200, func(d *Draft) *string { return &d.Auftragnehmer }},
	{"ort", 200, func(d *Draft) *string { return &d.Ort }},
	{"adresse", 300, func(d *Draft) *string { return &d.Adresse }},
	{"anlage", 100, func(d *Draft) *string { return &d.Anlage }},
	{"inventarNr", 50, func(d *Draft) *string { return &d.InventarNr }},
	{"testType", 0, func(d *Draft) *string { return (*string)(&d.TestType) }},
	{"netzspannung", 20, func(d *Draft) *string { return &d.Netzspannung }},
	{"netzform", 0, func(d *Draft) *string { return (*string)(&d.Netzform) }},
	{"netzbetreiber", 200, func(d *Draft) *string { return &d.Netzbetreiber }},
	{"ergebnis", 0, func(d *Draft) *string { return (*string)(&d.Ergebnis) }},
	{"naechstePruefung", 0, func(d *Draft) *string { return &d.NaechstePruefung }},
	{"bemerkung", 2000, func(d *Draft) *string { return &d.Bemerkung }},
	{"stromkreisverteilerNr", 50, func(d *Draft) *string { return &d.StromkreisverteilerNr }},
	{"einspeisung", 100, func(d *Draft) *string { return &d.Einspeisung }},
	{"erdungswiderstand", 20, func(d *Draft) *string { return &d.Erdungswiderstand }},
}

// Protocol is a committed, validated inspection report. Its zero value is
// not a valid record; values come from Builder.Commit, Builder.CommitEdit or
// Restore.
type Protocol struct {
	id        string
	createdAt time.Time
	updatedAt time.Time
	draft     Draft
}

// Restore rebuilds a protocol from stored parts, validating the content.
func Restore(id string, createdAt, updatedAt time.Time, d Draft) (Protocol, error) {
	if id == "" {
		return Protocol{}, &ValidationError{Field: "id", Reason: ReasonRequired}
	}
	if err := d.Validate(); err != nil {
		return Protocol{}, err
	}
	if err := checkRowIDs(d.Measurements); err != nil {
		return Protocol{}, err
	}
	return Protocol{id: id, createdAt: createdAt, updatedAt: updatedAt, draft: d.clone()}, nil
}

func checkRowIDs(rows []Measurement) error {
	seen := make(map[string]struct{}, len(rows))
	for i, m := range rows {
		name := fmt.Sprintf("measurements[%d].id", i)
		if m.ID == "" {
			return &ValidationError{Field: name, Reason: ReasonRequired}
		}
		if _, dup := seen[m.ID]; dup {
			return &ValidationError{Field: name, Reason: ReasonInvalidValue}
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}

func (p Protocol) ID() string { return p.id }
func (p Protocol) CreatedAt() time.Time { return p.createdAt }
func (p Protocol) UpdatedAt() time.Time { return p.updatedAt }
func (p Protocol) IsZero() bool { return p.id == "" }

func (p Protocol) Auftraggeber() string { return p.draft.Auftraggeber }
func (p Protocol) AuftragNr() string { return p.draft.AuftragNr }
func (p Protocol) Anlage() string { return p.draft.Anlage }
func (p Protocol) Ergebnis() Ergebnis { return p.draft.Ergebnis }
func (p Protocol) NaechstePruefung() string { return p.draft.NaechstePruefung }

// Draft returns a copy of the protocol's content, e.g. to seed an edit.
func (p Protocol) Draft() Draft { return p.draft.clone() }

// WithIdentity returns a copy carrying the given identity and timestamps.
// The content stays validated.
func (p Protocol) WithIdentity(id string, createdAt, updatedAt time.Time) Protocol {
	p.id = id
	p.createdAt = createdAt
	p.updatedAt = updatedAt
	p.draft = p.draft.clone()
	return p
}

type protocolDocument struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Draft
}

func (p Protocol) MarshalJSON() ([]byte, error) {
	if p.IsZero() {
		return nil, errors.New("marshal zero protocol")
	}
	return json.Marshal(protocolDocument{
		ID:        p.id,
		CreatedAt: p.createdAt,
		UpdatedAt: p.updatedAt,
		Draft:     p.draft.clone(),
	})
}

// UnmarshalJSON decodes an exported or archived protocol. Absent fields take
// their defaults and the result is validated like a commit.
func (p *Protocol) UnmarshalJSON(data []byte) error {
	doc := protocolDocument{Draft: DefaultDraft()}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	restored, err := Restore(doc.ID, doc.CreatedAt, doc.UpdatedAt, doc.Draft)
	if err != nil {
		return err
	}
	*p = restored
	return nil
}

// SortNewestFirst orders protocols by creation time, newest first.
func SortNewestFirst(ps []Protocol) {
	slices.SortStableFunc(ps, func(a, b Protocol) int {
		return b.createdAt.Compare(a.createdAt)
	})
}
