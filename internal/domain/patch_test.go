package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestApply(t *testing.T) {
	b := NewBuilder(nil, WithIDGenerator(sequentialIDs()))
	off := false

	err := b.Apply(Patch{
		Fields: map[string]string{
			"auftraggeber": "Volkswagen AG",
			"auftragNr":    "1406",
			"anlage":       "LVUM-7",
			"netzform":     "TT",
		},
		Pruefplakette:     &off,
		BesichtigungItems: map[string]InspectionStatus{"rcd": StatusIO},
		Standards:         map[string]bool{"dguv_v3": false},
		Messgeraet:        map[string]string{"fabrikat": "Fluke", "typ": "1654b"},
		Measurements: []map[string]string{
			{"posNr": "1", "zsOhm": "0.42"},
			{"posNr": "2"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	d := b.Draft()
	if d.Anlage != "LVUM-7" || d.Netzform != NetzTT || d.Pruefplakette {
		t.Errorf("scalars not applied: %+v", d)
	}
	if d.BesichtigungItems.Get(ItemRCD) != StatusIO {
		t.Error("inspection item not applied")
	}
	if d.Standards.DGUVV3 {
		t.Error("standard not applied")
	}
	if d.Messgeraet.Fabrikat != "Fluke" || d.Messgeraet.Typ != "1654b" {
		t.Errorf("messgeraet = %+v", d.Messgeraet)
	}
	if len(d.Measurements) != 2 || d.Measurements[0].ZsOhm != "0.42" || d.Measurements[1].Un != "230" {
		t.Errorf("measurements = %+v", d.Measurements)
	}
}

func TestApply_KeepsRowIdentity(t *testing.T) {
	b := NewBuilder(nil, WithIDGenerator(sequentialIDs()))
	keep := b.AddMeasurementRow()
	drop := b.AddMeasurementRow()
	b.UpdateMeasurementField(keep, "nr", "F1")

	err := b.Apply(Patch{Measurements: []map[string]string{
		{"id": keep, "zsOhm": "0.3"},
		{"id": "unknown"},
	}})
	if err != nil {
		t.Fatal(err)
	}

	rows := b.Draft().Measurements
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].ID != keep || rows[0].Nr != "F1" || rows[0].ZsOhm != "0.3" {
		t.Errorf("kept row = %+v", rows[0])
	}
	if rows[1].ID == drop || rows[1].ID == "unknown" {
		t.Errorf("unmatched row must get a fresh id, got %q", rows[1].ID)
	}
}

func TestApply_Atomic(t *testing.T) {
	b := NewBuilder(nil)
	before := b.Draft()

	err := b.Apply(Patch{
		Fields:            map[string]string{"anlage": "LVUM-1"},
		BesichtigungItems: map[string]InspectionStatus{"erdung": StatusIO},
	})
	wantValidation(t, err, "besichtigungItems.erdung", ReasonUnknownInspectionItem)
	if !reflect.DeepEqual(before, b.Draft()) {
		t.Error("failed patch changed the draft")
	}

	err = b.Apply(Patch{Measurements: []map[string]string{{"posNr": "1"}, {"spannung": "230"}}})
	wantValidation(t, err, "measurements[1].spannung", ReasonUnknownField)
	if len(b.Draft().Measurements) != 0 {
		t.Error("failed patch added rows")
	}
}

func TestPatch_DecodeStatus(t *testing.T) {
	var p Patch
	if err := json.Unmarshal([]byte(`{"besichtigungItems":{"kabel":"nio"}}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.BesichtigungItems["kabel"] != StatusNIO {
		t.Errorf("kabel = %v", p.BesichtigungItems["kabel"])
	}
	if err := json.Unmarshal([]byte(`{"besichtigungItems":{"kabel":"ok"}}`), &p); err == nil {
		t.Error("invalid status should fail to decode")
	}
}
