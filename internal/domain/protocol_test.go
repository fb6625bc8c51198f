package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestInspectionKeys(t *testing.T) {
	keys := InspectionKeys()
	if len(keys) != 22 {
		t.Fatalf("got %d keys, want 22", len(keys))
	}
	seen := map[string]bool{}
	for _, k := range keys {
		name := k.String()
		if seen[name] {
			t.Errorf("duplicate key %q", name)
		}
		seen[name] = true
		if got, ok := ParseInspectionKey(name); !ok || got != k {
			t.Errorf("ParseInspectionKey(%q) = %v, %v", name, got, ok)
		}
		if k.Label() == "" || k.Group() == "" {
			t.Errorf("%s lacks label or group", name)
		}
	}
	if _, ok := ParseInspectionKey("gebaeude"); ok {
		t.Error("gebaeude must not be a key")
	}
}

func TestInspectionItems_JSON(t *testing.T) {
	var items InspectionItems
	items[ItemKabel] = StatusNIO

	data, err := json.Marshal(items)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if len(raw) != 22 || raw["kabel"] != "nio" || raw["rcd"] != "na" {
		t.Errorf("encoded = %s", data)
	}

	var partial InspectionItems
	if err := json.Unmarshal([]byte(`{"rcd":"io"}`), &partial); err != nil {
		t.Fatal(err)
	}
	if partial.Get(ItemRCD) != StatusIO || partial.Count(StatusNA) != 21 {
		t.Errorf("missing keys must become na: %v", partial)
	}

	var ve *ValidationError
	err = json.Unmarshal([]byte(`{"rcd":"io","phantom":"io"}`), &partial)
	if !errors.As(err, &ve) || ve.Reason != ReasonUnknownInspectionItem {
		t.Errorf("unknown key: got %v", err)
	}
}

func committed(t *testing.T) Protocol {
	t.Helper()
	b := validBuilder(t, WithClock(fixedClock(time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC))))
	b.SetField("bemerkung", "Prüfung ohne Beanstandung")
	b.SetMessgeraetField("kalibrierung", "2027-01-31")
	row := b.AddMeasurementRow()
	b.UpdateMeasurementField(row, "rcdAuslosezeittA", "23")
	b.SetInspectionItem("reinigung", StatusNIO)
	p, err := b.Commit()
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestProtocol_JSONRoundTrip(t *testing.T) {
	p := committed(t)

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"id"`, `"createdAt"`, `"updatedAt"`, `"besichtigungItems"`, `"rcdAuslosezeittA":"23"`, `"dguv_v3":true`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("document lacks %s: %s", key, data)
		}
	}

	var back Protocol
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.ID() != p.ID() || !back.CreatedAt().Equal(p.CreatedAt()) || !back.UpdatedAt().Equal(p.UpdatedAt()) {
		t.Errorf("identity lost: %s %v %v", back.ID(), back.CreatedAt(), back.UpdatedAt())
	}
	if !reflect.DeepEqual(back.Draft(), p.Draft()) {
		t.Errorf("content changed:\n%+v\n%+v", back.Draft(), p.Draft())
	}
}

func TestProtocol_UnmarshalValidates(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"no id", `{"auftraggeber":"A","auftragNr":"1","anlage":"X"}`, "id"},
		{"missing required", `{"id":"p1","auftraggeber":"A","anlage":"X"}`, "auftragNr"},
		{"row without id", `{"id":"p1","auftraggeber":"A","auftragNr":"1","anlage":"X","measurements":[{"posNr":"1"}]}`, "measurements[0].id"},
		{"duplicate row id", `{"id":"p1","auftraggeber":"A","auftragNr":"1","anlage":"X","measurements":[{"id":"m"},{"id":"m"}]}`, "measurements[1].id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Protocol
			err := json.Unmarshal([]byte(tt.doc), &p)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("got %v, want error on %s", err, tt.field)
			}
		})
	}
}

func TestProtocol_UnmarshalDefaults(t *testing.T) {
	var p Protocol
	if err := json.Unmarshal([]byte(`{"id":"p1","auftraggeber":"A","auftragNr":"1","anlage":"X"}`), &p); err != nil {
		t.Fatal(err)
	}
	d := p.Draft()
	if d.Netzspannung != "230/400" || !d.Pruefplakette || d.Measurements == nil {
		t.Errorf("defaults not applied: %+v", d)
	}
}

func TestProtocol_MarshalZero(t *testing.T) {
	if _, err := json.Marshal(Protocol{}); err == nil {
		t.Error("zero protocol must not marshal")
	}
}

func TestWithIdentity(t *testing.T) {
	p := committed(t)
	at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	q := p.WithIdentity("other", at, at)
	if q.ID() != "other" || !q.CreatedAt().Equal(at) || p.ID() == "other" {
		t.Errorf("WithIdentity: %s / %s", q.ID(), p.ID())
	}
	if !reflect.DeepEqual(q.Draft(), p.Draft()) {
		t.Error("content must be kept")
	}
}

func TestSortNewestFirst(t *testing.T) {
	base := committed(t)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ps := []Protocol{
		base.WithIdentity("a", t0, t0),
		base.WithIdentity("c", t0.Add(2*time.Hour), t0),
		base.WithIdentity("b", t0.Add(time.Hour), t0),
	}
	SortNewestFirst(ps)
	var got []string
	for _, p := range ps {
		got = append(got, p.ID())
	}
	if strings.Join(got, ",") != "c,b,a" {
		t.Errorf("order = %v", got)
	}
}

func TestRestore_RejectsUnknownStatus(t *testing.T) {
	d := committed(t).Draft()
	d.BesichtigungItems[ItemKabel] = InspectionStatus(7)

	_, err := Restore("p1", time.Now(), time.Now(), d)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "besichtigungItems.kabel" || ve.Reason != ReasonInvalidValue {
		t.Fatalf("got %v, want invalid value on besichtigungItems.kabel", err)
	}

	d.BesichtigungItems[ItemKabel] = StatusNIO
	p, err := Restore("p1", time.Now(), time.Now(), d)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := json.Marshal(p); err != nil {
		t.Errorf("restored protocol must marshal: %v", err)
	}
}
