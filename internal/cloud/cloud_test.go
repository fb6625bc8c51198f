package cloud

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"github.com/elektroprotokolle/pruefprotokoll/internal/domain"
)

func commit(t *testing.T, patch domain.Patch) domain.Protocol {
	t.Helper()
	b := domain.NewBuilder(nil,
		domain.WithIDGenerator(func() string { return "p-1" }),
		domain.WithClock(func() time.Time { return time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC) }))
	base := domain.Patch{Fields: map[string]string{
		"auftraggeber": "Volkswagen AG",
		"auftragNr":    "1406",
		"anlage":       "LVUM-123",
	}}
	if err := b.Apply(base); err != nil {
		t.Fatal(err)
	}
	if err := b.Apply(patch); err != nil {
		t.Fatal(err)
	}
	p, err := b.Commit()
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDefectAlert(t *testing.T) {
	p := commit(t, domain.Patch{
		Fields: map[string]string{"ergebnis": "maengel", "ort": "Wolfsburg", "bemerkung": "RCD löst nicht aus"},
		BesichtigungItems: map[string]domain.InspectionStatus{
			"rcd":   domain.StatusNIO,
			"kabel": domain.StatusIO,
		},
	})

	subject, message := defectAlert(p)
	if subject != "Prüfprotokoll: Mängel an LVUM-123" {
		t.Errorf("subject = %q", subject)
	}
	for _, want := range []string{"Anlage: LVUM-123", "Ort: Wolfsburg", "Protokoll-ID: p-1", "- RCD-Schutzschalter", "RCD löst nicht aus", "Geprüft: 2026-05-06"} {
		if !strings.Contains(message, want) {
			t.Errorf("message lacks %q:\n%s", want, message)
		}
	}
	if strings.Contains(message, "Kabel, Leitungen") {
		t.Errorf("items in order must not be listed:\n%s", message)
	}
}

func TestExportKey(t *testing.T) {
	p := commit(t, domain.Patch{})
	if got := ExportKey(p); got != "protocols/p-1/pruefprotokoll_LVUM-123_2026-05-06.json" {
		t.Errorf("ExportKey = %q", got)
	}
}

func TestProtocolItem_RoundTrip(t *testing.T) {
	p := commit(t, domain.Patch{
		Fields:       map[string]string{"ergebnis": "maengel"},
		Measurements: []map[string]string{{"posNr": "1", "zsOhm": "0.38"}},
	})

	it, err := newProtocolItem(p)
	if err != nil {
		t.Fatal(err)
	}
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := av["protocolId"]; !ok {
		t.Fatalf("item lacks key attribute: %v", av)
	}

	var decoded protocolItem
	if err := attributevalue.UnmarshalMap(av, &decoded); err != nil {
		t.Fatal(err)
	}
	back, err := decoded.protocol()
	if err != nil {
		t.Fatal(err)
	}
	if back.ID() != p.ID() || !reflect.DeepEqual(back.Draft(), p.Draft()) {
		t.Errorf("round trip changed the protocol")
	}
	if decoded.Ergebnis != "maengel" || decoded.Anlage != "LVUM-123" {
		t.Errorf("summary attributes = %+v", decoded)
	}

	if _, err := (protocolItem{ProtocolID: "x"}).protocol(); err == nil {
		t.Error("item without document must fail")
	}
}
