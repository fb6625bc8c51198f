package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// InspectionStatus is the outcome of one checklist item. The zero value is
// StatusNA so a fresh checklist is fully populated.
type InspectionStatus uint8

const (
	StatusNA  InspectionStatus = iota // not applicable
	StatusIO                          // in order
	StatusNIO                         // not in order
)

var statusNames = [...]string{StatusNA: "na", StatusIO: "io", StatusNIO: "nio"}

func (s InspectionStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("InspectionStatus(%d)", uint8(s))
}

func (s InspectionStatus) Valid() bool { return int(s) < len(statusNames) }

// ParseInspectionStatus maps "io", "nio" or "na" to a status.
func ParseInspectionStatus(v string) (InspectionStatus, bool) {
	for i, name := range statusNames {
		if name == v {
			return InspectionStatus(i), true
		}
	}
	return StatusNA, false
}

func (s InspectionStatus) MarshalText() ([]byte, error) {
	if int(s) >= len(statusNames) {
		return nil, fmt.Errorf("invalid inspection status %d", uint8(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *InspectionStatus) UnmarshalText(text []byte) error {
	v, ok := ParseInspectionStatus(string(text))
	if !ok {
		return &ValidationError{Field: "status", Reason: ReasonInvalidValue}
	}
	*s = v
	return nil
}

// InspectionGroup separates visual inspection from functional testing.
type InspectionGroup string

const (
	GroupBesichtigung InspectionGroup = "besichtigung"
	GroupErproben     InspectionGroup = "erproben"
)

// InspectionKey identifies one item of the fixed checklist.
type InspectionKey int

const (
	ItemBetriebsmittel InspectionKey = iota
	ItemTrennSchalten
	ItemBrandabschottungen
	ItemGebaeudeTechnik
	ItemKabel
	ItemKennzeichnung
	ItemFunktionspruefung
	ItemRCD
	ItemSchraubverbindungen
	ItemKennzeichnungLeiter
	ItemLeiterverbindungen
	ItemSchutzeinrichtungen
	ItemBasisschutz
	ItemZugaenglichkeit
	ItemSchutzpotential
	ItemFunktionSchutz
	ItemDrehrichtung
	ItemSchutzpotentialZusatz
	ItemDokumentation
	ItemReinigung
	ItemRechtsdrehfeld
	ItemGebaeudeTechnikTest

	numInspectionKeys
)

type inspectionInfo struct {
	name  string
	label string
	group InspectionGroup
}

var inspectionInfos = [numInspectionKeys]inspectionInfo{
	ItemBetriebsmittel:        {"betriebsmittel", "Auswahl der Betriebsmittel", GroupBesichtigung},
	ItemTrennSchalten:         {"trennSchalten", "Trenn- und Schaltgeräte", GroupBesichtigung},
	ItemBrandabschottungen:    {"brandabschottungen", "Brandabschottungen", GroupBesichtigung},
	ItemGebaeudeTechnik:       {"gebaeudeTechnik", "Gebäudesystemtechnik", GroupBesichtigung},
	ItemKabel:                 {"kabel", "Kabel, Leitungen, Stromschienen", GroupBesichtigung},
	ItemKennzeichnung:         {"kennzeichnung", "Kennz., Stromkr., Betriebsmittel", GroupBesichtigung},
	ItemFunktionspruefung:     {"funktionspruefung", "Funktionsprüfung der Anlage", GroupErproben},
	ItemRCD:                   {"rcd", "RCD-Schutzschalter", GroupErproben},
	ItemSchraubverbindungen:   {"schraubverbindungen", "Schraubverb. u. Klemmstellen auf festen Sitz", GroupErproben},
	ItemKennzeichnungLeiter:   {"kennzeichnungLeiter", "Kennzeichnung N- und PE-Leiter", GroupBesichtigung},
	ItemLeiterverbindungen:    {"leiterverbindungen", "Leiterverbindungen", GroupBesichtigung},
	ItemSchutzeinrichtungen:   {"schutzeinrichtungen", "Schutz- und Überwachungseinrichtungen", GroupBesichtigung},
	ItemBasisschutz:           {"basisschutz", "Basisschutz, Schutz gegen direkt. Berühren", GroupBesichtigung},
	ItemZugaenglichkeit:       {"zugaenglichkeit", "Zugänglichkeit", GroupBesichtigung},
	ItemSchutzpotential:       {"schutzpotential", "Schutzpotentialausgleich", GroupBesichtigung},
	ItemFunktionSchutz:        {"funktionSchutz", "Funktion der Schutz-, Sicherheits- und Überwachungseinrichtungen", GroupErproben},
	ItemDrehrichtung:          {"drehrichtung", "Drehrichtung der Motoren", GroupErproben},
	ItemSchutzpotentialZusatz: {"schutzpotentialZusatz", "zus. örtl. Potentialausgleich", GroupBesichtigung},
	ItemDokumentation:         {"dokumentation", "Dokumentation", GroupBesichtigung},
	ItemReinigung:             {"reinigung", "Reinigung des Schaltschranks", GroupBesichtigung},
	ItemRechtsdrehfeld:        {"rechtsdrehfeld", "Rechtsdrehfelder der Drehstromsteckdose", GroupErproben},
	ItemGebaeudeTechnikTest:   {"gebaeudeTechnikTest", "Gebäudesystemtechnik", GroupErproben},
}

// InspectionKeys returns every checklist key in display order.
func InspectionKeys() []InspectionKey {
	keys := make([]InspectionKey, numInspectionKeys)
	for i := range keys {
		keys[i] = InspectionKey(i)
	}
	return keys
}

// ParseInspectionKey resolves the wire name of a checklist item.
func ParseInspectionKey(name string) (InspectionKey, bool) {
	for i, info := range inspectionInfos {
		if info.name == name {
			return InspectionKey(i), true
		}
	}
	return 0, false
}

func (k InspectionKey) valid() bool { return k >= 0 && k < numInspectionKeys }

func (k InspectionKey) String() string {
	if !k.valid() {
		return fmt.Sprintf("InspectionKey(%d)", int(k))
	}
	return inspectionInfos[k].name
}

// Label is the German caption printed on the report.
func (k InspectionKey) Label() string {
	if !k.valid() {
		return ""
	}
	return inspectionInfos[k].label
}

func (k InspectionKey) Group() InspectionGroup {
	if !k.valid() {
		return ""
	}
	return inspectionInfos[k].group
}

// InspectionItems maps every checklist key to a status. Being an array, it
// can neither miss a key nor hold an unknown one.
type InspectionItems [numInspectionKeys]InspectionStatus

func (it InspectionItems) Get(k InspectionKey) InspectionStatus {
	if !k.valid() {
		return StatusNA
	}
	return it[k]
}

// Count returns how many items carry the given status.
func (it InspectionItems) Count(s InspectionStatus) int {
	n := 0
	for _, v := range it {
		if v == s {
			n++
		}
	}
	return n
}

func (it InspectionItems) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range it {
		if i > 0 {
			buf.WriteByte(',')
		}
		if int(s) >= len(statusNames) {
			return nil, fmt.Errorf("invalid inspection status %d for %s", uint8(s), InspectionKey(i))
		}
		fmt.Fprintf(&buf, "%q:%q", inspectionInfos[i].name, statusNames[s])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON rejects unknown keys and fills missing ones with na.
func (it *InspectionItems) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out InspectionItems
	for name, v := range raw {
		k, ok := ParseInspectionKey(name)
		if !ok {
			return &ValidationError{Field: "besichtigungItems." + name, Reason: ReasonUnknownInspectionItem}
		}
		s, ok := ParseInspectionStatus(v)
		if !ok {
			return &ValidationError{Field: "besichtigungItems." + name, Reason: ReasonInvalidValue}
		}
		out[k] = s
	}
	*it = out
	return nil
}
