package domain

// TestType is the reason an installation is inspected.
type TestType string

const (
	TestNeuanlage             TestType = "neuanlage"
	TestErweiterung           TestType = "erweiterung"
	TestAenderung             TestType = "aenderung"
	TestInstandsetzung        TestType = "instandsetzung"
	TestWiederholungspruefung TestType = "wiederholungspruefung"
)

func (t TestType) Valid() bool {
	switch t {
	case TestNeuanlage, TestErweiterung, TestAenderung, TestInstandsetzung, TestWiederholungspruefung:
		return true
	}
	return false
}

// Netzform is the earthing configuration of the supply network.
type Netzform string

const (
	NetzTNC  Netzform = "TN-C"
	NetzTNS  Netzform = "TN-S"
	NetzTNCS Netzform = "TN-C-S"
	NetzTT   Netzform = "TT"
	NetzIT   Netzform = "IT"
)

func (n Netzform) Valid() bool {
	switch n {
	case NetzTNC, NetzTNS, NetzTNCS, NetzTT, NetzIT:
		return true
	}
	return false
}

// Ergebnis is the final verdict of an inspection.
type Ergebnis string

const (
	ErgebnisKeineMaengel Ergebnis = "keine-maengel"
	ErgebnisMaengel      Ergebnis = "maengel"
)

func (e Ergebnis) Valid() bool {
	return e == ErgebnisKeineMaengel || e == ErgebnisMaengel
}
