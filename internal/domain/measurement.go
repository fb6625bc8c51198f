package domain

// Measurement is one circuit row of the measurement table. Values are kept
// verbatim; nothing here interprets them as numbers.
type Measurement struct {
	ID string `json:"id"`

	PosNr              string `json:"posNr"`
	Nr                 string `json:"nr"`
	Zielbezeichnung    string `json:"zielbezeichnung"`
	LeitungTyp         string `json:"leitungTyp"`
	LeitungAnzahl      string `json:"leitungAnzahl"`
	LeitungQuerschnitt string `json:"leitungQuerschnitt"`

	Un                   string `json:"un"`
	Fn                   string `json:"fn"`
	SchutzArt            string `json:"schutzArt"`
	SchutzCharakteristik string `json:"schutzCharakteristik"`
	SchutzIn             string `json:"schutzIn"`
	ZsOhm                string `json:"zsOhm"`
	ZnOhm                string `json:"znOhm"`
	IkKa                 string `json:"ikKa"`

	RisoOhne string `json:"risoOhne"`
	RisoMit  string `json:"risoMit"`

	RcdArt            string `json:"rcdArt"`
	RcdRpe            string `json:"rcdRpe"`
	RcdIn             string `json:"rcdIn"`
	RcdIDeltaN        string `json:"rcdIDeltaN"`
	RcdImess          string `json:"rcdImess"`
	RcdAusloesezeitIn string `json:"rcdAusloesezeitIn"`
	RcdAuslosezeittA  string `json:"rcdAuslosezeittA"`
	RcdUl             string `json:"rcdUl"`
	RcdUmess          string `json:"rcdUmess"`
	RcdDiffstrom      string `json:"rcdDiffstrom"`
}

// NewMeasurement returns an empty row for a 230 V / 50 Hz circuit.
func NewMeasurement(id string) Measurement {
	return Measurement{ID: id, Un: "230", Fn: "50"}
}

type measurementField = field[Measurement]

var measurementFields = []measurementField{
	{"posNr", 50, func(m *Measurement) *string { return &m.PosNr }},
	{"nr", 20, func(m *Measurement) *string { return &m.Nr }},
	{"zielbezeichnung", 100, func(m *Measurement) *string { return &m.Zielbezeichnung }},
	{"leitungTyp", 50, func(m *Measurement) *string { return &m.LeitungTyp }},
	{"leitungAnzahl", 10, func(m *Measurement) *string { return &m.LeitungAnzahl }},
	{"leitungQuerschnitt", 20, func(m *Measurement) *string { return &m.LeitungQuerschnitt }},
	{"un", 10, func(m *Measurement) *string { return &m.Un }},
	{"fn", 10, func(m *Measurement) *string { return &m.Fn }},
	{"schutzArt", 20, func(m *Measurement) *string { return &m.SchutzArt }},
	{"schutzCharakteristik", 20, func(m *Measurement) *string { return &m.SchutzCharakteristik }},
	{"schutzIn", 10, func(m *Measurement) *string { return &m.SchutzIn }},
	{"zsOhm", 10, func(m *Measurement) *string { return &m.ZsOhm }},
	{"znOhm", 10, func(m *Measurement) *string { return &m.ZnOhm }},
	{"ikKa", 10, func(m *Measurement) *string { return &m.IkKa }},
	{"risoOhne", 20, func(m *Measurement) *string { return &m.RisoOhne }},
	{"risoMit", 20, func(m *Measurement) *string { return &m.RisoMit }},
	{"rcdArt", 20, func(m *Measurement) *string { return &m.RcdArt }},
	{"rcdRpe", 10, func(m *Measurement) *string { return &m.RcdRpe }},
	{"rcdIn", 10, func(m *Measurement) *string { return &m.RcdIn }},
	{"rcdIDeltaN", 10, func(m *Measurement) *string { return &m.RcdIDeltaN }},
	{"rcdImess", 10, func(m *Measurement) *string { return &m.RcdImess }},
	{"rcdAusloesezeitIn", 10, func(m *Measurement) *string { return &m.RcdAusloesezeitIn }},
	{"rcdAuslosezeittA", 10, func(m *Measurement) *string { return &m.RcdAuslosezeittA }},
	{"rcdUl", 10, func(m *Measurement) *string { return &m.RcdUl }},
	{"rcdUmess", 10, func(m *Measurement) *string { return &m.RcdUmess }},
	{"rcdDiffstrom", 10, func(m *Measurement) *string { return &m.RcdDiffstrom }},
}

// MeasurementFieldNames lists the editable columns in table order.
func MeasurementFieldNames() []string {
	names := make([]string, len(measurementFields))
	for i, f := range measurementFields {
		names[i] = f.name
	}
	return names
}
