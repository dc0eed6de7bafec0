package transfertax

// Municipality identifies a transfer-tax bracket table.
type Municipality string

// Supported municipalities.
const (
	Montreal      Municipality = "MONTREAL"
	QuebecCity    Municipality = "QUEBEC_CITY"
	Laval         Municipality = "LAVAL"
	Longueuil     Municipality = "LONGUEUIL"
	Gatineau      Municipality = "GATINEAU"
	Sherbrooke    Municipality = "SHERBROOKE"
	TroisRivieres Municipality = "TROIS_RIVIERES"
	OtherQuebec   Municipality = "OTHER_QC"
)

// DefaultMunicipality is used for unknown codes.
const DefaultMunicipality = OtherQuebec

// Bracket is one band of a progressive table. Upper is 0 for the
// open-ended top bracket.
type Bracket struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper,omitempty" yaml:"upper,omitempty"`
	Rate  float64 `json:"rate" yaml:"rate"`
}

// Surtax applies Rate to the portion of the price above Threshold, on top
// of the bracket tax.
type Surtax struct {
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Rate      float64 `json:"rate" yaml:"rate"`
}

// Table is a municipality's welcome-tax schedule.
type Table struct {
	Municipality Municipality `json:"municipality" yaml:"municipality"`
	Name         string       `json:"name" yaml:"name"`
	Brackets     []Bracket    `json:"brackets" yaml:"brackets"`
	Surtaxes     []Surtax     `json:"surtaxes,omitempty" yaml:"surtaxes,omitempty"`
}

// 2025 thresholds, indexed yearly by the province.
var (
	provincialBrackets = []Bracket{
		{Lower: 0, Upper: 55200, Rate: 0.005},
		{Lower: 55200, Upper: 276200, Rate: 0.01},
		{Lower: 276200, Rate: 0.015},
	}

	largeCityBrackets = []Bracket{
		{Lower: 0, Upper: 55200, Rate: 0.005},
		{Lower: 55200, Upper: 276200, Rate: 0.01},
		{Lower: 276200, Upper: 500000, Rate: 0.015},
		{Lower: 500000, Rate: 0.02},
	}

	tables = map[Municipality]Table{
		Montreal: {
			Municipality: Montreal,
			Name:         "Montréal",
			Brackets: []Bracket{
				{Lower: 0, Upper: 58900, Rate: 0.005},
				{Lower: 58900, Upper: 294500, Rate: 0.01},
				{Lower: 294500, Upper: 500000, Rate: 0.015},
				{Lower: 500000, Upper: 1000000, Rate: 0.02},
				{Lower: 1000000, Upper: 2000000, Rate: 0.025},
				{Lower: 2000000, Rate: 0.03},
			},
			Surtaxes: []Surtax{{Threshold: 2136600, Rate: 0.005}},
		},
		QuebecCity:    {Municipality: QuebecCity, Name: "Québec", Brackets: largeCityBrackets},
		Laval:         {Municipality: Laval, Name: "Laval", Brackets: largeCityBrackets},
		Longueuil:     {Municipality: Longueuil, Name: "Longueuil", Brackets: largeCityBrackets},
		Gatineau:      {Municipality: Gatineau, Name: "Gatineau", Brackets: provincialBrackets},
		Sherbrooke:    {Municipality: Sherbrooke, Name: "Sherbrooke", Brackets: provincialBrackets},
		TroisRivieres: {Municipality: TroisRivieres, Name: "Trois-Rivières", Brackets: provincialBrackets},
		OtherQuebec:   {Municipality: OtherQuebec, Name: "Other (Québec)", Brackets: provincialBrackets},
	}
)

// Lookup returns the table for m, falling back to the default table.
// ok reports whether m was known.
func Lookup(m Municipality) (table Table, ok bool) {
	table, ok = tables[m]
	if !ok {
		table = tables[DefaultMunicipality]
	}
	return table, ok
}

// IsKnown reports whether m has its own table.
func IsKnown(m Municipality) bool {
	_, ok := tables[m]
	return ok
}

// Municipalities lists every supported code in a stable order.
func Municipalities() []Municipality {
	return []Municipality{Montreal, QuebecCity, Laval, Longueuil, Gatineau, Sherbrooke, TroisRivieres, OtherQuebec}
}
