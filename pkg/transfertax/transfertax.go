// Package transfertax computes the Québec land transfer duty ("welcome tax")
// from per-municipality progressive bracket tables.
package transfertax

import (
	"math"
	"strings"

	"github.com/iwvelando/brrrr-analyzer/pkg/format"
	"github.com/iwvelando/brrrr-analyzer/pkg/mathutil"
)

// BracketLine is the tax owed within one bracket.
type BracketLine struct {
	Range         string  `json:"range"`
	Rate          string  `json:"rate"`
	TaxableAmount float64 `json:"taxableAmount"`
	Tax           float64 `json:"tax"`
}

// Breakdown details a transfer-tax computation.
type Breakdown struct {
	Municipality  Municipality  `json:"municipality"`
	Name          string        `json:"name"`
	PurchasePrice float64       `json:"purchasePrice"`
	Brackets      []BracketLine `json:"brackets"`
	AdditionalTax float64       `json:"additionalTax"`
	TotalTax      float64       `json:"totalTax"`
}

// Calculate returns the transfer tax on price, rounded to cents. Unknown
// municipalities use the default table.
func Calculate(price float64, m Municipality) float64 {
	table, _ := Lookup(m)
	bracketTax, additional := table.tax(price, nil)
	return mathutil.Round(bracketTax + additional)
}

// CalculateBreakdown returns the per-bracket detail. TotalTax always equals
// Calculate(price, m).
func CalculateBreakdown(price float64, m Municipality) Breakdown {
	table, _ := Lookup(m)
	lines := make([]BracketLine, 0, len(table.Brackets))
	bracketTax, additional := table.tax(price, func(b Bracket, taxable, tax float64) {
		lines = append(lines, BracketLine{
			Range:         b.label(),
			Rate:          format.Percent(b.Rate),
			TaxableAmount: mathutil.Round(taxable),
			Tax:           mathutil.Round(tax),
		})
	})
	return Breakdown{
		Municipality:  table.Municipality,
		Name:          table.Name,
		PurchasePrice: price,
		Brackets:      lines,
		AdditionalTax: mathutil.Round(additional),
		TotalTax:      mathutil.Round(bracketTax + additional),
	}
}

// tax walks the brackets the price enters, reporting each through visit
// when it is non-nil.
func (t Table) tax(price float64, visit func(b Bracket, taxable, tax float64)) (bracketTax, additional float64) {
	if price <= 0 || !mathutil.IsFinite(price) {
		return 0, 0
	}
	for _, b := range t.Brackets {
		if price <= b.Lower {
			break
		}
		upper := b.Upper
		if upper == 0 {
			upper = math.Inf(1)
		}
		taxable := math.Min(price, upper) - b.Lower
		if taxable <= 0 {
			continue
		}
		tax := taxable * b.Rate
		bracketTax += tax
		if visit != nil {
			visit(b, taxable, tax)
		}
	}
	for _, s := range t.Surtaxes {
		if price > s.Threshold {
			additional += (price - s.Threshold) * s.Rate
		}
	}
	return bracketTax, additional
}

func (b Bracket) label() string {
	if b.Upper == 0 {
		return format.WholeCurrency(b.Lower) + "+"
	}
	return format.WholeCurrency(b.Lower) + " - " + format.WholeCurrency(b.Upper)
}

// MunicipalityFromPostalCode maps the forward sortation area of a Canadian
// postal code to a municipality.
func MunicipalityFromPostalCode(postalCode string) Municipality {
	prefix := strings.ToUpper(strings.TrimSpace(postalCode))
	switch {
	case strings.HasPrefix(prefix, "H7"):
		return Laval
	case strings.HasPrefix(prefix, "H"):
		return Montreal
	case strings.HasPrefix(prefix, "G1"), strings.HasPrefix(prefix, "G2"):
		return QuebecCity
	case strings.HasPrefix(prefix, "J8"), strings.HasPrefix(prefix, "J9"):
		return Gatineau
	case strings.HasPrefix(prefix, "J4"):
		return Longueuil
	case strings.HasPrefix(prefix, "J1"):
		return Sherbrooke
	case strings.HasPrefix(prefix, "G8"), strings.HasPrefix(prefix, "G9"):
		return TroisRivieres
	}
	return OtherQuebec
}
