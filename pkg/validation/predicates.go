package validation

import (
	"fmt"

	"github.com/iwvelando/brrrr-analyzer/pkg/mathutil"
	"github.com/iwvelando/brrrr-analyzer/pkg/rules"
)

// Rule is one cross-field business rule. Check returns false and a
// violation when the rule is broken.
type Rule struct {
	Name  string
	Check func(p Property, r rules.Rules) (Violation, bool)
}

// Rules are evaluated in slice order so violations are reported in a
// stable order.
var (
	propertyRules = []Rule{
		{Name: "minimumDownPayment", Check: minimumDownPayment},
	}

	mortgageRules = []Rule{
		{Name: "amortizationRange", Check: amortizationRange},
		{Name: "standardAmortization", Check: standardAmortization},
		{Name: "termRange", Check: termRange},
		{Name: "mliSelectUnits", Check: mliSelectUnits},
		{Name: "mliSelectDownPayment", Check: mliSelectDownPayment},
	}

	refinanceRules = []Rule{
		{Name: "refinanceLtvRange", Check: refinanceLTVRange},
		{Name: "refinanceAmortization", Check: refinanceAmortization},
	}
)

func runRules(p Property, r rules.Rules, set []Rule) Violations {
	var violations Violations
	for _, rule := range set {
		if v, ok := rule.Check(p, r); !ok {
			violations = append(violations, v)
		}
	}
	return violations
}

func minimumDownPayment(p Property, r rules.Rules) (Violation, bool) {
	// MLI Select reports its own down payment rule
	if !p.IsMLISelect && p.DownPaymentPercent < r.MinDownPaymentPercent {
		return Violation{
			Field:   "downPaymentPercent",
			Message: fmt.Sprintf("minimum down payment is %.0f%%", r.MinDownPaymentPercent),
		}, false
	}
	return Violation{}, true
}

func amortizationRange(p Property, r rules.Rules) (Violation, bool) {
	if p.AmortizationYears < r.MinAmortizationYears || p.AmortizationYears > r.MLISelectMaxAmortizationYears {
		return Violation{
			Field: "amortizationYears",
			Message: fmt.Sprintf("amortization must be between %d and %d years",
				r.MinAmortizationYears, r.MLISelectMaxAmortizationYears),
		}, false
	}
	return Violation{}, true
}

func standardAmortization(p Property, r rules.Rules) (Violation, bool) {
	if !p.IsMLISelect && p.AmortizationYears > r.StandardMaxAmortizationYears &&
		p.AmortizationYears <= r.MLISelectMaxAmortizationYears {
		return Violation{
			Field:   "amortizationYears",
			Message: fmt.Sprintf("amortization max %d years without MLI Select", r.StandardMaxAmortizationYears),
		}, false
	}
	return Violation{}, true
}

func termRange(p Property, r rules.Rules) (Violation, bool) {
	if p.TermYears < r.MinTermYears || p.TermYears > r.MaxTermYears {
		return Violation{
			Field:   "termYears",
			Message: fmt.Sprintf("term must be between %d and %d years", r.MinTermYears, r.MaxTermYears),
		}, false
	}
	return Violation{}, true
}

func mliSelectUnits(p Property, r rules.Rules) (Violation, bool) {
	if p.IsMLISelect && p.TotalUnits < r.MLISelectMinUnits {
		return Violation{
			Field:   "isMliSelect",
			Message: fmt.Sprintf("MLI Select requires at least %d units", r.MLISelectMinUnits),
		}, false
	}
	return Violation{}, true
}

func mliSelectDownPayment(p Property, r rules.Rules) (Violation, bool) {
	if p.IsMLISelect && p.DownPaymentPercent < r.MinDownPaymentPercent {
		return Violation{
			Field:   "downPaymentPercent",
			Message: fmt.Sprintf("MLI Select requires a down payment of at least %.0f%%", r.MinDownPaymentPercent),
		}, false
	}
	return Violation{}, true
}

func refinanceLTVRange(p Property, r rules.Rules) (Violation, bool) {
	ltv := mathutil.PercentToFraction(p.RefinanceLTVPercent)
	if ltv < r.RefinanceMinLTV || ltv > r.RefinanceMaxLTV {
		return Violation{
			Field: "refinanceLtvPercent",
			Message: fmt.Sprintf("refinance LTV must be between %.0f%% and %.0f%%",
				r.RefinanceMinLTV*100, r.RefinanceMaxLTV*100),
		}, false
	}
	return Violation{}, true
}

func refinanceAmortization(p Property, r rules.Rules) (Violation, bool) {
	if p.RefinanceAmortYears > r.RefinanceMaxAmortizationYears {
		return Violation{
			Field:   "refinanceAmortYears",
			Message: fmt.Sprintf("refinance amortization max %d years", r.RefinanceMaxAmortizationYears),
		}, false
	}
	return Violation{}, true
}
