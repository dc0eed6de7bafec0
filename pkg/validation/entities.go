package validation

import (
	"fmt"

	"github.com/iwvelando/brrrr-analyzer/pkg/mathutil"
	"github.com/iwvelando/brrrr-analyzer/pkg/rules"
)

// Mortgage is the validated acquisition financing.
type Mortgage struct {
	LoanAmount                 float64 `json:"loanAmount"`
	DownPaymentPercent         float64 `json:"downPaymentPercent"`
	Rate                       float64 `json:"rate"`
	AmortizationYears          int     `json:"amortizationYears"`
	RequestedAmortizationYears int     `json:"requestedAmortizationYears"`
	AmortizationCapped         bool    `json:"amortizationCapped"`
	TermYears                  int     `json:"termYears"`
	IsInsured                  bool    `json:"isInsured"`
	IsMLISelect                bool    `json:"isMliSelect"`
	// PremiumRate is the CMHC premium applied to LoanAmount; 0 when none applies.
	PremiumRate float64 `json:"premiumRate"`
	// Notes explain the insurance decision.
	Notes []string `json:"notes,omitempty"`
}

// Refinance is the validated refinance plan.
type Refinance struct {
	TargetLTV         float64 `json:"targetLtv"`
	RequestedLTV      float64 `json:"requestedLtv"`
	Rate              float64 `json:"rate"`
	AmortizationYears int     `json:"amortizationYears"`
	AppraisalFee      float64 `json:"appraisalFee"`
	LegalFees         float64 `json:"legalFees"`
}

// CreateMortgageFromInput derives the acquisition mortgage from a resolved
// property. A high-ratio loan always has its amortization capped at the
// insured maximum, whatever was requested; the cap is not a violation.
func CreateMortgageFromInput(p Property, r rules.Rules) (Mortgage, Violations) {
	m := Mortgage{
		LoanAmount:                 p.PurchasePrice - p.PurchasePrice*mathutil.PercentToFraction(p.DownPaymentPercent),
		DownPaymentPercent:         p.DownPaymentPercent,
		Rate:                       p.MortgageRate,
		AmortizationYears:          p.AmortizationYears,
		RequestedAmortizationYears: p.AmortizationYears,
		TermYears:                  p.TermYears,
		IsMLISelect:                p.IsMLISelect,
	}

	violations := runRules(p, r, mortgageRules)

	if r.IsHighRatio(p.DownPaymentPercent) {
		if m.AmortizationYears > r.MaxInsuredAmortizationYears {
			m.AmortizationYears = r.MaxInsuredAmortizationYears
			m.AmortizationCapped = true
		}
		insured, rate, note, violation := insurance(p, r)
		m.IsInsured = insured
		m.PremiumRate = rate
		m.Notes = append(m.Notes, note)
		if violation != nil {
			violations = append(violations, *violation)
		}
	} else {
		m.Notes = append(m.Notes, fmt.Sprintf("Down payment of at least %.0f%%: no mortgage insurance required",
			r.InsuranceThresholdPercent))
	}

	return m, violations
}

// insurance decides how a high-ratio loan is insured.
func insurance(p Property, r rules.Rules) (insured bool, rate float64, note string, violation *Violation) {
	refuse := func(note string) (bool, float64, string, *Violation) {
		return false, 0, note, &Violation{
			Field:   "downPaymentPercent",
			Message: fmt.Sprintf("%s; a down payment of at least %.0f%% is required", note, r.InsuranceThresholdPercent),
		}
	}

	if p.IsMLISelect && p.TotalUnits >= r.MLISelectMinUnits {
		return true, 0, "MLI Select: multi-unit insurance, premium set by CMHC scoring and not included", nil
	}
	if !p.IsOwnerOccupied {
		return refuse("non-occupant investor loans cannot be insured")
	}
	if p.TotalUnits > r.MaxInsurableUnits {
		return refuse(fmt.Sprintf("%d+ units require commercial financing", r.MaxInsurableUnits+1))
	}
	if p.PurchasePrice > r.MaxInsurablePrice {
		return refuse(fmt.Sprintf("purchase price above %.0f is not insurable", r.MaxInsurablePrice))
	}
	premium, ok := r.CMHCPremiumRate(p.DownPaymentPercent)
	if !ok {
		return refuse(fmt.Sprintf("down payment below the %.0f%% insurable minimum", r.MinDownPaymentPercent))
	}
	return true, premium, fmt.Sprintf("CMHC premium %.2f%% for a %.2f%% down payment", premium*100, p.DownPaymentPercent), nil
}

// CreateRefinanceFromInput derives the refinance plan. The target LTV is
// capped at the regulatory ceiling; exceeding it is also a violation.
func CreateRefinanceFromInput(p Property, r rules.Rules) (Refinance, Violations) {
	requested := mathutil.PercentToFraction(p.RefinanceLTVPercent)
	ref := Refinance{
		TargetLTV:         requested,
		RequestedLTV:      requested,
		Rate:              p.RefinanceRate,
		AmortizationYears: p.RefinanceAmortYears,
		AppraisalFee:      p.RefinanceAppraisalFee,
		LegalFees:         p.RefinanceLegalFees,
	}
	if ref.TargetLTV > r.RefinanceMaxLTV {
		ref.TargetLTV = r.RefinanceMaxLTV
	}
	return ref, runRules(p, r, refinanceRules)
}
