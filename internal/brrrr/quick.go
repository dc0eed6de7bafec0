package brrrr

import (
	"github.com/iwvelando/brrrr-analyzer/pkg/constants"
	"github.com/iwvelando/brrrr-analyzer/pkg/mathutil"
	"github.com/iwvelando/brrrr-analyzer/pkg/mortgage"
	"github.com/iwvelando/brrrr-analyzer/pkg/rules"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
	"github.com/rotisserie/eris"
)

// Rules of thumb used by quick metrics.
const (
	QuickClosingCostRate  = 0.02
	QuickClosingCostFixed = 5000.0
	QuickNOIRatio         = 0.70
)

// QuickInput is the handful of figures needed to compare deals at a glance.
type QuickInput struct {
	PurchasePrice    *float64 `json:"purchasePrice" yaml:"purchasePrice" shape:"required,finite,gt=0"`
	RenovationBudget *float64 `json:"renovationBudget" yaml:"renovationBudget" shape:"required,finite,gte=0"`
	MonthlyRent      *float64 `json:"monthlyRent" yaml:"monthlyRent" shape:"required,finite,gte=0"`
	AfterRepairValue *float64 `json:"afterRepairValue" yaml:"afterRepairValue" shape:"required,finite,gt=0"`
	MortgageRate     *float64 `json:"mortgageRate,omitempty" yaml:"mortgageRate,omitempty" shape:"omitempty,finite,gte=0"`
}

// QuickMetrics is a rough BRRRR estimate: the uninsured down payment,
// closing costs of 2% plus $5,000, NOI at 70% of rent and a refinance at
// the maximum LTV with the whole new loan amortized.
type QuickMetrics struct {
	TotalInvestment  float64  `json:"totalInvestment"`
	NewLoanAmount    float64  `json:"newLoanAmount"`
	CashOut          float64  `json:"cashOut"`
	MonthlyCashflow  float64  `json:"monthlyCashflow"`
	CashOnCash       *float64 `json:"cashOnCash"`
	IsInfiniteReturn bool     `json:"isInfiniteReturn"`
	CapRate          float64  `json:"capRate"`
}

// QuickMetrics estimates a deal from in using the engine's rules and
// assumptions.
func (e *Engine) QuickMetrics(in QuickInput) (QuickMetrics, error) {
	if err := validation.CheckShape(in); err != nil {
		return QuickMetrics{}, err
	}
	rate := e.assumptions.MortgageRate
	if in.MortgageRate != nil {
		rate = *in.MortgageRate
	}
	return Quick(*in.PurchasePrice, *in.RenovationBudget, *in.MonthlyRent, *in.AfterRepairValue,
		rate, e.assumptions.RefinanceAmortYears, e.rules.Snapshot())
}

// Quick computes quick metrics from plain figures.
func Quick(price, renovationBudget, monthlyRent, arv, rate float64, amortizationYears int, r rules.Rules) (QuickMetrics, error) {
	downPaymentRate := mathutil.PercentToFraction(r.InsuranceThresholdPercent)
	downPayment := price * downPaymentRate
	closing := price*QuickClosingCostRate + QuickClosingCostFixed
	investment := downPayment + closing + renovationBudget

	annualNOI := monthlyRent * constants.MonthsPerYear * QuickNOIRatio
	newLoan := arv * r.RefinanceMaxLTV
	payment, err := mortgage.MonthlyPayment(newLoan, rate, amortizationYears)
	if err != nil {
		return QuickMetrics{}, eris.Wrap(err, "quick refinance payment")
	}
	annualCashflow := annualNOI - payment*constants.MonthsPerYear

	debtBeforeRefinance := price*(1-downPaymentRate) + renovationBudget
	cashOut := newLoan - debtBeforeRefinance
	left := investment - cashOut

	q := QuickMetrics{
		TotalInvestment:  mathutil.Round(investment),
		NewLoanAmount:    mathutil.Round(newLoan),
		CashOut:          mathutil.Round(cashOut),
		MonthlyCashflow:  mathutil.Round(annualCashflow / constants.MonthsPerYear),
		IsInfiniteReturn: left <= 0,
		CapRate:          returnOf(annualNOI, arv),
	}
	if !q.IsInfiniteReturn {
		coc := returnOf(annualCashflow, left)
		q.CashOnCash = &coc
	}
	return q, nil
}
