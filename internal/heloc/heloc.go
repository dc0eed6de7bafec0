// Package heloc computes how much home-equity credit a property supports
// under the BSIF dual ceiling: revolving (interest-only) credit up to 65% of
// value, total borrowing up to 80%. Anything between the two ceilings must
// be an amortized loan.
package heloc

import (
	"math"

	"github.com/iwvelando/brrrr-analyzer/pkg/mathutil"
	"github.com/iwvelando/brrrr-analyzer/pkg/rules"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
)

// Input is the raw capacity request.
type Input struct {
	CurrentPropertyValue   *float64 `json:"currentPropertyValue" yaml:"currentPropertyValue" shape:"required,finite,gte=0"`
	CurrentMortgageBalance *float64 `json:"currentMortgageBalance" yaml:"currentMortgageBalance" shape:"required,finite,gte=0"`
	CurrentHelocBalance    *float64 `json:"currentHelocBalance,omitempty" yaml:"currentHelocBalance,omitempty" shape:"omitempty,finite,gte=0"`
}

// Result is the equity available under each ceiling.
type Result struct {
	MaxLTVTotal               float64 `json:"maxLtvTotal"`
	MaxLTVRotating            float64 `json:"maxLtvRotating"`
	MaxTotalBorrowing         float64 `json:"maxTotalBorrowing"`
	MaxRotatingCredit         float64 `json:"maxRotatingCredit"`
	TotalEquity               float64 `json:"totalEquity"`
	AvailableEquityAtRotating float64 `json:"availableEquityAtRotating"`
	AvailableEquityAtTotal    float64 `json:"availableEquityAtTotal"`
	RecommendedHelocLimit     float64 `json:"recommendedHelocLimit"`
	CanAccessRotating         bool    `json:"canAccessRotating"`
	CurrentLTV                float64 `json:"currentLtv"`
	AfterHelocLTV             float64 `json:"afterHelocLtv"`
}

// Capacity validates in and computes its capacity.
func Capacity(in Input, r rules.Rules) (Result, error) {
	if err := validation.CheckShape(in); err != nil {
		return Result{}, err
	}
	helocBalance := 0.0
	if in.CurrentHelocBalance != nil {
		helocBalance = *in.CurrentHelocBalance
	}
	return Calculate(*in.CurrentPropertyValue, *in.CurrentMortgageBalance, helocBalance, r), nil
}

// Calculate computes capacity from already-validated amounts.
func Calculate(propertyValue, mortgageBalance, helocBalance float64, r rules.Rules) Result {
	debt := mortgageBalance + helocBalance
	maxTotal := propertyValue * r.RefinanceMaxLTV
	maxRotating := propertyValue * r.HelocRotatingMaxLTV

	availableRotating := math.Max(0, maxRotating-debt)
	availableTotal := math.Max(0, maxTotal-debt)
	canAccessRotating := debt <= maxRotating

	recommended := 0.0
	if canAccessRotating {
		recommended = availableRotating
	}

	return Result{
		MaxLTVTotal:               r.RefinanceMaxLTV,
		MaxLTVRotating:            r.HelocRotatingMaxLTV,
		MaxTotalBorrowing:         mathutil.Round(maxTotal),
		MaxRotatingCredit:         mathutil.Round(maxRotating),
		TotalEquity:               mathutil.Round(propertyValue - debt),
		AvailableEquityAtRotating: mathutil.Round(availableRotating),
		AvailableEquityAtTotal:    mathutil.Round(availableTotal),
		RecommendedHelocLimit:     mathutil.Round(recommended),
		CanAccessRotating:         canAccessRotating,
		CurrentLTV:                mathutil.RoundTo(mathutil.SafeDivide(debt, propertyValue), 4),
		AfterHelocLTV:             mathutil.RoundTo(mathutil.SafeDivide(debt+availableTotal, propertyValue), 4),
	}
}
