// Package mortgage implements Canadian mortgage arithmetic. Fixed-rate
// mortgages in Canada quote a nominal annual rate compounded semi-annually,
// so every monthly figure here is derived from the effective monthly rate
// (1 + r/2)^(1/6) - 1 rather than r/12.
package mortgage

import (
	"math"

	"github.com/iwvelando/brrrr-analyzer/pkg/constants"
	"github.com/iwvelando/brrrr-analyzer/pkg/mathutil"
	"github.com/rotisserie/eris"
)

// ErrInvalidMortgageParameters is returned for negative, non-finite or
// zero-length inputs.
var ErrInvalidMortgageParameters = eris.New("invalid mortgage parameters")

// MonthlyEffectiveRate converts a nominal annual rate compounded
// semi-annually into the equivalent monthly rate.
func MonthlyEffectiveRate(annualNominalRate float64) float64 {
	semiAnnual := annualNominalRate / constants.CompoundingPeriodsPerYear
	return math.Pow(1+semiAnnual, float64(constants.CompoundingPeriodsPerYear)/constants.MonthsPerYear) - 1
}

// MonthlyPayment returns the blended principal and interest payment that
// amortizes principal over amortizationYears. A zero rate returns
// principal / (amortizationYears*12) and a zero principal returns 0.
func MonthlyPayment(principal, annualNominalRate float64, amortizationYears int) (float64, error) {
	if err := checkParameters(principal, annualNominalRate, amortizationYears); err != nil {
		return 0, err
	}
	if principal == 0 {
		return 0, nil
	}

	periods := float64(amortizationYears * constants.MonthsPerYear)
	if annualNominalRate == 0 {
		return principal / periods, nil
	}

	monthlyRate := MonthlyEffectiveRate(annualNominalRate)
	growth := math.Pow(1+monthlyRate, periods)
	if math.IsInf(growth, 1) {
		// growth/(growth-1) has reached its limit of 1
		return principal * monthlyRate, nil
	}
	return principal * monthlyRate * growth / (growth - 1), nil
}

// InterestOnlyPayment returns one month of interest on balance, as charged
// on the rotating (HELOC) portion of a readvanceable mortgage.
func InterestOnlyPayment(balance, annualNominalRate float64) float64 {
	if balance <= 0 || annualNominalRate <= 0 || !mathutil.IsFinite(balance) || !mathutil.IsFinite(annualNominalRate) {
		return 0
	}
	return balance * MonthlyEffectiveRate(annualNominalRate)
}

// DebtServiceCoverage returns annualNOI / annualDebtService rounded to two
// decimals, or 0 when there is no debt service.
func DebtServiceCoverage(annualNOI, annualDebtService float64) float64 {
	if annualDebtService <= 0 {
		return 0
	}
	return mathutil.RoundRatio(annualNOI / annualDebtService)
}

// RemainingBalance returns the outstanding principal after monthsElapsed
// regular payments.
func RemainingBalance(principal, annualNominalRate float64, amortizationYears, monthsElapsed int) (float64, error) {
	if monthsElapsed < 0 {
		return 0, eris.Wrapf(ErrInvalidMortgageParameters, "months elapsed %d is negative", monthsElapsed)
	}
	payment, err := MonthlyPayment(principal, annualNominalRate, amortizationYears)
	if err != nil {
		return 0, err
	}
	monthlyRate := MonthlyEffectiveRate(annualNominalRate)

	balance := principal
	for month := 0; month < monthsElapsed; month++ {
		balance -= payment - balance*monthlyRate
		if balance <= constants.CurrencyTolerance {
			return 0, nil
		}
	}
	return balance, nil
}

// MaxPrincipalForDSCR returns the largest loan whose payment keeps the
// coverage ratio at targetDSCR for the given annual NOI.
func MaxPrincipalForDSCR(annualNOI, targetDSCR, annualNominalRate float64, amortizationYears int) (float64, error) {
	if targetDSCR <= 0 || !mathutil.IsFinite(targetDSCR) || !mathutil.IsFinite(annualNOI) {
		return 0, eris.Wrapf(ErrInvalidMortgageParameters, "target DSCR %v with NOI %v", targetDSCR, annualNOI)
	}
	if err := checkParameters(0, annualNominalRate, amortizationYears); err != nil {
		return 0, err
	}
	if annualNOI <= 0 {
		return 0, nil
	}

	maxMonthlyPayment := annualNOI / targetDSCR / constants.MonthsPerYear
	periods := float64(amortizationYears * constants.MonthsPerYear)
	if annualNominalRate == 0 {
		return math.Floor(maxMonthlyPayment * periods), nil
	}
	monthlyRate := MonthlyEffectiveRate(annualNominalRate)
	growth := math.Pow(1+monthlyRate, periods)
	if math.IsInf(growth, 1) {
		return math.Floor(maxMonthlyPayment / monthlyRate), nil
	}
	return math.Floor(maxMonthlyPayment * (growth - 1) / (monthlyRate * growth)), nil
}

func checkParameters(principal, annualNominalRate float64, amortizationYears int) error {
	switch {
	case !mathutil.IsFinite(principal) || principal < 0:
		return eris.Wrapf(ErrInvalidMortgageParameters, "principal %v", principal)
	case !mathutil.IsFinite(annualNominalRate) || annualNominalRate < 0:
		return eris.Wrapf(ErrInvalidMortgageParameters, "annual rate %v", annualNominalRate)
	case amortizationYears <= 0:
		return eris.Wrapf(ErrInvalidMortgageParameters, "amortization %d years", amortizationYears)
	}
	return nil
}
