package brrrr

import (
	"fmt"

	"github.com/iwvelando/brrrr-analyzer/pkg/constants"
	"github.com/iwvelando/brrrr-analyzer/pkg/format"
	"github.com/iwvelando/brrrr-analyzer/pkg/mathutil"
	"github.com/iwvelando/brrrr-analyzer/pkg/mortgage"
	"github.com/iwvelando/brrrr-analyzer/pkg/rules"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
	"github.com/rotisserie/eris"
)

// MinCashOnCash is the return below which a deal is flagged as weak.
const MinCashOnCash = 0.05

// totalCashInvested is everything the investor pays out of pocket before
// the refinance.
func totalCashInvested(acq Acquisition, reno Renovation) float64 {
	return mathutil.Round(acq.TotalCashAtAcquisition + reno.CashRequired + reno.TotalCarryCost)
}

// kpis derives the investment indicators from the four stages.
func kpis(ref validation.Refinance, invested float64, rent Rental, refi Refinance, r rules.Rules) (KPIs, error) {
	monthlyCashflow := rent.MonthlyNOI - refi.TotalMonthlyDebtService
	annualCashflow := monthlyCashflow * constants.MonthsPerYear
	cashLeft := -refi.NetCashOut
	equity := refi.AfterRepairValue - refi.NewLoanAmount

	k := KPIs{
		TotalCashInvested:  invested,
		CashExtracted:      mathutil.Round(max(0, refi.GrossCashOut)),
		CashLeftInDeal:     mathutil.Round(cashLeft),
		EquityInDeal:       mathutil.Round(equity),
		MonthlyNOI:         rent.MonthlyNOI,
		MonthlyDebtService: refi.TotalMonthlyDebtService,
		MonthlyCashflow:    mathutil.Round(monthlyCashflow),
		AnnualCashflow:     mathutil.Round(annualCashflow),
		IsInfiniteReturn:   cashLeft <= 0,
	}

	if !k.IsInfiniteReturn {
		coc := returnOf(annualCashflow, cashLeft)
		k.CashOnCash = &coc
		roe := coc
		k.ReturnOnEquity = &roe
	}
	if invested > 0 {
		k.ReturnOnInvestment = returnOf(annualCashflow, invested)
	}
	k.CapRate = returnOf(rent.AnnualNOI, refi.AfterRepairValue)
	k.GrossRentMultiplier = mathutil.RoundRatio(mathutil.SafeDivide(refi.AfterRepairValue, rent.GrossMonthlyRent*constants.MonthsPerYear))

	k.DSCR = mortgage.DebtServiceCoverage(rent.AnnualNOI, refi.TotalMonthlyDebtService*constants.MonthsPerYear)
	k.MeetsMinDCR = k.DSCR >= r.MinCommercialDSCR

	k.StressTestRate = r.StressTestRate(ref.Rate)
	stressPayment, err := mortgage.MonthlyPayment(refi.NewLoanAmount, k.StressTestRate, ref.AmortizationYears)
	if err != nil {
		return KPIs{}, eris.Wrap(err, "stress test payment")
	}
	k.StressMonthlyPayment = mathutil.Round(stressPayment)
	stressedAnnual := k.StressMonthlyPayment * constants.MonthsPerYear
	k.StressDSCR = mortgage.DebtServiceCoverage(rent.AnnualNOI, stressedAnnual)
	k.PassesStressTest = rent.AnnualNOI >= stressedAnnual

	return k, nil
}

// returnOf divides and rounds to the return precision; 0 when the base is 0.
func returnOf(numerator, base float64) float64 {
	return mathutil.RoundTo(mathutil.SafeDivide(numerator, base), constants.ReturnDecimalPlaces)
}

// warnings lists the findings that do not invalidate a result, in a fixed
// order.
func warnings(p validation.Property, k KPIs, r rules.Rules) []string {
	var out []string
	if p.TotalUnits >= r.MLISelectMinUnits && !k.MeetsMinDCR {
		out = append(out, fmt.Sprintf("DSCR of %s is below the %s minimum for %d+ units",
			format.Ratio(k.DSCR), format.Ratio(r.MinCommercialDSCR), r.MLISelectMinUnits))
	}
	if !k.PassesStressTest {
		out = append(out, fmt.Sprintf("Negative cashflow at the stress test rate (%s)", format.Percent(k.StressTestRate)))
	}
	if k.MonthlyCashflow < 0 {
		out = append(out, "Negative cashflow: the property costs money every month")
	}
	if k.CashOnCash != nil && *k.CashOnCash < MinCashOnCash {
		out = append(out, fmt.Sprintf("Cash-on-cash return below %s: weak return", format.Percent(MinCashOnCash)))
	}
	return out
}

// mliSelect compares the refinance payment at its standard amortization
// with the MLI Select maximum. Only 5+ unit buildings get a block.
func mliSelect(p validation.Property, ref validation.Refinance, refi Refinance, r rules.Rules) (*MLISelect, error) {
	if p.TotalUnits < r.MLISelectMinUnits {
		return nil, nil
	}
	standard, err := mortgage.MonthlyPayment(refi.NewLoanAmount, ref.Rate, ref.AmortizationYears)
	if err != nil {
		return nil, eris.Wrap(err, "standard amortization payment")
	}
	extended, err := mortgage.MonthlyPayment(refi.NewLoanAmount, ref.Rate, r.MLISelectMaxAmortizationYears)
	if err != nil {
		return nil, eris.Wrap(err, "MLI Select amortization payment")
	}
	return &MLISelect{
		Eligible:                   p.DownPaymentPercent >= r.MinDownPaymentPercent,
		StandardAmortizationYears:  ref.AmortizationYears,
		PotentialAmortizationYears: r.MLISelectMaxAmortizationYears,
		StandardMonthlyPayment:     mathutil.Round(standard),
		MLIMonthlyPayment:          mathutil.Round(extended),
		PotentialCashflowIncrease:  mathutil.Round(standard - extended),
		MaxLTV:                     r.MLISelectMaxLTV,
	}, nil
}
