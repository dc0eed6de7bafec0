package brrrr

import (
	"math"

	"github.com/iwvelando/brrrr-analyzer/pkg/constants"
	"github.com/iwvelando/brrrr-analyzer/pkg/mathutil"
	"github.com/iwvelando/brrrr-analyzer/pkg/mortgage"
	"github.com/iwvelando/brrrr-analyzer/pkg/rules"
	"github.com/iwvelando/brrrr-analyzer/pkg/transfertax"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
	"github.com/rotisserie/eris"
)

// acquisition computes the buy phase.
func acquisition(p validation.Property, m validation.Mortgage, r rules.Rules) (Acquisition, error) {
	downPayment := p.PurchasePrice * mathutil.PercentToFraction(p.DownPaymentPercent)

	premium := 0.0
	if m.IsInsured {
		premium = m.LoanAmount * m.PremiumRate
	}
	premiumTax := premium * r.PremiumSalesTaxRate

	closing := ClosingCosts{
		TransferTax:     transfertax.Calculate(p.PurchasePrice, p.Municipality),
		NotaryFees:      p.NotaryFees,
		InspectionFees:  p.InspectionFees,
		Other:           p.OtherClosingCosts,
		CMHCPremium:     premium,
		CMHCPremiumTax:  premiumTax,
		FinancedPremium: premium > 0,
	}
	closing.Total = closing.TransferTax + closing.NotaryFees + closing.InspectionFees + closing.Other + closing.CMHCPremiumTax

	initialMortgage := m.LoanAmount + premium
	payment, err := mortgage.MonthlyPayment(initialMortgage, m.Rate, m.AmortizationYears)
	if err != nil {
		return Acquisition{}, eris.Wrap(err, "initial mortgage payment")
	}

	return newAcquisition(Acquisition{
		PurchasePrice:          p.PurchasePrice,
		DownPaymentPercent:     p.DownPaymentPercent,
		DownPaymentAmount:      downPayment,
		ClosingCosts:           closing,
		IsInsured:              m.IsInsured,
		CMHCPremiumRate:        m.PremiumRate,
		LoanAmount:             m.LoanAmount,
		InitialMortgageAmount:  initialMortgage,
		MortgageRate:           m.Rate,
		AmortizationYears:      m.AmortizationYears,
		InitialMonthlyPayment:  payment,
		TotalCashAtAcquisition: downPayment + closing.Total,
	})
}

// renovation computes the rehab phase. While the work is under way the
// property carries its mortgage payment, taxes and insurance without rent.
// Financed budgets also carry interest on the average drawn balance, half
// of the total budget.
func renovation(p validation.Property, acq Acquisition) (Renovation, error) {
	contingency := p.RenovationBudget * mathutil.PercentToFraction(p.RenovationContingencyPercent)
	total := p.RenovationBudget + contingency

	holding := acq.InitialMonthlyPayment + (p.MunicipalTaxes+p.SchoolTaxes+p.InsuranceAnnual)/constants.MonthsPerYear

	var cash, financed, financing float64
	if p.RenoFinancingType == validation.FinancingCash {
		cash = total
	} else {
		financed = total
		financing = mortgage.InterestOnlyPayment(total/2, p.RenoFinancingRate)
	}
	monthly := holding + financing

	return newRenovation(Renovation{
		BudgetBase:           p.RenovationBudget,
		ContingencyPercent:   p.RenovationContingencyPercent,
		Contingency:          contingency,
		TotalBudget:          total,
		DurationMonths:       p.RenovationDurationMonths,
		FinancingType:        p.RenoFinancingType,
		FinancingRate:        p.RenoFinancingRate,
		CashRequired:         cash,
		FinancedAmount:       financed,
		MonthlyHoldingCost:   holding,
		MonthlyFinancingCost: financing,
		MonthlyCarryCost:     monthly,
		TotalCarryCost:       monthly * float64(p.RenovationDurationMonths),
	})
}

// rental computes the stabilized operating figures. Maintenance and
// management are charged on effective income.
func rental(p validation.Property) (Rental, error) {
	vacancy := p.ProjectedMonthlyRent * mathutil.PercentToFraction(p.VacancyRatePercent)
	income := p.ProjectedMonthlyRent - vacancy

	expenses := OperatingExpenses{
		MunicipalTaxes: p.MunicipalTaxes / constants.MonthsPerYear,
		SchoolTaxes:    p.SchoolTaxes / constants.MonthsPerYear,
		Insurance:      p.InsuranceAnnual / constants.MonthsPerYear,
		Maintenance:    income * mathutil.PercentToFraction(p.MaintenancePercent),
		Management:     income * mathutil.PercentToFraction(p.ManagementPercent),
		Utilities:      p.UtilitiesMonthly,
	}
	expenses.Total = expenses.MunicipalTaxes + expenses.SchoolTaxes + expenses.Insurance +
		expenses.Maintenance + expenses.Management + expenses.Utilities

	noi := income - expenses.Total
	return newRental(Rental{
		GrossMonthlyRent:     p.ProjectedMonthlyRent,
		VacancyRatePercent:   p.VacancyRatePercent,
		VacancyLoss:          vacancy,
		EffectiveGrossIncome: income,
		OperatingExpenses:    expenses,
		MonthlyNOI:           noi,
		AnnualNOI:            noi * constants.MonthsPerYear,
	})
}

// refinance computes the refinance phase. The loans repaid at refinance are
// the initial mortgage, amortized through the renovation and seasoning
// months, and whatever renovation debt was drawn.
func refinance(p validation.Property, ref validation.Refinance, acq Acquisition, reno Renovation, totalCashInvested float64, r rules.Rules) (Refinance, error) {
	newLoan := p.AfterRepairValue * ref.TargetLTV
	rotating := math.Min(newLoan, p.AfterRepairValue*r.HelocRotatingMaxLTV)
	amortized := newLoan - rotating

	rotatingInterest := mortgage.InterestOnlyPayment(rotating, ref.Rate)
	amortizedPayment, err := mortgage.MonthlyPayment(amortized, ref.Rate, ref.AmortizationYears)
	if err != nil {
		return Refinance{}, eris.Wrap(err, "amortized portion payment")
	}

	months := p.RenovationDurationMonths + p.SeasoningMonths
	remaining, err := mortgage.RemainingBalance(acq.InitialMortgageAmount, acq.MortgageRate, acq.AmortizationYears, months)
	if err != nil {
		return Refinance{}, eris.Wrap(err, "initial mortgage balance at refinance")
	}
	outstanding := remaining + reno.FinancedAmount

	costs := ref.AppraisalFee + ref.LegalFees
	gross := newLoan - outstanding - costs

	return newRefinance(Refinance{
		AfterRepairValue:        p.AfterRepairValue,
		RequestedLTV:            ref.RequestedLTV,
		TargetLTV:               ref.TargetLTV,
		MaxLTVRotating:          r.HelocRotatingMaxLTV,
		NewLoanAmount:           newLoan,
		RotatingPortion:         rotating,
		AmortizedPortion:        amortized,
		Rate:                    ref.Rate,
		AmortizationYears:       ref.AmortizationYears,
		RotatingMonthlyInterest: rotatingInterest,
		AmortizedMonthlyPayment: amortizedPayment,
		TotalMonthlyDebtService: rotatingInterest + amortizedPayment,
		AppraisalFee:            ref.AppraisalFee,
		LegalFees:               ref.LegalFees,
		TotalCosts:              costs,
		MonthsToRefinance:       months,
		OutstandingBalance:      outstanding,
		GrossCashOut:            gross,
		NetCashOut:              gross - totalCashInvested,
	})
}
