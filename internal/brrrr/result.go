package brrrr

import (
	"math"

	"github.com/iwvelando/brrrr-analyzer/pkg/constants"
	"github.com/iwvelando/brrrr-analyzer/pkg/mathutil"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
	"github.com/rotisserie/eris"
)

// ErrInconsistentResult is returned when a stage record fails its internal
// consistency check.
var ErrInconsistentResult = eris.New("inconsistent calculation result")

// ClosingCosts itemizes the acquisition costs. The CMHC premium is financed
// into the mortgage; its sales tax cannot be financed and is paid at
// closing, so Total counts the tax but not the premium.
type ClosingCosts struct {
	TransferTax     float64 `json:"transferTax"`
	NotaryFees      float64 `json:"notaryFees"`
	InspectionFees  float64 `json:"inspectionFees"`
	Other           float64 `json:"other"`
	CMHCPremium     float64 `json:"cmhcPremium"`
	CMHCPremiumTax  float64 `json:"cmhcPremiumTax"`
	Total           float64 `json:"total"`
	FinancedPremium bool    `json:"financedPremium"`
}

// Acquisition is the buy phase.
type Acquisition struct {
	PurchasePrice          float64      `json:"purchasePrice"`
	DownPaymentPercent     float64      `json:"downPaymentPercent"`
	DownPaymentAmount      float64      `json:"downPaymentAmount"`
	ClosingCosts           ClosingCosts `json:"closingCosts"`
	IsInsured              bool         `json:"isInsured"`
	CMHCPremiumRate        float64      `json:"cmhcPremiumRate"`
	LoanAmount             float64      `json:"loanAmount"`
	InitialMortgageAmount  float64      `json:"initialMortgageAmount"`
	MortgageRate           float64      `json:"mortgageRate"`
	AmortizationYears      int          `json:"amortizationYears"`
	InitialMonthlyPayment  float64      `json:"initialMonthlyPayment"`
	TotalCashAtAcquisition float64      `json:"totalCashAtAcquisition"`
}

// Renovation is the rehab phase.
type Renovation struct {
	BudgetBase           float64                  `json:"budgetBase"`
	ContingencyPercent   float64                  `json:"contingencyPercent"`
	Contingency          float64                  `json:"contingency"`
	TotalBudget          float64                  `json:"totalBudget"`
	DurationMonths       int                      `json:"durationMonths"`
	FinancingType        validation.RenoFinancing `json:"financingType"`
	FinancingRate        float64                  `json:"financingRate"`
	CashRequired         float64                  `json:"cashRequired"`
	FinancedAmount       float64                  `json:"financedAmount"`
	MonthlyHoldingCost   float64                  `json:"monthlyHoldingCost"`
	MonthlyFinancingCost float64                  `json:"monthlyFinancingCost"`
	MonthlyCarryCost     float64                  `json:"monthlyCarryCost"`
	TotalCarryCost       float64                  `json:"totalCarryCost"`
}

// OperatingExpenses are the monthly running costs once rented.
type OperatingExpenses struct {
	MunicipalTaxes float64 `json:"municipalTaxes"`
	SchoolTaxes    float64 `json:"schoolTaxes"`
	Insurance      float64 `json:"insurance"`
	Maintenance    float64 `json:"maintenance"`
	Management     float64 `json:"management"`
	Utilities      float64 `json:"utilities"`
	Total          float64 `json:"total"`
}

// Rental is the rent phase.
type Rental struct {
	GrossMonthlyRent     float64           `json:"grossMonthlyRent"`
	VacancyRatePercent   float64           `json:"vacancyRatePercent"`
	VacancyLoss          float64           `json:"vacancyLoss"`
	EffectiveGrossIncome float64           `json:"effectiveGrossIncome"`
	OperatingExpenses    OperatingExpenses `json:"operatingExpenses"`
	MonthlyNOI           float64           `json:"monthlyNoi"`
	AnnualNOI            float64           `json:"annualNoi"`
}

// Refinance is the refinance phase. The new loan is split into a rotating
// interest-only portion, capped at the rotating LTV ceiling, and an
// amortized portion for the remainder.
type Refinance struct {
	AfterRepairValue        float64 `json:"afterRepairValue"`
	RequestedLTV            float64 `json:"requestedLtv"`
	TargetLTV               float64 `json:"targetLtv"`
	MaxLTVRotating          float64 `json:"maxLtvRotating"`
	NewLoanAmount           float64 `json:"newLoanAmount"`
	RotatingPortion         float64 `json:"rotatingPortion"`
	AmortizedPortion        float64 `json:"amortizedPortion"`
	Rate                    float64 `json:"rate"`
	AmortizationYears       int     `json:"amortizationYears"`
	RotatingMonthlyInterest float64 `json:"rotatingMonthlyInterest"`
	AmortizedMonthlyPayment float64 `json:"amortizedMonthlyPayment"`
	TotalMonthlyDebtService float64 `json:"totalMonthlyDebtService"`
	AppraisalFee            float64 `json:"appraisalFee"`
	LegalFees               float64 `json:"legalFees"`
	TotalCosts              float64 `json:"totalCosts"`
	MonthsToRefinance       int     `json:"monthsToRefinance"`
	OutstandingBalance      float64 `json:"outstandingBalance"`
	GrossCashOut            float64 `json:"grossCashOut"`
	// NetCashOut is negative when the refinance does not return all of the
	// cash invested.
	NetCashOut float64 `json:"netCashOut"`
}

// KPIs are the investment indicators derived after the refinance.
// Ratios are fractions.
type KPIs struct {
	TotalCashInvested float64 `json:"totalCashInvested"`
	CashExtracted     float64 `json:"cashExtracted"`
	CashLeftInDeal    float64 `json:"cashLeftInDeal"`
	EquityInDeal      float64 `json:"equityInDeal"`

	MonthlyNOI         float64 `json:"monthlyNoi"`
	MonthlyDebtService float64 `json:"monthlyDebtService"`
	MonthlyCashflow    float64 `json:"monthlyCashflow"`
	AnnualCashflow     float64 `json:"annualCashflow"`

	// CashOnCash and ReturnOnEquity are nil when IsInfiniteReturn is set.
	// Both are measured against the cash left in the deal.
	CashOnCash          *float64 `json:"cashOnCash"`
	IsInfiniteReturn    bool     `json:"isInfiniteReturn"`
	ReturnOnInvestment  float64  `json:"returnOnInvestment"`
	ReturnOnEquity      *float64 `json:"returnOnEquity"`
	CapRate             float64  `json:"capRate"`
	GrossRentMultiplier float64  `json:"grossRentMultiplier"`

	DSCR        float64 `json:"dscr"`
	MeetsMinDCR bool    `json:"meetsMinDcr"`

	StressTestRate       float64 `json:"stressTestRate"`
	StressMonthlyPayment float64 `json:"stressMonthlyPayment"`
	StressDSCR           float64 `json:"stressDscr"`
	PassesStressTest     bool    `json:"passesStressTest"`
}

// Validation reports the rule findings of one analysis. A result that is
// not valid is still fully computed.
type Validation struct {
	IsValid  bool     `json:"isValid"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

// MLISelect compares the refinance loan at its standard amortization with
// the extended amortization MLI Select allows for 5+ unit buildings.
type MLISelect struct {
	Eligible                   bool    `json:"eligible"`
	StandardAmortizationYears  int     `json:"standardAmortizationYears"`
	PotentialAmortizationYears int     `json:"potentialAmortizationYears"`
	StandardMonthlyPayment     float64 `json:"standardMonthlyPayment"`
	MLIMonthlyPayment          float64 `json:"mliMonthlyPayment"`
	PotentialCashflowIncrease  float64 `json:"potentialCashflowIncrease"`
	MaxLTV                     float64 `json:"maxLtv"`
}

// Result is the complete outcome of one analysis. It is built once and
// never modified.
type Result struct {
	Inputs       validation.Property `json:"inputs"`
	Acquisition  Acquisition         `json:"acquisition"`
	Renovation   Renovation          `json:"renovation"`
	Rental       Rental              `json:"rental"`
	Refinance    Refinance           `json:"refinance"`
	KPIs         KPIs                `json:"kpis"`
	Validation   Validation          `json:"validation"`
	MLISelect    *MLISelect          `json:"mliSelect,omitempty"`
	RulesVersion string              `json:"rulesVersion"`
}

// consistent reports whether two amounts agree to the cent.
func consistent(a, b float64) bool {
	return math.Abs(a-b) <= constants.CurrencyTolerance
}

func newAcquisition(a Acquisition) (Acquisition, error) {
	c := a.ClosingCosts
	sum := c.TransferTax + c.NotaryFees + c.InspectionFees + c.Other + c.CMHCPremiumTax
	switch {
	case !consistent(a.DownPaymentAmount+a.LoanAmount, a.PurchasePrice):
		return Acquisition{}, eris.Wrapf(ErrInconsistentResult, "down payment %.2f and loan %.2f do not add up to price %.2f",
			a.DownPaymentAmount, a.LoanAmount, a.PurchasePrice)
	case !consistent(sum, c.Total):
		return Acquisition{}, eris.Wrapf(ErrInconsistentResult, "closing cost items sum to %.2f, total is %.2f", sum, c.Total)
	case !consistent(a.LoanAmount+c.CMHCPremium, a.InitialMortgageAmount):
		return Acquisition{}, eris.Wrapf(ErrInconsistentResult, "initial mortgage %.2f is not loan plus premium", a.InitialMortgageAmount)
	}

	c.TransferTax = mathutil.Round(c.TransferTax)
	c.CMHCPremium = mathutil.Round(c.CMHCPremium)
	c.CMHCPremiumTax = mathutil.Round(c.CMHCPremiumTax)
	c.Total = mathutil.Round(c.Total)
	a.ClosingCosts = c
	a.DownPaymentAmount = mathutil.Round(a.DownPaymentAmount)
	a.LoanAmount = mathutil.Round(a.LoanAmount)
	a.InitialMortgageAmount = mathutil.Round(a.InitialMortgageAmount)
	a.InitialMonthlyPayment = mathutil.Round(a.InitialMonthlyPayment)
	a.TotalCashAtAcquisition = mathutil.Round(a.TotalCashAtAcquisition)
	return a, nil
}

func newRenovation(r Renovation) (Renovation, error) {
	if !consistent(r.CashRequired+r.FinancedAmount, r.TotalBudget) {
		return Renovation{}, eris.Wrapf(ErrInconsistentResult, "renovation cash %.2f and financing %.2f do not cover budget %.2f",
			r.CashRequired, r.FinancedAmount, r.TotalBudget)
	}
	r.Contingency = mathutil.Round(r.Contingency)
	r.TotalBudget = mathutil.Round(r.TotalBudget)
	r.CashRequired = mathutil.Round(r.CashRequired)
	r.FinancedAmount = mathutil.Round(r.FinancedAmount)
	r.MonthlyHoldingCost = mathutil.Round(r.MonthlyHoldingCost)
	r.MonthlyFinancingCost = mathutil.Round(r.MonthlyFinancingCost)
	r.MonthlyCarryCost = mathutil.Round(r.MonthlyCarryCost)
	r.TotalCarryCost = mathutil.Round(r.TotalCarryCost)
	return r, nil
}

func newRental(r Rental) (Rental, error) {
	e := r.OperatingExpenses
	sum := e.MunicipalTaxes + e.SchoolTaxes + e.Insurance + e.Maintenance + e.Management + e.Utilities
	switch {
	case !consistent(sum, e.Total):
		return Rental{}, eris.Wrapf(ErrInconsistentResult, "operating expenses sum to %.2f, total is %.2f", sum, e.Total)
	case !consistent(r.EffectiveGrossIncome-e.Total, r.MonthlyNOI):
		return Rental{}, eris.Wrapf(ErrInconsistentResult, "monthly NOI %.2f is not income less expenses", r.MonthlyNOI)
	}

	e.MunicipalTaxes = mathutil.Round(e.MunicipalTaxes)
	e.SchoolTaxes = mathutil.Round(e.SchoolTaxes)
	e.Insurance = mathutil.Round(e.Insurance)
	e.Maintenance = mathutil.Round(e.Maintenance)
	e.Management = mathutil.Round(e.Management)
	e.Utilities = mathutil.Round(e.Utilities)
	e.Total = mathutil.Round(e.Total)
	r.OperatingExpenses = e
	r.VacancyLoss = mathutil.Round(r.VacancyLoss)
	r.EffectiveGrossIncome = mathutil.Round(r.EffectiveGrossIncome)
	r.MonthlyNOI = mathutil.Round(r.MonthlyNOI)
	r.AnnualNOI = mathutil.Round(r.AnnualNOI)
	return r, nil
}

func newRefinance(r Refinance) (Refinance, error) {
	switch {
	case !consistent(r.RotatingPortion+r.AmortizedPortion, r.NewLoanAmount):
		return Refinance{}, eris.Wrapf(ErrInconsistentResult, "rotating %.2f and amortized %.2f portions do not sum to new loan %.2f",
			r.RotatingPortion, r.AmortizedPortion, r.NewLoanAmount)
	case r.RotatingPortion > r.AfterRepairValue*r.MaxLTVRotating+constants.CurrencyTolerance:
		return Refinance{}, eris.Wrapf(ErrInconsistentResult, "rotating portion %.2f is above %.0f%% of value",
			r.RotatingPortion, r.MaxLTVRotating*constants.PercentageMultiplier)
	case r.AmortizedPortion < -constants.CurrencyTolerance:
		return Refinance{}, eris.Wrapf(ErrInconsistentResult, "amortized portion %.2f is negative", r.AmortizedPortion)
	}

	r.NewLoanAmount = mathutil.Round(r.NewLoanAmount)
	r.RotatingPortion = mathutil.Round(r.RotatingPortion)
	r.AmortizedPortion = mathutil.Round(r.AmortizedPortion)
	r.RotatingMonthlyInterest = mathutil.Round(r.RotatingMonthlyInterest)
	r.AmortizedMonthlyPayment = mathutil.Round(r.AmortizedMonthlyPayment)
	r.TotalMonthlyDebtService = mathutil.Round(r.TotalMonthlyDebtService)
	r.TotalCosts = mathutil.Round(r.TotalCosts)
	r.OutstandingBalance = mathutil.Round(r.OutstandingBalance)
	r.GrossCashOut = mathutil.Round(r.GrossCashOut)
	r.NetCashOut = mathutil.Round(r.NetCashOut)
	return r, nil
}
