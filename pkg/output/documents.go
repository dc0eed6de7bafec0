package output

import (
	"strconv"

	"github.com/iwvelando/brrrr-analyzer/internal/brrrr"
	"github.com/iwvelando/brrrr-analyzer/internal/heloc"
	"github.com/iwvelando/brrrr-analyzer/internal/sensitivity"
	"github.com/iwvelando/brrrr-analyzer/internal/timeline"
	"github.com/iwvelando/brrrr-analyzer/pkg/format"
	"github.com/iwvelando/brrrr-analyzer/pkg/mortgage"
	"github.com/iwvelando/brrrr-analyzer/pkg/optimization"
	"github.com/iwvelando/brrrr-analyzer/pkg/transfertax"
)

func documentFor(v any) (document, bool) {
	switch t := v.(type) {
	case brrrr.Result:
		return resultDocument(t), true
	case brrrr.QuickMetrics:
		return quickDocument(t), true
	case timeline.Timeline:
		return timelineDocument(t), true
	case sensitivity.Matrix:
		return matrixDocument(t), true
	case heloc.Result:
		return helocDocument(t), true
	case transfertax.Breakdown:
		return transferTaxDocument(t), true
	case []mortgage.Payment:
		return scheduleDocument(t), true
	case optimization.Summary:
		return optimizationDocument(t), true
	}
	return document{}, false
}

func resultDocument(r brrrr.Result) document {
	acq, reno, rent, refi, k := r.Acquisition, r.Renovation, r.Rental, r.Refinance, r.KPIs

	doc := document{sections: []section{
		{title: "Acquisition", rows: []row{
			{"Purchase price", money(acq.PurchasePrice)},
			{"Down payment", money(acq.DownPaymentAmount)},
			{"Down payment percent", wholePercent(acq.DownPaymentPercent)},
			{"Transfer tax", money(acq.ClosingCosts.TransferTax)},
			{"Notary fees", money(acq.ClosingCosts.NotaryFees)},
			{"Inspection fees", money(acq.ClosingCosts.InspectionFees)},
			{"Other closing costs", money(acq.ClosingCosts.Other)},
			{"CMHC premium (financed)", money(acq.ClosingCosts.CMHCPremium)},
			{"CMHC premium tax", money(acq.ClosingCosts.CMHCPremiumTax)},
			{"Closing costs", money(acq.ClosingCosts.Total)},
			{"Insured", yesNo(acq.IsInsured)},
			{"Mortgage", money(acq.InitialMortgageAmount)},
			{"Mortgage rate", percent(acq.MortgageRate)},
			{"Amortization (years)", integer(acq.AmortizationYears)},
			{"Monthly payment", money(acq.InitialMonthlyPayment)},
			{"Cash at acquisition", money(acq.TotalCashAtAcquisition)},
		}},
		{title: "Renovation", rows: []row{
			{"Budget", money(reno.BudgetBase)},
			{"Contingency", money(reno.Contingency)},
			{"Total budget", money(reno.TotalBudget)},
			{"Duration (months)", integer(reno.DurationMonths)},
			{"Financing", text(string(reno.FinancingType))},
			{"Cash required", money(reno.CashRequired)},
			{"Financed", money(reno.FinancedAmount)},
			{"Monthly carry cost", money(reno.MonthlyCarryCost)},
			{"Total carry cost", money(reno.TotalCarryCost)},
		}},
		{title: "Rental", rows: []row{
			{"Gross monthly rent", money(rent.GrossMonthlyRent)},
			{"Vacancy loss", money(rent.VacancyLoss)},
			{"Effective gross income", money(rent.EffectiveGrossIncome)},
			{"Operating expenses", money(rent.OperatingExpenses.Total)},
			{"Monthly NOI", money(rent.MonthlyNOI)},
			{"Annual NOI", money(rent.AnnualNOI)},
		}},
		{title: "Refinance", rows: []row{
			{"After-repair value", money(refi.AfterRepairValue)},
			{"Target LTV", percent(refi.TargetLTV)},
			{"New loan", money(refi.NewLoanAmount)},
			{"Rotating portion", money(refi.RotatingPortion)},
			{"Amortized portion", money(refi.AmortizedPortion)},
			{"Monthly debt service", money(refi.TotalMonthlyDebtService)},
			{"Months to refinance", integer(refi.MonthsToRefinance)},
			{"Balance repaid", money(refi.OutstandingBalance)},
			{"Refinance costs", money(refi.TotalCosts)},
			{"Gross cash-out", money(refi.GrossCashOut)},
			{"Net cash-out", money(refi.NetCashOut)},
		}},
		{title: "Indicators", rows: []row{
			{"Total cash invested", money(k.TotalCashInvested)},
			{"Cash left in deal", money(k.CashLeftInDeal)},
			{"Equity", money(k.EquityInDeal)},
			{"Monthly cashflow", money(k.MonthlyCashflow)},
			{"Annual cashflow", money(k.AnnualCashflow)},
			{"Cash-on-cash", optionalPercent(k.CashOnCash)},
			{"ROI", percent(k.ReturnOnInvestment)},
			{"ROE", optionalPercent(k.ReturnOnEquity)},
			{"Cap rate", percent(k.CapRate)},
			{"Gross rent multiplier", ratio(k.GrossRentMultiplier)},
			{"DSCR", ratio(k.DSCR)},
			{"Meets minimum DSCR", yesNo(k.MeetsMinDCR)},
			{"Stress test rate", percent(k.StressTestRate)},
			{"Stress DSCR", ratio(k.StressDSCR)},
			{"Passes stress test", yesNo(k.PassesStressTest)},
		}},
	}}

	if m := r.MLISelect; m != nil {
		doc.sections = append(doc.sections, section{title: "MLI Select", rows: []row{
			{"Eligible", yesNo(m.Eligible)},
			{"Standard amortization (years)", integer(m.StandardAmortizationYears)},
			{"MLI amortization (years)", integer(m.PotentialAmortizationYears)},
			{"Standard payment", money(m.StandardMonthlyPayment)},
			{"MLI payment", money(m.MLIMonthlyPayment)},
			{"Cashflow increase", money(m.PotentialCashflowIncrease)},
		}})
	}

	validity := "valid"
	if !r.Validation.IsValid {
		validity = "invalid"
	}
	doc.sections = append(doc.sections, section{title: "Validation", rows: []row{
		{"Status", text(validity)},
		{"Rules", text(r.RulesVersion)},
	}})
	for _, e := range r.Validation.Errors {
		doc.notes = append(doc.notes, "error: "+e)
	}
	for _, w := range r.Validation.Warnings {
		doc.notes = append(doc.notes, "warning: "+w)
	}
	return doc
}

func quickDocument(q brrrr.QuickMetrics) document {
	return document{sections: []section{{title: "Quick metrics", rows: []row{
		{"Total investment", money(q.TotalInvestment)},
		{"New loan", money(q.NewLoanAmount)},
		{"Cash-out", money(q.CashOut)},
		{"Monthly cashflow", money(q.MonthlyCashflow)},
		{"Cash-on-cash", optionalPercent(q.CashOnCash)},
		{"Cap rate", percent(q.CapRate)},
	}}}}
}

func optionalMonth(m *int) cell {
	if m == nil {
		return text("not reached")
	}
	return integer(*m)
}

func timelineDocument(tl timeline.Timeline) document {
	dated := tl.StartDate != ""

	events := table{title: "Phases", header: []string{"Phase", "Start", "End", "Monthly cashflow"}}
	for _, e := range tl.Events {
		events.rows = append(events.rows, []cell{text(string(e.Phase)), integer(e.StartMonth), integer(e.EndMonth), money(e.MonthlyCashflow)})
	}

	months := table{title: "Cashflow", header: []string{"Month", "Phase", "Cashflow", "Cumulative"}}
	if dated {
		months.header = []string{"Month", "Date", "Phase", "Cashflow", "Cumulative"}
	}
	for _, p := range tl.Cashflow {
		r := []cell{integer(p.Month)}
		if dated {
			r = append(r, text(p.Date))
		}
		months.rows = append(months.rows, append(r, text(string(p.Phase)), money(p.Cashflow), money(p.Cumulative)))
	}

	rows := []row{{"Horizon (months)", integer(tl.HorizonMonths)}}
	if dated {
		rows = append(rows, row{"Start", text(tl.StartDate)})
	}
	rows = append(rows,
		row{"Break-even month", optionalMonth(tl.BreakEvenMonth)},
		row{"Capital recovery month", optionalMonth(tl.CapitalRecoveryMonth)},
	)
	return document{
		sections: []section{{title: "Timeline", rows: rows}},
		tables:   []table{events, months},
	}
}

func axisValue(v sensitivity.Variable, x float64) cell {
	if v == sensitivity.InterestRate {
		return percent(x)
	}
	return cell{display: format.WholeCurrency(x), raw: strconv.FormatFloat(x, 'f', -1, 64)}
}

func matrixDocument(m sensitivity.Matrix) document {
	header := []string{string(m.Var1.Variable) + " \\ " + string(m.Var2.Variable)}
	for _, y := range m.Var2.Values {
		header = append(header, axisValue(m.Var2.Variable, y).display)
	}

	grid := func(title string, value func(i, j int) cell) table {
		t := table{title: title, header: header}
		for i, x := range m.Var1.Values {
			r := []cell{axisValue(m.Var1.Variable, x)}
			for j := range m.Var2.Values {
				r = append(r, value(i, j))
			}
			t.rows = append(t.rows, r)
		}
		return t
	}

	doc := document{tables: []table{
		grid("Monthly cashflow", func(i, j int) cell { return money(m.Cashflow[i][j]) }),
		grid("Cash-on-cash", func(i, j int) cell { return optionalPercent(m.CashOnCash[i][j]) }),
		grid("DSCR", func(i, j int) cell { return ratio(m.DSCR[i][j]) }),
	}}
	doc.sections = []section{{title: "Sensitivity", rows: []row{
		{"Best cashflow", money(m.Best.Cashflow)},
		{"Worst cashflow", money(m.Worst.Cashflow)},
		{"Break-even cells", integer(len(m.BreakEven))},
	}}}
	return doc
}

func helocDocument(h heloc.Result) document {
	return document{sections: []section{{title: "HELOC capacity", rows: []row{
		{"Total equity", money(h.TotalEquity)},
		{"Maximum total borrowing", money(h.MaxTotalBorrowing)},
		{"Maximum rotating credit", money(h.MaxRotatingCredit)},
		{"Available at rotating ceiling", money(h.AvailableEquityAtRotating)},
		{"Available at total ceiling", money(h.AvailableEquityAtTotal)},
		{"Recommended HELOC limit", money(h.RecommendedHelocLimit)},
		{"Rotating credit accessible", yesNo(h.CanAccessRotating)},
		{"Current LTV", percent(h.CurrentLTV)},
		{"LTV after HELOC", percent(h.AfterHelocLTV)},
	}}}}
}

func optimizationDocument(s optimization.Summary) document {
	searched := func(display string, v float64) cell {
		return cell{display: display, raw: strconv.FormatFloat(v, 'f', -1, 64)}
	}
	metric := money
	if s.Metric == "dscr" {
		metric = ratio
	}
	return document{
		sections: []section{{title: "Optimization", rows: []row{
			{"Variable", text(s.Variable)},
			{"Metric", text(s.Metric)},
			{"Floor", metric(s.Floor)},
			{"Original value", searched(s.OriginalDisplay, s.Original)},
			{"Optimized value", searched(s.ValueDisplay, s.Value)},
			{"Metric at value", metric(s.MetricValue)},
			{"Converged", yesNo(s.Converged)},
			{"Iterations", integer(s.Iterations)},
			{"Valid deal", yesNo(s.IsValid)},
		}}},
		notes: s.Notes,
	}
}

func transferTaxDocument(b transfertax.Breakdown) document {
	brackets := table{title: "Brackets", header: []string{"Range", "Rate", "Taxable", "Tax"}}
	for _, line := range b.Brackets {
		brackets.rows = append(brackets.rows, []cell{text(line.Range), text(line.Rate), money(line.TaxableAmount), money(line.Tax)})
	}
	return document{
		sections: []section{{title: "Transfer tax (" + b.Name + ")", rows: []row{
			{"Purchase price", money(b.PurchasePrice)},
			{"Additional tax", money(b.AdditionalTax)},
			{"Total tax", money(b.TotalTax)},
		}}},
		tables: []table{brackets},
	}
}

func scheduleDocument(payments []mortgage.Payment) document {
	t := table{title: "Amortization schedule", header: []string{"Month", "Payment", "Principal", "Interest", "Remaining"}}
	for _, p := range payments {
		t.rows = append(t.rows, []cell{integer(p.Month), money(p.Payment), money(p.Principal), money(p.Interest), money(p.RemainingPrincipal)})
	}
	return document{tables: []table{t}}
}
