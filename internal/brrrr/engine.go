// Package brrrr runs the Buy, Rehab, Rent, Refinance pipeline over a
// property and derives the investment indicators of the deal.
package brrrr

import (
	"github.com/iwvelando/brrrr-analyzer/pkg/rules"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
	"go.uber.org/zap"
)

// Engine analyzes properties against the rules published in a store and a
// set of default assumptions.
type Engine struct {
	logger      *zap.Logger
	rules       *rules.Store
	assumptions validation.Assumptions
}

// NewEngine creates an engine. A nil store uses the default rules.
func NewEngine(logger *zap.Logger, store *rules.Store, assumptions validation.Assumptions) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = rules.NewDefaultStore()
	}
	return &Engine{
		logger:      logger,
		rules:       store,
		assumptions: assumptions,
	}
}

// Rules returns the snapshot the next analysis would use.
func (e *Engine) Rules() rules.Rules {
	return e.rules.Snapshot()
}

// Assumptions returns the defaults applied to omitted input fields.
func (e *Engine) Assumptions() validation.Assumptions {
	return e.assumptions
}

// Analyze validates in and runs the pipeline. The rules are captured once
// at the start, so a reload during the analysis has no effect on it.
// Malformed input is returned as an error; rule violations are reported in
// the result.
func (e *Engine) Analyze(in validation.PropertyFinancials) (Result, error) {
	return e.AnalyzeWith(in, e.rules.Snapshot())
}

// AnalyzeWith is Analyze against an explicit rules snapshot.
func (e *Engine) AnalyzeWith(in validation.PropertyFinancials, r rules.Rules) (Result, error) {
	v, err := validation.Validate(in, e.assumptions, r)
	if err != nil {
		return Result{}, err
	}
	result, err := Calculate(v, r)
	if err != nil {
		return Result{}, err
	}

	e.logger.Debug("analysis complete",
		zap.String("op", "brrrr.Analyze"),
		zap.String("rules", result.RulesVersion),
		zap.Bool("valid", result.Validation.IsValid),
		zap.Bool("amortizationCapped", v.Mortgage.AmortizationCapped),
		zap.Float64("monthlyCashflow", result.KPIs.MonthlyCashflow),
	)
	return result, nil
}

// Calculate runs the four stages and the indicators over a validated
// input. It is a pure function of its arguments.
func Calculate(v validation.Validated, r rules.Rules) (Result, error) {
	p := v.Property

	acq, err := acquisition(p, v.Mortgage, r)
	if err != nil {
		return Result{}, err
	}
	reno, err := renovation(p, acq)
	if err != nil {
		return Result{}, err
	}
	rent, err := rental(p)
	if err != nil {
		return Result{}, err
	}

	invested := totalCashInvested(acq, reno)
	refi, err := refinance(p, v.Refinance, acq, reno, invested, r)
	if err != nil {
		return Result{}, err
	}
	k, err := kpis(v.Refinance, invested, rent, refi, r)
	if err != nil {
		return Result{}, err
	}
	mli, err := mliSelect(p, v.Refinance, refi, r)
	if err != nil {
		return Result{}, err
	}

	warns := append([]string{}, v.Notes...)
	warns = append(warns, warnings(p, k, r)...)
	errs := v.Violations.Messages()

	return Result{
		Inputs:      p,
		Acquisition: acq,
		Renovation:  reno,
		Rental:      rent,
		Refinance:   refi,
		KPIs:        k,
		Validation: Validation{
			IsValid:  v.IsValid(),
			Warnings: warns,
			Errors:   errs,
		},
		MLISelect:    mli,
		RulesVersion: r.Version(),
	}, nil
}
