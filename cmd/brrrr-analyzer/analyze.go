package main

import (
	"github.com/iwvelando/brrrr-analyzer/internal/extraction"
	"github.com/iwvelando/brrrr-analyzer/internal/sensitivity"
	"github.com/iwvelando/brrrr-analyzer/internal/timeline"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ErrInvalidDeal is returned by --fail-invalid when the analysis reports
// rule violations.
var ErrInvalidDeal = eris.New("deal violates lending rules")

func (a *app) analyzeCmd() *cobra.Command {
	var failInvalid bool
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Run the full BRRRR analysis of a property",
		Long: `Run the acquisition, renovation, rental and refinance phases of a property
and report its indicators and any rule violations.

FILE is a JSON or YAML (.yaml, .yml) property document; "-" reads JSON
from stdin. Fields left out take the configured assumptions.

Examples:
  analyze triplex.yaml
  analyze --output-format csv triplex.json > triplex.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in validation.PropertyFinancials
			if err := readInput(cmd, args[0], &in); err != nil {
				return err
			}

			result, err := a.engine().Analyze(in)
			if err != nil {
				return err
			}
			a.logger.Debug("analysis complete",
				zap.String("op", "main.analyze"),
				zap.Bool("valid", result.Validation.IsValid),
				zap.Float64("monthlyCashflow", result.KPIs.MonthlyCashflow),
			)
			if err := a.render(cmd, result); err != nil {
				return err
			}
			if failInvalid && !result.Validation.IsValid {
				return eris.Wrapf(ErrInvalidDeal, "%d violations", len(result.Validation.Errors))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&failInvalid, "fail-invalid", false, "exit non-zero when the deal violates a lending rule")
	return cmd
}

func (a *app) timelineCmd() *cobra.Command {
	var (
		horizon int
		start   string
	)
	cmd := &cobra.Command{
		Use:   "timeline FILE",
		Short: "Project month-by-month cashflow of a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in validation.PropertyFinancials
			if err := readInput(cmd, args[0], &in); err != nil {
				return err
			}
			if horizon == 0 {
				horizon = a.conf.Timeline.HorizonMonths
			}

			result, err := a.engine().Analyze(in)
			if err != nil {
				return err
			}
			tl, err := timeline.Build(a.logger, result, horizon)
			if err != nil {
				return err
			}
			if start != "" {
				if tl, err = tl.WithCalendar(start); err != nil {
					return err
				}
			}
			return a.render(cmd, tl)
		},
	}
	cmd.Flags().IntVar(&horizon, "horizon", 0, "months to project (0 = timeline.horizonMonths)")
	cmd.Flags().StringVar(&start, "start", "", "calendar month of the purchase, YYYY-MM")
	return cmd
}

func (a *app) sensitivityCmd() *cobra.Command {
	var (
		var1, var2       string
		values1, values2 []float64
		concurrency      int
	)
	cmd := &cobra.Command{
		Use:   "sensitivity FILE",
		Short: "Vary two inputs of a property over a grid",
		Long: `Re-run the analysis of a property for every pair of values of two inputs
and report cashflow, cash-on-cash and DSCR for each.

Variables: interestRate, renovationCost, rent, arv, purchasePrice.

Examples:
  sensitivity triplex.yaml --var1 interestRate --values1 0.04,0.05,0.06 \
    --var2 rent --values2 4000,4500,5000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in validation.PropertyFinancials
			if err := readInput(cmd, args[0], &in); err != nil {
				return err
			}

			g := sensitivity.NewGenerator(a.logger, a.engine(), concurrency)
			m, err := g.Generate(cmd.Context(), in,
				sensitivity.Axis{Variable: sensitivity.Variable(var1), Values: values1},
				sensitivity.Axis{Variable: sensitivity.Variable(var2), Values: values2},
			)
			if err != nil {
				return err
			}
			return a.render(cmd, m)
		},
	}
	f := cmd.Flags()
	f.StringVar(&var1, "var1", string(sensitivity.InterestRate), "row variable")
	f.Float64SliceVar(&values1, "values1", nil, "row values")
	f.StringVar(&var2, "var2", string(sensitivity.Rent), "column variable")
	f.Float64SliceVar(&values2, "values2", nil, "column values")
	f.IntVar(&concurrency, "concurrency", 0, "cells evaluated at once (0 = GOMAXPROCS)")
	_ = cmd.MarkFlagRequired("values1")
	_ = cmd.MarkFlagRequired("values2")
	return cmd
}

// extractInput is the document read by the extract command.
type extractInput struct {
	Data      extraction.ExtractedPropertyData `json:"data" yaml:"data"`
	Overrides validation.PropertyFinancials    `json:"overrides" yaml:"overrides"`
}

func (a *app) extractCmd() *cobra.Command {
	var analyze bool
	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Map listing data into analysis input",
		Long: `Map property data extracted from a listing (asking price, units, rents,
taxes, postal code) into analysis input. Overrides win over extracted
values. With --analyze a complete mapping is analyzed right away.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in extractInput
			if err := readInput(cmd, args[0], &in); err != nil {
				return err
			}

			mapping, err := extraction.Map(in.Data, in.Overrides)
			if err != nil {
				return err
			}
			for _, w := range mapping.Warnings {
				a.logger.Warn(w, zap.String("op", "main.extract"))
			}
			if !analyze || !mapping.Complete() {
				if analyze {
					a.logger.Warn("mapping is incomplete, not analyzing",
						zap.String("op", "main.extract"),
						zap.Strings("missing", mapping.Missing),
					)
				}
				return a.render(cmd, mapping)
			}

			financials := mapping.Financials
			if financials.Municipality == nil && mapping.Municipality != nil {
				financials.Municipality = mapping.Municipality
			}
			result, err := a.engine().Analyze(financials)
			if err != nil {
				return err
			}
			return a.render(cmd, result)
		},
	}
	cmd.Flags().BoolVar(&analyze, "analyze", false, "analyze the mapped input when it is complete")
	return cmd
}
