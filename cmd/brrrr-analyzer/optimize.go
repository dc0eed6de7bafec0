package main

import (
	"github.com/iwvelando/brrrr-analyzer/internal/optimizer"
	"github.com/iwvelando/brrrr-analyzer/internal/sensitivity"
	"github.com/spf13/cobra"
)

func (a *app) optimizeCmd() *cobra.Command {
	var (
		variable, metric string
		req              optimizer.Request
	)
	cmd := &cobra.Command{
		Use:   "optimize FILE",
		Short: "Find the input value that keeps an indicator at a floor",
		Long: `Search one input of a property between --min and --max for the value that
keeps an indicator at or above --floor while using up as much of it as the
bounds allow.

Variables: interestRate, renovationCost, rent, arv, purchasePrice.
Metrics: monthlyCashflow, dscr, netCashOut.

Examples:
  optimize triplex.yaml --variable purchasePrice --metric netCashOut --min 300000 --max 700000
  optimize triplex.yaml --variable rent --floor 250 --min 2000 --max 6000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := readInput(cmd, args[0], &req.Property); err != nil {
				return err
			}
			req.Variable = sensitivity.Variable(variable)
			req.Metric = optimizer.Metric(metric)

			summary, err := optimizer.NewRunner(a.logger, a.engine()).Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.render(cmd, summary)
		},
	}
	f := cmd.Flags()
	f.StringVar(&variable, "variable", string(sensitivity.PurchasePrice), "input to search")
	f.StringVar(&metric, "metric", string(optimizer.MonthlyCashflow), "indicator held at the floor")
	f.Float64Var(&req.Floor, "floor", 0, "lowest acceptable value of the metric")
	f.Float64Var(&req.Min, "min", 0, "lower bound of the search")
	f.Float64Var(&req.Max, "max", 0, "upper bound of the search")
	f.Float64Var(&req.Tolerance, "tolerance", 0, "stop once the bounds are this close (0 = a cent, or 0.0001% for rates)")
	f.IntVar(&req.MaxIterations, "max-iterations", 0, "bisection steps (0 = 50)")
	_ = cmd.MarkFlagRequired("max")
	return cmd
}
