package main

import (
	"strings"

	"github.com/iwvelando/brrrr-analyzer/internal/brrrr"
	"github.com/iwvelando/brrrr-analyzer/internal/heloc"
	"github.com/iwvelando/brrrr-analyzer/pkg/mortgage"
	"github.com/iwvelando/brrrr-analyzer/pkg/rules"
	"github.com/iwvelando/brrrr-analyzer/pkg/transfertax"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

func (a *app) quickCmd() *cobra.Command {
	var price, renovation, rent, arv, rate float64
	cmd := &cobra.Command{
		Use:   "quick",
		Short: "Estimate a deal from four figures",
		Long: `Estimate cash invested, cash-out and cashflow from the purchase price,
renovation budget, monthly rent and after-repair value, using the
insurance threshold as down payment and a flat closing-cost rule.

Examples:
  quick --price 300000 --renovation 20000 --rent 3500 --arv 500000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := brrrr.QuickInput{
				PurchasePrice:    &price,
				RenovationBudget: &renovation,
				MonthlyRent:      &rent,
				AfterRepairValue: &arv,
			}
			if cmd.Flags().Changed("rate") {
				in.MortgageRate = &rate
			}

			metrics, err := a.engine().QuickMetrics(in)
			if err != nil {
				return err
			}
			return a.render(cmd, metrics)
		},
	}
	f := cmd.Flags()
	f.Float64Var(&price, "price", 0, "purchase price")
	f.Float64Var(&renovation, "renovation", 0, "renovation budget")
	f.Float64Var(&rent, "rent", 0, "total monthly rent after renovation")
	f.Float64Var(&arv, "arv", 0, "after-repair value")
	f.Float64Var(&rate, "rate", 0, "refinance rate as a fraction (default assumptions.mortgageRate)")
	_ = cmd.MarkFlagRequired("price")
	_ = cmd.MarkFlagRequired("rent")
	_ = cmd.MarkFlagRequired("arv")
	return cmd
}

func (a *app) helocCmd() *cobra.Command {
	var value, mortgageBalance, helocBalance float64
	cmd := &cobra.Command{
		Use:   "heloc",
		Short: "Compute HELOC borrowing capacity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := heloc.Capacity(heloc.Input{
				CurrentPropertyValue:   &value,
				CurrentMortgageBalance: &mortgageBalance,
				CurrentHelocBalance:    &helocBalance,
			}, a.store.Snapshot())
			if err != nil {
				return err
			}
			return a.render(cmd, result)
		},
	}
	f := cmd.Flags()
	f.Float64Var(&value, "value", 0, "current appraised value")
	f.Float64Var(&mortgageBalance, "mortgage", 0, "current mortgage balance")
	f.Float64Var(&helocBalance, "heloc-balance", 0, "current HELOC balance")
	_ = cmd.MarkFlagRequired("value")
	_ = cmd.MarkFlagRequired("mortgage")
	return cmd
}

func (a *app) transferTaxCmd() *cobra.Command {
	var (
		price        float64
		municipality string
		postalCode   string
	)
	cmd := &cobra.Command{
		Use:   "transfer-tax",
		Short: "Compute the Québec property transfer tax",
		Long: `Compute the transfer tax (welcome tax) on a purchase, bracket by bracket.
The municipality is taken from --municipality, else from --postal-code,
else from assumptions.municipality.

Municipalities: MONTREAL, QUEBEC_CITY, LAVAL, LONGUEUIL, GATINEAU,
SHERBROOKE, TROIS_RIVIERES, OTHER_QC.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if price < 0 {
				return eris.Errorf("price must be non-negative, got %v", price)
			}

			m := a.conf.Assumptions.Municipality
			switch {
			case municipality != "":
				m = transfertax.Municipality(strings.ToUpper(strings.TrimSpace(municipality)))
				if !transfertax.IsKnown(m) {
					return eris.Errorf("unknown municipality %s", municipality)
				}
			case postalCode != "":
				m = transfertax.MunicipalityFromPostalCode(postalCode)
			}
			return a.render(cmd, transfertax.CalculateBreakdown(price, m))
		},
	}
	f := cmd.Flags()
	f.Float64Var(&price, "price", 0, "purchase price")
	f.StringVar(&municipality, "municipality", "", "municipality code")
	f.StringVar(&postalCode, "postal-code", "", "postal code used to find the municipality")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func (a *app) scheduleCmd() *cobra.Command {
	var (
		principal, rate float64
		years, months   int
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print a mortgage amortization schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schedule, err := mortgage.NewScheduleGenerator(a.logger).Generate(principal, rate, years, months)
			if err != nil {
				return err
			}
			return a.render(cmd, schedule)
		},
	}
	f := cmd.Flags()
	f.Float64Var(&principal, "principal", 0, "loan principal")
	f.Float64Var(&rate, "rate", 0, "annual nominal rate as a fraction")
	f.IntVar(&years, "years", 25, "amortization in years")
	f.IntVar(&months, "months", 0, "months to list (0 = the whole amortization)")
	_ = cmd.MarkFlagRequired("principal")
	_ = cmd.MarkFlagRequired("rate")
	return cmd
}

type rulesOutput struct {
	Version string      `json:"version"`
	Rules   rules.Rules `json:"rules"`
}

func (a *app) rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the regulatory rules in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			current := a.store.Snapshot()
			return a.render(cmd, rulesOutput{Version: current.Version(), Rules: current})
		},
	}
}
