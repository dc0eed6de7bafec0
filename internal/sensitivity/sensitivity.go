// Package sensitivity re-runs the BRRRR pipeline over a grid of two
// perturbed inputs.
package sensitivity

import (
	"context"
	"runtime"
	"slices"

	"github.com/iwvelando/brrrr-analyzer/internal/brrrr"
	"github.com/iwvelando/brrrr-analyzer/pkg/mathutil"
	"github.com/iwvelando/brrrr-analyzer/pkg/rules"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Variable names an input that can be perturbed.
type Variable string

// Supported variables.
const (
	InterestRate   Variable = "interestRate"
	RenovationCost Variable = "renovationCost"
	Rent           Variable = "rent"
	ARV            Variable = "arv"
	PurchasePrice  Variable = "purchasePrice"
)

// MaxAxisValues bounds the length of one axis.
const MaxAxisValues = 25

// ErrInvalidAxis is returned for an unusable axis definition.
var ErrInvalidAxis = eris.New("invalid sensitivity axis")

// Axis is one dimension of the grid: a variable and the absolute values it
// takes, in order.
type Axis struct {
	Variable Variable  `json:"variable" yaml:"variable"`
	Values   []float64 `json:"values" yaml:"values"`
}

// Cell locates a grid cell. Row indexes the first axis and Col the second.
type Cell struct {
	Row       int     `json:"row"`
	Col       int     `json:"col"`
	Var1Value float64 `json:"var1Value"`
	Var2Value float64 `json:"var2Value"`
	Cashflow  float64 `json:"cashflow"`
}

// Matrix holds parallel grids indexed [var1][var2]. A nil cash-on-cash
// cell is an infinite return.
type Matrix struct {
	Var1       Axis         `json:"var1"`
	Var2       Axis         `json:"var2"`
	CashOnCash [][]*float64 `json:"cashOnCash"`
	Cashflow   [][]float64  `json:"cashflow"`
	ROI        [][]float64  `json:"roi"`
	DSCR       [][]float64  `json:"dscr"`
	Best       Cell         `json:"best"`
	Worst      Cell         `json:"worst"`
	// BreakEven lists the first non-negative cell of every sign change
	// between adjacent cells along a row or a column, in row-major order.
	BreakEven []Cell `json:"breakEven"`
	// Base is the cell holding the unperturbed values, when both axes
	// contain them.
	Base *Cell `json:"base,omitempty"`
}

// Generator builds sensitivity matrices.
type Generator struct {
	logger      *zap.Logger
	engine      *brrrr.Engine
	concurrency int
}

// NewGenerator creates a generator evaluating at most concurrency cells at
// once; a non-positive value uses GOMAXPROCS.
func NewGenerator(logger *zap.Logger, engine *brrrr.Engine, concurrency int) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Generator{logger: logger, engine: engine, concurrency: concurrency}
}

// Generate analyzes base once and then every (var1, var2) pair, holding all
// other inputs at their base values. Every cell uses the rules snapshot
// captured before the first one, and no cell depends on another.
func (g *Generator) Generate(ctx context.Context, base validation.PropertyFinancials, var1, var2 Axis) (Matrix, error) {
	return g.GenerateWith(ctx, base, var1, var2, g.engine.Rules())
}

// GenerateWith is Generate against an explicit rules snapshot.
func (g *Generator) GenerateWith(ctx context.Context, base validation.PropertyFinancials, var1, var2 Axis, snapshot rules.Rules) (Matrix, error) {
	if err := checkAxes(var1, var2); err != nil {
		return Matrix{}, err
	}

	baseResult, err := g.engine.AnalyzeWith(base, snapshot)
	if err != nil {
		return Matrix{}, err
	}
	property := baseResult.Inputs

	rows, cols := len(var1.Values), len(var2.Values)
	m := Matrix{
		Var1:       var1,
		Var2:       var2,
		CashOnCash: make([][]*float64, rows),
		Cashflow:   make([][]float64, rows),
		ROI:        make([][]float64, rows),
		DSCR:       make([][]float64, rows),
	}
	for i := range rows {
		m.CashOnCash[i] = make([]*float64, cols)
		m.Cashflow[i] = make([]float64, cols)
		m.ROI[i] = make([]float64, cols)
		m.DSCR[i] = make([]float64, cols)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, x := range var1.Values {
		for j, y := range var2.Values {
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				k, err := g.cell(property, snapshot, var1.Variable, x, var2.Variable, y)
				if err != nil {
					return eris.Wrapf(err, "cell %s=%v %s=%v", var1.Variable, x, var2.Variable, y)
				}
				m.CashOnCash[i][j] = k.CashOnCash
				m.Cashflow[i][j] = k.MonthlyCashflow
				m.ROI[i][j] = k.ReturnOnInvestment
				m.DSCR[i][j] = k.DSCR
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return Matrix{}, err
	}

	m.Best, m.Worst = extremes(m)
	m.BreakEven = breakEven(m)
	m.Base = baseCell(m, ValueOf(property, var1.Variable), ValueOf(property, var2.Variable))

	g.logger.Debug("sensitivity matrix generated",
		zap.String("op", "sensitivity.Generate"),
		zap.String("var1", string(var1.Variable)),
		zap.String("var2", string(var2.Variable)),
		zap.Int("cells", rows*cols),
		zap.Int("breakEven", len(m.BreakEven)),
	)
	return m, nil
}

func (g *Generator) cell(p validation.Property, r rules.Rules, v1 Variable, x float64, v2 Variable, y float64) (brrrr.KPIs, error) {
	Apply(&p, v1, x)
	Apply(&p, v2, y)
	result, err := g.engine.AnalyzeWith(p.Financials(), r)
	if err != nil {
		return brrrr.KPIs{}, err
	}
	return result.KPIs, nil
}

// Apply sets variable v of p. The interest rate moves the acquisition and
// the refinance rate together.
func Apply(p *validation.Property, v Variable, value float64) {
	switch v {
	case InterestRate:
		p.MortgageRate = value
		p.RefinanceRate = value
	case RenovationCost:
		p.RenovationBudget = value
	case Rent:
		p.ProjectedMonthlyRent = value
	case ARV:
		p.AfterRepairValue = value
	case PurchasePrice:
		p.PurchasePrice = value
	}
}

// ValueOf reads variable v of p. The interest rate is the acquisition rate.
func ValueOf(p validation.Property, v Variable) float64 {
	switch v {
	case InterestRate:
		return p.MortgageRate
	case RenovationCost:
		return p.RenovationBudget
	case Rent:
		return p.ProjectedMonthlyRent
	case ARV:
		return p.AfterRepairValue
	case PurchasePrice:
		return p.PurchasePrice
	}
	return 0
}

// Variables lists the supported variables.
func Variables() []Variable {
	return []Variable{InterestRate, RenovationCost, Rent, ARV, PurchasePrice}
}

func checkAxes(var1, var2 Axis) error {
	for _, a := range []Axis{var1, var2} {
		if !slices.Contains(Variables(), a.Variable) {
			return eris.Wrapf(ErrInvalidAxis, "unknown variable %q", a.Variable)
		}
		if len(a.Values) == 0 || len(a.Values) > MaxAxisValues {
			return eris.Wrapf(ErrInvalidAxis, "%s needs between 1 and %d values, got %d", a.Variable, MaxAxisValues, len(a.Values))
		}
		for _, v := range a.Values {
			if !mathutil.IsFinite(v) || v < 0 {
				return eris.Wrapf(ErrInvalidAxis, "%s value %v must be a finite non-negative number", a.Variable, v)
			}
		}
	}
	if var1.Variable == var2.Variable {
		return eris.Wrapf(ErrInvalidAxis, "both axes vary %s", var1.Variable)
	}
	return nil
}
