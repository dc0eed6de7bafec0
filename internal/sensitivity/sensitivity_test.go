package sensitivity

import (
	"context"
	"errors"
	"testing"

	"github.com/iwvelando/brrrr-analyzer/internal/brrrr"
	"github.com/iwvelando/brrrr-analyzer/pkg/rules"
	"github.com/iwvelando/brrrr-analyzer/pkg/testutil"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGenerator() (*Generator, *brrrr.Engine) {
	engine := brrrr.NewEngine(zap.NewNop(), nil, validation.DefaultAssumptions())
	return NewGenerator(zap.NewNop(), engine, 4), engine
}

func TestGenerateBaseCellMatchesAnalysis(t *testing.T) {
	g, engine := newGenerator()
	base, err := engine.Analyze(testutil.Triplex())
	require.NoError(t, err)

	m, err := g.Generate(context.Background(), testutil.Triplex(),
		Axis{Variable: InterestRate, Values: []float64{0.04, 0.05, 0.06}},
		Axis{Variable: Rent, Values: []float64{4000, 4500, 5000}},
	)
	require.NoError(t, err)

	require.NotNil(t, m.Base)
	assert.Equal(t, 1, m.Base.Row)
	assert.Equal(t, 1, m.Base.Col)
	assert.InDelta(t, base.KPIs.MonthlyCashflow, m.Cashflow[1][1], 1e-9)
	assert.InDelta(t, base.KPIs.ReturnOnInvestment, m.ROI[1][1], 1e-9)
	assert.InDelta(t, base.KPIs.DSCR, m.DSCR[1][1], 1e-9)
	require.NotNil(t, m.CashOnCash[1][1])
	require.NotNil(t, base.KPIs.CashOnCash)
	assert.InDelta(t, *base.KPIs.CashOnCash, *m.CashOnCash[1][1], 1e-9)
}

func TestGenerateWithPinnedRules(t *testing.T) {
	g, engine := newGenerator()
	tight := rules.Default()
	tight.RefinanceMaxLTV = 0.70

	pinned, err := engine.AnalyzeWith(testutil.Triplex(), tight)
	require.NoError(t, err)
	current, err := engine.Analyze(testutil.Triplex())
	require.NoError(t, err)
	require.NotEqual(t, current.KPIs.MonthlyCashflow, pinned.KPIs.MonthlyCashflow)

	m, err := g.GenerateWith(context.Background(), testutil.Triplex(),
		Axis{Variable: InterestRate, Values: []float64{0.04, 0.05, 0.06}},
		Axis{Variable: Rent, Values: []float64{4000, 4500, 5000}},
		tight,
	)
	require.NoError(t, err)
	require.NotNil(t, m.Base)
	assert.InDelta(t, pinned.KPIs.MonthlyCashflow, m.Cashflow[1][1], 1e-9)
	assert.InDelta(t, pinned.KPIs.DSCR, m.DSCR[1][1], 1e-9)
}

func TestGenerateGridShapeAndOrdering(t *testing.T) {
	g, _ := newGenerator()
	m, err := g.Generate(context.Background(), testutil.Triplex(),
		Axis{Variable: InterestRate, Values: []float64{0.04, 0.05, 0.06}},
		Axis{Variable: Rent, Values: []float64{4000, 4500, 5000, 5500}},
	)
	require.NoError(t, err)

	for _, grid := range [][][]float64{m.Cashflow, m.ROI, m.DSCR} {
		require.Len(t, grid, 3)
		for _, row := range grid {
			assert.Len(t, row, 4)
		}
	}
	require.Len(t, m.CashOnCash, 3)

	for i := range m.Cashflow {
		for j := 1; j < len(m.Cashflow[i]); j++ {
			assert.Greater(t, m.Cashflow[i][j], m.Cashflow[i][j-1], "more rent, more cashflow")
		}
	}
	for j := range m.Cashflow[0] {
		for i := 1; i < len(m.Cashflow); i++ {
			assert.Less(t, m.Cashflow[i][j], m.Cashflow[i-1][j], "higher rate, less cashflow")
		}
	}

	assert.Equal(t, 0, m.Best.Row)
	assert.Equal(t, 3, m.Best.Col)
	assert.Equal(t, 0.04, m.Best.Var1Value)
	assert.Equal(t, 5500.0, m.Best.Var2Value)
	assert.Equal(t, 2, m.Worst.Row)
	assert.Equal(t, 0, m.Worst.Col)
}

func TestGenerateBreakEven(t *testing.T) {
	g, _ := newGenerator()
	m, err := g.Generate(context.Background(), testutil.Triplex(),
		Axis{Variable: InterestRate, Values: []float64{0.05}},
		Axis{Variable: Rent, Values: []float64{2500, 3000, 3500, 4000}},
	)
	require.NoError(t, err)

	assert.Less(t, m.Cashflow[0][1], 0.0)
	assert.GreaterOrEqual(t, m.Cashflow[0][2], 0.0)
	require.Len(t, m.BreakEven, 1)
	assert.Equal(t, 0, m.BreakEven[0].Row)
	assert.Equal(t, 2, m.BreakEven[0].Col)
	assert.Equal(t, 3500.0, m.BreakEven[0].Var2Value)
	assert.Nil(t, m.Base)
}

func TestBreakEvenRowsAndColumns(t *testing.T) {
	m := Matrix{
		Var1: Axis{Variable: InterestRate, Values: []float64{0.04, 0.05, 0.06}},
		Var2: Axis{Variable: Rent, Values: []float64{1, 2, 3}},
		Cashflow: [][]float64{
			{-10, 5, 20},
			{-20, -5, 10},
			{-30, -15, 0},
		},
	}

	cells := breakEven(m)
	var got [][2]int
	for _, c := range cells {
		got = append(got, [2]int{c.Row, c.Col})
	}
	// (0,1) from row 0 and column 1, (1,2) from row 1, (2,2) from row 2
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}, {2, 2}}, got)

	best, worst := extremes(m)
	assert.Equal(t, 20.0, best.Cashflow)
	assert.Equal(t, -30.0, worst.Cashflow)
}

func TestGenerateInvalidAxes(t *testing.T) {
	tests := []struct {
		name string
		var1 Axis
		var2 Axis
	}{
		{"Unknown variable", Axis{Variable: "vacancy", Values: []float64{1}}, Axis{Variable: Rent, Values: []float64{1}}},
		{"Empty values", Axis{Variable: ARV, Values: nil}, Axis{Variable: Rent, Values: []float64{1}}},
		{"Same variable", Axis{Variable: Rent, Values: []float64{1}}, Axis{Variable: Rent, Values: []float64{2}}},
		{"Negative value", Axis{Variable: ARV, Values: []float64{-1}}, Axis{Variable: Rent, Values: []float64{1}}},
		{"Too many values", Axis{Variable: ARV, Values: make([]float64, MaxAxisValues+1)}, Axis{Variable: Rent, Values: []float64{1}}},
	}

	g, _ := newGenerator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Generate(context.Background(), testutil.Triplex(), tt.var1, tt.var2)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidAxis))
		})
	}
}

func TestGenerateMalformedBase(t *testing.T) {
	g, _ := newGenerator()
	in := testutil.Triplex()
	in.PurchasePrice = nil

	_, err := g.Generate(context.Background(), in,
		Axis{Variable: InterestRate, Values: []float64{0.05}},
		Axis{Variable: Rent, Values: []float64{4500}},
	)
	assert.True(t, errors.Is(err, validation.ErrMalformedInput))
}

func TestGenerateCanceled(t *testing.T) {
	g, _ := newGenerator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, testutil.Triplex(),
		Axis{Variable: InterestRate, Values: []float64{0.04, 0.05}},
		Axis{Variable: Rent, Values: []float64{4000, 4500}},
	)
	assert.True(t, errors.Is(err, context.Canceled))
}
