package timeline

import (
	"errors"
	"testing"

	"github.com/iwvelando/brrrr-analyzer/internal/brrrr"
	"github.com/iwvelando/brrrr-analyzer/pkg/datetime"
	"github.com/iwvelando/brrrr-analyzer/pkg/testutil"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func analyze(t *testing.T, in validation.PropertyFinancials) brrrr.Result {
	t.Helper()
	result, err := brrrr.NewEngine(zap.NewNop(), nil, validation.DefaultAssumptions()).Analyze(in)
	require.NoError(t, err)
	return result
}

func TestBuildTriplex(t *testing.T) {
	result := analyze(t, testutil.Triplex())
	tl, err := Build(zap.NewNop(), result, 60)
	require.NoError(t, err)

	assert.Equal(t, []Event{
		{Phase: Acquisition, StartMonth: 0, EndMonth: 0, MonthlyCashflow: -108533},
		{Phase: Renovation, StartMonth: 1, EndMonth: 3, MonthlyCashflow: -3106.5},
		{Phase: Rental, StartMonth: 4, EndMonth: 9, MonthlyCashflow: 954.74},
		{Phase: Refinance, StartMonth: 10, EndMonth: 10, MonthlyCashflow: result.Refinance.GrossCashOut},
		{Phase: Stabilized, StartMonth: 11, EndMonth: 60, MonthlyCashflow: result.KPIs.MonthlyCashflow},
	}, tl.Events)

	require.Len(t, tl.Cashflow, 61)
	assert.Equal(t, -3106.51, tl.Cashflow[3].Cashflow)
	assert.InDelta(t, -result.KPIs.TotalCashInvested, tl.Cashflow[3].Cumulative, 0.001)
	assert.InDelta(t, -112124.07, tl.Cashflow[9].Cumulative, 0.001)
	assert.InDelta(t, -53530.93, tl.Cashflow[10].Cumulative, 0.001)
	assert.Equal(t, Refinance, tl.Cashflow[10].Phase)
	assert.InDelta(t, 4477.07, tl.Cashflow[60].Cumulative, 0.001)

	require.NotNil(t, tl.BreakEvenMonth)
	assert.Equal(t, 57, *tl.BreakEvenMonth)
	assert.Nil(t, tl.CapitalRecoveryMonth)
}

func TestBuildCapitalRecoveredAtRefinance(t *testing.T) {
	in := testutil.Triplex()
	in.ProjectedMonthlyRent = testutil.Ptr(6000.0)
	in.AfterRepairValue = testutil.Ptr(800000.0)

	tl, err := Build(nil, analyze(t, in), 60)
	require.NoError(t, err)

	assert.InDelta(t, -104001.57, tl.Cashflow[9].Cumulative, 0.001)
	assert.InDelta(t, 74591.57, tl.Cashflow[10].Cumulative, 0.001)
	require.NotNil(t, tl.BreakEvenMonth)
	assert.Equal(t, 10, *tl.BreakEvenMonth)
	require.NotNil(t, tl.CapitalRecoveryMonth)
	assert.Equal(t, 10, *tl.CapitalRecoveryMonth)
}

func TestBuildShortHorizonClipsEvents(t *testing.T) {
	tl, err := Build(nil, analyze(t, testutil.Triplex()), 8)
	require.NoError(t, err)

	require.Len(t, tl.Events, 3)
	assert.Equal(t, Rental, tl.Events[2].Phase)
	assert.Equal(t, 8, tl.Events[2].EndMonth)
	assert.Len(t, tl.Cashflow, 9)
	assert.Nil(t, tl.BreakEvenMonth)
	assert.Nil(t, tl.CapitalRecoveryMonth)
}

func TestBuildEventsDoNotOverlap(t *testing.T) {
	for _, in := range []validation.PropertyFinancials{testutil.Triplex(), testutil.InsuredDuplex(), testutil.SixPlex()} {
		tl, err := Build(nil, analyze(t, in), 120)
		require.NoError(t, err)
		for i := 1; i < len(tl.Events); i++ {
			assert.Equal(t, tl.Events[i-1].EndMonth+1, tl.Events[i].StartMonth)
			assert.LessOrEqual(t, tl.Events[i].StartMonth, tl.Events[i].EndMonth)
		}
	}
}

func TestBuildWithoutRenovationMonths(t *testing.T) {
	in := testutil.Triplex()
	in.RenovationDurationMonths = testutil.Ptr(0)
	in.RenoFinancingType = testutil.Ptr(validation.FinancingCash)

	result := analyze(t, in)
	tl, err := Build(nil, result, 24)
	require.NoError(t, err)

	assert.Equal(t, Rental, tl.Events[1].Phase)
	assert.Equal(t, 1, tl.Events[1].StartMonth)
	assert.InDelta(t, -result.KPIs.TotalCashInvested, tl.Cashflow[0].Cumulative, 0.001)
}

func TestBuildInvalidHorizon(t *testing.T) {
	result := analyze(t, testutil.Triplex())
	for _, horizon := range []int{0, -1, MaxHorizonMonths + 1} {
		_, err := Build(nil, result, horizon)
		assert.True(t, errors.Is(err, ErrInvalidHorizon), "horizon %d", horizon)
	}
}

func TestWithCalendar(t *testing.T) {
	tl, err := Build(nil, analyze(t, testutil.Triplex()), 24)
	require.NoError(t, err)

	dated, err := tl.WithCalendar("2025-11")
	require.NoError(t, err)

	assert.Equal(t, "2025-11", dated.StartDate)
	assert.Equal(t, "2025-11", dated.Cashflow[0].Date)
	assert.Equal(t, "2026-01", dated.Cashflow[2].Date)
	assert.Equal(t, "2027-11", dated.Cashflow[24].Date)
	assert.Equal(t, "2025-12", dated.Events[1].StartDate)
	assert.Equal(t, "2026-03", dated.Events[2].StartDate)
	assert.Equal(t, "2027-11", dated.Events[len(dated.Events)-1].EndDate)

	// The undated timeline is left as it was.
	assert.Empty(t, tl.StartDate)
	assert.Empty(t, tl.Cashflow[0].Date)
	assert.Empty(t, tl.Events[1].StartDate)

	_, err = tl.WithCalendar("November 2025")
	assert.True(t, errors.Is(err, datetime.ErrInvalidMonth))
}
