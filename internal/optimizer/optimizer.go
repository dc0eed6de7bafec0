// Package optimizer searches one input of a deal for the value that keeps an
// indicator at a floor: the highest price a buyer can pay and still recover
// their cash, the lowest rent that still cashflows, and the like.
package optimizer

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/iwvelando/brrrr-analyzer/internal/brrrr"
	"github.com/iwvelando/brrrr-analyzer/internal/sensitivity"
	"github.com/iwvelando/brrrr-analyzer/pkg/format"
	"github.com/iwvelando/brrrr-analyzer/pkg/mathutil"
	"github.com/iwvelando/brrrr-analyzer/pkg/optimization"
	"github.com/iwvelando/brrrr-analyzer/pkg/rules"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Metric names the indicator held at the floor.
type Metric string

// Supported metrics.
const (
	MonthlyCashflow Metric = "monthlyCashflow"
	DSCR            Metric = "dscr"
	NetCashOut      Metric = "netCashOut"
)

const (
	defaultToleranceAmount = 0.01
	defaultToleranceRate   = 1e-6
	defaultMaxIterations   = 50
	maxIterationsLimit     = 200
)

// ErrInvalidRequest is returned for an unusable search definition.
var ErrInvalidRequest = eris.New("invalid optimizer request")

// Request defines a single-variable search over [Min, Max].
type Request struct {
	Property      validation.PropertyFinancials `json:"property" yaml:"property"`
	Variable      sensitivity.Variable          `json:"variable" yaml:"variable"`
	Metric        Metric                        `json:"metric,omitempty" yaml:"metric,omitempty"`
	Floor         float64                       `json:"floor" yaml:"floor"`
	Min           float64                       `json:"min" yaml:"min"`
	Max           float64                       `json:"max" yaml:"max"`
	Tolerance     float64                       `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
	MaxIterations int                           `json:"maxIterations,omitempty" yaml:"maxIterations,omitempty"`
}

// Metrics lists the supported metrics.
func Metrics() []Metric {
	return []Metric{MonthlyCashflow, DSCR, NetCashOut}
}

// Normalize fills in the metric, tolerance and iteration defaults.
func (r *Request) Normalize() {
	if r.Metric == "" {
		r.Metric = MonthlyCashflow
	}
	if r.Tolerance <= 0 {
		r.Tolerance = defaultToleranceAmount
		if r.Variable == sensitivity.InterestRate {
			r.Tolerance = defaultToleranceRate
		}
	}
	if r.MaxIterations <= 0 {
		r.MaxIterations = defaultMaxIterations
	}
}

func (r Request) check() error {
	if !slices.Contains(sensitivity.Variables(), r.Variable) {
		return eris.Wrapf(ErrInvalidRequest, "unknown variable %q", r.Variable)
	}
	if !slices.Contains(Metrics(), r.Metric) {
		return eris.Wrapf(ErrInvalidRequest, "unknown metric %q", r.Metric)
	}
	for _, v := range []float64{r.Min, r.Max, r.Floor, r.Tolerance} {
		if !mathutil.IsFinite(v) {
			return eris.Wrap(ErrInvalidRequest, "bounds, floor and tolerance must be finite")
		}
	}
	if r.Min < 0 || r.Min >= r.Max {
		return eris.Wrapf(ErrInvalidRequest, "bounds must satisfy 0 <= min < max, got %v to %v", r.Min, r.Max)
	}
	if r.MaxIterations > maxIterationsLimit {
		return eris.Wrapf(ErrInvalidRequest, "maxIterations must not exceed %d", maxIterationsLimit)
	}
	return nil
}

type evaluation struct {
	value  float64
	metric float64
	floor  float64
	valid  bool
}

func (e evaluation) feasible() bool {
	return e.metric >= e.floor
}

func (e evaluation) headroom() float64 {
	return e.metric - e.floor
}

// Runner re-runs the pipeline for each candidate value.
type Runner struct {
	logger *zap.Logger
	engine *brrrr.Engine
}

// NewRunner creates a runner over engine.
func NewRunner(logger *zap.Logger, engine *brrrr.Engine) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, engine: engine}
}

// Run evaluates both bounds and bisects between them when exactly one holds
// the floor. When both hold it, the bound with the least headroom wins, so
// the answer always uses up as much of the floor as the bounds allow. When
// neither does, the bound closest to the floor is reported, unconverged.
// Every candidate uses the rules snapshot captured before the first one.
func (r *Runner) Run(ctx context.Context, req Request) (optimization.Summary, error) {
	return r.RunWith(ctx, req, r.engine.Rules())
}

// RunWith is Run against an explicit rules snapshot.
func (r *Runner) RunWith(ctx context.Context, req Request, snapshot rules.Rules) (optimization.Summary, error) {
	req.Normalize()
	if err := req.check(); err != nil {
		return optimization.Summary{}, err
	}

	base, err := r.engine.AnalyzeWith(req.Property, snapshot)
	if err != nil {
		return optimization.Summary{}, err
	}
	property := base.Inputs
	original := sensitivity.ValueOf(property, req.Variable)

	evaluate := func(value float64) (evaluation, error) {
		value = snapValue(req.Variable, mathutil.Clamp(value, req.Min, req.Max))
		p := property
		sensitivity.Apply(&p, req.Variable, value)
		result, err := r.engine.AnalyzeWith(p.Financials(), snapshot)
		if err != nil {
			return evaluation{}, eris.Wrapf(err, "%s=%v", req.Variable, value)
		}
		return evaluation{
			value:  value,
			metric: metricOf(result, req.Metric),
			floor:  req.Floor,
			valid:  result.Validation.IsValid,
		}, nil
	}

	lower, err := evaluate(req.Min)
	if err != nil {
		return optimization.Summary{}, err
	}
	upper, err := evaluate(req.Max)
	if err != nil {
		return optimization.Summary{}, err
	}

	var (
		best       evaluation
		iterations int
		converged  bool
		notes      []string
	)
	switch {
	case !lower.feasible() && !upper.feasible():
		best = upper
		if lower.headroom() > upper.headroom() {
			best = lower
		}
		notes = append(notes, fmt.Sprintf("unable to hold %s at %s within bounds %s to %s",
			req.Metric, displayMetric(req.Metric, req.Floor),
			displayValue(req.Variable, req.Min), displayValue(req.Variable, req.Max)))
	case lower.feasible() && upper.feasible():
		best = upper
		if lower.headroom() < upper.headroom() {
			best = lower
		}
		converged = true
	default:
		feasible, infeasible := lower, upper
		if upper.feasible() {
			feasible, infeasible = upper, lower
		}
		for iterations < req.MaxIterations && math.Abs(infeasible.value-feasible.value) > req.Tolerance {
			if err := ctx.Err(); err != nil {
				return optimization.Summary{}, err
			}
			mid, err := evaluate(feasible.value + (infeasible.value-feasible.value)/2)
			if err != nil {
				return optimization.Summary{}, err
			}
			iterations++
			if mid.value == feasible.value || mid.value == infeasible.value {
				break
			}
			if mid.feasible() {
				feasible = mid
			} else {
				infeasible = mid
			}
		}
		best = feasible
		converged = true
	}
	if converged && !best.valid {
		notes = append(notes, "the deal violates lending rules at this value")
	}

	r.logger.Debug("optimizer search complete",
		zap.String("op", "optimizer.Run"),
		zap.String("variable", string(req.Variable)),
		zap.String("metric", string(req.Metric)),
		zap.Float64("value", best.value),
		zap.Int("iterations", iterations),
		zap.Bool("converged", converged),
	)

	return optimization.Summary{
		Variable:        string(req.Variable),
		Metric:          string(req.Metric),
		Original:        original,
		Value:           best.value,
		Floor:           req.Floor,
		MetricValue:     best.metric,
		Headroom:        mathutil.RoundTo(best.headroom(), 4),
		IsValid:         best.valid,
		Iterations:      iterations,
		Converged:       converged,
		Notes:           notes,
		OriginalDisplay: displayValue(req.Variable, original),
		ValueDisplay:    displayValue(req.Variable, best.value),
	}, nil
}

func metricOf(result brrrr.Result, m Metric) float64 {
	switch m {
	case DSCR:
		return result.KPIs.DSCR
	case NetCashOut:
		return result.Refinance.NetCashOut
	}
	return result.KPIs.MonthlyCashflow
}

// snapValue keeps candidates on the precision the inputs are reported at.
func snapValue(v sensitivity.Variable, value float64) float64 {
	if v == sensitivity.InterestRate {
		return mathutil.RoundTo(value, 6)
	}
	return mathutil.Round(value)
}

func displayValue(v sensitivity.Variable, value float64) string {
	if v == sensitivity.InterestRate {
		return format.Percent(value)
	}
	return format.Currency(value)
}

func displayMetric(m Metric, value float64) string {
	if m == DSCR {
		return format.Ratio(value)
	}
	return format.Currency(value)
}
