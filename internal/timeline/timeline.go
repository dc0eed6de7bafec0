// Package timeline lays a BRRRR analysis out month by month, from the
// purchase to the end of a modeled horizon.
package timeline

import (
	"slices"

	"github.com/iwvelando/brrrr-analyzer/internal/brrrr"
	"github.com/iwvelando/brrrr-analyzer/pkg/datetime"
	"github.com/iwvelando/brrrr-analyzer/pkg/mathutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Phase is a stage of the deal.
type Phase string

// Phases in the order they occur.
const (
	Acquisition Phase = "acquisition"
	Renovation  Phase = "renovation"
	Rental      Phase = "rental"
	Refinance   Phase = "refinance"
	Stabilized  Phase = "stabilized"
)

// MaxHorizonMonths bounds the modeled horizon.
const MaxHorizonMonths = 600

// ErrInvalidHorizon is returned for a horizon outside 1..MaxHorizonMonths.
var ErrInvalidHorizon = eris.New("invalid timeline horizon")

// Event is a phase spanning the inclusive month range [StartMonth, EndMonth].
// MonthlyCashflow is the net flow of each month in the range.
type Event struct {
	Phase           Phase   `json:"phase"`
	StartMonth      int     `json:"startMonth"`
	EndMonth        int     `json:"endMonth"`
	MonthlyCashflow float64 `json:"monthlyCashflow"`
	StartDate       string  `json:"startDate,omitempty"`
	EndDate         string  `json:"endDate,omitempty"`
}

// Point is one month of the cashflow sequence.
type Point struct {
	Month      int     `json:"month"`
	Date       string  `json:"date,omitempty"`
	Phase      Phase   `json:"phase"`
	Cashflow   float64 `json:"cashflow"`
	Cumulative float64 `json:"cumulative"`
}

// Timeline is the month-by-month view of one analysis. The two derived
// months are nil when not reached within the horizon.
type Timeline struct {
	HorizonMonths        int     `json:"horizonMonths"`
	StartDate            string  `json:"startDate,omitempty"`
	Events               []Event `json:"events"`
	Cashflow             []Point `json:"cashflow"`
	BreakEvenMonth       *int    `json:"breakEvenMonth"`
	CapitalRecoveryMonth *int    `json:"capitalRecoveryMonth"`
}

// Build derives the timeline of result over horizonMonths months after the
// purchase. Month 0 is the closing. The renovation occupies the next
// months, then the property is rented until the refinance, after which it
// runs on the new financing.
func Build(logger *zap.Logger, result brrrr.Result, horizonMonths int) (Timeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if horizonMonths < 1 || horizonMonths > MaxHorizonMonths {
		return Timeline{}, eris.Wrapf(ErrInvalidHorizon, "horizon of %d months, expected 1 to %d", horizonMonths, MaxHorizonMonths)
	}

	schedule := phases(result)
	tl := Timeline{HorizonMonths: horizonMonths}
	for _, e := range schedule {
		if e.StartMonth > horizonMonths {
			continue
		}
		e.EndMonth = min(e.EndMonth, horizonMonths)
		tl.Events = append(tl.Events, e)
	}

	var cumulative, extracted, spent float64
	for month := 0; month <= horizonMonths; month++ {
		phase, flow := monthFlow(schedule, month, result)
		cumulative = mathutil.Round(cumulative + flow)
		if phase == Refinance {
			extracted += flow
		} else if flow < 0 {
			spent -= flow
		}

		tl.Cashflow = append(tl.Cashflow, Point{
			Month:      month,
			Phase:      phase,
			Cashflow:   flow,
			Cumulative: cumulative,
		})

		if tl.BreakEvenMonth == nil && month > 0 && cumulative >= 0 && tl.Cashflow[month-1].Cumulative < 0 {
			m := month
			tl.BreakEvenMonth = &m
		}
		if tl.CapitalRecoveryMonth == nil && extracted > 0 && mathutil.Round(extracted-spent) >= 0 {
			m := month
			tl.CapitalRecoveryMonth = &m
		}
	}

	logger.Debug("timeline built",
		zap.String("op", "timeline.Build"),
		zap.Int("horizon", horizonMonths),
		zap.Int("events", len(tl.Events)),
		zap.Bool("breakEven", tl.BreakEvenMonth != nil),
		zap.Bool("capitalRecovered", tl.CapitalRecoveryMonth != nil),
	)
	return tl, nil
}

// WithCalendar returns a copy of tl whose months are labelled with calendar
// months, month 0 (the closing) being start in YYYY-MM form.
func (tl Timeline) WithCalendar(start string) (Timeline, error) {
	labels, err := datetime.MonthLabels(start, tl.HorizonMonths+1)
	if err != nil {
		return Timeline{}, err
	}

	out := tl
	out.StartDate = labels[0]
	out.Events = slices.Clone(tl.Events)
	for i, e := range out.Events {
		out.Events[i].StartDate = labels[e.StartMonth]
		out.Events[i].EndDate = labels[e.EndMonth]
	}
	out.Cashflow = slices.Clone(tl.Cashflow)
	for i, p := range out.Cashflow {
		out.Cashflow[i].Date = labels[p.Month]
	}
	return out, nil
}

// phases returns the full, unclipped phase schedule. Phases with no
// months are omitted.
func phases(result brrrr.Result) []Event {
	reno := result.Renovation
	duration := reno.DurationMonths
	seasoning := result.Refinance.MonthsToRefinance - duration
	refinanceMonth := result.Refinance.MonthsToRefinance + 1

	acquisitionFlow := -result.Acquisition.TotalCashAtAcquisition
	renovationFlow := -reno.MonthlyCarryCost
	if duration > 0 {
		renovationFlow -= reno.CashRequired / float64(duration)
	} else {
		acquisitionFlow -= reno.CashRequired
	}

	events := []Event{{Phase: Acquisition, StartMonth: 0, EndMonth: 0, MonthlyCashflow: mathutil.Round(acquisitionFlow)}}
	if duration > 0 {
		events = append(events, Event{
			Phase:           Renovation,
			StartMonth:      1,
			EndMonth:        duration,
			MonthlyCashflow: mathutil.Round(renovationFlow),
		})
	}
	if seasoning > 0 {
		events = append(events, Event{
			Phase:           Rental,
			StartMonth:      duration + 1,
			EndMonth:        duration + seasoning,
			MonthlyCashflow: mathutil.Round(result.Rental.MonthlyNOI - result.Acquisition.InitialMonthlyPayment - reno.MonthlyFinancingCost),
		})
	}
	return append(events,
		Event{Phase: Refinance, StartMonth: refinanceMonth, EndMonth: refinanceMonth, MonthlyCashflow: result.Refinance.GrossCashOut},
		Event{Phase: Stabilized, StartMonth: refinanceMonth + 1, EndMonth: MaxHorizonMonths, MonthlyCashflow: result.KPIs.MonthlyCashflow},
	)
}

// monthFlow finds the phase covering month and its flow. The last month
// of a cash-funded renovation absorbs the rounding remainder so that the
// renovation total is exact.
func monthFlow(schedule []Event, month int, result brrrr.Result) (Phase, float64) {
	for _, e := range schedule {
		if month < e.StartMonth || month > e.EndMonth {
			continue
		}
		if e.Phase == Renovation && month == e.EndMonth {
			reno := result.Renovation
			paid := e.MonthlyCashflow * float64(e.EndMonth-1)
			total := -(reno.TotalCarryCost + reno.CashRequired)
			return e.Phase, mathutil.Round(total - paid)
		}
		return e.Phase, e.MonthlyCashflow
	}
	return Stabilized, result.KPIs.MonthlyCashflow
}
