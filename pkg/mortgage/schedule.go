package mortgage

import (
	"fmt"

	"github.com/iwvelando/brrrr-analyzer/pkg/constants"
	"github.com/iwvelando/brrrr-analyzer/pkg/mathutil"
	"go.uber.org/zap"
)

// Payment holds the values for a given month of an amortization schedule.
type Payment struct {
	Month              int     `json:"month"`
	Payment            float64 `json:"payment"`
	Principal          float64 `json:"principal"`
	Interest           float64 `json:"interest"`
	RemainingPrincipal float64 `json:"remainingPrincipal"`
}

// ScheduleGenerator builds month-indexed amortization schedules.
type ScheduleGenerator struct {
	logger *zap.Logger
}

// NewScheduleGenerator creates a new generator instance
func NewScheduleGenerator(logger *zap.Logger) *ScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleGenerator{logger: logger}
}

// Generate returns the first months payments of a loan. months <= 0 means
// the full amortization period. The schedule stops early once the loan is
// repaid; the final payment absorbs any rounding residue.
func (g *ScheduleGenerator) Generate(principal, annualNominalRate float64, amortizationYears, months int) ([]Payment, error) {
	payment, err := MonthlyPayment(principal, annualNominalRate, amortizationYears)
	if err != nil {
		return nil, err
	}

	term := amortizationYears * constants.MonthsPerYear
	if months <= 0 || months > term {
		months = term
	}
	monthlyRate := MonthlyEffectiveRate(annualNominalRate)

	schedule := make([]Payment, 0, months)
	balance := principal
	for month := 1; month <= months && balance > 0; month++ {
		current := Payment{Month: month, Payment: payment}
		current.Interest = balance * monthlyRate
		current.Principal = payment - current.Interest

		if month == term || mathutil.Round(balance-current.Principal) <= 0 {
			// machine error would otherwise leave a fraction of a cent
			current.Principal = balance
			current.Payment = balance + current.Interest
			current.RemainingPrincipal = 0
		} else {
			current.RemainingPrincipal = balance - current.Principal
		}
		balance = current.RemainingPrincipal
		schedule = append(schedule, current)
	}

	g.logger.Debug(fmt.Sprintf("generated %d payments of %.2f on %.2f", len(schedule), payment, principal),
		zap.String("op", "mortgage.Generate"),
	)
	return schedule, nil
}
