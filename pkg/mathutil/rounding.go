// Package mathutil provides rounding and comparison helpers for money and ratios.
package mathutil

import (
	"math"

	"github.com/iwvelando/brrrr-analyzer/pkg/constants"
	"github.com/shopspring/decimal"
)

// Round rounds a currency amount to cents, half away from zero.
// The value is converted through its shortest decimal representation so
// that 1.005 rounds to 1.01 rather than falling victim to binary error.
func Round(val float64) float64 {
	return RoundTo(val, constants.DecimalPlaces)
}

// RoundRatio rounds a ratio (DSCR, LTV) to the reporting precision.
func RoundRatio(val float64) float64 {
	return RoundTo(val, constants.RatioDecimalPlaces)
}

// RoundTo rounds val to the given number of decimal places, half away from zero.
// Non-finite values are returned unchanged.
func RoundTo(val float64, places int32) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return val
	}
	rounded, _ := decimal.NewFromFloat(val).Round(places).Float64()
	if rounded == 0 {
		// avoid reporting -0
		return 0
	}
	return rounded
}

// IsZero checks if a value is effectively zero (within one cent)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.CurrencyTolerance
}

// IsPositive checks if a value is positive (greater than tolerance)
func IsPositive(val float64) bool {
	return val > constants.CurrencyTolerance
}

// IsNegative checks if a value is negative (less than negative tolerance)
func IsNegative(val float64) bool {
	return val < -constants.CurrencyTolerance
}

// IsFinite reports whether val is neither NaN nor infinite.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// Clamp bounds val to [lo, hi].
func Clamp(val, lo, hi float64) float64 {
	return math.Min(math.Max(val, lo), hi)
}

// SafeDivide returns numerator/denominator, or 0 when the denominator is zero.
func SafeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// PercentToFraction converts a percentage (20) into a fraction (0.20).
func PercentToFraction(percentage float64) float64 {
	return percentage / constants.PercentageMultiplier
}

// ApplyPercentage applies a percentage to a value
func ApplyPercentage(value, percentage float64) float64 {
	return value * PercentToFraction(percentage)
}
