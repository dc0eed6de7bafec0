// Package format renders money, percentages and ratios for display.
package format

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	formatted := NumericCurrency(math.Abs(amount))
	if amount < 0 && formatted != "0.00" {
		return "-$" + formatted
	}
	return "$" + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	return printer.Sprintf("%.2f", amount)
}

// Percent renders a fraction as a percentage with two decimals (0.0525 -> "5.25%").
func Percent(fraction float64) string {
	return printer.Sprintf("%.2f", fraction*100) + "%"
}

// Ratio renders a coverage ratio such as DSCR ("1.20x").
func Ratio(value float64) string {
	return printer.Sprintf("%.2fx", value)
}

// OptionalPercent renders a nullable fraction, using "∞" for a missing value.
func OptionalPercent(fraction *float64) string {
	if fraction == nil {
		return "∞"
	}
	return Percent(*fraction)
}

// WholeCurrency renders an amount without cents ("$58,900").
func WholeCurrency(amount float64) string {
	if amount < 0 {
		return "-$" + printer.Sprintf("%.0f", math.Abs(amount))
	}
	return "$" + printer.Sprintf("%.0f", amount)
}
