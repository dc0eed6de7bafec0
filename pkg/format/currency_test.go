package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		expected string
	}{
		{"zero", 0, "$0.00"},
		{"thousands", 1234.56, "$1,234.56"},
		{"millions", 2136600, "$2,136,600.00"},
		{"negative", -1234.5, "-$1,234.50"},
		{"small", 8.37, "$8.37"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Currency(tt.amount))
		})
	}
}

func TestNumericCurrency(t *testing.T) {
	assert.Equal(t, "-1,234.56", NumericCurrency(-1234.56))
	assert.Equal(t, "270,000.00", NumericCurrency(270000))
}

func TestPercentAndRatio(t *testing.T) {
	assert.Equal(t, "5.25%", Percent(0.0525))
	assert.Equal(t, "1.20x", Ratio(1.2))
	assert.Equal(t, "∞", OptionalPercent(nil))
	v := 0.125
	assert.Equal(t, "12.50%", OptionalPercent(&v))
}

func TestWholeCurrency(t *testing.T) {
	assert.Equal(t, "$58,900", WholeCurrency(58900))
	assert.Equal(t, "$0", WholeCurrency(0))
	assert.Equal(t, "-$1,000", WholeCurrency(-1000))
}
