// Package constants provides shared non-regulatory constants for the brrrr-analyzer application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// CompoundingPeriodsPerYear is the number of compounding periods per year
	// for Canadian fixed-rate mortgages (semi-annual).
	CompoundingPeriodsPerYear = 2

	// DecimalPlaces is the currency precision (cents)
	DecimalPlaces = 2

	// RatioDecimalPlaces is the precision used for reported ratios such as DSCR
	RatioDecimalPlaces = 2

	// ReturnDecimalPlaces is the precision of fractional returns (0.1234 is 12.34%)
	ReturnDecimalPlaces = 4

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// EnvPrefix is the prefix for environment variable overrides (BRRRR_LOGGING_LEVEL)
	EnvPrefix = "BRRRR"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024

	// DefaultRateLimitRPS is the default sustained per-client request rate
	DefaultRateLimitRPS = 20.0

	// DefaultRateLimitBurst is the default per-client burst size
	DefaultRateLimitBurst = 40
)

// Comparison tolerances
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// RatioTolerance is the tolerance for ratio comparisons
	RatioTolerance = 1e-9
)

// Timeline defaults
const (
	// DefaultTimelineHorizonMonths is the default modeled horizon for timelines
	DefaultTimelineHorizonMonths = 60

	// DefaultSeasoningMonths is the default rental period before refinancing
	DefaultSeasoningMonths = 6

	// MonthLayout is the calendar month format of timeline labels (YYYY-MM)
	MonthLayout = "2006-01"
)
