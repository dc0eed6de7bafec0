// Package datetime provides the calendar month helpers used to label
// timelines.
package datetime

import (
	"time"

	"github.com/iwvelando/brrrr-analyzer/pkg/constants"
	"github.com/rotisserie/eris"
)

const (
	// MonthLayout is the format expected for start months and is also the
	// output label format.
	MonthLayout = constants.MonthLayout
)

// ErrInvalidMonth is returned for a month not in YYYY-MM form.
var ErrInvalidMonth = eris.New("invalid month")

// ParseMonth parses a YYYY-MM month.
func ParseMonth(month string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return time.Time{}, eris.Wrapf(ErrInvalidMonth, "%q, expected YYYY-MM", month)
	}
	return t, nil
}

// MustParseMonth parses a month and panics on error.
// This is intended for use in tests where the month is known to be valid.
func MustParseMonth(month string) time.Time {
	t, err := ParseMonth(month)
	if err != nil {
		panic(err)
	}
	return t
}

// OffsetMonth returns the month offset by the given number of months
// relative to the given month.
func OffsetMonth(month string, months int) (string, error) {
	t, err := ParseMonth(month)
	if err != nil {
		return month, err
	}
	return t.AddDate(0, months, 0).Format(MonthLayout), nil
}

// MonthLabels returns count consecutive months starting at start.
func MonthLabels(start string, count int) ([]string, error) {
	t, err := ParseMonth(start)
	if err != nil {
		return nil, err
	}
	labels := make([]string, count)
	for i := range labels {
		labels[i] = t.AddDate(0, i, 0).Format(MonthLayout)
	}
	return labels, nil
}
