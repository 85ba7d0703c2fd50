package ledger

import (
	"errors"
	"time"
)

// PeriodLayout is the canonical period key format.
const PeriodLayout = "2006-01"

// ErrInvalidPeriod indicates a malformed period key.
var ErrInvalidPeriod = errors.New("ledger: invalid period, want YYYY-MM")

// PeriodOf returns the period key for a date.
func PeriodOf(t time.Time) string {
	return t.Format(PeriodLayout)
}

// ParsePeriod parses a "YYYY-MM" key into the first instant of that month (UTC).
func ParsePeriod(period string) (time.Time, error) {
	t, err := time.Parse(PeriodLayout, period)
	if err != nil {
		return time.Time{}, ErrInvalidPeriod
	}
	return t, nil
}

// PeriodBounds returns the half-open [start, end) window of a period.
func PeriodBounds(period string) (time.Time, time.Time, error) {
	start, err := ParsePeriod(period)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 1, 0), nil
}

// PeriodContains reports whether a date falls inside the period.
func PeriodContains(period string, date time.Time) bool {
	return PeriodOf(date) == period
}

// NextPeriod returns the key of the month after the given period.
func NextPeriod(period string) (string, error) {
	start, err := ParsePeriod(period)
	if err != nil {
		return "", err
	}
	return PeriodOf(start.AddDate(0, 1, 0)), nil
}
