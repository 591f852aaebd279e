// Package datetime provides calendar stepping and day-count conventions on
// zone-free civil dates.
package datetime

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/iwvelando/mortgage-trust/pkg/constants"
)

const (
	// DateLayout is the format expected in config files and statement rows
	// and is also the output date format.
	DateLayout = constants.DateLayout
)

// ParseDate parses a "2006-01-02" calendar date.
func ParseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// MustParseDate parses a date string and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseDate(s string) civil.Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FormatDate renders d as "2006-01-02".
func FormatDate(d civil.Date) string {
	return d.String()
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths steps d by n calendar months. When the original day does not
// exist in the target month it clamps to that month's last day, so Jan 31 + 1
// is Feb 28 (or 29) rather than rolling into March.
func AddMonths(d civil.Date, n int) civil.Date {
	total := d.Year*constants.MonthsPerYear + int(d.Month-1) + n
	year := floorDiv(total, constants.MonthsPerYear)
	month := time.Month(total-year*constants.MonthsPerYear) + 1

	day := d.Day
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return civil.Date{Year: year, Month: month, Day: day}
}

// DaysBetween returns the whole days from a to b, counting a and excluding b.
func DaysBetween(a, b civil.Date) int {
	return b.DaysSince(a)
}

// DateBeforeDate returns true if first is strictly before second.
func DateBeforeDate(first, second civil.Date) bool {
	return first.Before(second)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
