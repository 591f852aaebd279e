package datetime

import (
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/iwvelando/mortgage-trust/pkg/constants"
	"github.com/shopspring/decimal"
)

// ErrUnknownConvention is returned for a day-count basis or payment frequency
// outside the supported set.
var ErrUnknownConvention = errors.New("unknown date convention")

// DayCountBasis converts an elapsed interval into a fraction of a year.
type DayCountBasis int

const (
	// BasisUnspecified is the zero value; the daily method rejects it.
	BasisUnspecified DayCountBasis = iota
	// Actual365 counts actual days over a 365-day year.
	Actual365
	// Actual360 counts actual days over a 360-day year.
	Actual360
	// Thirty360 counts 30-day months over a 360-day year (banker's rule).
	Thirty360
)

// String returns the conventional spelling of the basis.
func (b DayCountBasis) String() string {
	switch b {
	case BasisUnspecified:
		return ""
	case Actual365:
		return "actual/365"
	case Actual360:
		return "actual/360"
	case Thirty360:
		return "30/360"
	default:
		return fmt.Sprintf("DayCountBasis(%d)", int(b))
	}
}

// DaysInYear returns the denominator of the basis.
func (b DayCountBasis) DaysInYear() (int, error) {
	switch b {
	case Actual365:
		return 365, nil
	case Actual360, Thirty360:
		return 360, nil
	case BasisUnspecified:
		return 0, fmt.Errorf("%w: day count basis not set", ErrUnknownConvention)
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownConvention, b)
	}
}

// ParseDayCountBasis accepts "actual/365", "act/360", "30/360" and similar
// spellings. An empty string yields BasisUnspecified.
func ParseDayCountBasis(s string) (DayCountBasis, error) {
	normalized := strings.NewReplacer(" ", "", "_", "/", "-", "/").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch normalized {
	case "":
		return BasisUnspecified, nil
	case "actual/365", "act/365", "actual365", "a/365":
		return Actual365, nil
	case "actual/360", "act/360", "actual360", "a/360":
		return Actual360, nil
	case "30/360", "thirty/360", "30360", "bond":
		return Thirty360, nil
	default:
		return BasisUnspecified, fmt.Errorf("%w: day count basis %q", ErrUnknownConvention, s)
	}
}

// ThirtyDays returns the 30/360 day count from a to b: each day-of-month is
// clamped to at most 30, then 360×Δy + 30×Δm + Δd.
func ThirtyDays(a, b civil.Date) int {
	d1 := min(a.Day, constants.ThirtyDayMonth)
	d2 := min(b.Day, constants.ThirtyDayMonth)
	return 360*(b.Year-a.Year) + 30*int(b.Month-a.Month) + (d2 - d1)
}

// DayCountDays returns the numerator and denominator of the year fraction
// between a and b under basis. The numerator is actual days for the actual
// bases and 30/360 days for Thirty360.
func DayCountDays(a, b civil.Date, basis DayCountBasis) (days int, daysInYear int, err error) {
	daysInYear, err = basis.DaysInYear()
	if err != nil {
		return 0, 0, err
	}
	switch basis {
	case Actual365, Actual360:
		days = DaysBetween(a, b)
	case Thirty360:
		days = ThirtyDays(a, b)
	}
	return days, daysInYear, nil
}

// DayCountFraction returns the year fraction between a and b under basis.
func DayCountFraction(a, b civil.Date, basis DayCountBasis) (decimal.Decimal, error) {
	days, daysInYear, err := DayCountDays(a, b, basis)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(int64(days)).DivRound(decimal.NewFromInt(int64(daysInYear)), constants.FractionPrecision), nil
}
