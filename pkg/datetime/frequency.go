package datetime

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/iwvelando/mortgage-trust/pkg/constants"
)

// Frequency is how often a payment falls due.
type Frequency int

const (
	// FrequencyUnspecified is the zero value.
	FrequencyUnspecified Frequency = iota
	// Monthly payments step by calendar month.
	Monthly
	// BiWeekly payments step by 14 days.
	BiWeekly
	// Weekly payments step by 7 days.
	Weekly
)

// String returns the config spelling of the frequency.
func (f Frequency) String() string {
	switch f {
	case FrequencyUnspecified:
		return ""
	case Monthly:
		return "monthly"
	case BiWeekly:
		return "bi-weekly"
	case Weekly:
		return "weekly"
	default:
		return fmt.Sprintf("Frequency(%d)", int(f))
	}
}

// ParseFrequency accepts "monthly", "bi-weekly"/"biweekly" and "weekly". An
// empty string yields FrequencyUnspecified.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ReplaceAll(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", ""), "_", "") {
	case "":
		return FrequencyUnspecified, nil
	case "monthly":
		return Monthly, nil
	case "biweekly":
		return BiWeekly, nil
	case "weekly":
		return Weekly, nil
	default:
		return FrequencyUnspecified, fmt.Errorf("%w: payment frequency %q", ErrUnknownConvention, s)
	}
}

// PeriodsPerYear returns 12, 26 or 52.
func PeriodsPerYear(f Frequency) (int, error) {
	switch f {
	case Monthly:
		return constants.MonthsPerYear, nil
	case BiWeekly:
		return constants.BiWeeklyPeriodsPerYear, nil
	case Weekly:
		return constants.WeeklyPeriodsPerYear, nil
	default:
		return 0, fmt.Errorf("%w: payment frequency %s", ErrUnknownConvention, f)
	}
}

// Step returns the date n payment periods after start. Monthly steps are
// always taken from start, so a schedule anchored on the 31st keeps landing
// on each month's last day instead of drifting to the 28th.
func Step(start civil.Date, f Frequency, n int) (civil.Date, error) {
	switch f {
	case Monthly:
		return AddMonths(start, n), nil
	case BiWeekly:
		return start.AddDays(2 * constants.DaysPerWeek * n), nil
	case Weekly:
		return start.AddDays(constants.DaysPerWeek * n), nil
	default:
		return civil.Date{}, fmt.Errorf("%w: payment frequency %s", ErrUnknownConvention, f)
	}
}

// GeneratePaymentSchedule produces n payment dates starting at start.
func GeneratePaymentSchedule(start civil.Date, n int, f Frequency) ([]civil.Date, error) {
	if n < 0 {
		return nil, fmt.Errorf("payment count must not be negative, got %d", n)
	}
	dates := make([]civil.Date, 0, n)
	for i := 0; i < n; i++ {
		d, err := Step(start, f, i)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}
