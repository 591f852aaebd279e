package datetime

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		months   int
		expected string
	}{
		{"Simple step", "2026-02-01", 1, "2026-03-01"},
		{"Year rollover", "2025-12-15", 1, "2026-01-15"},
		{"Jan 31 to Feb in common year", "2025-01-31", 1, "2025-02-28"},
		{"Jan 31 to Feb in leap year", "2024-01-31", 1, "2024-02-29"},
		{"Mar 31 to Apr", "2026-03-31", 1, "2026-04-30"},
		{"Multiple years", "2026-02-01", 359, "2056-01-01"},
		{"Negative step", "2026-03-31", -1, "2026-02-28"},
		{"Negative across year", "2026-01-15", -13, "2024-12-15"},
		{"Zero", "2026-05-17", 0, "2026-05-17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AddMonths(MustParseDate(tt.date), tt.months)
			if result.String() != tt.expected {
				t.Errorf("AddMonths(%s, %d) = %s, expected %s", tt.date, tt.months, result, tt.expected)
			}
		})
	}
}

func TestAddMonthsNeverSkipsOrRepeats(t *testing.T) {
	start := MustParseDate("2024-01-31")
	previous := start
	for i := 1; i <= 600; i++ {
		current := AddMonths(start, i)
		if !current.IsValid() {
			t.Fatalf("AddMonths(%s, %d) produced invalid date %s", start, i, current)
		}
		if !previous.Before(current) {
			t.Fatalf("AddMonths(%s, %d) = %s is not after %s", start, i, current, previous)
		}
		if current.Day != DaysInMonth(current.Year, current.Month) {
			t.Fatalf("AddMonths(%s, %d) = %s is not the last day of its month", start, i, current)
		}
		previous = current
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"Same day", "2026-01-01", "2026-01-01", 0},
		{"One day", "2026-01-01", "2026-01-02", 1},
		{"January", "2026-01-01", "2026-02-01", 31},
		{"Leap February", "2024-02-01", "2024-03-01", 29},
		{"Across DST start", "2026-03-01", "2026-04-01", 31},
		{"Across DST end", "2026-10-01", "2026-11-01", 31},
		{"Reversed", "2026-02-01", "2026-01-01", -31},
		{"Full leap year", "2024-01-01", "2025-01-01", 366},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DaysBetween(MustParseDate(tt.a), MustParseDate(tt.b))
			if result != tt.expected {
				t.Errorf("DaysBetween(%s, %s) = %d, expected %d", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

func TestDateRoundTrip(t *testing.T) {
	dates := []string{"2026-02-01", "2024-02-29", "1999-12-31", "2056-01-01"}
	for _, s := range dates {
		d, err := ParseDate(s)
		if err != nil {
			t.Fatalf("ParseDate(%q) error = %v", s, err)
		}
		if FormatDate(d) != s {
			t.Errorf("FormatDate(ParseDate(%q)) = %q", s, FormatDate(d))
		}
		again, err := ParseDate(FormatDate(d))
		if err != nil || again != d {
			t.Errorf("ParseDate(FormatDate(%v)) = %v, %v", d, again, err)
		}
	}
}

func TestParseDateErrors(t *testing.T) {
	for _, s := range []string{"", "2026-02", "2026-02-30x", "not-a-date"} {
		if _, err := ParseDate(s); err == nil {
			t.Errorf("ParseDate(%q) expected error", s)
		}
	}
}

func TestMustParseDatePanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected MustParseDate to panic with invalid date")
		}
	}()

	MustParseDate("invalid-date")
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year     int
		month    time.Month
		expected int
	}{
		{2024, time.February, 29},
		{2025, time.February, 28},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2026, time.April, 30},
		{2026, time.December, 31},
	}

	for _, tt := range tests {
		if result := DaysInMonth(tt.year, tt.month); result != tt.expected {
			t.Errorf("DaysInMonth(%d, %s) = %d, expected %d", tt.year, tt.month, result, tt.expected)
		}
	}
}

func TestDateBeforeDate(t *testing.T) {
	a := civil.Date{Year: 2026, Month: time.January, Day: 1}
	b := civil.Date{Year: 2026, Month: time.January, Day: 2}
	if !DateBeforeDate(a, b) || DateBeforeDate(b, a) || DateBeforeDate(a, a) {
		t.Errorf("DateBeforeDate returned unexpected values")
	}
}
