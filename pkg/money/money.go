// Package money implements exact whole-cent amounts and the fixed-point
// interest math built on them.
//
// Money is an int64 count of cents. Addition and subtraction are exact;
// anything that can produce a fraction of a cent (scalar multiply and divide,
// interest accrual, conversion from a fractional dollar amount) rounds half
// away from zero, which for the non-negative amounts of a loan is round
// half-up. No value is ever computed through binary floating point.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/mortgage-trust/pkg/format"
	"github.com/iwvelando/mortgage-trust/pkg/mathutil"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidRate is returned for a negative, non-finite or >200% rate.
	ErrInvalidRate = errors.New("invalid rate")
	// ErrInvalidPeriod is returned for a non-positive period or day count.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrInvalidDayCountBasis is returned for a non-positive day-count denominator.
	ErrInvalidDayCountBasis = errors.New("invalid day count basis")
	// ErrOverflow is returned when a result does not fit in int64 cents.
	ErrOverflow = errors.New("money overflow")
	// ErrInvalidAmount is returned when an amount cannot be parsed.
	ErrInvalidAmount = errors.New("invalid amount")
)

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// Money is an exact amount of cents. The zero value is $0.00.
type Money struct {
	cents int64
}

// Zero is $0.00.
var Zero = Money{}

// FromCents returns the Money value holding exactly cents.
func FromCents(cents int64) Money {
	return Money{cents: cents}
}

// FromDollars converts a dollar amount to cents, rounding half-up.
func FromDollars(dollars decimal.Decimal) (Money, error) {
	return fromDecimalCents(dollars.Shift(2))
}

// MustFromDollars is FromDollars for amounts known to fit. It panics on
// overflow and is intended for constants and tests.
func MustFromDollars(dollars decimal.Decimal) Money {
	m, err := FromDollars(dollars)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseDollars parses strings such as "1798.65", "$1,798.65" or "-12.3".
func ParseDollars(s string) (Money, error) {
	cleaned := strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(cleaned, "-") {
		negative = true
		cleaned = strings.TrimSpace(cleaned[1:])
	}
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" || strings.HasPrefix(cleaned, "-") || strings.HasPrefix(cleaned, "+") {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	if negative {
		d = d.Neg()
	}
	return FromDollars(d)
}

// MustParseDollars parses s and panics on error. Intended for tests and
// package-level fixtures.
func MustParseDollars(s string) Money {
	m, err := ParseDollars(s)
	if err != nil {
		panic(err)
	}
	return m
}

func fromDecimalCents(cents decimal.Decimal) (Money, error) {
	rounded := cents.Round(0)
	if rounded.GreaterThan(maxCents) || rounded.LessThan(minCents) {
		return Zero, fmt.Errorf("%w: %s cents", ErrOverflow, rounded.String())
	}
	return Money{cents: rounded.IntPart()}, nil
}

// Cents returns the amount as a count of cents.
func (m Money) Cents() int64 {
	return m.cents
}

// Dollars returns the exact dollar amount.
func (m Money) Dollars() decimal.Decimal {
	return decimal.New(m.cents, -2)
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

// AddChecked returns m + other, or ErrOverflow when the sum does not fit in
// int64 cents.
func (m Money) AddChecked(other Money) (Money, error) {
	sum := m.cents + other.cents
	if (other.cents > 0 && sum < m.cents) || (other.cents < 0 && sum > m.cents) {
		return Zero, fmt.Errorf("%w: %s + %s", ErrOverflow, m, other)
	}
	return Money{cents: sum}, nil
}

// SumChecked is Sum with overflow detection.
func SumChecked(amounts ...Money) (Money, error) {
	total := Zero
	for _, a := range amounts {
		var err error
		if total, err = total.AddChecked(a); err != nil {
			return Zero, err
		}
	}
	return total, nil
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{cents: m.cents - other.cents}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{cents: -m.cents}
}

// Abs returns |m|.
func (m Money) Abs() Money {
	if m.cents < 0 {
		return m.Neg()
	}
	return m
}

// MulScalar returns m × factor rounded half-up to the cent.
func (m Money) MulScalar(factor decimal.Decimal) (Money, error) {
	return fromDecimalCents(decimal.NewFromInt(m.cents).Mul(factor))
}

// DivScalar returns m ÷ divisor rounded half-up to the cent.
func (m Money) DivScalar(divisor int64) (Money, error) {
	if divisor == 0 {
		return Zero, fmt.Errorf("%w: division by zero", ErrInvalidAmount)
	}
	return Money{cents: mathutil.DivRoundInt64(m.cents, divisor, mathutil.RoundNearest)}, nil
}

// Cmp returns -1, 0 or +1 as m is less than, equal to or greater than other.
func (m Money) Cmp(other Money) int {
	switch {
	case m.cents < other.cents:
		return -1
	case m.cents > other.cents:
		return 1
	default:
		return 0
	}
}

// Equal reports whether m and other hold the same number of cents.
func (m Money) Equal(other Money) bool {
	return m.cents == other.cents
}

// LessThan reports whether m < other.
func (m Money) LessThan(other Money) bool {
	return m.cents < other.cents
}

// LessThanOrEqual reports whether m <= other.
func (m Money) LessThanOrEqual(other Money) bool {
	return m.cents <= other.cents
}

// GreaterThan reports whether m > other.
func (m Money) GreaterThan(other Money) bool {
	return m.cents > other.cents
}

// IsZero reports whether m is $0.00.
func (m Money) IsZero() bool {
	return m.cents == 0
}

// IsPositive reports whether m > 0.
func (m Money) IsPositive() bool {
	return m.cents > 0
}

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool {
	return m.cents < 0
}

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a.cents < b.cents {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Money) Money {
	if a.cents > b.cents {
		return a
	}
	return b
}

// Sum adds all amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// String renders m as "$1,234.56".
func (m Money) String() string {
	return format.Currency(m.cents)
}

// Format renders m with the given display options.
func (m Money) Format(opts format.Options) string {
	return format.Amount(m.cents, opts)
}

// MarshalText encodes m as a plain dollar string such as "1798.65".
func (m Money) MarshalText() ([]byte, error) {
	return []byte(format.Plain(m.cents)), nil
}

// UnmarshalText accepts any string ParseDollars accepts.
func (m *Money) UnmarshalText(text []byte) error {
	parsed, err := ParseDollars(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalJSON encodes m as a JSON string so no consumer reads it as a float.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + format.Plain(m.cents) + `"`), nil
}

// UnmarshalJSON accepts both a JSON string and a bare JSON number. Numbers
// are parsed from their literal text, never through float64.
func (m *Money) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "null" {
		return nil
	}
	text = strings.Trim(text, `"`)
	return m.UnmarshalText([]byte(text))
}
