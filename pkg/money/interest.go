package money

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/iwvelando/mortgage-trust/pkg/constants"
	"github.com/iwvelando/mortgage-trust/pkg/mathutil"
	"github.com/shopspring/decimal"
)

var maxAnnualRate = decimal.RequireFromString(constants.MaxAnnualRate)

// RatePPB converts an annual rate (0.06 for 6%) to integer parts per
// billion. Digits beyond the ninth decimal place round half-up.
func RatePPB(annualRate decimal.Decimal) (int64, error) {
	if err := ValidateRate(annualRate); err != nil {
		return 0, err
	}
	return annualRate.Shift(9).Round(0).IntPart(), nil
}

// ValidateRate checks that annualRate lies in [0, 2].
func ValidateRate(annualRate decimal.Decimal) error {
	if annualRate.IsNegative() || annualRate.GreaterThan(maxAnnualRate) {
		return fmt.Errorf("%w: %s is outside [0, %s]", ErrInvalidRate, annualRate.String(), constants.MaxAnnualRate)
	}
	return nil
}

// RateFromFloat converts a float rate from a loosely typed source (a JSON
// number, a YAML scalar) to a decimal, rejecting NaN and infinities.
func RateFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: %v is not finite", ErrInvalidRate, f)
	}
	rate := decimal.NewFromFloat(f)
	if err := ValidateRate(rate); err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}

// ParseRate parses "0.06", "6%" or "6.000 %" into a decimal annual rate.
func ParseRate(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	percent := strings.HasSuffix(cleaned, "%")
	cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "%"))

	rate, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrInvalidRate, s, err)
	}
	if percent {
		rate = rate.Shift(-2)
	}
	if err := ValidateRate(rate); err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}

// CalculateInterest returns the interest on principal for one of
// periodsPerYear equal periods: round_half_up(principal × ppb / (periodsPerYear × 1e9)).
func CalculateInterest(principal Money, annualRate decimal.Decimal, periodsPerYear int) (Money, error) {
	return CalculateInterestWithRounding(principal, annualRate, periodsPerYear, mathutil.RoundNearest)
}

// CalculateInterestWithRounding is CalculateInterest with an explicit
// rounding policy.
func CalculateInterestWithRounding(principal Money, annualRate decimal.Decimal, periodsPerYear int, mode mathutil.RoundingMode) (Money, error) {
	ppb, err := RatePPB(annualRate)
	if err != nil {
		return Zero, err
	}
	if periodsPerYear <= 0 {
		return Zero, fmt.Errorf("%w: periods per year must be positive, got %d", ErrInvalidPeriod, periodsPerYear)
	}

	num := new(big.Int).Mul(big.NewInt(principal.cents), big.NewInt(ppb))
	den := new(big.Int).Mul(big.NewInt(int64(periodsPerYear)), big.NewInt(constants.RateScale))
	return fromBig(mathutil.DivRound(num, den, mode))
}

// CalculateDailyInterest returns simple interest on principal for days
// elapsed days: round_half_up(principal × ppb × days / (basisDays × 1e9)).
func CalculateDailyInterest(principal Money, annualRate decimal.Decimal, days, basisDays int) (Money, error) {
	return CalculateDailyInterestWithRounding(principal, annualRate, days, basisDays, mathutil.RoundNearest)
}

// CalculateDailyInterestWithRounding is CalculateDailyInterest with an
// explicit rounding policy.
func CalculateDailyInterestWithRounding(principal Money, annualRate decimal.Decimal, days, basisDays int, mode mathutil.RoundingMode) (Money, error) {
	ppb, err := RatePPB(annualRate)
	if err != nil {
		return Zero, err
	}
	if days <= 0 {
		return Zero, fmt.Errorf("%w: elapsed days must be positive, got %d", ErrInvalidPeriod, days)
	}
	if basisDays <= 0 {
		return Zero, fmt.Errorf("%w: day count denominator must be positive, got %d", ErrInvalidDayCountBasis, basisDays)
	}

	num := new(big.Int).Mul(big.NewInt(principal.cents), big.NewInt(ppb))
	num.Mul(num, big.NewInt(int64(days)))
	den := new(big.Int).Mul(big.NewInt(int64(basisDays)), big.NewInt(constants.RateScale))
	return fromBig(mathutil.DivRound(num, den, mode))
}

func fromBig(cents *big.Int) (Money, error) {
	v, ok := mathutil.ToInt64(cents)
	if !ok {
		return Zero, fmt.Errorf("%w: %s cents", ErrOverflow, cents.String())
	}
	return Money{cents: v}, nil
}
