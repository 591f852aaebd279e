package waterfall

import (
	"fmt"

	"github.com/iwvelando/mortgage-trust/pkg/constants"
	"github.com/iwvelando/mortgage-trust/pkg/money"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// ScheduledPayment returns the level principal-and-interest payment that
// retires principal over n monthly periods at annualRate:
//
//	P * r * (1+r)^n / ((1+r)^n - 1), r = annualRate / 12
//
// rounded half-up to the cent. At a zero rate it is principal / n with the
// remainder left for the final period.
func ScheduledPayment(principal money.Money, annualRate decimal.Decimal, n int) (money.Money, error) {
	if n <= 0 {
		return money.Zero, fmt.Errorf("%w: term must be positive, got %d", money.ErrInvalidPeriod, n)
	}
	if err := money.ValidateRate(annualRate); err != nil {
		return money.Zero, err
	}
	if principal.IsNegative() {
		return money.Zero, fmt.Errorf("%w: principal is %s", ErrNegativeAmount, principal)
	}

	if annualRate.IsZero() {
		return money.FromCents(principal.Cents() / int64(n)), nil
	}

	r := annualRate.DivRound(decimal.NewFromInt(constants.MonthsPerYear), constants.AnnuityPrecision)
	growth := compound(one.Add(r), n)

	payment := principal.Dollars().Mul(r).Mul(growth).
		DivRound(growth.Sub(one), constants.AnnuityPrecision)
	return money.FromDollars(payment)
}

// compound returns base^n by squaring, truncating every intermediate to the
// annuity precision so the result is identical on every platform.
func compound(base decimal.Decimal, n int) decimal.Decimal {
	result := one
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Truncate(constants.AnnuityPrecision)
		}
		base = base.Mul(base).Truncate(constants.AnnuityPrecision)
		n >>= 1
	}
	return result
}
