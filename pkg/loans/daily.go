package loans

import (
	"fmt"
	"iter"

	"cloud.google.com/go/civil"
	"github.com/iwvelando/mortgage-trust/pkg/assumptions"
	"github.com/iwvelando/mortgage-trust/pkg/constants"
	"github.com/iwvelando/mortgage-trust/pkg/datetime"
	"github.com/iwvelando/mortgage-trust/pkg/mathutil"
	"github.com/iwvelando/mortgage-trust/pkg/money"
	"github.com/iwvelando/mortgage-trust/pkg/waterfall"
)

// DailyGenerator accrues simple interest on the days elapsed between
// payments under the set's day-count basis. There is no forced final
// payment: the schedule runs past the declared term until the balance is
// retired, within IterationLimit periods.
type DailyGenerator struct{}

const dailyName = "daily"

// Generate returns the full schedule. lastPaymentDate anchors the first
// accrual interval; when nil the interval starts one month before the first
// payment.
func (g DailyGenerator) Generate(params LoanParameters, set assumptions.Set, extras []ExtraPayment, lastPaymentDate *civil.Date) (Schedule, error) {
	return generate(g.plan(params, set, extras, lastPaymentDate))
}

// Periods yields the schedule one period at a time.
func (g DailyGenerator) Periods(params LoanParameters, set assumptions.Set, extras []ExtraPayment, lastPaymentDate *civil.Date) iter.Seq2[Period, error] {
	p, err := g.plan(params, set, extras, lastPaymentDate)
	if err != nil {
		return failed(err)
	}
	return p.periods()
}

func (g DailyGenerator) plan(params LoanParameters, set assumptions.Set, extras []ExtraPayment, lastPaymentDate *civil.Date) (*plan, error) {
	if err := checkMatch(dailyName, assumptions.MethodDaily, set); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	byPeriod, err := extrasByPeriod(extras)
	if err != nil {
		return nil, err
	}
	scheduled, err := waterfall.ScheduledPayment(params.Principal, params.AnnualRate, params.TermMonths)
	if err != nil {
		return nil, err
	}

	// A level payment that rounds to zero would never retire the balance.
	if scheduled.IsZero() {
		scheduled = money.FromCents(1)
	}

	anchor := datetime.AddMonths(params.FirstPaymentDate, -1)
	if lastPaymentDate != nil {
		if !lastPaymentDate.Before(params.FirstPaymentDate) {
			return nil, fmt.Errorf("%w: last payment date %s must be before the first payment date %s",
				ErrInvalidLoan, lastPaymentDate, params.FirstPaymentDate)
		}
		anchor = *lastPaymentDate
	}

	basis := set.DayCountBasis()
	rounding := set.Rounding()
	daysInYear, err := basis.DaysInYear()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", money.ErrInvalidDayCountBasis, err)
	}
	accrue := func(balance money.Money, from, to civil.Date) (money.Money, error) {
		return money.CalculateDailyInterestWithRounding(balance, params.AnnualRate, datetime.DaysBetween(from, to), daysInYear, rounding)
	}

	limit, err := IterationLimit(params, basis, anchor, scheduled)
	if err != nil {
		return nil, err
	}

	return &plan{
		params:    params,
		set:       set,
		extras:    byPeriod,
		scheduled: scheduled,
		anchor:    anchor,
		limit:     limit,
		accrue:    accrue,
	}, nil
}

// IterationLimit bounds the number of daily periods. Interest accrues on
// actual elapsed days over the basis denominator, and no interval is longer
// than the first interval or constants.LongestAccrualInterval, so no
// period accrues more than maxInterest on the original principal. When the
// scheduled payment exceeds that, each period retires at least
// scheduled − maxInterest and the loan is paid off within ceil(principal / (scheduled − maxInterest)) + 1 periods.
// The result never exceeds DailyIterationMultiplier × TermMonths.
func IterationLimit(params LoanParameters, basis datetime.DayCountBasis, anchor civil.Date, scheduled money.Money) (int, error) {
	ceiling := constants.DailyIterationMultiplier * params.TermMonths

	daysInYear, err := basis.DaysInYear()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", money.ErrInvalidDayCountBasis, err)
	}
	longest := max(datetime.DaysBetween(anchor, params.FirstPaymentDate), constants.LongestAccrualInterval)

	maxInterest, err := money.CalculateDailyInterestWithRounding(params.Principal, params.AnnualRate, longest, daysInYear, mathutil.RoundUp)
	if err != nil {
		return 0, err
	}
	if !scheduled.GreaterThan(maxInterest) {
		return ceiling, nil
	}

	perPeriod := scheduled.Sub(maxInterest).Cents()
	bound := mathutil.CeilDiv(params.Principal.Cents(), perPeriod) + 1
	if bound >= int64(ceiling) {
		return ceiling, nil
	}
	return int(bound), nil
}
