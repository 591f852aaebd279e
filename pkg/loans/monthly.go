package loans

import (
	"iter"

	"cloud.google.com/go/civil"
	"github.com/iwvelando/mortgage-trust/pkg/assumptions"
	"github.com/iwvelando/mortgage-trust/pkg/constants"
	"github.com/iwvelando/mortgage-trust/pkg/datetime"
	"github.com/iwvelando/mortgage-trust/pkg/money"
	"github.com/iwvelando/mortgage-trust/pkg/waterfall"
)

// MonthlyGenerator accrues balance × rate / 12 each period. Its schedules
// have exactly TermMonths periods unless extra principal pays the loan off
// early; the final period always retires the remaining balance.
type MonthlyGenerator struct{}

const monthlyName = "monthly"

// Generate returns the full schedule. lastPaymentDate is accepted for
// interface compatibility and ignored, since monthly accrual does not depend
// on elapsed days.
func (g MonthlyGenerator) Generate(params LoanParameters, set assumptions.Set, extras []ExtraPayment, lastPaymentDate *civil.Date) (Schedule, error) {
	return generate(g.plan(params, set, extras))
}

// Periods yields the schedule one period at a time.
func (g MonthlyGenerator) Periods(params LoanParameters, set assumptions.Set, extras []ExtraPayment, lastPaymentDate *civil.Date) iter.Seq2[Period, error] {
	p, err := g.plan(params, set, extras)
	if err != nil {
		return failed(err)
	}
	return p.periods()
}

func (g MonthlyGenerator) plan(params LoanParameters, set assumptions.Set, extras []ExtraPayment) (*plan, error) {
	if err := checkMatch(monthlyName, assumptions.MethodMonthly, set); err != nil {
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

	rounding := set.Rounding()
	return &plan{
		params:     params,
		set:        set,
		extras:     byPeriod,
		scheduled:  scheduled,
		anchor:     datetime.AddMonths(params.FirstPaymentDate, -1),
		limit:      params.TermMonths,
		forceFinal: true,
		accrue: func(balance money.Money, _, _ civil.Date) (money.Money, error) {
			return money.CalculateInterestWithRounding(balance, params.AnnualRate, constants.MonthsPerYear, rounding)
		},
	}, nil
}
