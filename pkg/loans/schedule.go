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

// accrueFunc returns the interest on balance between two payment dates.
type accrueFunc func(balance money.Money, from, to civil.Date) (money.Money, error)

// plan is everything a generator resolved before iterating. It is read-only
// once built, so periods can be ranged over any number of times.
type plan struct {
	params    LoanParameters
	set       assumptions.Set
	extras    map[int]money.Money
	scheduled money.Money
	anchor    civil.Date
	accrue    accrueFunc

	// limit caps the number of periods.
	limit int
	// forceFinal pays off the whole balance in period limit.
	forceFinal bool
}

type phase int

const (
	phaseAccruing phase = iota
	phasePaying
	phaseContinue
	phasePaidOff
)

// cursor is the mutable state of one pass over a plan.
type cursor struct {
	phase    phase
	number   int
	from     civil.Date
	due      civil.Date
	balance  money.Money
	interest money.Money
	cumInt   money.Money
	cumPrinc money.Money
}

// periods runs the accrue, pay, advance loop as a state machine. Each call
// to the returned sequence starts from a fresh cursor.
func (p *plan) periods() iter.Seq2[Period, error] {
	return func(yield func(Period, error) bool) {
		c := cursor{
			phase:   phaseAccruing,
			number:  1,
			from:    p.anchor,
			due:     p.params.FirstPaymentDate,
			balance: p.params.Principal,
		}

		for {
			switch c.phase {
			case phaseAccruing:
				if c.number > p.limit {
					yield(Period{}, fmt.Errorf("%w: balance %s outstanding after %d periods",
						ErrScheduleNotConverged, c.balance, p.limit))
					return
				}
				interest, err := p.accrue(c.balance, c.from, c.due)
				if err != nil {
					yield(Period{}, fmt.Errorf("period %d: %w", c.number, err))
					return
				}
				c.interest = interest
				c.phase = phasePaying

			case phasePaying:
				period, err := p.pay(&c)
				if err != nil {
					yield(Period{}, fmt.Errorf("period %d: %w", c.number, err))
					return
				}
				if !yield(period, nil) {
					return
				}
				if c.balance.IsPositive() {
					c.phase = phaseContinue
				} else {
					c.phase = phasePaidOff
				}

			case phaseContinue:
				next, err := datetime.Step(p.params.FirstPaymentDate, datetime.Monthly, c.number)
				if err != nil {
					yield(Period{}, err)
					return
				}
				c.number++
				c.from = c.due
				c.due = next
				c.phase = phaseAccruing

			case phasePaidOff:
				return
			}
		}
	}
}

// pay applies one period's payment and advances the cursor's balance and
// running totals.
func (p *plan) pay(c *cursor) (Period, error) {
	payment := p.scheduled
	payoff, err := c.interest.AddChecked(c.balance)
	if err != nil {
		return Period{}, err
	}
	if payoff.LessThan(payment) || (p.forceFinal && c.number == p.limit) {
		payment = payoff
	}

	b, err := waterfall.Apply(
		waterfall.LoanState{Balance: c.balance, AccruedInterest: c.interest},
		waterfall.Components{
			ScheduledPayment: payment,
			ExtraPrincipal:   p.extras[c.number],
			Escrow:           p.params.Escrow,
			PMI:              p.params.PMI,
			HOA:              p.params.HOA,
		},
		p.set,
	)
	if err != nil {
		return Period{}, err
	}

	if c.cumInt, err = c.cumInt.AddChecked(b.Interest); err != nil {
		return Period{}, fmt.Errorf("cumulative interest: %w", err)
	}
	if c.cumPrinc, err = c.cumPrinc.AddChecked(b.TotalPrincipal()); err != nil {
		return Period{}, fmt.Errorf("cumulative principal: %w", err)
	}

	period := Period{
		PeriodNumber:        c.number,
		PaymentDate:         c.due,
		BeginningBalance:    c.balance,
		ScheduledPayment:    payment,
		InterestPortion:     b.Interest,
		PrincipalPortion:    b.Principal,
		ExtraPrincipal:      b.ExtraPrincipal,
		TotalPrincipal:      b.TotalPrincipal(),
		EndingBalance:       b.EndingBalance,
		Escrow:              b.Escrow,
		PMI:                 b.PMI,
		HOA:                 b.HOA,
		TotalPayment:        b.Applied(),
		CumulativeInterest:  c.cumInt,
		CumulativePrincipal: c.cumPrinc,
		IsPartialPayment:    b.IsPartialPayment,
		Remaining:           b.Remaining,
	}
	c.balance = b.EndingBalance
	return period, nil
}

// summarize derives the summary from the last period's running totals and
// cross-checks it against independent sums over every period.
func summarize(params LoanParameters, periods []Period) (Summary, error) {
	if len(periods) == 0 {
		return Summary{}, fmt.Errorf("%w: schedule has no periods", ErrInvariantViolation)
	}

	var interest, principal, escrow, pmi, hoa money.Money
	var sumErr error
	add := func(total, amount money.Money) money.Money {
		out, err := total.AddChecked(amount)
		if err != nil && sumErr == nil {
			sumErr = err
		}
		return out
	}
	for i, p := range periods {
		if !p.EndingBalance.Equal(p.BeginningBalance.Sub(p.TotalPrincipal)) {
			return Summary{}, fmt.Errorf("%w: period %d ending balance %s != %s - %s",
				ErrInvariantViolation, p.PeriodNumber, p.EndingBalance, p.BeginningBalance, p.TotalPrincipal)
		}
		if p.TotalPrincipal.IsNegative() || (i > 0 && !p.BeginningBalance.Equal(periods[i-1].EndingBalance)) {
			return Summary{}, fmt.Errorf("%w: balance increased in period %d", ErrInvariantViolation, p.PeriodNumber)
		}
		interest = add(interest, p.InterestPortion)
		principal = add(principal, p.TotalPrincipal)
		escrow = add(escrow, p.Escrow)
		pmi = add(pmi, p.PMI)
		hoa = add(hoa, p.HOA)
	}
	if sumErr != nil {
		return Summary{}, fmt.Errorf("summary totals: %w", sumErr)
	}

	last := periods[len(periods)-1]
	if !last.EndingBalance.IsZero() {
		return Summary{}, fmt.Errorf("%w: final balance is %s", ErrInvariantViolation, last.EndingBalance)
	}

	tolerance := int64(constants.InvariantToleranceCents)
	checks := []struct {
		name      string
		got, want money.Money
	}{
		{"cumulative interest", last.CumulativeInterest, interest},
		{"cumulative principal", last.CumulativePrincipal, principal},
		{"principal repaid", principal, params.Principal},
	}
	for _, ch := range checks {
		if !mathutil.WithinTolerance(ch.got.Cents(), ch.want.Cents(), tolerance) {
			return Summary{}, fmt.Errorf("%w: %s %s differs from %s", ErrInvariantViolation, ch.name, ch.got, ch.want)
		}
	}

	totalPayments, err := last.CumulativeInterest.AddChecked(last.CumulativePrincipal)
	if err != nil {
		return Summary{}, fmt.Errorf("total payments: %w", err)
	}
	totalPaid, err := money.SumChecked(totalPayments, escrow, pmi, hoa)
	if err != nil {
		return Summary{}, fmt.Errorf("total paid with escrow: %w", err)
	}
	return Summary{
		TotalInterest:       last.CumulativeInterest,
		TotalPrincipal:      last.CumulativePrincipal,
		TotalPayments:       totalPayments,
		TotalEscrow:         escrow,
		TotalPMI:            pmi,
		TotalHOA:            hoa,
		TotalPaidWithEscrow: totalPaid,
		NumberOfPayments:    len(periods),
		PayoffDate:          last.PaymentDate,
	}, nil
}
