// Package testutil provides common fixtures and checks for tests.
package testutil

import (
	"testing"

	"github.com/iwvelando/mortgage-trust/pkg/assumptions"
	"github.com/iwvelando/mortgage-trust/pkg/datetime"
	"github.com/iwvelando/mortgage-trust/pkg/loans"
	"github.com/iwvelando/mortgage-trust/pkg/mathutil"
	"github.com/iwvelando/mortgage-trust/pkg/money"
	"github.com/shopspring/decimal"
)

// Loan builds loan parameters from literal strings. It panics on malformed
// input.
func Loan(principal, rate string, termMonths int, firstPayment string) loans.LoanParameters {
	return loans.LoanParameters{
		Principal:        money.MustParseDollars(principal),
		AnnualRate:       decimal.RequireFromString(rate),
		TermMonths:       termMonths,
		FirstPaymentDate: datetime.MustParseDate(firstPayment),
	}
}

// ThirtyYearLoan is $300,000.00 at 6% over 360 months from 2026-02-01.
func ThirtyYearLoan() loans.LoanParameters {
	return Loan("300000.00", "0.06", 360, "2026-02-01")
}

// OneYearLoan is $100,000.00 at 6% over 12 months from 2024-02-01.
func OneYearLoan() loans.LoanParameters {
	return Loan("100000.00", "0.06", 12, "2024-02-01")
}

// MonthlyNoEscrow is the monthly method with no ancillary charges collected.
func MonthlyNoEscrow() assumptions.Set {
	s, err := assumptions.New(assumptions.Config{Name: "monthly", Method: assumptions.MethodMonthly})
	if err != nil {
		panic(err)
	}
	return s
}

// MustSchedule generates the schedule for params under set and fails t on
// error.
func MustSchedule(t testing.TB, params loans.LoanParameters, set assumptions.Set) loans.Schedule {
	t.Helper()
	s, err := loans.Generate(params, set, nil, nil)
	if err != nil {
		t.Fatalf("loans.Generate() error = %v", err)
	}
	return s
}

// CheckScheduleInvariants fails t for every schedule invariant s breaks.
func CheckScheduleInvariants(t testing.TB, s loans.Schedule) {
	t.Helper()

	if len(s.Periods) == 0 {
		t.Fatalf("schedule has no periods")
		return
	}

	tolerance := int64(1)
	principal := money.Zero
	for i, p := range s.Periods {
		if p.PeriodNumber != i+1 {
			t.Errorf("period %d numbered %d", i+1, p.PeriodNumber)
		}
		if !p.EndingBalance.Equal(p.BeginningBalance.Sub(p.TotalPrincipal)) {
			t.Errorf("period %d: ending balance %s != %s - %s", p.PeriodNumber, p.EndingBalance, p.BeginningBalance, p.TotalPrincipal)
		}
		if p.EndingBalance.GreaterThan(p.BeginningBalance) {
			t.Errorf("period %d: balance increased", p.PeriodNumber)
		}
		if i > 0 && !p.BeginningBalance.Equal(s.Periods[i-1].EndingBalance) {
			t.Errorf("period %d: beginning balance %s does not continue from %s", p.PeriodNumber, p.BeginningBalance, s.Periods[i-1].EndingBalance)
		}
		if i > 0 && !s.Periods[i-1].PaymentDate.Before(p.PaymentDate) {
			t.Errorf("period %d: payment date %s does not advance", p.PeriodNumber, p.PaymentDate)
		}
		split := p.InterestPortion.Add(p.PrincipalPortion)
		if !mathutil.WithinTolerance(p.ScheduledPayment.Cents(), split.Cents(), tolerance) {
			t.Errorf("period %d: scheduled payment %s vs interest+principal %s", p.PeriodNumber, p.ScheduledPayment, split)
		}
		principal = principal.Add(p.TotalPrincipal)
	}

	last := s.Periods[len(s.Periods)-1]
	if !last.EndingBalance.IsZero() {
		t.Errorf("final ending balance = %s, expected $0.00", last.EndingBalance)
	}
	if !mathutil.WithinTolerance(principal.Cents(), s.Parameters.Principal.Cents(), tolerance) {
		t.Errorf("sum of principal = %s, expected %s", principal, s.Parameters.Principal)
	}
	sum := s.Summary.TotalInterest.Add(s.Summary.TotalPrincipal)
	if !mathutil.WithinTolerance(s.Summary.TotalPayments.Cents(), sum.Cents(), tolerance) {
		t.Errorf("total payments %s != interest + principal %s", s.Summary.TotalPayments, sum)
	}
	if s.Summary.NumberOfPayments != len(s.Periods) {
		t.Errorf("summary counts %d payments, schedule has %d", s.Summary.NumberOfPayments, len(s.Periods))
	}
	if s.Summary.PayoffDate != last.PaymentDate {
		t.Errorf("payoff date %s, last payment %s", s.Summary.PayoffDate, last.PaymentDate)
	}
}
