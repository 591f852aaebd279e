// Package loans generates amortization schedules for fixed-rate loans in
// whole cents.
package loans

import (
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/iwvelando/mortgage-trust/pkg/assumptions"
	"github.com/iwvelando/mortgage-trust/pkg/money"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidLoan is returned when loan parameters or extra payments fail
	// validation.
	ErrInvalidLoan = errors.New("invalid loan")
	// ErrScheduleNotConverged is returned when the daily generator exhausts
	// its iteration bound with a balance outstanding.
	ErrScheduleNotConverged = errors.New("schedule did not converge")
	// ErrInvariantViolation is returned when a generated schedule fails its
	// own consistency checks.
	ErrInvariantViolation = errors.New("schedule invariant violated")
)

// LoanParameters describes a fixed-rate loan. Escrow, PMI and HOA are the
// per-period amounts collected alongside principal and interest.
type LoanParameters struct {
	Principal        money.Money     `json:"principal"`
	AnnualRate       decimal.Decimal `json:"annualRate"`
	TermMonths       int             `json:"termMonths"`
	FirstPaymentDate civil.Date      `json:"firstPaymentDate"`
	Escrow           money.Money     `json:"escrow"`
	PMI              money.Money     `json:"pmi"`
	HOA              money.Money     `json:"hoa"`
}

// Validate checks every field. Errors wrap ErrInvalidLoan, and rate errors
// also wrap money.ErrInvalidRate.
func (p LoanParameters) Validate() error {
	if !p.Principal.IsPositive() {
		return fmt.Errorf("%w: principal must be positive, got %s", ErrInvalidLoan, p.Principal)
	}
	if err := money.ValidateRate(p.AnnualRate); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLoan, err)
	}
	if p.TermMonths <= 0 {
		return fmt.Errorf("%w: term must be positive, got %d months", ErrInvalidLoan, p.TermMonths)
	}
	if !p.FirstPaymentDate.IsValid() {
		return fmt.Errorf("%w: first payment date %s is not a valid date", ErrInvalidLoan, p.FirstPaymentDate)
	}
	for name, amount := range map[string]money.Money{"escrow": p.Escrow, "pmi": p.PMI, "hoa": p.HOA} {
		if amount.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative, got %s", ErrInvalidLoan, name, amount)
		}
	}
	return nil
}

// ExtraPayment is additional principal paid in a 1-indexed period. Several
// entries for the same period are summed.
type ExtraPayment struct {
	Period int         `json:"period"`
	Amount money.Money `json:"amount"`
}

// extrasByPeriod sums extras into a sparse period map.
func extrasByPeriod(extras []ExtraPayment) (map[int]money.Money, error) {
	out := make(map[int]money.Money, len(extras))
	for _, e := range extras {
		if e.Period < 1 {
			return nil, fmt.Errorf("%w: extra payment period must be at least 1, got %d", ErrInvalidLoan, e.Period)
		}
		if e.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: extra payment for period %d is negative (%s)", ErrInvalidLoan, e.Period, e.Amount)
		}
		out[e.Period] = out[e.Period].Add(e.Amount)
	}
	return out, nil
}

// SortExtraPayments orders extras by period, keeping the input order for
// entries of the same period.
func SortExtraPayments(extras []ExtraPayment) []ExtraPayment {
	out := append([]ExtraPayment(nil), extras...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// Period is one row of a schedule. It is never modified after the generator
// yields it.
type Period struct {
	PeriodNumber        int         `json:"periodNumber"`
	PaymentDate         civil.Date  `json:"paymentDate"`
	BeginningBalance    money.Money `json:"beginningBalance"`
	ScheduledPayment    money.Money `json:"scheduledPayment"`
	InterestPortion     money.Money `json:"interestPortion"`
	PrincipalPortion    money.Money `json:"principalPortion"`
	ExtraPrincipal      money.Money `json:"extraPrincipal"`
	TotalPrincipal      money.Money `json:"totalPrincipal"`
	EndingBalance       money.Money `json:"endingBalance"`
	Escrow              money.Money `json:"escrow"`
	PMI                 money.Money `json:"pmi"`
	HOA                 money.Money `json:"hoa"`
	TotalPayment        money.Money `json:"totalPayment"`
	CumulativeInterest  money.Money `json:"cumulativeInterest"`
	CumulativePrincipal money.Money `json:"cumulativePrincipal"`

	// IsPartialPayment marks a period whose payment did not cover the
	// accrued interest; the balance was left unchanged.
	IsPartialPayment bool `json:"isPartialPayment,omitempty"`
	// Remaining is cash tendered for the period that was not applied.
	Remaining money.Money `json:"remaining"`
}

// Summary totals a schedule.
type Summary struct {
	TotalInterest       money.Money `json:"totalInterest"`
	TotalPrincipal      money.Money `json:"totalPrincipal"`
	TotalPayments       money.Money `json:"totalPayments"`
	TotalEscrow         money.Money `json:"totalEscrow"`
	TotalPMI            money.Money `json:"totalPmi"`
	TotalHOA            money.Money `json:"totalHoa"`
	TotalPaidWithEscrow money.Money `json:"totalPaidWithEscrow"`
	NumberOfPayments    int         `json:"numberOfPayments"`
	PayoffDate          civil.Date  `json:"payoffDate"`
}

// Schedule is a complete amortization schedule.
type Schedule struct {
	Parameters       LoanParameters  `json:"parameters"`
	Assumptions      assumptions.Set `json:"assumptions"`
	ScheduledPayment money.Money     `json:"scheduledPayment"`
	Periods          []Period        `json:"periods"`
	Summary          Summary         `json:"summary"`
}
