// Package waterfall splits a single payment across the buckets a servicer
// posts it to and computes the level payment that amortizes a loan.
package waterfall

import (
	"errors"
	"fmt"

	"github.com/iwvelando/mortgage-trust/pkg/assumptions"
	"github.com/iwvelando/mortgage-trust/pkg/money"
)

// ErrNegativeAmount is returned when a balance, accrual or payment component
// is below zero.
var ErrNegativeAmount = errors.New("negative amount")

// LoanState is the loan as it stands when a payment arrives.
type LoanState struct {
	Balance         money.Money
	AccruedInterest money.Money
}

// Components is the cash tendered for one period. ScheduledPayment covers
// principal and interest only.
type Components struct {
	ScheduledPayment money.Money
	ExtraPrincipal   money.Money
	Escrow           money.Money
	PMI              money.Money
	HOA              money.Money
	Fees             money.Money
}

// Total is every component summed.
func (c Components) Total() money.Money {
	return money.Sum(c.ScheduledPayment, c.ExtraPrincipal, c.Escrow, c.PMI, c.HOA, c.Fees)
}

// Portion names one line of a breakdown.
type Portion int

const (
	PortionFees Portion = iota + 1
	PortionInterest
	PortionPrincipal
	PortionExtraPrincipal
	PortionEscrow
	PortionPMI
	PortionHOA
)

func (p Portion) String() string {
	switch p {
	case PortionFees:
		return "fees"
	case PortionInterest:
		return "interest"
	case PortionPrincipal:
		return "principal"
	case PortionExtraPrincipal:
		return "extraPrincipal"
	case PortionEscrow:
		return "escrow"
	case PortionPMI:
		return "pmi"
	case PortionHOA:
		return "hoa"
	default:
		return fmt.Sprintf("Portion(%d)", int(p))
	}
}

// Allocation is an amount posted to one portion.
type Allocation struct {
	Portion Portion     `json:"portion"`
	Amount  money.Money `json:"amount"`
}

// Breakdown is the result of applying one payment.
type Breakdown struct {
	Interest       money.Money
	Principal      money.Money
	ExtraPrincipal money.Money
	Escrow         money.Money
	PMI            money.Money
	HOA            money.Money
	Fees           money.Money

	// TotalPayment is all cash tendered. It always equals Applied() + Remaining.
	TotalPayment money.Money
	// Remaining is tendered cash that was not posted to any portion.
	Remaining money.Money

	IsPartialPayment bool
	EndingBalance    money.Money

	// Allocations lists the non-zero portions in posting order.
	Allocations []Allocation
}

// Applied sums every posted portion.
func (b Breakdown) Applied() money.Money {
	return money.Sum(b.Interest, b.Principal, b.ExtraPrincipal, b.Escrow, b.PMI, b.HOA, b.Fees)
}

// TotalPrincipal is scheduled plus extra principal.
func (b Breakdown) TotalPrincipal() money.Money {
	return b.Principal.Add(b.ExtraPrincipal)
}

// Apply posts comp against state under set.
//
// Fees come from separate cash and always post in full. Interest is paid
// first out of the scheduled payment; when the scheduled payment cannot
// cover the accrued interest the payment is partial and nothing else is
// posted. Otherwise principal is capped at the balance, extra principal at
// what is left of the balance, and escrow, PMI and HOA post only when both
// enabled in set and supplied.
func Apply(state LoanState, comp Components, set assumptions.Set) (Breakdown, error) {
	if err := checkNonNegative(state, comp); err != nil {
		return Breakdown{}, err
	}

	b := Breakdown{
		Fees:          comp.Fees,
		TotalPayment:  comp.Total(),
		EndingBalance: state.Balance,
	}

	b.Interest = money.Min(comp.ScheduledPayment, state.AccruedInterest)
	if b.Interest.LessThan(state.AccruedInterest) {
		b.IsPartialPayment = true
		b.Remaining = b.TotalPayment.Sub(b.Applied())
		b.Allocations = allocations(b, set.PaymentOrder())
		return b, nil
	}

	b.Principal = money.Min(comp.ScheduledPayment.Sub(b.Interest), state.Balance)
	afterPrincipal := state.Balance.Sub(b.Principal)
	b.ExtraPrincipal = money.Min(comp.ExtraPrincipal, afterPrincipal)
	b.EndingBalance = afterPrincipal.Sub(b.ExtraPrincipal)

	if set.IncludeEscrow() && comp.Escrow.IsPositive() {
		b.Escrow = comp.Escrow
	}
	if set.IncludePMI() && comp.PMI.IsPositive() {
		b.PMI = comp.PMI
	}
	if set.IncludeHOA() && comp.HOA.IsPositive() {
		b.HOA = comp.HOA
	}

	b.Remaining = b.TotalPayment.Sub(b.Applied())
	b.Allocations = allocations(b, set.PaymentOrder())
	return b, nil
}

func checkNonNegative(state LoanState, comp Components) error {
	fields := []struct {
		name   string
		amount money.Money
	}{
		{"balance", state.Balance},
		{"accrued interest", state.AccruedInterest},
		{"scheduled payment", comp.ScheduledPayment},
		{"extra principal", comp.ExtraPrincipal},
		{"escrow", comp.Escrow},
		{"pmi", comp.PMI},
		{"hoa", comp.HOA},
		{"fees", comp.Fees},
	}
	for _, f := range fields {
		if f.amount.IsNegative() {
			return fmt.Errorf("%w: %s is %s", ErrNegativeAmount, f.name, f.amount)
		}
	}
	return nil
}

// portionsByBucket maps each ranked bucket onto the portions it groups.
var portionsByBucket = map[assumptions.Bucket][]Portion{
	assumptions.BucketFees:      {PortionFees},
	assumptions.BucketInterest:  {PortionInterest},
	assumptions.BucketPrincipal: {PortionPrincipal, PortionExtraPrincipal},
	assumptions.BucketEscrow:    {PortionEscrow, PortionPMI, PortionHOA},
}

// allocations lists the posted portions in the order the payment order
// reports them. Amounts never depend on the order.
func allocations(b Breakdown, order assumptions.PaymentOrder) []Allocation {
	amounts := map[Portion]money.Money{
		PortionFees:           b.Fees,
		PortionInterest:       b.Interest,
		PortionPrincipal:      b.Principal,
		PortionExtraPrincipal: b.ExtraPrincipal,
		PortionEscrow:         b.Escrow,
		PortionPMI:            b.PMI,
		PortionHOA:            b.HOA,
	}

	var out []Allocation
	for _, bucket := range assumptions.BucketOrder(order) {
		for _, p := range portionsByBucket[bucket] {
			if amount := amounts[p]; !amount.IsZero() {
				out = append(out, Allocation{Portion: p, Amount: amount})
			}
		}
	}
	return out
}
