package config

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/iwvelando/mortgage-trust/pkg/datetime"
	"github.com/iwvelando/mortgage-trust/pkg/loans"
	"github.com/iwvelando/mortgage-trust/pkg/money"
)

// Loan indicates a loan and its parameters. Amounts and the rate are
// strings so they never pass through float64.
type Loan struct {
	Principal        string `json:"principal" yaml:"principal" mapstructure:"principal"`
	AnnualRate       string `json:"annualRate" yaml:"annualRate" mapstructure:"annualRate"`
	TermMonths       int    `json:"termMonths" yaml:"termMonths" mapstructure:"termMonths"`
	FirstPaymentDate string `json:"firstPaymentDate" yaml:"firstPaymentDate" mapstructure:"firstPaymentDate"`
	Escrow           string `json:"escrow,omitempty" yaml:"escrow,omitempty" mapstructure:"escrow"`
	PMI              string `json:"pmi,omitempty" yaml:"pmi,omitempty" mapstructure:"pmi"`
	HOA              string `json:"hoa,omitempty" yaml:"hoa,omitempty" mapstructure:"hoa"`
	LastPaymentDate  string `json:"lastPaymentDate,omitempty" yaml:"lastPaymentDate,omitempty" mapstructure:"lastPaymentDate"`
}

// ExtraPayment is a one-off extra principal payment (Period) or a recurring
// plan (StartPeriod through EndPeriod every Frequency periods).
type ExtraPayment struct {
	Name        string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Amount      string `json:"amount" yaml:"amount" mapstructure:"amount"`
	Period      int    `json:"period,omitempty" yaml:"period,omitempty" mapstructure:"period"`
	StartPeriod int    `json:"startPeriod,omitempty" yaml:"startPeriod,omitempty" mapstructure:"startPeriod"`
	EndPeriod   int    `json:"endPeriod,omitempty" yaml:"endPeriod,omitempty" mapstructure:"endPeriod"`
	Frequency   int    `json:"frequency,omitempty" yaml:"frequency,omitempty" mapstructure:"frequency"` // periods
}

// Parameters converts the loan into validated engine parameters.
func (loan Loan) Parameters() (loans.LoanParameters, error) {
	var params loans.LoanParameters
	var err error

	if params.Principal, err = money.ParseDollars(loan.Principal); err != nil {
		return params, fmt.Errorf("loan principal: %w", err)
	}
	if params.AnnualRate, err = money.ParseRate(loan.AnnualRate); err != nil {
		return params, fmt.Errorf("loan annualRate: %w", err)
	}
	params.TermMonths = loan.TermMonths
	if params.FirstPaymentDate, err = datetime.ParseDate(loan.FirstPaymentDate); err != nil {
		return params, fmt.Errorf("loan firstPaymentDate: %w", err)
	}
	for _, f := range []struct {
		name string
		raw  string
		dst  *money.Money
	}{
		{"escrow", loan.Escrow, &params.Escrow},
		{"pmi", loan.PMI, &params.PMI},
		{"hoa", loan.HOA, &params.HOA},
	} {
		if strings.TrimSpace(f.raw) == "" {
			continue
		}
		if *f.dst, err = money.ParseDollars(f.raw); err != nil {
			return params, fmt.Errorf("loan %s: %w", f.name, err)
		}
	}

	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}

// LastPayment parses the optional last payment date.
func (loan Loan) LastPayment() (*civil.Date, error) {
	if strings.TrimSpace(loan.LastPaymentDate) == "" {
		return nil, nil
	}
	d, err := datetime.ParseDate(loan.LastPaymentDate)
	if err != nil {
		return nil, fmt.Errorf("loan lastPaymentDate: %w", err)
	}
	return &d, nil
}

// Expand converts the entry into per-period extra payments. termMonths
// bounds an open-ended recurring plan.
func (e ExtraPayment) Expand(termMonths int) ([]loans.ExtraPayment, error) {
	amount, err := money.ParseDollars(e.Amount)
	if err != nil {
		return nil, fmt.Errorf("extra payment %s amount: %w", e.label(), err)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("extra payment %s amount must not be negative", e.label())
	}

	if e.Period > 0 {
		if e.StartPeriod != 0 || e.EndPeriod != 0 {
			return nil, fmt.Errorf("extra payment %s sets both period and a recurring range", e.label())
		}
		return []loans.ExtraPayment{{Period: e.Period, Amount: amount}}, nil
	}

	start := e.StartPeriod
	if start <= 0 {
		return nil, fmt.Errorf("extra payment %s needs a period or a startPeriod", e.label())
	}
	end := e.EndPeriod
	if end == 0 {
		end = termMonths
	}
	if end < start {
		return nil, fmt.Errorf("extra payment %s ends (%d) before it starts (%d)", e.label(), end, start)
	}
	step := e.Frequency
	if step == 0 {
		step = 1
	}
	if step < 0 {
		return nil, fmt.Errorf("extra payment %s frequency must be positive", e.label())
	}

	var out []loans.ExtraPayment
	for p := start; p <= end; p += step {
		out = append(out, loans.ExtraPayment{Period: p, Amount: amount})
	}
	return out, nil
}

func (e ExtraPayment) label() string {
	if e.Name != "" {
		return fmt.Sprintf("%q", e.Name)
	}
	if e.Period > 0 {
		return fmt.Sprintf("for period %d", e.Period)
	}
	return fmt.Sprintf("from period %d", e.StartPeriod)
}

// ExpandExtraPayments expands every entry of a scenario, sorted by period.
func ExpandExtraPayments(entries []ExtraPayment, termMonths int) ([]loans.ExtraPayment, error) {
	var out []loans.ExtraPayment
	for _, e := range entries {
		expanded, err := e.Expand(termMonths)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return loans.SortExtraPayments(out), nil
}
