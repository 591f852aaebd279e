package validation

import (
	"strings"
	"testing"

	"github.com/iwvelando/mortgage-trust/pkg/assumptions"
	"github.com/iwvelando/mortgage-trust/pkg/datetime"
	"github.com/iwvelando/mortgage-trust/pkg/loans"
	"github.com/iwvelando/mortgage-trust/pkg/money"
	"github.com/shopspring/decimal"
)

func TestValidateTerm(t *testing.T) {
	tests := []struct {
		name       string
		termMonths int
		expectWarn bool
	}{
		{name: "Thirty years", termMonths: 360, expectWarn: false},
		{name: "Forty years exactly", termMonths: 480, expectWarn: false},
		{name: "Fifty years", termMonths: 600, expectWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning := ValidateTerm(tt.termMonths)
			if (warning != "") != tt.expectWarn {
				t.Errorf("ValidateTerm(%d) = %q, expected warning %t", tt.termMonths, warning, tt.expectWarn)
			}
		})
	}
}

func TestValidateRate(t *testing.T) {
	tests := []struct {
		name       string
		rate       string
		expectWarn bool
	}{
		{name: "Six percent", rate: "0.06", expectWarn: false},
		{name: "Boundary", rate: "0.25", expectWarn: false},
		{name: "Percentage typed as decimal", rate: "1.5", expectWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning := ValidateRate(decimal.RequireFromString(tt.rate))
			if (warning != "") != tt.expectWarn {
				t.Errorf("ValidateRate(%s) = %q, expected warning %t", tt.rate, warning, tt.expectWarn)
			}
		})
	}
}

func testLoan() loans.LoanParameters {
	return loans.LoanParameters{
		Principal:        money.MustParseDollars("300000.00"),
		AnnualRate:       decimal.RequireFromString("0.06"),
		TermMonths:       360,
		FirstPaymentDate: datetime.MustParseDate("2026-02-01"),
		Escrow:           money.MustParseDollars("350.00"),
		PMI:              money.MustParseDollars("90.00"),
	}
}

func TestValidateCharges(t *testing.T) {
	warnings := ValidateCharges("lender", testLoan(), assumptions.StandardMonthly())
	if len(warnings) != 1 {
		t.Fatalf("ValidateCharges() returned %d warnings, expected 1: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "PMI") {
		t.Errorf("warning %q should name PMI", warnings[0])
	}

	if got := ValidateCharges("daily", testLoan(), assumptions.Daily365()); len(got) != 2 {
		t.Errorf("ValidateCharges(daily) returned %d warnings, expected 2: %v", len(got), got)
	}
}

func TestValidateAll(t *testing.T) {
	loan := testLoan()
	loan.TermMonths = 600

	cv := ConfigValidator{
		Loan: loan,
		Scenarios: []ScenarioConfig{
			{Name: "lender", Active: true, Assumptions: assumptions.StandardMonthly()},
			{Name: "inactive", Active: false, Assumptions: assumptions.Daily360()},
		},
	}
	warnings := cv.ValidateAll()
	if len(warnings) != 2 {
		t.Fatalf("ValidateAll() returned %d warnings, expected 2: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "600 months") {
		t.Errorf("first warning = %q, expected the term warning", warnings[0])
	}

	empty := ConfigValidator{Loan: testLoan()}
	got := empty.ValidateAll()
	if len(got) != 1 || !strings.Contains(got[0], "No active scenarios") {
		t.Errorf("ValidateAll() with no scenarios = %v", got)
	}
}
