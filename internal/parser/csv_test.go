package parser

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/iwvelando/mortgage-trust/pkg/datetime"
	"github.com/iwvelando/mortgage-trust/pkg/money"
	"github.com/iwvelando/mortgage-trust/pkg/statement"
)

func TestReadStatement(t *testing.T) {
	input := `periodNumber, paymentDate, interestPortion, principalPortion, endingBalance, memo
1, 2026-02-01, "$1,500.00", 298.65, "299,701.35", first
2, 2026-03-01, 1498.51, , 299401.21, second
`
	rows, err := ReadStatement(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadStatement() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ReadStatement() returned %d rows, expected 2", len(rows))
	}

	first := rows[0]
	if first.PeriodNumber == nil || *first.PeriodNumber != 1 {
		t.Errorf("row 1 period number = %v", first.PeriodNumber)
	}
	if first.PaymentDate == nil || *first.PaymentDate != datetime.MustParseDate("2026-02-01") {
		t.Errorf("row 1 payment date = %v", first.PaymentDate)
	}
	if got, ok := first.Money("interestPortion"); !ok || !got.Equal(money.MustParseDollars("1500.00")) {
		t.Errorf("row 1 interest = %s, %v", got, ok)
	}
	if got, _ := first.Money("endingBalance"); !got.Equal(money.MustParseDollars("299701.35")) {
		t.Errorf("row 1 ending balance = %s", got)
	}
	if first.Escrow != nil {
		t.Errorf("row 1 escrow should be unset, got %s", first.Escrow)
	}

	if rows[1].PrincipalPortion != nil {
		t.Errorf("empty cell should leave principal unset, got %s", rows[1].PrincipalPortion)
	}
}

func TestReadStatementErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "Empty input", input: ""},
		{name: "Bad period number", input: "periodNumber,interestPortion\nx,1.00\n"},
		{name: "Bad date", input: "paymentDate,interestPortion\n2026-13-01,1.00\n"},
		{name: "Bad amount", input: "interestPortion\nabc\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadStatement(strings.NewReader(tt.input)); err == nil {
				t.Errorf("ReadStatement() expected error")
			}
		})
	}

	if _, err := ReadStatement(strings.NewReader("memo,reference\na,b\n")); !errors.Is(err, ErrNoColumns) {
		t.Errorf("ReadStatement(unknown columns) error = %v, expected ErrNoColumns", err)
	}
}

func TestWriteStatementRoundTrip(t *testing.T) {
	n := 7
	d := datetime.MustParseDate("2024-08-01")
	row := statement.Row{PeriodNumber: &n, PaymentDate: &d}
	row.SetMoney("interestPortion", money.MustParseDollars("433.12"))
	row.SetMoney("escrow", money.Zero)
	row.SetMoney("endingBalance", money.MustParseDollars("-0.01"))

	var buf bytes.Buffer
	if err := WriteStatement(&buf, []statement.Row{row, {}}); err != nil {
		t.Fatalf("WriteStatement() error = %v", err)
	}

	rows, err := ReadStatement(&buf)
	if err != nil {
		t.Fatalf("ReadStatement() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("round trip returned %d rows", len(rows))
	}
	if result := statement.Match([]statement.Row{row, {}}, rows, statement.DefaultOptions()); result.Status != statement.StatusMatch {
		t.Errorf("round trip did not match: %+v", result.Diagnostics)
	}
}
