package money

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/iwvelando/mortgage-trust/pkg/format"
	"github.com/iwvelando/mortgage-trust/pkg/mathutil"
	"github.com/shopspring/decimal"
)

func TestParseDollars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
		wantErr  bool
	}{
		{"Plain", "1798.65", 179865, false},
		{"Symbol and grouping", "$300,000.00", 30000000, false},
		{"Negative", "-12.3", -1230, false},
		{"Negative with symbol", "-$1,234.56", -123456, false},
		{"Whole dollars", "42", 4200, false},
		{"Half cent rounds up", "0.005", 1, false},
		{"Just under half cent rounds down", "0.0049", 0, false},
		{"Negative half cent rounds away from zero", "-0.005", -1, false},
		{"Empty", "", 0, true},
		{"Garbage", "twelve", 0, true},
		{"Double sign", "--5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseDollars(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDollars(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Errorf("ParseDollars(%q) error = %v, expected ErrInvalidAmount", tt.input, err)
				}
				return
			}
			if result.Cents() != tt.expected {
				t.Errorf("ParseDollars(%q) = %d cents, expected %d", tt.input, result.Cents(), tt.expected)
			}
		})
	}
}

func TestFromDollarsOverflow(t *testing.T) {
	_, err := FromDollars(decimal.RequireFromString("1e30"))
	if !errors.Is(err, ErrOverflow) {
		t.Errorf("FromDollars(1e30) error = %v, expected ErrOverflow", err)
	}
}

func TestArithmetic(t *testing.T) {
	a := FromCents(150050)
	b := FromCents(49951)

	if got := a.Add(b).Cents(); got != 200001 {
		t.Errorf("Add() = %d, expected 200001", got)
	}
	if got := a.Sub(b).Cents(); got != 100099 {
		t.Errorf("Sub() = %d, expected 100099", got)
	}
	if got := b.Sub(a).Abs().Cents(); got != 100099 {
		t.Errorf("Abs() = %d, expected 100099", got)
	}
	if got := a.Neg().Cents(); got != -150050 {
		t.Errorf("Neg() = %d, expected -150050", got)
	}
	if !Min(a, b).Equal(b) || !Max(a, b).Equal(a) {
		t.Errorf("Min/Max returned unexpected values")
	}
	if a.Cmp(b) != 1 || b.Cmp(a) != -1 || a.Cmp(a) != 0 {
		t.Errorf("Cmp returned unexpected values")
	}
	if !b.LessThan(a) || !a.GreaterThan(b) || !a.LessThanOrEqual(a) {
		t.Errorf("comparisons returned unexpected values")
	}
	if got := Sum(a, b, FromCents(-1)).Cents(); got != 200000 {
		t.Errorf("Sum() = %d, expected 200000", got)
	}
	if !Zero.IsZero() || !a.IsPositive() || !a.Neg().IsNegative() {
		t.Errorf("sign predicates returned unexpected values")
	}
}

func TestAddChecked(t *testing.T) {
	tests := []struct {
		name     string
		a, b     int64
		expected int64
		overflow bool
	}{
		{"plain", 150, 250, 400, false},
		{"negative", -150, 50, -100, false},
		{"max", math.MaxInt64 - 1, 1, math.MaxInt64, false},
		{"past max", math.MaxInt64, 1, 0, true},
		{"past min", math.MinInt64, -1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromCents(tt.a).AddChecked(FromCents(tt.b))
			if tt.overflow {
				if !errors.Is(err, ErrOverflow) {
					t.Errorf("AddChecked() error = %v, expected ErrOverflow", err)
				}
				return
			}
			if err != nil || got.Cents() != tt.expected {
				t.Errorf("AddChecked() = %d, %v; expected %d", got.Cents(), err, tt.expected)
			}
		})
	}

	if _, err := SumChecked(FromCents(math.MaxInt64/2), FromCents(math.MaxInt64/2), FromCents(2)); !errors.Is(err, ErrOverflow) {
		t.Errorf("SumChecked() error = %v, expected ErrOverflow", err)
	}
	if total, err := SumChecked(FromCents(1), FromCents(2)); err != nil || total.Cents() != 3 {
		t.Errorf("SumChecked() = %s, %v", total, err)
	}
}

func TestMulScalar(t *testing.T) {
	tests := []struct {
		name     string
		cents    int64
		factor   string
		expected int64
	}{
		{"Exact", 1000, "1.5", 1500},
		{"Half cent rounds up", 1, "0.5", 1},
		{"Below half rounds down", 1, "0.49", 0},
		{"Negative half rounds away from zero", -1, "0.5", -1},
		{"Thirds", 10000, "0.333333", 3333},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := FromCents(tt.cents).MulScalar(decimal.RequireFromString(tt.factor))
			if err != nil {
				t.Fatalf("MulScalar() error = %v", err)
			}
			if result.Cents() != tt.expected {
				t.Errorf("MulScalar(%s) = %d, expected %d", tt.factor, result.Cents(), tt.expected)
			}
		})
	}

	if _, err := FromCents(math.MaxInt64).MulScalar(decimal.NewFromInt(2)); !errors.Is(err, ErrOverflow) {
		t.Errorf("MulScalar overflow error = %v, expected ErrOverflow", err)
	}
}

func TestDivScalar(t *testing.T) {
	tests := []struct {
		cents    int64
		divisor  int64
		expected int64
	}{
		{10000, 3, 3333},
		{20000, 3, 6667},
		{5, 2, 3},
		{-5, 2, -3},
		{45, 100, 0},
	}

	for _, tt := range tests {
		result, err := FromCents(tt.cents).DivScalar(tt.divisor)
		if err != nil {
			t.Fatalf("DivScalar() error = %v", err)
		}
		if result.Cents() != tt.expected {
			t.Errorf("FromCents(%d).DivScalar(%d) = %d, expected %d", tt.cents, tt.divisor, result.Cents(), tt.expected)
		}
	}

	if _, err := FromCents(1).DivScalar(0); err == nil {
		t.Errorf("DivScalar(0) expected error")
	}
}

func TestStringAndFormat(t *testing.T) {
	m := FromCents(-34751544)
	if m.String() != "-$347,515.44" {
		t.Errorf("String() = %s", m.String())
	}
	if got := m.Format(format.Options{}); got != "-347515.44" {
		t.Errorf("Format() = %s", got)
	}
	if got := FromCents(179865).Dollars().String(); got != "1798.65" {
		t.Errorf("Dollars() = %s", got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type payload struct {
		Amount Money `json:"amount"`
	}

	data, err := json.Marshal(payload{Amount: FromCents(179865)})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(data) != `{"amount":"1798.65"}` {
		t.Errorf("json.Marshal() = %s", data)
	}

	var fromNumber payload
	if err := json.Unmarshal([]byte(`{"amount": 1798.65}`), &fromNumber); err != nil {
		t.Fatalf("json.Unmarshal(number) error = %v", err)
	}
	if fromNumber.Amount.Cents() != 179865 {
		t.Errorf("json.Unmarshal(number) = %d cents", fromNumber.Amount.Cents())
	}

	var fromString payload
	if err := json.Unmarshal(data, &fromString); err != nil {
		t.Fatalf("json.Unmarshal(string) error = %v", err)
	}
	if !fromString.Amount.Equal(fromNumber.Amount) {
		t.Errorf("string and number decodes differ: %s vs %s", fromString.Amount, fromNumber.Amount)
	}
}

func TestRoundingModesOnInterest(t *testing.T) {
	// $1,000.01 at 6% for one month is 500.005 cents.
	principal := FromCents(100001)
	rate := decimal.RequireFromString("0.06")

	tests := []struct {
		mode     mathutil.RoundingMode
		expected int64
	}{
		{mathutil.RoundNearest, 500},
		{mathutil.RoundDown, 500},
		{mathutil.RoundUp, 501},
	}

	for _, tt := range tests {
		result, err := CalculateInterestWithRounding(principal, rate, 12, tt.mode)
		if err != nil {
			t.Fatalf("CalculateInterestWithRounding() error = %v", err)
		}
		if result.Cents() != tt.expected {
			t.Errorf("CalculateInterestWithRounding(%s) = %d, expected %d", tt.mode, result.Cents(), tt.expected)
		}
	}
}
