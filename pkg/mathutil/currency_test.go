package mathutil

import (
	"math"
	"math/big"
	"testing"
)

func TestDivRound(t *testing.T) {
	tests := []struct {
		name     string
		num      int64
		den      int64
		mode     RoundingMode
		expected int64
	}{
		{"Exact quotient", 100, 4, RoundNearest, 25},
		{"Nearest rounds half up", 5, 2, RoundNearest, 3},
		{"Nearest rounds below midpoint down", 149, 100, RoundNearest, 1},
		{"Nearest rounds above midpoint up", 151, 100, RoundNearest, 2},
		{"Nearest negative half away from zero", -5, 2, RoundNearest, -3},
		{"Nearest negative below midpoint", -149, 100, RoundNearest, -1},
		{"Down truncates", 199, 100, RoundDown, 1},
		{"Down truncates negative toward zero", -199, 100, RoundDown, -1},
		{"Up rounds away from zero", 101, 100, RoundUp, 2},
		{"Up negative rounds away from zero", -101, 100, RoundUp, -2},
		{"Up exact stays", 200, 100, RoundUp, 2},
		{"Negative denominator", 5, -2, RoundNearest, -3},
		{"Zero numerator", 0, 7, RoundUp, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DivRoundInt64(tt.num, tt.den, tt.mode)
			if result != tt.expected {
				t.Errorf("DivRoundInt64(%d, %d, %s) = %d, expected %d", tt.num, tt.den, tt.mode, result, tt.expected)
			}
		})
	}
}

func TestDivRoundLargeOperands(t *testing.T) {
	// 9e18 cents times 2e9 ppb overflows int64 but not big.Int.
	num := new(big.Int).Mul(big.NewInt(9000000000000000000), big.NewInt(2_000_000_000))
	den := big.NewInt(12_000_000_000)

	result := DivRound(num, den, RoundNearest)
	expected := int64(1500000000000000000)
	got, ok := ToInt64(result)
	if !ok {
		t.Fatalf("expected result to fit in int64, got %s", result)
	}
	if got != expected {
		t.Errorf("DivRound() = %d, expected %d", got, expected)
	}
}

func TestDivRoundPanicsOnZero(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected DivRound to panic on a zero denominator")
		}
	}()

	DivRound(big.NewInt(1), big.NewInt(0), RoundNearest)
}

func TestToInt64Overflow(t *testing.T) {
	tooBig := new(big.Int).Add(big.NewInt(math.MaxInt64), big.NewInt(1))
	if _, ok := ToInt64(tooBig); ok {
		t.Errorf("ToInt64(%s) reported ok, expected overflow", tooBig)
	}
}

func TestParseRoundingMode(t *testing.T) {
	tests := []struct {
		input    string
		expected RoundingMode
		wantErr  bool
	}{
		{"", RoundNearest, false},
		{"nearest", RoundNearest, false},
		{"NEAREST", RoundNearest, false},
		{"down", RoundDown, false},
		{"up", RoundUp, false},
		{" ceil ", RoundUp, false},
		{"banker", RoundNearest, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseRoundingMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRoundingMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && result != tt.expected {
				t.Errorf("ParseRoundingMode(%q) = %s, expected %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRoundingModeString(t *testing.T) {
	if RoundNearest.String() != "nearest" || RoundDown.String() != "down" || RoundUp.String() != "up" {
		t.Errorf("unexpected rounding mode names: %s %s %s", RoundNearest, RoundDown, RoundUp)
	}
	if RoundingMode(9).String() != "RoundingMode(9)" {
		t.Errorf("unexpected name for unknown mode: %s", RoundingMode(9))
	}
}

func TestWithinTolerance(t *testing.T) {
	tests := []struct {
		name      string
		a, b, tol int64
		expected  bool
	}{
		{"Equal", 100, 100, 0, true},
		{"One cent apart within one", 100, 101, 1, true},
		{"Two cents apart outside one", 100, 102, 1, false},
		{"Negative difference", 102, 100, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := WithinTolerance(tt.a, tt.b, tt.tol); result != tt.expected {
				t.Errorf("WithinTolerance(%d, %d, %d) = %v, expected %v", tt.a, tt.b, tt.tol, result, tt.expected)
			}
		})
	}
}

func TestMinMaxAbs(t *testing.T) {
	if MinInt64(3, -4) != -4 {
		t.Errorf("MinInt64(3, -4) = %d", MinInt64(3, -4))
	}
	if MaxInt64(3, -4) != 3 {
		t.Errorf("MaxInt64(3, -4) = %d", MaxInt64(3, -4))
	}
	if AbsInt64(-7) != 7 {
		t.Errorf("AbsInt64(-7) = %d", AbsInt64(-7))
	}
	if AbsInt64(math.MinInt64) != math.MaxInt64 {
		t.Errorf("AbsInt64(MinInt64) did not saturate")
	}
	if CeilDiv(10, 3) != 4 || CeilDiv(9, 3) != 3 {
		t.Errorf("CeilDiv returned unexpected values")
	}
}
