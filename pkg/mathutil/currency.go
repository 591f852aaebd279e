// Package mathutil provides exact integer helpers for currency math.
package mathutil

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

// RoundingMode selects how an inexact quotient is brought back to a whole
// number of cents.
type RoundingMode int

const (
	// RoundNearest rounds half away from zero. For the non-negative amounts
	// produced by interest accrual this is round half-up.
	RoundNearest RoundingMode = iota
	// RoundDown truncates toward zero.
	RoundDown
	// RoundUp rounds away from zero whenever there is a remainder.
	RoundUp
)

// String returns the config spelling of the mode.
func (m RoundingMode) String() string {
	switch m {
	case RoundNearest:
		return "nearest"
	case RoundDown:
		return "down"
	case RoundUp:
		return "up"
	default:
		return fmt.Sprintf("RoundingMode(%d)", int(m))
	}
}

// ParseRoundingMode parses "nearest", "down" or "up". An empty string means
// RoundNearest.
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nearest", "half-up", "half_up":
		return RoundNearest, nil
	case "down", "floor", "truncate":
		return RoundDown, nil
	case "up", "ceil", "ceiling":
		return RoundUp, nil
	default:
		return RoundNearest, fmt.Errorf("unknown rounding method %q", s)
	}
}

// DivRound returns num/den rounded according to mode. den must be non-zero.
func DivRound(num, den *big.Int, mode RoundingMode) *big.Int {
	if den.Sign() == 0 {
		panic("mathutil: division by zero")
	}
	rem := new(big.Int)
	quo, rem := new(big.Int).QuoRem(num, den, rem)
	if rem.Sign() == 0 {
		return quo
	}

	negative := (num.Sign() < 0) != (den.Sign() < 0)
	awayFromZero := false
	switch mode {
	case RoundDown:
	case RoundUp:
		awayFromZero = true
	case RoundNearest:
		twice := new(big.Int).Abs(rem)
		twice.Lsh(twice, 1)
		awayFromZero = twice.CmpAbs(den) >= 0
	default:
		panic(fmt.Sprintf("mathutil: unknown rounding mode %d", int(mode)))
	}

	if awayFromZero {
		if negative {
			quo.Sub(quo, big.NewInt(1))
		} else {
			quo.Add(quo, big.NewInt(1))
		}
	}
	return quo
}

// DivRoundInt64 is DivRound for operands that already fit in int64.
func DivRoundInt64(num, den int64, mode RoundingMode) int64 {
	return DivRound(big.NewInt(num), big.NewInt(den), mode).Int64()
}

// ToInt64 converts v to int64, reporting false when it does not fit.
func ToInt64(v *big.Int) (int64, bool) {
	if !v.IsInt64() {
		return 0, false
	}
	return v.Int64(), true
}

// AbsInt64 returns |v|. math.MinInt64 saturates to math.MaxInt64.
func AbsInt64(v int64) int64 {
	if v == math.MinInt64 {
		return math.MaxInt64
	}
	if v < 0 {
		return -v
	}
	return v
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(a, b, tolerance int64) bool {
	return AbsInt64(a-b) <= tolerance
}

// MinInt64 returns the minimum of two int64 values
func MinInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// MaxInt64 returns the maximum of two int64 values
func MaxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// CeilDiv returns ceil(a/b) for a >= 0 and b > 0.
func CeilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
