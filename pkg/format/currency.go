// Package format renders whole-cent amounts for display.
package format

import (
	"strconv"
	"strings"
)

// Options controls how an amount of cents is rendered.
type Options struct {
	Symbol   string // prefix such as "$"; empty for none
	Grouping bool   // insert thousands separators
}

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(cents int64) string {
	return Amount(cents, Options{Symbol: "$", Grouping: true})
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(cents int64) string {
	return Amount(cents, Options{Grouping: true})
}

// Plain returns the amount with no symbol and no separators (e.g., "-1234.56").
func Plain(cents int64) string {
	return Amount(cents, Options{})
}

// Amount renders cents with the sign ahead of the symbol. The output never
// depends on the process locale.
func Amount(cents int64, opts Options) string {
	negative := cents < 0
	// uint64 conversion keeps math.MinInt64 representable.
	magnitude := uint64(cents)
	if negative {
		magnitude = uint64(-(cents + 1)) + 1
	}

	intPart := strconv.FormatUint(magnitude/100, 10)
	decPart := magnitude % 100
	if opts.Grouping {
		intPart = group(intPart)
	}

	var builder strings.Builder
	if negative {
		builder.WriteByte('-')
	}
	builder.WriteString(opts.Symbol)
	builder.WriteString(intPart)
	builder.WriteByte('.')
	if decPart < 10 {
		builder.WriteByte('0')
	}
	builder.WriteString(strconv.FormatUint(decPart, 10))
	return builder.String()
}

func group(intPart string) string {
	if len(intPart) <= 3 {
		return intPart
	}
	var builder strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			builder.WriteByte(',')
		}
		builder.WriteRune(digit)
	}
	return builder.String()
}
