package statement

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/iwvelando/mortgage-trust/pkg/constants"
	"github.com/iwvelando/mortgage-trust/pkg/money"
)

// Status is the outcome of a reconciliation.
type Status string

const (
	// StatusMatch means every compared value is identical.
	StatusMatch Status = "MATCH"
	// StatusClose means every field is within tolerance.
	StatusClose Status = "CLOSE"
	// StatusNoMatch means the rows could not be reconciled.
	StatusNoMatch Status = "NO_MATCH"
)

// Options tunes how strict a reconciliation is.
type Options struct {
	MoneyToleranceCents     int64 `json:"moneyToleranceCents" yaml:"moneyToleranceCents"`
	AllowDateMismatch       bool  `json:"allowDateMismatch" yaml:"allowDateMismatch"`
	TreatMissingMoneyAsZero bool  `json:"treatMissingMoneyAsZero" yaml:"treatMissingMoneyAsZero"`
}

// DefaultOptions is a one-cent tolerance with dates and fields required.
func DefaultOptions() Options {
	return Options{MoneyToleranceCents: constants.DefaultMoneyToleranceCents}
}

// DateMismatch is a row whose payment dates disagree or where only one side
// carries a date.
type DateMismatch struct {
	Row      int         `json:"row"`
	Expected *civil.Date `json:"expected,omitempty"`
	Actual   *civil.Date `json:"actual,omitempty"`
}

// MissingField is a money field present on one side only.
type MissingField struct {
	Row   int    `json:"row"`
	Field string `json:"field"`
	// MissingFrom is "expected" or "actual".
	MissingFrom string `json:"missingFrom"`
}

// RowDelta holds the non-zero deltas (actual − expected) of one row.
type RowDelta struct {
	Row          int                    `json:"row"`
	PeriodNumber *int                   `json:"periodNumber,omitempty"`
	Deltas       map[string]money.Money `json:"deltas"`
}

// Diagnostics explains a Result. Row numbers are 1-indexed positions.
type Diagnostics struct {
	ExpectedRows   int                    `json:"expectedRows"`
	ActualRows     int                    `json:"actualRows"`
	DateMismatches []DateMismatch         `json:"dateMismatches,omitempty"`
	MissingFields  []MissingField         `json:"missingFields,omitempty"`
	MaxAbsDelta    map[string]money.Money `json:"maxAbsDelta,omitempty"`
	SampleRows     []RowDelta             `json:"sampleRows,omitempty"`
	Messages       []string               `json:"messages,omitempty"`
}

// Result is the outcome of Match. A NO_MATCH result is a valid outcome, not
// an error.
type Result struct {
	Status      Status      `json:"status"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Trusted reports whether the statement reconciled as MATCH or CLOSE.
func (r Result) Trusted() bool {
	return r.Status == StatusMatch || r.Status == StatusClose
}

// Match reconciles actual (lender) rows against expected (modelled) rows
// position by position.
//
// Status precedence: a missing field in strict mode, then a disallowed date
// mismatch, give NO_MATCH; otherwise all-zero deltas give MATCH, every
// field's maximum absolute delta within tolerance gives CLOSE, and anything
// else is NO_MATCH.
func Match(expected, actual []Row, opts Options) Result {
	diag := Diagnostics{
		ExpectedRows: len(expected),
		ActualRows:   len(actual),
	}

	if len(expected) != len(actual) {
		diag.Messages = append(diag.Messages,
			fmt.Sprintf("row count mismatch: expected %d rows, statement has %d", len(expected), len(actual)))
		return Result{Status: StatusNoMatch, Diagnostics: diag}
	}

	diag.MaxAbsDelta = make(map[string]money.Money, len(rowMoneyFields))
	anyDelta := false

	for i := range expected {
		rowNum := i + 1
		exp, act := expected[i], actual[i]

		if !sameDate(exp.PaymentDate, act.PaymentDate) {
			diag.DateMismatches = append(diag.DateMismatches, DateMismatch{
				Row:      rowNum,
				Expected: exp.PaymentDate,
				Actual:   act.PaymentDate,
			})
		}

		var deltas map[string]money.Money
		for _, f := range rowMoneyFields {
			e, eok := exp.moneyAt(f)
			a, aok := act.moneyAt(f)
			switch {
			case !eok && !aok:
				continue
			case eok != aok && !opts.TreatMissingMoneyAsZero:
				missing := "actual"
				if !eok {
					missing = "expected"
				}
				diag.MissingFields = append(diag.MissingFields, MissingField{Row: rowNum, Field: f.name, MissingFrom: missing})
				continue
			}

			// A missing side reads as zero here.
			delta := a.Sub(e)
			if prev, seen := diag.MaxAbsDelta[f.name]; !seen || delta.Abs().GreaterThan(prev) {
				diag.MaxAbsDelta[f.name] = delta.Abs()
			}
			if !delta.IsZero() {
				anyDelta = true
				if deltas == nil {
					deltas = make(map[string]money.Money)
				}
				deltas[f.name] = delta
			}
		}

		if deltas != nil && len(diag.SampleRows) < constants.MaxDiagnosticRows {
			diag.SampleRows = append(diag.SampleRows, RowDelta{Row: rowNum, PeriodNumber: periodNumber(exp, act), Deltas: deltas})
		}
	}

	if len(diag.MissingFields) > 0 {
		diag.Messages = append(diag.Messages, fmt.Sprintf("%d money fields are present on only one side", len(diag.MissingFields)))
		return Result{Status: StatusNoMatch, Diagnostics: diag}
	}

	if len(diag.DateMismatches) > 0 {
		if !opts.AllowDateMismatch {
			diag.Messages = append(diag.Messages, fmt.Sprintf("%d payment dates differ", len(diag.DateMismatches)))
			return Result{Status: StatusNoMatch, Diagnostics: diag}
		}
		diag.Messages = append(diag.Messages, fmt.Sprintf("%d payment dates differ (allowed)", len(diag.DateMismatches)))
	}

	if !anyDelta && len(diag.DateMismatches) == 0 {
		return Result{Status: StatusMatch, Diagnostics: diag}
	}

	tolerance := money.FromCents(opts.MoneyToleranceCents)
	within := true
	for _, name := range MoneyFields() {
		if worst, ok := diag.MaxAbsDelta[name]; ok && worst.GreaterThan(tolerance) {
			within = false
			diag.Messages = append(diag.Messages, fmt.Sprintf("%s differs by up to %s, tolerance is %s", name, worst, tolerance))
		}
	}
	if !within {
		return Result{Status: StatusNoMatch, Diagnostics: diag}
	}
	return Result{Status: StatusClose, Diagnostics: diag}
}

func sameDate(a, b *civil.Date) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	default:
		return *a == *b
	}
}

func periodNumber(exp, act Row) *int {
	if exp.PeriodNumber != nil {
		return exp.PeriodNumber
	}
	return act.PeriodNumber
}
