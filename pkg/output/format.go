// Package output provides utilities for formatting and displaying schedule,
// reconciliation and calibration results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/mortgage-trust/internal/calibrate"
	"github.com/iwvelando/mortgage-trust/internal/engine"
	"github.com/iwvelando/mortgage-trust/pkg/constants"
	"github.com/iwvelando/mortgage-trust/pkg/datetime"
	"github.com/iwvelando/mortgage-trust/pkg/format"
	"github.com/iwvelando/mortgage-trust/pkg/statement"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Supported output formats.
const (
	FormatPretty = constants.OutputFormatPretty
	FormatCSV    = constants.OutputFormatCSV
	FormatJSON   = constants.OutputFormatJSON
)

var hundred = decimal.NewFromInt(100)

// Write renders results in the named format.
func Write(w io.Writer, outputFormat string, results []engine.Result) error {
	switch outputFormat {
	case FormatPretty, "":
		return PrettyFormat(w, results)
	case FormatCSV:
		return CsvFormat(w, results)
	case FormatJSON:
		return JSONFormat(w, results)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

// WriteRankings renders calibration rankings in the named format.
func WriteRankings(w io.Writer, outputFormat string, rankings []calibrate.Ranking) error {
	switch outputFormat {
	case FormatPretty, "":
		return PrettyRankings(w, rankings)
	case FormatCSV:
		return CsvRankings(w, rankings)
	case FormatJSON:
		return JSONFormat(w, rankings)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, results []engine.Result) error {
	p := message.NewPrinter(language.English)
	for i, result := range results {
		s := result.Schedule
		_, _ = fmt.Fprintf(w, "--- Results for scenario %s (%s) ---\n", result.Name, result.Assumptions)
		_, _ = p.Fprintf(w, "Principal %s at %s%% over %d months, payment %s\n",
			s.Parameters.Principal, s.Parameters.AnnualRate.Mul(hundred).String(), s.Parameters.TermMonths, s.ScheduledPayment)
		_, _ = fmt.Fprintf(w, "Period | Date       | Payment       | Interest      | Principal     | Extra         | Balance\n")
		_, _ = fmt.Fprintf(w, "______ | __________ | _____________ | _____________ | _____________ | _____________ | _______\n")
		for _, period := range s.Periods {
			note := ""
			if period.IsPartialPayment {
				note = " (partial)"
			}
			_, _ = fmt.Fprintf(w, "%6d | %s | %13s | %13s | %13s | %13s | %s%s\n",
				period.PeriodNumber,
				datetime.FormatDate(period.PaymentDate),
				period.TotalPayment,
				period.InterestPortion,
				period.PrincipalPortion,
				period.ExtraPrincipal,
				period.EndingBalance,
				note,
			)
		}
		_, _ = p.Fprintf(w, "Payments: %d, total interest %s, total paid %s, payoff %s\n",
			s.Summary.NumberOfPayments,
			s.Summary.TotalInterest,
			s.Summary.TotalPaidWithEscrow,
			datetime.FormatDate(s.Summary.PayoffDate),
		)
		if result.Match != nil {
			writeMatch(w, *result.Match)
		}
		if i < len(results)-1 {
			_, _ = fmt.Fprintf(w, "\n")
		}
	}
	return nil
}

func writeMatch(w io.Writer, m statement.Result) {
	_, _ = fmt.Fprintf(w, "Statement: %s (%d expected rows, %d statement rows)\n",
		m.Status, m.Diagnostics.ExpectedRows, m.Diagnostics.ActualRows)
	for _, msg := range m.Diagnostics.Messages {
		_, _ = fmt.Fprintf(w, "  %s\n", msg)
	}
	for _, name := range statement.MoneyFields() {
		if d, ok := m.Diagnostics.MaxAbsDelta[name]; ok && !d.IsZero() {
			_, _ = fmt.Fprintf(w, "  max %s delta %s\n", name, d)
		}
	}
}

// CsvFormat outputs every period of every scenario in comma-separated value
// format. Amounts are plain dollars.
func CsvFormat(w io.Writer, results []engine.Result) error {
	cw := csv.NewWriter(w)
	fields := statement.MoneyFields()

	header := append([]string{"scenario", "periodNumber", "paymentDate"}, fields...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, result := range results {
		for _, row := range statement.RowsFromSchedule(result.Schedule) {
			record := make([]string, 0, len(header))
			record = append(record, result.Name, strconv.Itoa(*row.PeriodNumber), datetime.FormatDate(*row.PaymentDate))
			for _, field := range fields {
				amount, ok := row.Money(field)
				if !ok {
					record = append(record, "")
					continue
				}
				record = append(record, amount.Format(format.Options{}))
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// PrettyRankings outputs calibration rankings as a table.
func PrettyRankings(w io.Writer, rankings []calibrate.Ranking) error {
	_, _ = fmt.Fprintf(w, "Rank | Assumptions          | Status   | Total max delta | Notes\n")
	_, _ = fmt.Fprintf(w, "____ | ____________________ | ________ | _______________ | _____\n")
	for _, r := range rankings {
		status := string(r.Status)
		if r.Error != "" {
			status = "ERROR"
		}
		_, _ = fmt.Fprintf(w, "%4d | %-20s | %-8s | %15s | %s\n", r.Rank, r.Name, status, r.TotalMaxDelta, rankingNotes(r))
	}
	if best, ok := calibrate.Best(rankings); ok {
		_, _ = fmt.Fprintf(w, "Best match: %s\n", best.Name)
	} else {
		_, _ = fmt.Fprintf(w, "No assumption set reproduces the statement\n")
	}
	return nil
}

// CsvRankings outputs calibration rankings in comma-separated value format.
func CsvRankings(w io.Writer, rankings []calibrate.Ranking) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"rank", "name", "status", "totalMaxDelta", "notes"}); err != nil {
		return err
	}
	for _, r := range rankings {
		record := []string{
			strconv.Itoa(r.Rank),
			r.Name,
			string(r.Status),
			r.TotalMaxDelta.Format(format.Options{}),
			rankingNotes(r),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func rankingNotes(r calibrate.Ranking) string {
	if r.Error != "" {
		return r.Error
	}
	if r.Match == nil {
		return ""
	}
	return strings.Join(r.Match.Diagnostics.Messages, "; ")
}

// JSONFormat outputs v as indented JSON.
func JSONFormat(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
