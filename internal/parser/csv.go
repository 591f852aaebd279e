// Package parser reads lender statement rows from CSV.
package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/iwvelando/mortgage-trust/pkg/datetime"
	"github.com/iwvelando/mortgage-trust/pkg/statement"
)

// Column headers that are not money fields.
const (
	ColumnPeriodNumber = "periodNumber"
	ColumnPaymentDate  = "paymentDate"
)

// ErrNoColumns is returned when a header names none of the known columns.
var ErrNoColumns = errors.New("statement CSV has no recognised columns")

// ReadStatementFile reads statement rows from the CSV file at path.
func ReadStatementFile(path string) ([]statement.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadStatement(f)
}

// ReadStatement reads statement rows from CSV. The header names columns by
// Row json tags (periodNumber, paymentDate, interestPortion, ...); unknown
// columns are ignored and an empty cell leaves the field unset.
func ReadStatement(in io.Reader) ([]statement.Row, error) {
	r := csv.NewReader(in)
	r.TrimLeadingSpace = true
	headers, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := toIndex(headers)

	var moneyCols []string
	for _, f := range statement.MoneyFields() {
		if _, ok := col[f]; ok {
			moneyCols = append(moneyCols, f)
		}
	}
	_, hasNumber := col[ColumnPeriodNumber]
	_, hasDate := col[ColumnPaymentDate]
	if len(moneyCols) == 0 && !hasNumber && !hasDate {
		return nil, ErrNoColumns
	}

	var out []statement.Row
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		var row statement.Row
		if s := cell(rec, col, ColumnPeriodNumber); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("line %d %s parse: %w", line, ColumnPeriodNumber, err)
			}
			row.PeriodNumber = &n
		}
		if s := cell(rec, col, ColumnPaymentDate); s != "" {
			d, err := datetime.ParseDate(s)
			if err != nil {
				return nil, fmt.Errorf("line %d %s parse: %w", line, ColumnPaymentDate, err)
			}
			row.PaymentDate = &d
		}
		for _, f := range moneyCols {
			s := cell(rec, col, f)
			if s == "" {
				continue
			}
			if err := row.UnmarshalMoney(f, s); err != nil {
				return nil, fmt.Errorf("line %d %s parse: %w", line, f, err)
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// WriteStatement writes rows as CSV with every Row column, leaving unset
// fields empty. ReadStatement reads the result back unchanged.
func WriteStatement(w io.Writer, rows []statement.Row) error {
	cw := csv.NewWriter(w)
	header := append([]string{ColumnPeriodNumber, ColumnPaymentDate}, statement.MoneyFields()...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		rec := make([]string, len(header))
		if row.PeriodNumber != nil {
			rec[0] = strconv.Itoa(*row.PeriodNumber)
		}
		if row.PaymentDate != nil {
			rec[1] = datetime.FormatDate(*row.PaymentDate)
		}
		for i, f := range header[2:] {
			if m, ok := row.Money(f); ok {
				rec[i+2] = m.Dollars().StringFixed(2)
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func toIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func cell(rec []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
