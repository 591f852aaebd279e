// Package statement reconciles schedule rows against rows taken from a
// lender statement.
package statement

import (
	"fmt"
	"reflect"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/iwvelando/mortgage-trust/pkg/loans"
	"github.com/iwvelando/mortgage-trust/pkg/money"
)

// Row mirrors the date and money fields of loans.Period. Every field is
// optional because lender statements are often incomplete. Field names in
// diagnostics and CSV headers are the json tags.
type Row struct {
	PeriodNumber        *int         `json:"periodNumber,omitempty" yaml:"periodNumber,omitempty"`
	PaymentDate         *civil.Date  `json:"paymentDate,omitempty" yaml:"paymentDate,omitempty"`
	BeginningBalance    *money.Money `json:"beginningBalance,omitempty" yaml:"beginningBalance,omitempty"`
	ScheduledPayment    *money.Money `json:"scheduledPayment,omitempty" yaml:"scheduledPayment,omitempty"`
	InterestPortion     *money.Money `json:"interestPortion,omitempty" yaml:"interestPortion,omitempty"`
	PrincipalPortion    *money.Money `json:"principalPortion,omitempty" yaml:"principalPortion,omitempty"`
	ExtraPrincipal      *money.Money `json:"extraPrincipal,omitempty" yaml:"extraPrincipal,omitempty"`
	TotalPrincipal      *money.Money `json:"totalPrincipal,omitempty" yaml:"totalPrincipal,omitempty"`
	EndingBalance       *money.Money `json:"endingBalance,omitempty" yaml:"endingBalance,omitempty"`
	Escrow              *money.Money `json:"escrow,omitempty" yaml:"escrow,omitempty"`
	PMI                 *money.Money `json:"pmi,omitempty" yaml:"pmi,omitempty"`
	HOA                 *money.Money `json:"hoa,omitempty" yaml:"hoa,omitempty"`
	TotalPayment        *money.Money `json:"totalPayment,omitempty" yaml:"totalPayment,omitempty"`
	CumulativeInterest  *money.Money `json:"cumulativeInterest,omitempty" yaml:"cumulativeInterest,omitempty"`
	CumulativePrincipal *money.Money `json:"cumulativePrincipal,omitempty" yaml:"cumulativePrincipal,omitempty"`
}

// moneyField locates one *money.Money field of Row.
type moneyField struct {
	name  string
	index int
}

var (
	moneyPtrType = reflect.TypeOf((*money.Money)(nil))
	moneyType    = moneyPtrType.Elem()

	// rowMoneyFields is every *money.Money field of Row in declaration order.
	rowMoneyFields = collectMoneyFields()
	// periodIndex maps a field name to its index in loans.Period.
	periodIndex = collectPeriodIndex()
)

func collectMoneyFields() []moneyField {
	t := reflect.TypeOf(Row{})
	var out []moneyField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type != moneyPtrType {
			continue
		}
		out = append(out, moneyField{name: tagName(f), index: i})
	}
	return out
}

func collectPeriodIndex() map[string]int {
	t := reflect.TypeOf(loans.Period{})
	out := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type == moneyType {
			out[tagName(f)] = i
		}
	}
	return out
}

func tagName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// MoneyFields lists the names of the money fields the matcher compares, in
// Row declaration order.
func MoneyFields() []string {
	out := make([]string, len(rowMoneyFields))
	for i, f := range rowMoneyFields {
		out[i] = f.name
	}
	return out
}

// Money returns the named money field and whether it is set.
func (r Row) Money(field string) (money.Money, bool) {
	for _, f := range rowMoneyFields {
		if f.name == field {
			return r.moneyAt(f)
		}
	}
	return money.Zero, false
}

// SetMoney sets the named money field. It reports false for an unknown
// field name.
func (r *Row) SetMoney(field string, amount money.Money) bool {
	for _, f := range rowMoneyFields {
		if f.name == field {
			v := amount
			reflect.ValueOf(r).Elem().Field(f.index).Set(reflect.ValueOf(&v))
			return true
		}
	}
	return false
}

// UnmarshalMoney parses a dollar string such as "$1,798.65" into the named
// money field.
func (r *Row) UnmarshalMoney(field, s string) error {
	m, err := money.ParseDollars(s)
	if err != nil {
		return err
	}
	if !r.SetMoney(field, m) {
		return fmt.Errorf("unknown money field %q", field)
	}
	return nil
}

func (r Row) moneyAt(f moneyField) (money.Money, bool) {
	v := reflect.ValueOf(r).Field(f.index)
	if v.IsNil() {
		return money.Zero, false
	}
	return *v.Interface().(*money.Money), true
}

// RowFromPeriod copies every money field Row shares with loans.Period along
// with the period number and payment date.
func RowFromPeriod(p loans.Period) Row {
	number := p.PeriodNumber
	date := p.PaymentDate
	row := Row{PeriodNumber: &number, PaymentDate: &date}

	pv := reflect.ValueOf(p)
	for _, f := range rowMoneyFields {
		idx, ok := periodIndex[f.name]
		if !ok {
			continue
		}
		row.SetMoney(f.name, pv.Field(idx).Interface().(money.Money))
	}
	return row
}

// RowsFromSchedule converts every period of s.
func RowsFromSchedule(s loans.Schedule) []Row {
	rows := make([]Row, len(s.Periods))
	for i, p := range s.Periods {
		rows[i] = RowFromPeriod(p)
	}
	return rows
}

// Columns restricts expected to the columns present in at least one row of
// actual. Gaps inside a reported column still count as missing fields.
func Columns(expected, actual []Row) []Row {
	present := make(map[int]bool, len(rowMoneyFields))
	dates := false
	for _, r := range actual {
		if r.PaymentDate != nil {
			dates = true
		}
		for _, f := range rowMoneyFields {
			if _, ok := r.moneyAt(f); ok {
				present[f.index] = true
			}
		}
	}

	out := make([]Row, len(expected))
	for i, r := range expected {
		row := Row{PeriodNumber: r.PeriodNumber}
		if dates {
			row.PaymentDate = r.PaymentDate
		}
		src := reflect.ValueOf(r)
		dst := reflect.ValueOf(&row).Elem()
		for _, f := range rowMoneyFields {
			if present[f.index] {
				dst.Field(f.index).Set(src.Field(f.index))
			}
		}
		out[i] = row
	}
	return out
}
