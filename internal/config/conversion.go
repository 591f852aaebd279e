package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/iwvelando/mortgage-trust/internal/parser"
	"github.com/iwvelando/mortgage-trust/pkg/assumptions"
	"github.com/iwvelando/mortgage-trust/pkg/datetime"
	"github.com/iwvelando/mortgage-trust/pkg/statement"
)

// AssumptionSet builds the scenario's assumption set from its preset or its
// inline assumptions. Inline assumptions without a name take the scenario
// name.
func (s Scenario) AssumptionSet() (assumptions.Set, error) {
	hasPreset := strings.TrimSpace(s.Preset) != ""
	switch {
	case hasPreset && s.Assumptions != nil:
		return assumptions.Set{}, fmt.Errorf("scenario %s sets both preset and assumptions", s.Name)
	case hasPreset:
		return assumptions.PresetByName(s.Preset)
	case s.Assumptions != nil:
		doc := *s.Assumptions
		if strings.TrimSpace(doc.Name) == "" {
			doc.Name = s.Name
		}
		return doc.Build()
	default:
		return assumptions.Set{}, fmt.Errorf("scenario %s needs a preset or assumptions", s.Name)
	}
}

// StatementRows returns the configured lender statement, reading the CSV
// file when one is named. A relative path resolves against the directory of
// the config file. It returns nil when no statement is configured.
func (conf *Configuration) StatementRows() ([]statement.Row, error) {
	st := conf.Common.Statement
	path := strings.TrimSpace(st.CSVFile)
	if path == "" {
		return st.Rows, nil
	}
	if len(st.Rows) > 0 {
		return nil, fmt.Errorf("statement sets both rows and csvFile")
	}
	if !filepath.IsAbs(path) && conf.baseDir != "" {
		path = filepath.Join(conf.baseDir, path)
	}
	rows, err := parser.ReadStatementFile(path)
	if err != nil {
		return nil, fmt.Errorf("statement csvFile %s: %w", path, err)
	}
	return rows, nil
}

func dirOf(path string) string {
	return filepath.Dir(path)
}

// decodeRows converts the generic list viper produces for
// common.statement.rows. Keys match Row json tags case-insensitively.
func decodeRows(raw interface{}) ([]statement.Row, error) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("rows must be a list, got %T", raw)
	}

	moneyNames := make(map[string]string)
	for _, f := range statement.MoneyFields() {
		moneyNames[strings.ToLower(f)] = f
	}

	rows := make([]statement.Row, 0, len(list))
	for i, item := range list {
		fields, err := stringMap(item)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		var row statement.Row
		for key, value := range fields {
			s, err := scalar(value)
			if err != nil {
				return nil, fmt.Errorf("row %d %s: %w", i+1, key, err)
			}
			if s == "" {
				continue
			}

			switch lower := strings.ToLower(key); lower {
			case strings.ToLower(parser.ColumnPeriodNumber):
				n, err := strconv.Atoi(s)
				if err != nil {
					return nil, fmt.Errorf("row %d %s: %w", i+1, key, err)
				}
				row.PeriodNumber = &n
			case strings.ToLower(parser.ColumnPaymentDate):
				d, err := datetime.ParseDate(s)
				if err != nil {
					return nil, fmt.Errorf("row %d %s: %w", i+1, key, err)
				}
				row.PaymentDate = &d
			default:
				name, ok := moneyNames[lower]
				if !ok {
					return nil, fmt.Errorf("row %d: unknown field %q", i+1, key)
				}
				if err := row.UnmarshalMoney(name, s); err != nil {
					return nil, fmt.Errorf("row %d %s: %w", i+1, key, err)
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func stringMap(item interface{}) (map[string]interface{}, error) {
	switch m := item.(type) {
	case map[string]interface{}:
		return m, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a mapping, got %T", item)
	}
}

// scalar renders a decoded YAML scalar as text. Floats use the shortest
// exact decimal spelling.
func scalar(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case time.Time:
		return civil.DateOf(v).String(), nil
	default:
		return "", fmt.Errorf("unsupported value %v (%T)", value, value)
	}
}
