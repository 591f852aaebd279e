package assumptions

import (
	"encoding/json"

	"github.com/iwvelando/mortgage-trust/pkg/datetime"
)

// Document is the external spelling of a Set, shared by JSON and config
// files.
type Document struct {
	Name           string         `json:"name" yaml:"name" mapstructure:"name"`
	Method         string         `json:"method" yaml:"method" mapstructure:"method"`
	DayCountBasis  string         `json:"dayCountBasis,omitempty" yaml:"dayCountBasis" mapstructure:"daycountbasis"`
	Frequency      string         `json:"frequency,omitempty" yaml:"frequency" mapstructure:"frequency"`
	PaymentOrder   string         `json:"paymentOrder,omitempty" yaml:"paymentOrder" mapstructure:"paymentorder"`
	CustomPriority map[string]int `json:"customPriority,omitempty" yaml:"customPriority" mapstructure:"custompriority"`
	IncludeEscrow  bool           `json:"includeEscrow" yaml:"includeEscrow" mapstructure:"includeescrow"`
	IncludePMI     bool           `json:"includePmi" yaml:"includePmi" mapstructure:"includepmi"`
	IncludeHOA     bool           `json:"includeHoa" yaml:"includeHoa" mapstructure:"includehoa"`
	Rounding       string         `json:"rounding,omitempty" yaml:"rounding" mapstructure:"rounding"`
}

// Document returns the external spelling of s.
func (s Set) Document() Document {
	doc := Document{
		Name:          s.name,
		Method:        s.method.String(),
		DayCountBasis: s.basis.String(),
		Frequency:     s.frequency.String(),
		PaymentOrder:  s.PaymentOrder().String(),
		IncludeEscrow: s.includeEscrow,
		IncludePMI:    s.includePMI,
		IncludeHOA:    s.includeHOA,
		Rounding:      s.rounding.String(),
	}
	if custom, ok := s.order.(CustomOrder); ok {
		doc.CustomPriority = make(map[string]int, len(custom.Priority))
		for b, rank := range custom.Priority {
			doc.CustomPriority[b.String()] = rank
		}
	}
	return doc
}

// Build parses and validates d.
func (d Document) Build() (Set, error) {
	method, err := ParseMethod(d.Method)
	if err != nil {
		return Set{}, err
	}
	basis, err := datetime.ParseDayCountBasis(d.DayCountBasis)
	if err != nil {
		return Set{}, &ValidationError{Field: "dayCountBasis", Reason: err.Error()}
	}
	frequency, err := datetime.ParseFrequency(d.Frequency)
	if err != nil {
		return Set{}, &ValidationError{Field: "frequency", Reason: err.Error()}
	}
	order, err := ParseOrder(d.PaymentOrder, d.CustomPriority)
	if err != nil {
		return Set{}, err
	}
	rounding, err := ParseRounding(d.Rounding)
	if err != nil {
		return Set{}, err
	}
	return New(Config{
		Name:          d.Name,
		Method:        method,
		DayCountBasis: basis,
		Frequency:     frequency,
		PaymentOrder:  order,
		IncludeEscrow: d.IncludeEscrow,
		IncludePMI:    d.IncludePMI,
		IncludeHOA:    d.IncludeHOA,
		Rounding:      rounding,
	})
}

// MarshalJSON encodes s as its Document.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Document())
}

// UnmarshalJSON decodes a Document and validates it.
func (s *Set) UnmarshalJSON(data []byte) error {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	built, err := doc.Build()
	if err != nil {
		return err
	}
	*s = built
	return nil
}
