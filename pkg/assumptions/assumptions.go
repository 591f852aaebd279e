// Package assumptions defines the validated policy bundle that controls how a
// schedule is computed: accrual method, day-count basis, payment frequency,
// payment order, which ancillary charges are collected and how interest is
// rounded.
package assumptions

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iwvelando/mortgage-trust/pkg/datetime"
	"github.com/iwvelando/mortgage-trust/pkg/mathutil"
)

// ErrValidation is wrapped by every *ValidationError.
var ErrValidation = errors.New("invalid assumption set")

// ValidationError reports the field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("assumption set: %s: %s", e.Field, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Method selects the schedule generator.
type Method int

const (
	// MethodUnspecified is the zero value and is rejected by New.
	MethodUnspecified Method = iota
	// MethodMonthly accrues interest as balance × rate / 12.
	MethodMonthly
	// MethodDaily accrues simple interest on elapsed days.
	MethodDaily
)

func (m Method) String() string {
	switch m {
	case MethodUnspecified:
		return ""
	case MethodMonthly:
		return "monthly"
	case MethodDaily:
		return "daily"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod accepts "monthly" and "daily".
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly":
		return MethodMonthly, nil
	case "daily":
		return MethodDaily, nil
	default:
		return MethodUnspecified, &ValidationError{Field: "method", Reason: fmt.Sprintf("unknown amortization method %q", s)}
	}
}

// Bucket is one of the four groups a custom payment order ranks.
type Bucket int

const (
	BucketInterest Bucket = iota + 1
	BucketPrincipal
	BucketEscrow
	BucketFees
)

// Buckets lists every bucket a custom priority must rank.
var Buckets = []Bucket{BucketInterest, BucketPrincipal, BucketEscrow, BucketFees}

func (b Bucket) String() string {
	switch b {
	case BucketInterest:
		return "interest"
	case BucketPrincipal:
		return "principal"
	case BucketEscrow:
		return "escrow"
	case BucketFees:
		return "fees"
	default:
		return fmt.Sprintf("Bucket(%d)", int(b))
	}
}

// ParseBucket accepts the bucket names used by String.
func ParseBucket(s string) (Bucket, error) {
	for _, b := range Buckets {
		if strings.EqualFold(strings.TrimSpace(s), b.String()) {
			return b, nil
		}
	}
	return 0, &ValidationError{Field: "customPriority", Reason: fmt.Sprintf("unknown bucket %q", s)}
}

// Priority ranks buckets; lower ranks are paid first.
type Priority map[Bucket]int

// PaymentOrder is either StandardOrder or CustomOrder.
type PaymentOrder interface {
	isPaymentOrder()
	String() string
}

// StandardOrder is the servicer convention: fees, interest, principal, escrow.
type StandardOrder struct{}

func (StandardOrder) isPaymentOrder() {}

func (StandardOrder) String() string { return "standard" }

// CustomOrder carries an explicit ranking of every bucket.
type CustomOrder struct {
	Priority Priority
}

func (CustomOrder) isPaymentOrder() {}

func (CustomOrder) String() string { return "custom" }

// ParseOrder builds a PaymentOrder from its config spelling. priority is
// only consulted for "custom" and is keyed by bucket name.
func ParseOrder(s string, priority map[string]int) (PaymentOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard":
		return StandardOrder{}, nil
	case "custom":
		p := make(Priority, len(priority))
		for name, rank := range priority {
			b, err := ParseBucket(name)
			if err != nil {
				return nil, err
			}
			p[b] = rank
		}
		return CustomOrder{Priority: p}, nil
	default:
		return nil, &ValidationError{Field: "paymentOrder", Reason: fmt.Sprintf("unknown payment order %q", s)}
	}
}

// ParseRounding accepts "nearest", "down" and "up".
func ParseRounding(s string) (mathutil.RoundingMode, error) {
	mode, err := mathutil.ParseRoundingMode(s)
	if err != nil {
		return mode, &ValidationError{Field: "rounding", Reason: err.Error()}
	}
	return mode, nil
}

// BucketOrder returns the buckets sorted by their position in order.
func BucketOrder(order PaymentOrder) []Bucket {
	switch o := order.(type) {
	case CustomOrder:
		out := append([]Bucket(nil), Buckets...)
		sort.SliceStable(out, func(i, j int) bool {
			return o.Priority[out[i]] < o.Priority[out[j]]
		})
		return out
	default:
		return []Bucket{BucketFees, BucketInterest, BucketPrincipal, BucketEscrow}
	}
}

// Config is the mutable input to New.
type Config struct {
	Name          string
	Method        Method
	DayCountBasis datetime.DayCountBasis
	Frequency     datetime.Frequency
	PaymentOrder  PaymentOrder
	IncludeEscrow bool
	IncludePMI    bool
	IncludeHOA    bool
	Rounding      mathutil.RoundingMode
}

// Set is a validated, immutable assumption set. The zero value is not valid;
// build one with New or take a preset.
type Set struct {
	name          string
	method        Method
	basis         datetime.DayCountBasis
	frequency     datetime.Frequency
	order         PaymentOrder
	includeEscrow bool
	includePMI    bool
	includeHOA    bool
	rounding      mathutil.RoundingMode
}

// New validates cfg and returns the corresponding Set. A zero Frequency
// defaults to monthly and a nil PaymentOrder to StandardOrder.
func New(cfg Config) (Set, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return Set{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	switch cfg.Method {
	case MethodMonthly:
	case MethodDaily:
		if cfg.DayCountBasis == datetime.BasisUnspecified {
			return Set{}, &ValidationError{Field: "dayCountBasis", Reason: "required for the daily method"}
		}
	default:
		return Set{}, &ValidationError{Field: "method", Reason: fmt.Sprintf("unsupported amortization method %s", cfg.Method)}
	}

	if cfg.DayCountBasis != datetime.BasisUnspecified {
		if _, err := cfg.DayCountBasis.DaysInYear(); err != nil {
			return Set{}, &ValidationError{Field: "dayCountBasis", Reason: err.Error()}
		}
	}

	frequency := cfg.Frequency
	if frequency == datetime.FrequencyUnspecified {
		frequency = datetime.Monthly
	}
	if _, err := datetime.PeriodsPerYear(frequency); err != nil {
		return Set{}, &ValidationError{Field: "frequency", Reason: err.Error()}
	}

	order := cfg.PaymentOrder
	if order == nil {
		order = StandardOrder{}
	}
	if custom, ok := order.(CustomOrder); ok {
		if err := validatePriority(custom.Priority); err != nil {
			return Set{}, err
		}
		order = CustomOrder{Priority: clonePriority(custom.Priority)}
	}

	switch cfg.Rounding {
	case mathutil.RoundNearest, mathutil.RoundDown, mathutil.RoundUp:
	default:
		return Set{}, &ValidationError{Field: "rounding", Reason: fmt.Sprintf("unsupported rounding method %s", cfg.Rounding)}
	}

	return Set{
		name:          strings.TrimSpace(cfg.Name),
		method:        cfg.Method,
		basis:         cfg.DayCountBasis,
		frequency:     frequency,
		order:         order,
		includeEscrow: cfg.IncludeEscrow,
		includePMI:    cfg.IncludePMI,
		includeHOA:    cfg.IncludeHOA,
		rounding:      cfg.Rounding,
	}, nil
}

func validatePriority(p Priority) error {
	if len(p) == 0 {
		return &ValidationError{Field: "customPriority", Reason: "required for the custom payment order"}
	}
	seen := make(map[int]Bucket, len(Buckets))
	for _, b := range Buckets {
		rank, ok := p[b]
		if !ok {
			return &ValidationError{Field: "customPriority", Reason: fmt.Sprintf("missing rank for %s", b)}
		}
		if other, dup := seen[rank]; dup {
			return &ValidationError{Field: "customPriority", Reason: fmt.Sprintf("%s and %s share rank %d", other, b, rank)}
		}
		seen[rank] = b
	}
	if len(p) != len(Buckets) {
		return &ValidationError{Field: "customPriority", Reason: "ranks an unknown bucket"}
	}
	return nil
}

func clonePriority(p Priority) Priority {
	out := make(Priority, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func (s Set) Name() string                          { return s.name }
func (s Set) Method() Method                        { return s.method }
func (s Set) DayCountBasis() datetime.DayCountBasis { return s.basis }
func (s Set) Frequency() datetime.Frequency         { return s.frequency }
func (s Set) IncludeEscrow() bool                   { return s.includeEscrow }
func (s Set) IncludePMI() bool                      { return s.includePMI }
func (s Set) IncludeHOA() bool                      { return s.includeHOA }
func (s Set) Rounding() mathutil.RoundingMode       { return s.rounding }

// PaymentOrder returns a copy of the order so callers cannot mutate the
// custom priority held by the set.
func (s Set) PaymentOrder() PaymentOrder {
	if custom, ok := s.order.(CustomOrder); ok {
		return CustomOrder{Priority: clonePriority(custom.Priority)}
	}
	if s.order == nil {
		return StandardOrder{}
	}
	return s.order
}

// IsZero reports whether s was never constructed.
func (s Set) IsZero() bool {
	return s.method == MethodUnspecified
}

// Config returns the inputs that would rebuild s.
func (s Set) Config() Config {
	return Config{
		Name:          s.name,
		Method:        s.method,
		DayCountBasis: s.basis,
		Frequency:     s.frequency,
		PaymentOrder:  s.PaymentOrder(),
		IncludeEscrow: s.includeEscrow,
		IncludePMI:    s.includePMI,
		IncludeHOA:    s.includeHOA,
		Rounding:      s.rounding,
	}
}

// Equal compares every calculation-affecting field. The name is ignored.
func (s Set) Equal(other Set) bool {
	if s.method != other.method ||
		s.basis != other.basis ||
		s.frequency != other.frequency ||
		s.includeEscrow != other.includeEscrow ||
		s.includePMI != other.includePMI ||
		s.includeHOA != other.includeHOA ||
		s.rounding != other.rounding {
		return false
	}
	return ordersEqual(s.PaymentOrder(), other.PaymentOrder())
}

func ordersEqual(a, b PaymentOrder) bool {
	switch x := a.(type) {
	case StandardOrder:
		_, ok := b.(StandardOrder)
		return ok
	case CustomOrder:
		y, ok := b.(CustomOrder)
		if !ok || len(x.Priority) != len(y.Priority) {
			return false
		}
		for k, v := range x.Priority {
			if w, ok := y.Priority[k]; !ok || w != v {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (s Set) String() string {
	parts := []string{s.method.String()}
	if s.basis != datetime.BasisUnspecified {
		parts = append(parts, s.basis.String())
	}
	parts = append(parts, s.frequency.String(), s.PaymentOrder().String(), "rounding "+s.rounding.String())
	return fmt.Sprintf("%s (%s)", s.name, strings.Join(parts, ", "))
}
