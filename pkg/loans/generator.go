package loans

import (
	"errors"
	"fmt"
	"iter"

	"cloud.google.com/go/civil"
	"github.com/iwvelando/mortgage-trust/pkg/assumptions"
	"github.com/iwvelando/mortgage-trust/pkg/datetime"
)

// ErrConfigurationMismatch is wrapped by every *ConfigurationMismatchError.
var ErrConfigurationMismatch = errors.New("assumption set does not match generator")

// ConfigurationMismatchError reports an assumption set handed to a generator
// that cannot honor its method or frequency.
type ConfigurationMismatchError struct {
	Generator string
	Method    assumptions.Method
	Frequency datetime.Frequency
}

func (e *ConfigurationMismatchError) Error() string {
	return fmt.Sprintf("%s generator requires a %s method with monthly payments, got method %q and frequency %q",
		e.Generator, e.Generator, e.Method, e.Frequency)
}

// Unwrap lets callers match with errors.Is(err, ErrConfigurationMismatch).
func (e *ConfigurationMismatchError) Unwrap() error {
	return ErrConfigurationMismatch
}

// Generator produces a schedule for a loan under an assumption set.
// lastPaymentDate, when non-nil, is the date interest last accrued from
// before the first payment.
type Generator interface {
	Generate(params LoanParameters, set assumptions.Set, extras []ExtraPayment, lastPaymentDate *civil.Date) (Schedule, error)
	Periods(params LoanParameters, set assumptions.Set, extras []ExtraPayment, lastPaymentDate *civil.Date) iter.Seq2[Period, error]
}

// ForAssumptions returns the generator that matches set's method.
func ForAssumptions(set assumptions.Set) (Generator, error) {
	switch set.Method() {
	case assumptions.MethodMonthly:
		return MonthlyGenerator{}, nil
	case assumptions.MethodDaily:
		return DailyGenerator{}, nil
	default:
		return nil, &ConfigurationMismatchError{Generator: "unknown", Method: set.Method(), Frequency: set.Frequency()}
	}
}

// Generate selects a generator for set and runs it.
func Generate(params LoanParameters, set assumptions.Set, extras []ExtraPayment, lastPaymentDate *civil.Date) (Schedule, error) {
	g, err := ForAssumptions(set)
	if err != nil {
		return Schedule{}, err
	}
	return g.Generate(params, set, extras, lastPaymentDate)
}

func checkMatch(name string, want assumptions.Method, set assumptions.Set) error {
	if set.Method() != want || set.Frequency() != datetime.Monthly {
		return &ConfigurationMismatchError{Generator: name, Method: set.Method(), Frequency: set.Frequency()}
	}
	return nil
}

// generate drains p and assembles the schedule.
func generate(p *plan, err error) (Schedule, error) {
	if err != nil {
		return Schedule{}, err
	}

	periods := make([]Period, 0, p.params.TermMonths)
	for period, err := range p.periods() {
		if err != nil {
			return Schedule{}, err
		}
		periods = append(periods, period)
	}

	summary, err := summarize(p.params, periods)
	if err != nil {
		return Schedule{}, err
	}

	return Schedule{
		Parameters:       p.params,
		Assumptions:      p.set,
		ScheduledPayment: p.scheduled,
		Periods:          periods,
		Summary:          summary,
	}, nil
}

// failed yields err once.
func failed(err error) iter.Seq2[Period, error] {
	return func(yield func(Period, error) bool) {
		yield(Period{}, err)
	}
}
