package validation

import (
	"fmt"

	"github.com/iwvelando/mortgage-trust/pkg/assumptions"
	"github.com/iwvelando/mortgage-trust/pkg/constants"
	"github.com/iwvelando/mortgage-trust/pkg/loans"
	"github.com/iwvelando/mortgage-trust/pkg/money"
	"github.com/shopspring/decimal"
)

var highRate = decimal.RequireFromString(constants.HighRateWarning)

// ValidateTerm warns about terms longer than any common mortgage product.
func ValidateTerm(termMonths int) string {
	if termMonths > constants.MaxRecommendedTermMonths {
		return fmt.Sprintf("Loan term of %d months exceeds %d months", termMonths, constants.MaxRecommendedTermMonths)
	}
	return ""
}

// ValidateRate warns about rates that look like a percentage entered as a
// decimal or vice versa.
func ValidateRate(rate decimal.Decimal) string {
	if rate.GreaterThan(highRate) {
		return fmt.Sprintf("Annual rate %s is above %s; rates are decimals (0.06 is 6%%)", rate, highRate)
	}
	return ""
}

// ValidateCharges warns when the loan carries escrow, PMI or HOA amounts
// that the scenario's assumption set will not collect.
func ValidateCharges(scenario string, params loans.LoanParameters, set assumptions.Set) []string {
	var warnings []string
	for _, c := range []struct {
		name    string
		amount  money.Money
		enabled bool
	}{
		{"escrow", params.Escrow, set.IncludeEscrow()},
		{"PMI", params.PMI, set.IncludePMI()},
		{"HOA", params.HOA, set.IncludeHOA()},
	} {
		if c.amount.IsPositive() && !c.enabled {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s' does not collect %s; %s per period will be reported as unapplied",
				scenario, c.name, c.amount))
		}
	}
	return warnings
}

// ConfigValidator collects the converted pieces of a job for warnings.
type ConfigValidator struct {
	Loan      loans.LoanParameters
	Scenarios []ScenarioConfig
}

// ScenarioConfig is one converted scenario.
type ScenarioConfig struct {
	Name        string
	Active      bool
	Assumptions assumptions.Set
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	if w := ValidateTerm(cv.Loan.TermMonths); w != "" {
		warnings = append(warnings, w)
	}
	if w := ValidateRate(cv.Loan.AnnualRate); w != "" {
		warnings = append(warnings, w)
	}

	active := 0
	for _, scenario := range cv.Scenarios {
		if !scenario.Active {
			continue
		}
		active++
		warnings = append(warnings, ValidateCharges(scenario.Name, cv.Loan, scenario.Assumptions)...)
	}
	if active == 0 {
		warnings = append(warnings, "No active scenarios; nothing will be computed")
	}

	return warnings
}
