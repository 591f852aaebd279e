// Package config defines the data structures related to configuration and
// includes functions for loading the config and converting it into engine
// inputs.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/mortgage-trust/pkg/assumptions"
	"github.com/iwvelando/mortgage-trust/pkg/constants"
	"github.com/iwvelando/mortgage-trust/pkg/statement"
	"github.com/iwvelando/mortgage-trust/pkg/validation"
	"github.com/spf13/viper"
)

// DateLayout is the format expected in config files and is also the output
// date format.
const DateLayout = constants.DateLayout

// Configuration holds all configuration for mortgage-trust.
type Configuration struct {
	Common    Common        `json:"common" yaml:"common" mapstructure:"common"`
	Scenarios []Scenario    `json:"scenarios" yaml:"scenarios" mapstructure:"scenarios"`
	Logging   LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty" mapstructure:"logging"`
	Output    OutputConfig  `json:"output,omitempty" yaml:"output,omitempty" mapstructure:"output"`

	// baseDir resolves relative statement file paths.
	baseDir string
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `json:"level,omitempty" yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `json:"format,omitempty" yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `json:"outputFile,omitempty" yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `json:"format,omitempty" yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// Common holds the loan, the lender statement and the matching options
// shared by every scenario.
type Common struct {
	Loan      Loan            `json:"loan" yaml:"loan" mapstructure:"loan"`
	Statement StatementConfig `json:"statement,omitempty" yaml:"statement,omitempty" mapstructure:"statement"`
	Match     MatchConfig     `json:"match,omitempty" yaml:"match,omitempty" mapstructure:"match"`
}

// Scenario is one assumption set and extra-payment plan run against the
// common loan. Either Preset or Assumptions names the assumption set.
type Scenario struct {
	Name          string                `json:"name" yaml:"name" mapstructure:"name"`
	Active        bool                  `json:"active" yaml:"active" mapstructure:"active"`
	Preset        string                `json:"preset,omitempty" yaml:"preset,omitempty" mapstructure:"preset"`
	Assumptions   *assumptions.Document `json:"assumptions,omitempty" yaml:"assumptions,omitempty" mapstructure:"assumptions"`
	ExtraPayments []ExtraPayment        `json:"extraPayments,omitempty" yaml:"extraPayments,omitempty" mapstructure:"extraPayments"`
}

// StatementConfig holds lender statement rows inline or as a CSV file.
type StatementConfig struct {
	Rows    []statement.Row `json:"rows,omitempty" yaml:"rows,omitempty" mapstructure:"-"`
	CSVFile string          `json:"csvFile,omitempty" yaml:"csvFile,omitempty" mapstructure:"csvFile"`
}

// Empty reports whether no statement was configured.
func (s StatementConfig) Empty() bool {
	return len(s.Rows) == 0 && strings.TrimSpace(s.CSVFile) == ""
}

// MatchConfig holds statement matching options. A nil tolerance takes the
// default of one cent.
type MatchConfig struct {
	MoneyToleranceCents     *int64 `json:"moneyToleranceCents,omitempty" yaml:"moneyToleranceCents,omitempty" mapstructure:"moneyToleranceCents"`
	AllowDateMismatch       bool   `json:"allowDateMismatch,omitempty" yaml:"allowDateMismatch,omitempty" mapstructure:"allowDateMismatch"`
	TreatMissingMoneyAsZero bool   `json:"treatMissingMoneyAsZero,omitempty" yaml:"treatMissingMoneyAsZero,omitempty" mapstructure:"treatMissingMoneyAsZero"`
}

// Options converts m into matcher options.
func (m MatchConfig) Options() statement.Options {
	opts := statement.DefaultOptions()
	if m.MoneyToleranceCents != nil {
		opts.MoneyToleranceCents = *m.MoneyToleranceCents
	}
	opts.AllowDateMismatch = m.AllowDateMismatch
	opts.TreatMissingMoneyAsZero = m.TreatMissingMoneyAsZero
	return opts
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	conf, err := decode(v)
	if err != nil {
		return nil, err
	}
	conf.baseDir = dirOf(configPath)
	return conf, nil
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
// Relative statement paths resolve against the working directory.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	// Statement rows carry money and date scalars that decode through their
	// text unmarshalers rather than mapstructure.
	if raw := v.Get("common.statement.rows"); raw != nil {
		rows, err := decodeRows(raw)
		if err != nil {
			return nil, fmt.Errorf("unable to decode statement rows, %w", err)
		}
		configuration.Common.Statement.Rows = rows
	}

	return &configuration, nil
}

// ActiveScenarios returns the scenarios marked active, in file order.
func (conf *Configuration) ActiveScenarios() []Scenario {
	var out []Scenario
	for _, s := range conf.Scenarios {
		if s.Active {
			out = append(out, s)
		}
	}
	return out
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. Parts that do not convert are skipped here; conversion
// reports them as errors.
func (conf *Configuration) ValidateConfiguration() []string {
	params, err := conf.Common.Loan.Parameters()
	if err != nil {
		return nil
	}

	var scenarios []validation.ScenarioConfig
	for _, scenario := range conf.Scenarios {
		set, err := scenario.AssumptionSet()
		if err != nil {
			continue
		}
		scenarios = append(scenarios, validation.ScenarioConfig{
			Name:        scenario.Name,
			Active:      scenario.Active,
			Assumptions: set,
		})
	}

	validator := validation.ConfigValidator{Loan: params, Scenarios: scenarios}
	return validator.ValidateAll()
}
