// Package engine runs the scenarios of a job and reconciles each schedule
// against the lender statement when one is configured.
package engine

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/iwvelando/mortgage-trust/internal/cache"
	"github.com/iwvelando/mortgage-trust/internal/config"
	"github.com/iwvelando/mortgage-trust/pkg/assumptions"
	"github.com/iwvelando/mortgage-trust/pkg/loans"
	"github.com/iwvelando/mortgage-trust/pkg/statement"
	"go.uber.org/zap"
)

// Result holds all information related to one scenario run.
type Result struct {
	Name        string            `json:"name"`
	Assumptions assumptions.Set   `json:"assumptions"`
	Schedule    loans.Schedule    `json:"schedule"`
	Match       *statement.Result `json:"match,omitempty"`
	Cached      bool              `json:"cached,omitempty"`
}

// Scenario is a converted config scenario.
type Scenario struct {
	Name        string
	Assumptions assumptions.Set
	Extras      []loans.ExtraPayment
}

// Job is a fully converted configuration: one loan, the active scenarios,
// and an optional statement to reconcile against.
type Job struct {
	Loan            loans.LoanParameters
	LastPaymentDate *civil.Date
	Scenarios       []Scenario
	Statement       []statement.Row
	MatchOptions    statement.Options
}

// NewJob converts conf. Inactive scenarios are skipped.
func NewJob(conf *config.Configuration) (Job, error) {
	var job Job
	var err error

	if job.Loan, err = conf.Common.Loan.Parameters(); err != nil {
		return job, err
	}
	if job.LastPaymentDate, err = conf.Common.Loan.LastPayment(); err != nil {
		return job, err
	}
	if job.Statement, err = conf.StatementRows(); err != nil {
		return job, err
	}
	job.MatchOptions = conf.Common.Match.Options()

	for _, sc := range conf.ActiveScenarios() {
		set, err := sc.AssumptionSet()
		if err != nil {
			return job, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		extras, err := config.ExpandExtraPayments(sc.ExtraPayments, job.Loan.TermMonths)
		if err != nil {
			return job, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		job.Scenarios = append(job.Scenarios, Scenario{Name: sc.Name, Assumptions: set, Extras: extras})
	}
	return job, nil
}

// Engine generates schedules, optionally through a cache. It is safe for
// concurrent use when its cache is.
type Engine struct {
	logger *zap.Logger
	cache  cache.Cache
}

// New returns an Engine. A nil cache disables caching.
func New(logger *zap.Logger, c cache.Cache) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger, cache: c}
}

// Schedule generates the schedule for one assumption set. The second
// return reports a cache hit. Cache failures are logged and bypassed.
func (e *Engine) Schedule(ctx context.Context, params loans.LoanParameters, set assumptions.Set, extras []loans.ExtraPayment, lastPaymentDate *civil.Date) (loans.Schedule, bool, error) {
	var key string
	if e.cache != nil {
		var err error
		key, err = cache.Key(params, set, extras, lastPaymentDate)
		if err != nil {
			e.logger.Warn("failed to build cache key",
				zap.String("op", "engine.Schedule"),
				zap.Error(err),
			)
		} else if cached, ok, err := e.cache.Get(ctx, key); err != nil {
			e.logger.Warn("schedule cache lookup failed",
				zap.String("op", "engine.Schedule"),
				zap.String("key", key),
				zap.Error(err),
			)
		} else if ok {
			e.logger.Debug("schedule cache hit",
				zap.String("op", "engine.Schedule"),
				zap.String("key", key),
			)
			cached.Assumptions = set
			return cached, true, nil
		}
	}

	schedule, err := loans.Generate(params, set, extras, lastPaymentDate)
	if err != nil {
		return loans.Schedule{}, false, err
	}

	if e.cache != nil && key != "" {
		if err := e.cache.Set(ctx, key, schedule); err != nil {
			e.logger.Warn("failed to store schedule in cache",
				zap.String("op", "engine.Schedule"),
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
	return schedule, false, nil
}

// Run processes every scenario of job in order.
func (e *Engine) Run(ctx context.Context, job Job) ([]Result, error) {
	results := make([]Result, 0, len(job.Scenarios))
	for _, sc := range job.Scenarios {
		schedule, cached, err := e.Schedule(ctx, job.Loan, sc.Assumptions, sc.Extras, job.LastPaymentDate)
		if err != nil {
			return results, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}

		result := Result{
			Name:        sc.Name,
			Assumptions: sc.Assumptions,
			Schedule:    schedule,
			Cached:      cached,
		}
		if job.Statement != nil {
			expected := statement.Columns(statement.RowsFromSchedule(schedule), job.Statement)
			match := statement.Match(expected, job.Statement, job.MatchOptions)
			result.Match = &match
			e.logger.Debug(fmt.Sprintf("scenario %s reconciled as %s", sc.Name, match.Status),
				zap.String("op", "engine.Run"),
			)
		}
		results = append(results, result)
	}
	return results, nil
}

// Run converts conf and processes all active scenarios without a cache.
func Run(logger *zap.Logger, conf *config.Configuration) ([]Result, error) {
	job, err := NewJob(conf)
	if err != nil {
		return nil, err
	}
	return New(logger, nil).Run(context.Background(), job)
}

// Find returns the named result, or nil.
func Find(results []Result, name string) *Result {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}
