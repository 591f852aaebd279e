package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/iwvelando/mortgage-trust/internal/cache"
	"github.com/iwvelando/mortgage-trust/internal/config"
	"github.com/iwvelando/mortgage-trust/pkg/assumptions"
	"github.com/iwvelando/mortgage-trust/pkg/loans"
	"github.com/iwvelando/mortgage-trust/pkg/money"
	"github.com/iwvelando/mortgage-trust/pkg/statement"
	"github.com/iwvelando/mortgage-trust/pkg/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// brokenCache fails every call.
type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (loans.Schedule, bool, error) {
	return loans.Schedule{}, false, errors.New("cache down")
}

func (brokenCache) Set(context.Context, string, loans.Schedule) error {
	return errors.New("cache down")
}

func loadExample(t *testing.T) *config.Configuration {
	t.Helper()
	conf, err := config.LoadConfiguration("../../test/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	return conf
}

func TestRunExampleConfig(t *testing.T) {
	results, err := Run(zap.NewNop(), loadExample(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Run() returned %d results, expected 2 active scenarios", len(results))
	}

	lender := Find(results, "lender")
	if lender == nil {
		t.Fatalf("lender scenario missing")
	}
	if lender.Match == nil || lender.Match.Status != statement.StatusMatch {
		t.Errorf("lender scenario should reconcile as MATCH, got %+v", lender.Match)
	}
	if !lender.Schedule.ScheduledPayment.Equal(money.MustParseDollars("8606.64")) {
		t.Errorf("scheduled payment = %s", lender.Schedule.ScheduledPayment)
	}
	testutil.CheckScheduleInvariants(t, lender.Schedule)

	daily := Find(results, "actual-365")
	if daily == nil {
		t.Fatalf("actual-365 scenario missing")
	}
	if daily.Match == nil || daily.Match.Status != statement.StatusNoMatch {
		t.Errorf("actual-365 scenario should not reconcile, got %+v", daily.Match)
	}

	if Find(results, "prepay") != nil {
		t.Errorf("inactive scenario was run")
	}
}

func TestNewJob(t *testing.T) {
	conf := loadExample(t)
	conf.Scenarios[2].Active = true

	job, err := NewJob(conf)
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}
	if len(job.Scenarios) != 3 {
		t.Fatalf("NewJob() converted %d scenarios, expected 3", len(job.Scenarios))
	}
	if len(job.Scenarios[2].Extras) != 4 {
		t.Errorf("prepay scenario has %d extras, expected 4", len(job.Scenarios[2].Extras))
	}
	if len(job.Statement) != 12 {
		t.Errorf("job statement has %d rows, expected 12", len(job.Statement))
	}

	conf.Scenarios[0].Preset = "quarterly"
	if _, err := NewJob(conf); !errors.Is(err, assumptions.ErrValidation) {
		t.Errorf("NewJob() with an unknown preset error = %v", err)
	}

	conf = loadExample(t)
	conf.Common.Loan.TermMonths = 0
	if _, err := NewJob(conf); !errors.Is(err, loans.ErrInvalidLoan) {
		t.Errorf("NewJob() with a zero term error = %v", err)
	}
}

func TestRunWithoutStatement(t *testing.T) {
	job := Job{
		Loan:      testutil.OneYearLoan(),
		Scenarios: []Scenario{{Name: "base", Assumptions: testutil.MonthlyNoEscrow()}},
	}
	results, err := New(nil, nil).Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if results[0].Match != nil {
		t.Errorf("no statement configured, but a match result was produced")
	}
}

func TestRunPropagatesGeneratorErrors(t *testing.T) {
	job := Job{
		Loan:      testutil.OneYearLoan(),
		Scenarios: []Scenario{{Name: "bi-weekly", Assumptions: assumptions.BiWeekly()}},
	}
	_, err := New(nil, nil).Run(context.Background(), job)
	if !errors.Is(err, loans.ErrConfigurationMismatch) {
		t.Errorf("Run() error = %v, expected ErrConfigurationMismatch", err)
	}
}

func TestScheduleUsesCache(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory(8, 0)
	eng := New(zap.NewNop(), mem)

	first, hit, err := eng.Schedule(ctx, testutil.OneYearLoan(), testutil.MonthlyNoEscrow(), nil, nil)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if hit {
		t.Errorf("first call should miss the cache")
	}
	if mem.Len() != 1 {
		t.Errorf("cache holds %d entries, expected 1", mem.Len())
	}

	renamed, err := assumptions.New(assumptions.Config{Name: "renamed", Method: assumptions.MethodMonthly})
	if err != nil {
		t.Fatalf("assumptions.New() error = %v", err)
	}
	second, hit, err := eng.Schedule(ctx, testutil.OneYearLoan(), renamed, nil, nil)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if !hit {
		t.Errorf("second call should hit the cache")
	}
	if second.Assumptions.Name() != "renamed" {
		t.Errorf("cached schedule carries assumptions %q, expected the requested set", second.Assumptions.Name())
	}
	if second.Summary != first.Summary {
		t.Errorf("cached summary differs")
	}
}

func TestScheduleBypassesBrokenCache(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	eng := New(zap.New(core), brokenCache{})

	schedule, hit, err := eng.Schedule(context.Background(), testutil.OneYearLoan(), testutil.MonthlyNoEscrow(), nil, nil)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if hit || len(schedule.Periods) != 12 {
		t.Errorf("Schedule() = %d periods, hit %t", len(schedule.Periods), hit)
	}
	if logs.Len() != 2 {
		t.Errorf("expected a lookup and a store warning, got %d log entries", logs.Len())
	}
}
