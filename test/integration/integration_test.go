package integration

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/iwvelando/mortgage-trust/internal/calibrate"
	"github.com/iwvelando/mortgage-trust/internal/config"
	"github.com/iwvelando/mortgage-trust/internal/engine"
	"github.com/iwvelando/mortgage-trust/pkg/output"
	"github.com/iwvelando/mortgage-trust/pkg/statement"
	"github.com/iwvelando/mortgage-trust/pkg/testutil"
	"go.uber.org/zap"
)

func loadExample(t testing.TB) *config.Configuration {
	t.Helper()
	conf, err := config.LoadConfiguration("../config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	return conf
}

func runExample(t testing.TB) []engine.Result {
	t.Helper()
	results, err := engine.Run(zap.NewNop(), loadExample(t))
	if err != nil {
		t.Fatalf("engine.Run() error = %v", err)
	}
	return results
}

// TestMainIntegrationBaseline runs the example configuration the way main
// does and checks the lender scenario against known figures.
func TestMainIntegrationBaseline(t *testing.T) {
	results := runExample(t)
	if len(results) != 2 {
		t.Fatalf("expected 2 active scenarios, got %d", len(results))
	}

	lender := engine.Find(results, "lender")
	if lender == nil {
		t.Fatalf("lender scenario missing")
	}
	summary := lender.Schedule.Summary
	if got := lender.Schedule.ScheduledPayment.String(); got != "$8,606.64" {
		t.Errorf("scheduled payment = %s, expected $8,606.64", got)
	}
	if got := summary.TotalInterest.String(); got != "$3,279.73" {
		t.Errorf("total interest = %s, expected $3,279.73", got)
	}
	if summary.NumberOfPayments != 12 {
		t.Errorf("number of payments = %d, expected 12", summary.NumberOfPayments)
	}
	if got := summary.PayoffDate.String(); got != "2025-01-01" {
		t.Errorf("payoff date = %s, expected 2025-01-01", got)
	}
	last := lender.Schedule.Periods[len(lender.Schedule.Periods)-1]
	if got := last.ScheduledPayment.String(); got != "$8,606.69" {
		t.Errorf("final payment = %s, expected $8,606.69", got)
	}
	testutil.CheckScheduleInvariants(t, lender.Schedule)

	if lender.Match == nil || lender.Match.Status != statement.StatusMatch {
		t.Errorf("lender scenario should reproduce the statement, got %+v", lender.Match)
	}
}

// TestDailyScenarioDiverges also covers the leap year: 2024 accrues 366 days
// over a 365 day basis, so the daily schedule needs a thirteenth payment.
func TestDailyScenarioDiverges(t *testing.T) {
	results := runExample(t)
	daily := engine.Find(results, "actual-365")
	if daily == nil {
		t.Fatalf("actual-365 scenario missing")
	}
	testutil.CheckScheduleInvariants(t, daily.Schedule)
	if n := len(daily.Schedule.Periods); n != 13 {
		t.Errorf("actual-365 schedule has %d periods, expected 13", n)
	}
	if daily.Match == nil {
		t.Fatalf("actual-365 scenario should be reconciled")
	}
	if daily.Match.Status == statement.StatusMatch {
		t.Errorf("daily accrual should not reproduce a monthly statement exactly")
	}
}

func TestCSVOutputFormat(t *testing.T) {
	results := runExample(t)
	var buf bytes.Buffer
	if err := output.Write(&buf, output.FormatCSV, results); err != nil {
		t.Fatalf("output.Write() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	want := 1
	for _, result := range results {
		want += len(result.Schedule.Periods)
	}
	if len(records) != want {
		t.Fatalf("expected %d records, got %d", want, len(records))
	}
	for i, record := range records[1:] {
		if len(record) != len(records[0]) {
			t.Errorf("record %d has %d fields, header has %d", i+1, len(record), len(records[0]))
		}
	}
}

func TestPrettyOutputFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := output.Write(&buf, output.FormatPretty, runExample(t)); err != nil {
		t.Fatalf("output.Write() error = %v", err)
	}
	text := buf.String()
	for _, want := range []string{
		"--- Results for scenario lender",
		"--- Results for scenario actual-365",
		"Statement: MATCH",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("pretty output missing %q", want)
		}
	}
	if strings.Contains(text, "prepay") {
		t.Errorf("inactive scenario should not be printed")
	}
}

func TestCalibrateExample(t *testing.T) {
	job, err := engine.NewJob(loadExample(t))
	if err != nil {
		t.Fatalf("engine.NewJob() error = %v", err)
	}
	rankings, err := calibrate.NewRunner(zap.NewNop(), nil).Run(context.Background(), calibrate.RequestFromJob(job))
	if err != nil {
		t.Fatalf("calibrate.Run() error = %v", err)
	}
	best, ok := calibrate.Best(rankings)
	if !ok {
		t.Fatalf("expected a trusted best match in %+v", rankings)
	}
	if best.Name != "standard-monthly" {
		t.Errorf("best match = %s, expected standard-monthly", best.Name)
	}

	var buf bytes.Buffer
	if err := output.WriteRankings(&buf, output.FormatPretty, rankings); err != nil {
		t.Fatalf("output.WriteRankings() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Best match: standard-monthly") {
		t.Errorf("rankings output missing best match:\n%s", buf.String())
	}
}

func TestConfigurationValidation(t *testing.T) {
	conf := loadExample(t)
	if warnings := conf.ValidateConfiguration(); len(warnings) != 0 {
		t.Errorf("example configuration produced warnings: %v", warnings)
	}
}
