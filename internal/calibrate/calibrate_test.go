package calibrate

import (
	"context"
	"testing"

	"github.com/iwvelando/mortgage-trust/internal/engine"
	"github.com/iwvelando/mortgage-trust/internal/parser"
	"github.com/iwvelando/mortgage-trust/pkg/assumptions"
	"github.com/iwvelando/mortgage-trust/pkg/datetime"
	"github.com/iwvelando/mortgage-trust/pkg/mathutil"
	"github.com/iwvelando/mortgage-trust/pkg/money"
	"github.com/iwvelando/mortgage-trust/pkg/statement"
	"github.com/iwvelando/mortgage-trust/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func lenderStatement(t *testing.T) []statement.Row {
	t.Helper()
	rows, err := parser.ReadStatementFile("../../test/statement.csv")
	require.NoError(t, err)
	return rows
}

func TestRunRanksPresets(t *testing.T) {
	runner := NewRunner(zap.NewNop(), nil)
	rankings, err := runner.Run(context.Background(), Request{
		Loan:      testutil.OneYearLoan(),
		Statement: lenderStatement(t),
		Options:   statement.DefaultOptions(),
	})
	require.NoError(t, err)
	require.Len(t, rankings, len(assumptions.Presets()))

	assert.Equal(t, assumptions.PresetStandardMonthly, rankings[0].Name)
	assert.Equal(t, statement.StatusMatch, rankings[0].Status)
	assert.True(t, rankings[0].TotalMaxDelta.IsZero())

	last := rankings[len(rankings)-1]
	assert.Equal(t, assumptions.PresetBiWeekly, last.Name)
	assert.NotEmpty(t, last.Error)
	assert.Nil(t, last.Match)

	for i, r := range rankings {
		assert.Equal(t, i+1, r.Rank)
	}

	best, ok := Best(rankings)
	require.True(t, ok)
	assert.Equal(t, assumptions.PresetStandardMonthly, best.Name)
}

func TestRunOrdersByDelta(t *testing.T) {
	up, err := assumptions.New(assumptions.Config{Name: "round-up", Method: assumptions.MethodMonthly, Rounding: mathutil.RoundUp})
	require.NoError(t, err)
	down, err := assumptions.New(assumptions.Config{Name: "round-down", Method: assumptions.MethodMonthly, Rounding: mathutil.RoundDown})
	require.NoError(t, err)
	nearest := testutil.MonthlyNoEscrow()

	opts := statement.DefaultOptions()
	opts.MoneyToleranceCents = 1000
	rankings, err := NewRunner(nil, nil).Run(context.Background(), Request{
		Loan:       testutil.OneYearLoan(),
		Statement:  lenderStatement(t),
		Options:    opts,
		Candidates: []assumptions.Set{up, down, nearest},
	})
	require.NoError(t, err)

	assert.Equal(t, nearest.Name(), rankings[0].Name)
	assert.Equal(t, statement.StatusMatch, rankings[0].Status)
	for _, r := range rankings[1:] {
		assert.Equal(t, statement.StatusClose, r.Status, r.Name)
		assert.True(t, r.TotalMaxDelta.IsPositive(), r.Name)
	}
	assert.True(t, rankings[1].TotalMaxDelta.LessThanOrEqual(rankings[2].TotalMaxDelta))
}

func TestRunTiesKeepInputOrder(t *testing.T) {
	a, err := assumptions.New(assumptions.Config{Name: "a", Method: assumptions.MethodMonthly})
	require.NoError(t, err)
	b, err := assumptions.New(assumptions.Config{Name: "b", Method: assumptions.MethodMonthly, IncludeEscrow: true})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		rankings, err := NewRunner(nil, nil).Run(context.Background(), Request{
			Loan:       testutil.OneYearLoan(),
			Statement:  lenderStatement(t),
			Options:    statement.DefaultOptions(),
			Candidates: []assumptions.Set{b, a},
		})
		require.NoError(t, err)
		assert.Equal(t, "b", rankings[0].Name)
		assert.Equal(t, "a", rankings[1].Name)
	}
}

func TestRunUntrustedBest(t *testing.T) {
	rows := lenderStatement(t)
	shifted := datetime.MustParseDate("2024-02-02")
	rows[0].PaymentDate = &shifted
	interest, _ := rows[0].Money("interestPortion")
	rows[0].SetMoney("interestPortion", interest.Add(money.FromCents(1)))

	rankings, err := NewRunner(nil, nil).Run(context.Background(), Request{
		Loan:       testutil.OneYearLoan(),
		Statement:  rows,
		Options:    statement.DefaultOptions(),
		Candidates: []assumptions.Set{assumptions.Daily360(), testutil.MonthlyNoEscrow()},
	})
	require.NoError(t, err)
	assert.Equal(t, testutil.MonthlyNoEscrow().Name(), rankings[0].Name)
	assert.Equal(t, statement.StatusNoMatch, rankings[0].Status)

	_, ok := Best(rankings)
	assert.False(t, ok, "an untrusted top candidate is not a calibration")
}

func TestRunErrors(t *testing.T) {
	runner := NewRunner(nil, nil)

	loan := testutil.OneYearLoan()
	loan.TermMonths = 0
	_, err := runner.Run(context.Background(), Request{Loan: loan})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = runner.Run(ctx, Request{Loan: testutil.OneYearLoan()})
	assert.ErrorIs(t, err, context.Canceled)

	_, ok := Best(nil)
	assert.False(t, ok)
}

func TestRequestFromJob(t *testing.T) {
	custom, err := assumptions.New(assumptions.Config{Name: "down", Method: assumptions.MethodMonthly, Rounding: mathutil.RoundDown})
	require.NoError(t, err)
	renamed, err := assumptions.New(assumptions.Config{Name: "lender", Method: assumptions.MethodDaily, DayCountBasis: assumptions.Daily365().DayCountBasis()})
	require.NoError(t, err)

	job := engine.Job{
		Loan:      testutil.OneYearLoan(),
		Statement: lenderStatement(t),
		Scenarios: []engine.Scenario{
			{Name: "lender", Assumptions: renamed},
			{Name: "down", Assumptions: custom},
		},
		MatchOptions: statement.DefaultOptions(),
	}
	req := RequestFromJob(job)
	require.Len(t, req.Candidates, len(assumptions.Presets())+1, "a renamed preset is not a new candidate")
	assert.Equal(t, "down", req.Candidates[len(req.Candidates)-1].Name())
	assert.Len(t, req.Statement, 12)

	rankings, err := NewRunner(nil, nil).Run(context.Background(), req)
	require.NoError(t, err)
	best, ok := Best(rankings)
	require.True(t, ok)
	assert.Equal(t, assumptions.PresetStandardMonthly, best.Name)
}
