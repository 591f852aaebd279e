// Package calibrate ranks assumption sets by how well their schedules
// reproduce a lender statement.
package calibrate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/iwvelando/mortgage-trust/internal/engine"
	"github.com/iwvelando/mortgage-trust/pkg/assumptions"
	"github.com/iwvelando/mortgage-trust/pkg/loans"
	"github.com/iwvelando/mortgage-trust/pkg/money"
	"github.com/iwvelando/mortgage-trust/pkg/statement"
	"go.uber.org/zap"
)

// ErrNoCandidates is returned when there is nothing to rank.
var ErrNoCandidates = errors.New("no candidate assumption sets")

// Request is one calibration run.
type Request struct {
	Loan            loans.LoanParameters
	LastPaymentDate *civil.Date
	Extras          []loans.ExtraPayment
	Statement       []statement.Row
	Options         statement.Options
	// Candidates defaults to every preset.
	Candidates []assumptions.Set
}

// Ranking is the outcome for one candidate. Candidates whose schedule could
// not be generated carry Error and rank last.
type Ranking struct {
	Rank          int               `json:"rank"`
	Name          string            `json:"name"`
	Assumptions   assumptions.Set   `json:"assumptions"`
	Status        statement.Status  `json:"status,omitempty"`
	TotalMaxDelta money.Money       `json:"totalMaxDelta"`
	Match         *statement.Result `json:"match,omitempty"`
	Error         string            `json:"error,omitempty"`

	index int
}

// RequestFromJob calibrates job's statement against every preset followed
// by each scenario assumption set that no preset already covers. Scenario
// extra payments are not applied.
func RequestFromJob(job engine.Job) Request {
	candidates := assumptions.Presets()
	for _, sc := range job.Scenarios {
		duplicate := false
		for _, c := range candidates {
			if c.Equal(sc.Assumptions) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			candidates = append(candidates, sc.Assumptions)
		}
	}
	return Request{
		Loan:            job.Loan,
		LastPaymentDate: job.LastPaymentDate,
		Statement:       job.Statement,
		Options:         job.MatchOptions,
		Candidates:      candidates,
	}
}

// Best returns the top-ranked candidate that the statement trusts, if any.
func Best(rankings []Ranking) (Ranking, bool) {
	if len(rankings) == 0 || rankings[0].Match == nil || !rankings[0].Match.Trusted() {
		return Ranking{}, false
	}
	return rankings[0], true
}

// Runner evaluates candidates concurrently.
type Runner struct {
	logger *zap.Logger
	engine *engine.Engine
}

// NewRunner returns a Runner generating schedules through eng.
func NewRunner(logger *zap.Logger, eng *engine.Engine) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if eng == nil {
		eng = engine.New(logger, nil)
	}
	return &Runner{logger: logger, engine: eng}
}

// Run generates a schedule per candidate, reconciles each against the
// statement and returns the candidates best first: by status (MATCH, CLOSE,
// NO_MATCH), then by the sum of per-field maximum deltas, then in input
// order.
func (r *Runner) Run(ctx context.Context, req Request) ([]Ranking, error) {
	candidates := req.Candidates
	if len(candidates) == 0 {
		candidates = assumptions.Presets()
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if err := req.Loan.Validate(); err != nil {
		return nil, err
	}

	rankings := make([]Ranking, len(candidates))
	var wg sync.WaitGroup
	for i, set := range candidates {
		wg.Add(1)
		go func(i int, set assumptions.Set) {
			defer wg.Done()
			rankings[i] = r.evaluate(ctx, req, set)
			rankings[i].index = i
		}(i, set)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(rankings, func(a, b int) bool {
		return less(rankings[a], rankings[b])
	})
	for i := range rankings {
		rankings[i].Rank = i + 1
	}

	r.logger.Info("calibration complete",
		zap.String("op", "calibrate.Run"),
		zap.Int("candidates", len(rankings)),
		zap.String("best", rankings[0].Name),
		zap.String("status", string(rankings[0].Status)),
	)
	return rankings, nil
}

func (r *Runner) evaluate(ctx context.Context, req Request, set assumptions.Set) Ranking {
	ranking := Ranking{Name: set.Name(), Assumptions: set}
	if err := ctx.Err(); err != nil {
		ranking.Error = err.Error()
		return ranking
	}

	schedule, _, err := r.engine.Schedule(ctx, req.Loan, set, req.Extras, req.LastPaymentDate)
	if err != nil {
		r.logger.Debug(fmt.Sprintf("candidate %s could not generate a schedule", set.Name()),
			zap.String("op", "calibrate.evaluate"),
			zap.Error(err),
		)
		ranking.Error = err.Error()
		return ranking
	}

	expected := statement.Columns(statement.RowsFromSchedule(schedule), req.Statement)
	match := statement.Match(expected, req.Statement, req.Options)
	ranking.Match = &match
	ranking.Status = match.Status
	for _, d := range match.Diagnostics.MaxAbsDelta {
		ranking.TotalMaxDelta = ranking.TotalMaxDelta.Add(d)
	}
	return ranking
}

func statusRank(r Ranking) int {
	if r.Error != "" {
		return 4
	}
	switch r.Status {
	case statement.StatusMatch:
		return 0
	case statement.StatusClose:
		return 1
	case statement.StatusNoMatch:
		// A row count mismatch tells less than a comparable schedule.
		if r.Match != nil && r.Match.Diagnostics.ExpectedRows != r.Match.Diagnostics.ActualRows {
			return 3
		}
		return 2
	default:
		return 4
	}
}

func less(a, b Ranking) bool {
	if ra, rb := statusRank(a), statusRank(b); ra != rb {
		return ra < rb
	}
	if c := a.TotalMaxDelta.Cmp(b.TotalMaxDelta); c != 0 {
		return c < 0
	}
	return a.index < b.index
}
