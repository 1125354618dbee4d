package dataquality

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Check names. Each corresponds to one invariant sampled over the published
// snapshot.
const (
	CheckOEEIdentity    = "oee_identity"    // oee = a*p*q within epsilon
	CheckMetricRange    = "metric_range"    // all ratios in [0,1]
	CheckRollupPresence = "rollup_presence" // no parent summary without reporting children
)

// Result is one check run. Score = 100 * (1 - failed/total); an empty
// sample scores 100. Failed checks degrade the score, they never halt the
// pipeline.
type Result struct {
	ID         int64
	CheckName  string
	RunAt      time.Time
	TotalRows  int64
	FailedRows int64
	Score      decimal.Decimal
}

func NewResult(name string, runAt time.Time, total, failed int64) *Result {
	score := decimal.NewFromInt(100)
	if total > 0 {
		score = decimal.NewFromInt(1).
			Sub(decimal.NewFromInt(failed).Div(decimal.NewFromInt(total))).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}
	return &Result{
		CheckName:  name,
		RunAt:      runAt,
		TotalRows:  total,
		FailedRows: failed,
		Score:      score,
	}
}

type Repository interface {
	Create(ctx context.Context, result *Result) error
	// Latest returns the most recent result per check.
	Latest(ctx context.Context) ([]*Result, error)

	// The invariant probes. Each returns (total, failed) over the published
	// snapshot.
	CountOEEIdentityViolations(ctx context.Context) (total, failed int64, err error)
	CountMetricRangeViolations(ctx context.Context) (total, failed int64, err error)
	CountRollupPresenceViolations(ctx context.Context) (total, failed int64, err error)
}
