package services

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/iota-uz/mes/modules/mes/domain/dataquality"
	"github.com/iota-uz/mes/pkg/composables"
	"github.com/iota-uz/mes/pkg/metrics"
)

// DataQualityService samples the published snapshot against its own
// invariants and scores each check 0-100. A failing check lowers the score
// and raises an alertable gauge; it never blocks or rolls back a cycle.
type DataQualityService struct {
	repo  dataquality.Repository
	clock clockwork.Clock
}

func NewDataQualityService(repo dataquality.Repository, clock clockwork.Clock) *DataQualityService {
	return &DataQualityService{repo: repo, clock: clock}
}

// RunChecks executes every probe and persists one result per check.
func (s *DataQualityService) RunChecks(ctx context.Context) ([]*dataquality.Result, error) {
	probes := []struct {
		name  string
		probe func(context.Context) (int64, int64, error)
	}{
		{dataquality.CheckOEEIdentity, s.repo.CountOEEIdentityViolations},
		{dataquality.CheckMetricRange, s.repo.CountMetricRangeViolations},
		{dataquality.CheckRollupPresence, s.repo.CountRollupPresenceViolations},
	}

	runAt := s.clock.Now().UTC()
	results := make([]*dataquality.Result, 0, len(probes))
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		for _, p := range probes {
			total, failed, err := p.probe(txCtx)
			if err != nil {
				return err
			}
			result := dataquality.NewResult(p.name, runAt, total, failed)
			if err := s.repo.Create(txCtx, result); err != nil {
				return err
			}
			results = append(results, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, result := range results {
		score, _ := result.Score.Float64()
		metrics.DataQualityScore.WithLabelValues(result.CheckName).Set(score)
		if result.FailedRows > 0 {
			composables.UseLogger(ctx).
				WithField("check", result.CheckName).
				WithField("failed_rows", result.FailedRows).
				WithField("total_rows", result.TotalRows).
				Warn("data quality check found violations")
		}
	}
	return results, nil
}

func (s *DataQualityService) Latest(ctx context.Context) ([]*dataquality.Result, error) {
	return s.repo.Latest(ctx)
}
