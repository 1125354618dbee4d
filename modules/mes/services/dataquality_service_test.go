package services

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/mes/modules/mes/domain/dataquality"
)

type fakeDataQualityRepo struct {
	results []*dataquality.Result

	oeeTotal, oeeFailed       int64
	rangeTotal, rangeFailed   int64
	rollupTotal, rollupFailed int64
}

func (r *fakeDataQualityRepo) Create(_ context.Context, result *dataquality.Result) error {
	result.ID = int64(len(r.results) + 1)
	r.results = append(r.results, result)
	return nil
}

func (r *fakeDataQualityRepo) Latest(_ context.Context) ([]*dataquality.Result, error) {
	return r.results, nil
}

func (r *fakeDataQualityRepo) CountOEEIdentityViolations(_ context.Context) (int64, int64, error) {
	return r.oeeTotal, r.oeeFailed, nil
}

func (r *fakeDataQualityRepo) CountMetricRangeViolations(_ context.Context) (int64, int64, error) {
	return r.rangeTotal, r.rangeFailed, nil
}

func (r *fakeDataQualityRepo) CountRollupPresenceViolations(_ context.Context) (int64, int64, error) {
	return r.rollupTotal, r.rollupFailed, nil
}

func TestRunChecksScoresEveryProbe(t *testing.T) {
	ctx := txContext()
	repo := &fakeDataQualityRepo{
		oeeTotal: 100, oeeFailed: 0,
		rangeTotal: 100, rangeFailed: 25,
		rollupTotal: 0, rollupFailed: 0,
	}
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC))
	svc := NewDataQualityService(repo, clock)

	results, err := svc.RunChecks(ctx)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byCheck := map[string]*dataquality.Result{}
	for _, result := range results {
		byCheck[result.CheckName] = result
	}
	assert.Equal(t, "100", byCheck[dataquality.CheckOEEIdentity].Score.String())
	assert.Equal(t, "75", byCheck[dataquality.CheckMetricRange].Score.String())
	// Empty sample means nothing to violate.
	assert.Equal(t, "100", byCheck[dataquality.CheckRollupPresence].Score.String())

	for _, result := range results {
		assert.True(t, result.RunAt.Equal(clock.Now().UTC()))
	}
	assert.Len(t, repo.results, 3)
}
