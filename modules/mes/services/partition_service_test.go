package services

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/mes/pkg/configuration"
)

func TestPartitionEnsureDefaultWindow(t *testing.T) {
	ctx := txContext()
	repo := newFakePartitionRepo()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))

	svc := NewPartitionService(repo, clock, configuration.PartitionOptions{
		LookbackMonths: 1,
		HorizonMonths:  3,
		EnsureInterval: time.Hour,
	})

	require.NoError(t, svc.EnsureDefaultWindow(ctx))

	// February through June inclusive.
	assert.Len(t, repo.months, 5)
	from, to, err := svc.ProvisionedRange(ctx)
	require.NoError(t, err)
	assert.True(t, from.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, to.Equal(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPartitionEnsureRangeIsIdempotent(t *testing.T) {
	ctx := txContext()
	repo := newFakePartitionRepo()
	svc := NewPartitionService(repo, clockwork.NewFakeClock(), configuration.PartitionOptions{
		LookbackMonths: 0, HorizonMonths: 1, EnsureInterval: time.Hour,
	})

	from := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.EnsureRange(ctx, from, to))
	require.NoError(t, svc.EnsureRange(ctx, from, to))

	assert.Len(t, repo.months, 3)
}

func TestPartitionDropOlderThan(t *testing.T) {
	ctx := txContext()
	repo := newFakePartitionRepo()
	svc := NewPartitionService(repo, clockwork.NewFakeClock(), configuration.PartitionOptions{
		LookbackMonths: 0, HorizonMonths: 1, EnsureInterval: time.Hour,
	})

	require.NoError(t, svc.EnsureRange(ctx,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))

	dropped, err := svc.DropOlderThan(ctx, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 3, dropped)

	partitions, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, partitions, 3)
}
