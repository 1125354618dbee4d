package services

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/mes/modules/mes/domain/audit"
	"github.com/iota-uz/mes/pkg/configuration"
)

func TestRetentionEnforce(t *testing.T) {
	ctx := txContext()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)

	audits := &fakeAuditRepo{}
	require.NoError(t, audits.Create(ctx, &audit.Record{
		Action: audit.ActionInsert, OccurredAt: now.AddDate(-8, 0, 0),
	}))
	require.NoError(t, audits.Create(ctx, &audit.Record{
		Action: audit.ActionInsert, OccurredAt: now.AddDate(-1, 0, 0),
	}))

	partitions := newFakePartitionRepo()
	partitionSvc := NewPartitionService(partitions, clock, configuration.PartitionOptions{
		LookbackMonths: 0, HorizonMonths: 1, EnsureInterval: time.Hour,
	})
	require.NoError(t, partitionSvc.EnsureRange(ctx,
		now.AddDate(0, -20, 0), now))

	snapshots := newFakeSnapshotRepo()

	svc := NewRetentionService(audits, partitionSvc, snapshots, clock, configuration.RetentionOptions{
		AuditYears:         7,
		SensorMonths:       13,
		DiscardedSnapshots: 3,
	})

	report, err := svc.Enforce(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), report.AuditRecordsDeleted)
	assert.Len(t, audits.records, 1)
	// Months whose end falls at or before now-13mo go away: -20..-14.
	assert.Equal(t, 7, report.PartitionsDropped)
	assert.Equal(t, int64(0), report.SnapshotRowsPruned)
}
