package services

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/iota-uz/mes/modules/mes/domain/audit"
	"github.com/iota-uz/mes/modules/mes/domain/snapshot"
	"github.com/iota-uz/mes/pkg/composables"
	"github.com/iota-uz/mes/pkg/configuration"
)

// RetentionService enforces the data retention policy: audit records are
// kept for years, raw sensor partitions for months, discarded snapshot
// versions only long enough for post-mortems.
type RetentionService struct {
	auditRepo  audit.Repository
	partitions *PartitionService
	snapshots  snapshot.Repository
	clock      clockwork.Clock
	opts       configuration.RetentionOptions
}

func NewRetentionService(
	auditRepo audit.Repository,
	partitions *PartitionService,
	snapshots snapshot.Repository,
	clock clockwork.Clock,
	opts configuration.RetentionOptions,
) *RetentionService {
	return &RetentionService{
		auditRepo:  auditRepo,
		partitions: partitions,
		snapshots:  snapshots,
		clock:      clock,
		opts:       opts,
	}
}

// Report summarizes one enforcement pass.
type RetentionReport struct {
	AuditRecordsDeleted int64
	PartitionsDropped   int
	SnapshotRowsPruned  int64
}

func (s *RetentionService) Enforce(ctx context.Context) (*RetentionReport, error) {
	now := s.clock.Now().UTC()
	report := &RetentionReport{}
	logger := composables.UseLogger(ctx)

	deleted, err := s.auditRepo.DeleteOlderThan(ctx, now.AddDate(-s.opts.AuditYears, 0, 0))
	if err != nil {
		return nil, err
	}
	report.AuditRecordsDeleted = deleted

	dropped, err := s.partitions.DropOlderThan(ctx, now.AddDate(0, -s.opts.SensorMonths, 0))
	if err != nil {
		return nil, err
	}
	report.PartitionsDropped = dropped

	pruned, err := s.snapshots.PruneDiscarded(ctx, s.opts.DiscardedSnapshots)
	if err != nil {
		return nil, err
	}
	report.SnapshotRowsPruned = pruned

	logger.
		WithField("audit_deleted", report.AuditRecordsDeleted).
		WithField("partitions_dropped", report.PartitionsDropped).
		WithField("snapshot_rows_pruned", report.SnapshotRowsPruned).
		Info("retention pass complete")
	return report, nil
}
