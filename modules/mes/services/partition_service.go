package services

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/iota-uz/mes/modules/mes/domain/partition"
	"github.com/iota-uz/mes/pkg/composables"
	"github.com/iota-uz/mes/pkg/configuration"
	"github.com/iota-uz/mes/pkg/metrics"
)

// PartitionService keeps monthly sensor partitions provisioned ahead of
// need. Ingestion never issues DDL; it only checks the provisioned range.
type PartitionService struct {
	repo  partition.Repository
	clock clockwork.Clock
	opts  configuration.PartitionOptions
}

func NewPartitionService(repo partition.Repository, clock clockwork.Clock, opts configuration.PartitionOptions) *PartitionService {
	return &PartitionService{repo: repo, clock: clock, opts: opts}
}

// EnsureDefaultWindow provisions every month from LookbackMonths behind now
// through HorizonMonths ahead.
func (s *PartitionService) EnsureDefaultWindow(ctx context.Context) error {
	now := s.clock.Now().UTC()
	from := partition.MonthStart(now.AddDate(0, -s.opts.LookbackMonths, 0))
	to := partition.MonthStart(now.AddDate(0, s.opts.HorizonMonths, 0))
	return s.EnsureRange(ctx, from, to)
}

// EnsureRange provisions every month in [from, to] inclusive of to's month.
func (s *PartitionService) EnsureRange(ctx context.Context, from, to time.Time) error {
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		for month := partition.MonthStart(from); !month.After(partition.MonthStart(to)); month = month.AddDate(0, 1, 0) {
			if err := s.repo.EnsureMonth(txCtx, month); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.updateGauge(ctx)
}

func (s *PartitionService) List(ctx context.Context) ([]*partition.Partition, error) {
	return s.repo.List(ctx)
}

func (s *PartitionService) ProvisionedRange(ctx context.Context) (time.Time, time.Time, error) {
	return s.repo.ProvisionedRange(ctx)
}

// DropOlderThan removes whole partitions entirely before cutoff.
func (s *PartitionService) DropOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	var dropped int
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		n, err := s.repo.DropOlderThan(txCtx, cutoff)
		dropped = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return dropped, s.updateGauge(ctx)
}

func (s *PartitionService) updateGauge(ctx context.Context) error {
	partitions, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	metrics.PartitionsProvisioned.Set(float64(len(partitions)))
	return nil
}

// Run re-provisions the window on a fixed interval until ctx is cancelled.
func (s *PartitionService) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.opts.EnsureInterval)
	defer ticker.Stop()

	if err := s.EnsureDefaultWindow(ctx); err != nil {
		composables.UseLogger(ctx).WithError(err).Error("partition provisioning failed")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if err := s.EnsureDefaultWindow(ctx); err != nil {
				composables.UseLogger(ctx).WithError(err).Error("partition provisioning failed")
			}
		}
	}
}
