package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/iota-uz/mes/modules/mes/domain/facts"
	"github.com/iota-uz/mes/modules/mes/domain/hierarchy"
	"github.com/iota-uz/mes/modules/mes/domain/snapshot"
	"github.com/iota-uz/mes/pkg/composables"
	"github.com/iota-uz/mes/pkg/configuration"
	"github.com/iota-uz/mes/pkg/eventbus"
	"github.com/iota-uz/mes/pkg/metrics"
)

// CycleService orchestrates one aggregation cycle: daily OEE, reliability
// windows, the hierarchy rollup, and snapshot publication, all inside a
// single transaction. Either the whole snapshot becomes visible or none of
// it does; a failed cycle leaves the previously published snapshot in place.
type CycleService struct {
	hierarchy   hierarchy.Repository
	production  facts.ProductionRepository
	snapshots   snapshot.Repository
	oee         *OEEService
	reliability *ReliabilityService
	rollup      *RollupService
	publisher   eventbus.EventBus
	clock       clockwork.Clock
	opts        configuration.CycleOptions
}

func NewCycleService(
	hierarchyRepo hierarchy.Repository,
	production facts.ProductionRepository,
	snapshots snapshot.Repository,
	oeeService *OEEService,
	reliabilityService *ReliabilityService,
	rollupService *RollupService,
	publisher eventbus.EventBus,
	clock clockwork.Clock,
	opts configuration.CycleOptions,
) *CycleService {
	return &CycleService{
		hierarchy:   hierarchyRepo,
		production:  production,
		snapshots:   snapshots,
		oee:         oeeService,
		reliability: reliabilityService,
		rollup:      rollupService,
		publisher:   publisher,
		clock:       clock,
		opts:        opts,
	}
}

// RunCycle computes and publishes the snapshot for the calendar day starting
// at period (UTC midnight). Concurrent runs for the same period are
// serialized by a transaction-scoped lease; the loser returns
// snapshot.ErrCycleInFlight without touching anything.
func (s *CycleService) RunCycle(ctx context.Context, period time.Time) error {
	period = period.UTC().Truncate(24 * time.Hour)
	started := s.clock.Now()

	err := composables.InTx(ctx, func(txCtx context.Context) error {
		if err := s.snapshots.AcquireLease(txCtx, period); err != nil {
			return err
		}
		version, err := s.snapshots.Begin(txCtx, period)
		if err != nil {
			return err
		}

		nodes, err := s.hierarchy.All(txCtx)
		if err != nil {
			return err
		}

		records, err := s.oee.ComputeDay(txCtx, version.ID, period, nodes)
		if err != nil {
			return err
		}

		periodEnd := period.Add(24 * time.Hour)
		summaries, err := s.reliability.ComputeWindow(
			txCtx, version.ID, periodEnd, s.opts.ReliabilityWindowDays, nodes)
		if err != nil {
			return err
		}

		totals, err := s.production.TotalsWithinPeriod(txCtx, period, periodEnd)
		if err != nil {
			return err
		}
		production := make(map[uuid.UUID]int64, len(totals))
		defects := make(map[uuid.UUID]int64, len(totals))
		for id, t := range totals {
			production[id] = t.TotalProduced
			defects[id] = t.Defects()
		}

		if _, err := s.rollup.Rollup(txCtx, &RollupInput{
			Version:      version.ID,
			Period:       period,
			Nodes:        nodes,
			DailyRecords: records,
			Reliability:  summaries,
			Production:   production,
			Defects:      defects,
		}); err != nil {
			return err
		}

		return s.snapshots.Publish(txCtx, version.ID)
	})

	duration := s.clock.Since(started)
	logger := composables.UseLogger(ctx).WithField("period", period.Format("2006-01-02"))

	switch {
	case errors.Is(err, snapshot.ErrCycleInFlight):
		metrics.Cycles.WithLabelValues("skipped").Inc()
		logger.Info("aggregation cycle already in flight, skipping")
		return err
	case err != nil:
		metrics.Cycles.WithLabelValues("failed").Inc()
		logger.WithError(err).Error("aggregation cycle failed")
		return err
	}

	metrics.Cycles.WithLabelValues("published").Inc()
	metrics.CycleDuration.Observe(duration.Seconds())
	logger.WithField("duration", duration).Info("snapshot published")

	published, err := s.snapshots.PublishedForPeriod(ctx, period)
	if err != nil {
		return err
	}
	s.publisher.Publish(snapshot.CycleCompleted{
		Version:  published.ID,
		Period:   period,
		Duration: duration,
	})
	return nil
}

// RunCycleWithRetry retries transient failures with exponential backoff. A
// cycle already in flight is terminal, not transient.
func (s *CycleService) RunCycleWithRetry(ctx context.Context, period time.Time) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = s.opts.RetryMaxElapse

	return backoff.Retry(func() error {
		err := s.RunCycle(ctx, period)
		if errors.Is(err, snapshot.ErrCycleInFlight) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(policy, ctx))
}

// previousClosedDay returns UTC midnight of the most recent fully elapsed
// calendar day.
func (s *CycleService) previousClosedDay() time.Time {
	return s.clock.Now().UTC().Truncate(24 * time.Hour).Add(-24 * time.Hour)
}

// Run executes a cycle for the previous closed day on a fixed interval
// until ctx is cancelled.
func (s *CycleService) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	if err := s.RunCycleWithRetry(ctx, s.previousClosedDay()); err != nil && !errors.Is(err, snapshot.ErrCycleInFlight) {
		composables.UseLogger(ctx).WithError(err).Error("scheduled cycle failed")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if err := s.RunCycleWithRetry(ctx, s.previousClosedDay()); err != nil && !errors.Is(err, snapshot.ErrCycleInFlight) {
				composables.UseLogger(ctx).WithError(err).Error("scheduled cycle failed")
			}
		}
	}
}

func (s *CycleService) Latest(ctx context.Context) (*snapshot.Version, error) {
	return s.snapshots.Latest(ctx)
}

func (s *CycleService) PublishedForPeriod(ctx context.Context, period time.Time) (*snapshot.Version, error) {
	return s.snapshots.PublishedForPeriod(ctx, period)
}
