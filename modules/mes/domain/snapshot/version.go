package snapshot

import (
	"context"
	"errors"
	"time"
)

// A snapshot version is one cycle's worth of derived records. Readers only
// ever see rows whose version is published; publishing is a single-row
// state flip, so a snapshot becomes visible atomically or not at all.

type State string

const (
	StateComputing State = "computing"
	StatePublished State = "published"
	StateDiscarded State = "discarded"
)

var (
	// ErrCycleInFlight is returned when another cycle already holds the
	// per-period lease. Callers no-op or wait for the next schedule.
	ErrCycleInFlight = errors.New("an aggregation cycle for this period is already in flight")
	ErrNoPublished   = errors.New("no published snapshot for period")
)

type Version struct {
	ID          int64
	Period      time.Time
	State       State
	StartedAt   time.Time
	PublishedAt *time.Time
}

type Repository interface {
	// AcquireLease takes the period-scoped cycle lease inside the current
	// transaction; returns ErrCycleInFlight when already held.
	AcquireLease(ctx context.Context, period time.Time) error
	// Begin creates a new computing version for the period.
	Begin(ctx context.Context, period time.Time) (*Version, error)
	// Publish flips the version to published and discards any previously
	// published version for the same period, in one statement pair.
	Publish(ctx context.Context, id int64) error
	Discard(ctx context.Context, id int64) error
	PublishedForPeriod(ctx context.Context, period time.Time) (*Version, error)
	Latest(ctx context.Context) (*Version, error)
	// PruneDiscarded deletes derived rows left behind by failed or
	// superseded cycles, keeping the most recent `keep` discarded versions.
	PruneDiscarded(ctx context.Context, keep int) (int64, error)
}
