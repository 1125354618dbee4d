package partition

import (
	"context"
	"time"
)

// Partition is one monthly segment of the sensor reading stream. The
// manager pre-provisions segments ahead of need so ingestion never creates
// DDL on the hot path.
type Partition struct {
	MonthStart time.Time
	TableName  string
	CreatedAt  time.Time
}

type Repository interface {
	// EnsureMonth provisions the partition covering monthStart. Idempotent
	// and safe to call concurrently.
	EnsureMonth(ctx context.Context, monthStart time.Time) error
	// ProvisionedRange returns the contiguous [from, to) range covered by
	// existing partitions; both zero when none exist.
	ProvisionedRange(ctx context.Context) (from, to time.Time, err error)
	List(ctx context.Context) ([]*Partition, error)
	// DropOlderThan detaches and drops partitions entirely before cutoff,
	// enforcing sensor retention.
	DropOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// MonthStart truncates t to the first day of its month in UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
