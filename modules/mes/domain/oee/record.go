package oee

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places every published ratio carries.
// Ratios are canonical decimals in [0,1] end to end; percent rendering is a
// presentation concern.
const Scale = 6

// DailyRecord is the per-equipment, per-calendar-day effectiveness record.
// All four ratios are defined, in [0,1], and oee = a*p*q at Scale. A day
// with an undefined component has no record at all.
type DailyRecord struct {
	EquipmentID  uuid.UUID
	Day          time.Time
	Availability decimal.Decimal
	Performance  decimal.Decimal
	Quality      decimal.Decimal
	OEE          decimal.Decimal

	SnapshotVersion int64
}

type FindParams struct {
	EquipmentID *uuid.UUID
	From        time.Time
	To          time.Time
	Limit       int
	Offset      int
}

type Repository interface {
	// Upsert writes records for one snapshot version, keyed by
	// (equipment, day, version); rewriting the same version is idempotent.
	Upsert(ctx context.Context, records []*DailyRecord) error
	// ListPublished reads only records belonging to published snapshots.
	ListPublished(ctx context.Context, params *FindParams) ([]*DailyRecord, error)
	// ListForVersion reads one snapshot's records regardless of publication,
	// for rollup within an in-flight cycle.
	ListForVersion(ctx context.Context, version int64, day time.Time) ([]*DailyRecord, error)
}

// Clamp bounds a ratio to [0,1] at Scale.
func Clamp(d decimal.Decimal) decimal.Decimal {
	one := decimal.New(1, 0)
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(one) {
		return one
	}
	return d.Round(Scale)
}
