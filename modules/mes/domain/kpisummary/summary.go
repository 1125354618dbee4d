package kpisummary

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/mes/modules/mes/domain/hierarchy"
)

// Summary is the rolled-up KPI row for any hierarchy node and period. A
// node with zero reporting children for a period has no Summary at all;
// absence propagates upward and is never rendered as zero.
type Summary struct {
	NodeID uuid.UUID
	Level  hierarchy.Level
	Period time.Time

	Availability decimal.Decimal
	Performance  decimal.Decimal
	Quality      decimal.Decimal
	OEE          decimal.Decimal

	TotalProduction int64
	TotalDefects    int64

	MTBFHours *decimal.Decimal
	MTTRHours *decimal.Decimal

	// Number of direct children that reported for the period (1 for
	// equipment leaves).
	ReportingChildren int

	SnapshotVersion int64
}

type FindParams struct {
	NodeID *uuid.UUID
	Level  hierarchy.Level
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

type Repository interface {
	Upsert(ctx context.Context, summaries []*Summary) error
	ListPublished(ctx context.Context, params *FindParams) ([]*Summary, error)
	ListForVersion(ctx context.Context, version int64, period time.Time) ([]*Summary, error)
}
