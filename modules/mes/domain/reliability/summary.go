package reliability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Summary holds MTBF/MTTR for one equipment over a trailing window ending
// at PeriodEnd. With zero failures the row still exists (the window was
// observed) but MTBF/MTTR are nil: "no failures observed", never infinite
// or zero.
type Summary struct {
	EquipmentID uuid.UUID
	PeriodEnd   time.Time
	WindowDays  int

	FailureCount   int64
	OperatingHours decimal.Decimal
	DowntimeHours  decimal.Decimal
	MTBFHours      *decimal.Decimal
	MTTRHours      *decimal.Decimal

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
	Upsert(ctx context.Context, summaries []*Summary) error
	ListPublished(ctx context.Context, params *FindParams) ([]*Summary, error)
	ListForVersion(ctx context.Context, version int64, periodEnd time.Time) ([]*Summary, error)
}
