package facts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fact events are append-only: once accepted they are never mutated by the
// pipeline. Corrections arrive as new compensating records; the single
// exception is downtime reason reclassification, which is audited.

type ProductionEvent struct {
	ID          uuid.UUID
	EquipmentID uuid.UUID
	StartedAt   time.Time
	EndedAt     time.Time

	PlannedMinutes   decimal.Decimal
	OperatingMinutes decimal.Decimal

	TotalProduced int64
	Good          int64
	Scrap         int64
	Rework        int64

	CreatedAt time.Time
}

type DowntimeEvent struct {
	ID          uuid.UUID
	EquipmentID uuid.UUID
	StartedAt   time.Time
	EndedAt     time.Time
	ReasonCode  string

	CreatedAt time.Time
}

func (e *DowntimeEvent) Hours() decimal.Decimal {
	return decimal.NewFromFloat(e.EndedAt.Sub(e.StartedAt).Hours()).Round(6)
}

func (e *DowntimeEvent) Minutes() decimal.Decimal {
	return decimal.NewFromFloat(e.EndedAt.Sub(e.StartedAt).Minutes()).Round(6)
}

// DowntimeReason classifies downtime. Planned downtime does not count
// against availability; failure reasons feed MTBF/MTTR.
type DowntimeReason struct {
	Code                string
	Description         string
	Planned             bool
	AffectsAvailability bool
	AffectsPerformance  bool
	AffectsQuality      bool
	Failure             bool
}

type QualityInspection struct {
	ID           uuid.UUID
	EquipmentID  uuid.UUID
	ProductCode  string
	InspectedAt  time.Time
	SampleSize   int64
	DefectsFound int64

	CreatedAt time.Time
}

type SensorReading struct {
	ID          uuid.UUID
	EquipmentID uuid.UUID
	RecordedAt  time.Time
	Parameter   string
	Value       float64
}

// ProductionTotals are per-equipment sums over a closed period, consumed by
// the daily aggregator and the rollup engine.
type ProductionTotals struct {
	PlannedMinutes   decimal.Decimal
	OperatingMinutes decimal.Decimal

	TotalProduced int64
	Good          int64
	Scrap         int64
	Rework        int64
}

func (t ProductionTotals) Defects() int64 {
	return t.TotalProduced - t.Good
}

type ProductionRepository interface {
	Create(ctx context.Context, event *ProductionEvent) error
	// ListWithinPeriod returns events whose interval lies entirely inside
	// [from, to). Partial overlaps are excluded so reruns are deterministic.
	ListWithinPeriod(ctx context.Context, equipmentID uuid.UUID, from, to time.Time) ([]*ProductionEvent, error)
	TotalsWithinPeriod(ctx context.Context, from, to time.Time) (map[uuid.UUID]ProductionTotals, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ProductionEvent, error)
}

type DowntimeRepository interface {
	Create(ctx context.Context, event *DowntimeEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*DowntimeEvent, error)
	// UpdateReason reclassifies an event. Audited; the aggregators pick the
	// change up on the next wholesale recompute.
	UpdateReason(ctx context.Context, id uuid.UUID, reasonCode string) error
	ListWithinPeriod(ctx context.Context, equipmentID uuid.UUID, from, to time.Time) ([]*DowntimeEvent, error)
	// ListFailuresWithinPeriod returns events whose reason is a failure,
	// across all equipment, for reliability computation.
	ListFailuresWithinPeriod(ctx context.Context, from, to time.Time) ([]*DowntimeEvent, error)
	// UnplannedAvailabilityMinutes sums per-equipment downtime minutes for
	// unplanned reasons that affect availability, over a closed period.
	UnplannedAvailabilityMinutes(ctx context.Context, from, to time.Time) (map[uuid.UUID]decimal.Decimal, error)
	// HoursByReason supports the downtime-analysis read model.
	HoursByReason(ctx context.Context, from, to time.Time) (map[string]decimal.Decimal, error)

	GetReason(ctx context.Context, code string) (*DowntimeReason, error)
	ListReasons(ctx context.Context) ([]*DowntimeReason, error)
	CreateReason(ctx context.Context, reason *DowntimeReason) error
}

type QualityRepository interface {
	Create(ctx context.Context, inspection *QualityInspection) error
	ListWithinPeriod(ctx context.Context, equipmentID uuid.UUID, from, to time.Time) ([]*QualityInspection, error)
	// FirstPassYield returns good-sample ratio per equipment over a range.
	FirstPassYield(ctx context.Context, from, to time.Time) (map[uuid.UUID]decimal.Decimal, error)
}

type SensorRepository interface {
	// CreateBatch appends readings; all-or-nothing per batch.
	CreateBatch(ctx context.Context, readings []*SensorReading) error
}
