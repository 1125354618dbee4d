package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type HierarchyNode struct {
	ID                       string
	Level                    string
	ParentID                 *string
	Code                     string
	Name                     string
	StandardCycleTimeSeconds *decimal.Decimal
	CommissionedAt           time.Time
}

type ProductionEvent struct {
	ID               string
	EquipmentID      string
	StartedAt        time.Time
	EndedAt          time.Time
	PlannedMinutes   decimal.Decimal
	OperatingMinutes decimal.Decimal
	TotalProduced    int64
	Good             int64
	Scrap            int64
	Rework           int64
	CreatedAt        time.Time
}

type DowntimeEvent struct {
	ID          string
	EquipmentID string
	StartedAt   time.Time
	EndedAt     time.Time
	ReasonCode  string
	CreatedAt   time.Time
}

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
	ID           string
	EquipmentID  string
	ProductCode  string
	InspectedAt  time.Time
	SampleSize   int64
	DefectsFound int64
	CreatedAt    time.Time
}

type DailyOEERecord struct {
	EquipmentID     string
	Day             time.Time
	Availability    decimal.Decimal
	Performance     decimal.Decimal
	Quality         decimal.Decimal
	OEE             decimal.Decimal
	SnapshotVersion int64
}

type ReliabilitySummary struct {
	EquipmentID     string
	PeriodEnd       time.Time
	WindowDays      int
	FailureCount    int64
	OperatingHours  decimal.Decimal
	DowntimeHours   decimal.Decimal
	MTBFHours       *decimal.Decimal
	MTTRHours       *decimal.Decimal
	SnapshotVersion int64
}

type KPISummary struct {
	NodeID            string
	Level             string
	Period            time.Time
	Availability      decimal.Decimal
	Performance       decimal.Decimal
	Quality           decimal.Decimal
	OEE               decimal.Decimal
	TotalProduction   int64
	TotalDefects      int64
	MTBFHours         *decimal.Decimal
	MTTRHours         *decimal.Decimal
	ReportingChildren int
	SnapshotVersion   int64
}

type AuditRecord struct {
	ID          string
	Actor       string
	Action      string
	TableName   string
	RecordID    string
	BeforeState []byte
	AfterState  []byte
	OccurredAt  time.Time
}

type DataQualityCheck struct {
	ID         int64
	CheckName  string
	RunAt      time.Time
	TotalRows  int64
	FailedRows int64
	Score      decimal.Decimal
}
