package dtos

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/mes/modules/mes/domain/facts"
	"github.com/iota-uz/mes/modules/mes/domain/hierarchy"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs struct-tag validation on any DTO.
func Validate(dto any) error {
	return validate.Struct(dto)
}

type ProductionEventDTO struct {
	EquipmentID      uuid.UUID       `json:"equipment_id" validate:"required"`
	StartedAt        time.Time       `json:"started_at" validate:"required"`
	EndedAt          time.Time       `json:"ended_at" validate:"required"`
	PlannedMinutes   decimal.Decimal `json:"planned_minutes" validate:"required"`
	OperatingMinutes decimal.Decimal `json:"operating_minutes"`
	TotalProduced    int64           `json:"total_produced"`
	Good             int64           `json:"good"`
	Scrap            int64           `json:"scrap"`
	Rework           int64           `json:"rework"`
}

func (d *ProductionEventDTO) ToEntity() *facts.ProductionEvent {
	return &facts.ProductionEvent{
		EquipmentID:      d.EquipmentID,
		StartedAt:        d.StartedAt,
		EndedAt:          d.EndedAt,
		PlannedMinutes:   d.PlannedMinutes,
		OperatingMinutes: d.OperatingMinutes,
		TotalProduced:    d.TotalProduced,
		Good:             d.Good,
		Scrap:            d.Scrap,
		Rework:           d.Rework,
	}
}

type DowntimeEventDTO struct {
	EquipmentID uuid.UUID `json:"equipment_id" validate:"required"`
	StartedAt   time.Time `json:"started_at" validate:"required"`
	EndedAt     time.Time `json:"ended_at" validate:"required"`
	ReasonCode  string    `json:"reason_code" validate:"required"`
}

func (d *DowntimeEventDTO) ToEntity() *facts.DowntimeEvent {
	return &facts.DowntimeEvent{
		EquipmentID: d.EquipmentID,
		StartedAt:   d.StartedAt,
		EndedAt:     d.EndedAt,
		ReasonCode:  d.ReasonCode,
	}
}

type ReclassifyDowntimeDTO struct {
	ReasonCode string `json:"reason_code" validate:"required"`
}

type QualityInspectionDTO struct {
	EquipmentID  uuid.UUID `json:"equipment_id" validate:"required"`
	ProductCode  string    `json:"product_code" validate:"required"`
	InspectedAt  time.Time `json:"inspected_at" validate:"required"`
	SampleSize   int64     `json:"sample_size" validate:"required,gt=0"`
	DefectsFound int64     `json:"defects_found" validate:"gte=0"`
}

func (d *QualityInspectionDTO) ToEntity() *facts.QualityInspection {
	return &facts.QualityInspection{
		EquipmentID:  d.EquipmentID,
		ProductCode:  d.ProductCode,
		InspectedAt:  d.InspectedAt,
		SampleSize:   d.SampleSize,
		DefectsFound: d.DefectsFound,
	}
}

type SensorReadingDTO struct {
	EquipmentID uuid.UUID `json:"equipment_id" validate:"required"`
	RecordedAt  time.Time `json:"recorded_at" validate:"required"`
	Parameter   string    `json:"parameter" validate:"required"`
	Value       float64   `json:"value"`
}

type SensorBatchDTO struct {
	Readings []SensorReadingDTO `json:"readings" validate:"required,min=1,dive"`
}

func (d *SensorBatchDTO) ToEntities() []*facts.SensorReading {
	readings := make([]*facts.SensorReading, len(d.Readings))
	for i, r := range d.Readings {
		readings[i] = &facts.SensorReading{
			EquipmentID: r.EquipmentID,
			RecordedAt:  r.RecordedAt,
			Parameter:   r.Parameter,
			Value:       r.Value,
		}
	}
	return readings
}

type CreateNodeDTO struct {
	Level                    string           `json:"level" validate:"required,oneof=enterprise site area work_center equipment"`
	ParentID                 *uuid.UUID       `json:"parent_id"`
	Code                     string           `json:"code" validate:"required"`
	Name                     string           `json:"name" validate:"required"`
	StandardCycleTimeSeconds *decimal.Decimal `json:"standard_cycle_time_seconds"`
}

func (d *CreateNodeDTO) ToEntity() *hierarchy.Node {
	return &hierarchy.Node{
		Level:                    hierarchy.Level(d.Level),
		ParentID:                 d.ParentID,
		Code:                     d.Code,
		Name:                     d.Name,
		StandardCycleTimeSeconds: d.StandardCycleTimeSeconds,
	}
}

type RunCycleDTO struct {
	Period string `json:"period" validate:"required,datetime=2006-01-02"`
}

type EnsurePartitionsDTO struct {
	From string `json:"from" validate:"required,datetime=2006-01"`
	To   string `json:"to" validate:"required,datetime=2006-01"`
}
