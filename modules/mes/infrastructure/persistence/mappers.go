package persistence

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/iota-uz/mes/modules/mes/domain/audit"
	"github.com/iota-uz/mes/modules/mes/domain/facts"
	"github.com/iota-uz/mes/modules/mes/domain/hierarchy"
	"github.com/iota-uz/mes/modules/mes/domain/kpisummary"
	"github.com/iota-uz/mes/modules/mes/domain/oee"
	"github.com/iota-uz/mes/modules/mes/domain/reliability"
	"github.com/iota-uz/mes/modules/mes/infrastructure/persistence/models"
)

func toDomainNode(row *models.HierarchyNode) (*hierarchy.Node, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	var parentID *uuid.UUID
	if row.ParentID != nil {
		parsed, err := uuid.Parse(*row.ParentID)
		if err != nil {
			return nil, err
		}
		parentID = &parsed
	}
	return &hierarchy.Node{
		ID:                       id,
		Level:                    hierarchy.Level(row.Level),
		ParentID:                 parentID,
		Code:                     row.Code,
		Name:                     row.Name,
		StandardCycleTimeSeconds: row.StandardCycleTimeSeconds,
		CommissionedAt:           row.CommissionedAt,
	}, nil
}

func toDomainProductionEvent(row *models.ProductionEvent) (*facts.ProductionEvent, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	equipmentID, err := uuid.Parse(row.EquipmentID)
	if err != nil {
		return nil, err
	}
	return &facts.ProductionEvent{
		ID:               id,
		EquipmentID:      equipmentID,
		StartedAt:        row.StartedAt,
		EndedAt:          row.EndedAt,
		PlannedMinutes:   row.PlannedMinutes,
		OperatingMinutes: row.OperatingMinutes,
		TotalProduced:    row.TotalProduced,
		Good:             row.Good,
		Scrap:            row.Scrap,
		Rework:           row.Rework,
		CreatedAt:        row.CreatedAt,
	}, nil
}

func toDomainDowntimeEvent(row *models.DowntimeEvent) (*facts.DowntimeEvent, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	equipmentID, err := uuid.Parse(row.EquipmentID)
	if err != nil {
		return nil, err
	}
	return &facts.DowntimeEvent{
		ID:          id,
		EquipmentID: equipmentID,
		StartedAt:   row.StartedAt,
		EndedAt:     row.EndedAt,
		ReasonCode:  row.ReasonCode,
		CreatedAt:   row.CreatedAt,
	}, nil
}

func toDomainReason(row *models.DowntimeReason) *facts.DowntimeReason {
	return &facts.DowntimeReason{
		Code:                row.Code,
		Description:         row.Description,
		Planned:             row.Planned,
		AffectsAvailability: row.AffectsAvailability,
		AffectsPerformance:  row.AffectsPerformance,
		AffectsQuality:      row.AffectsQuality,
		Failure:             row.Failure,
	}
}

func toDomainInspection(row *models.QualityInspection) (*facts.QualityInspection, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	equipmentID, err := uuid.Parse(row.EquipmentID)
	if err != nil {
		return nil, err
	}
	return &facts.QualityInspection{
		ID:           id,
		EquipmentID:  equipmentID,
		ProductCode:  row.ProductCode,
		InspectedAt:  row.InspectedAt,
		SampleSize:   row.SampleSize,
		DefectsFound: row.DefectsFound,
		CreatedAt:    row.CreatedAt,
	}, nil
}

func toDomainDailyRecord(row *models.DailyOEERecord) (*oee.DailyRecord, error) {
	equipmentID, err := uuid.Parse(row.EquipmentID)
	if err != nil {
		return nil, err
	}
	return &oee.DailyRecord{
		EquipmentID:     equipmentID,
		Day:             row.Day,
		Availability:    row.Availability,
		Performance:     row.Performance,
		Quality:         row.Quality,
		OEE:             row.OEE,
		SnapshotVersion: row.SnapshotVersion,
	}, nil
}

func toDomainReliabilitySummary(row *models.ReliabilitySummary) (*reliability.Summary, error) {
	equipmentID, err := uuid.Parse(row.EquipmentID)
	if err != nil {
		return nil, err
	}
	return &reliability.Summary{
		EquipmentID:     equipmentID,
		PeriodEnd:       row.PeriodEnd,
		WindowDays:      row.WindowDays,
		FailureCount:    row.FailureCount,
		OperatingHours:  row.OperatingHours,
		DowntimeHours:   row.DowntimeHours,
		MTBFHours:       row.MTBFHours,
		MTTRHours:       row.MTTRHours,
		SnapshotVersion: row.SnapshotVersion,
	}, nil
}

func toDomainKPISummary(row *models.KPISummary) (*kpisummary.Summary, error) {
	nodeID, err := uuid.Parse(row.NodeID)
	if err != nil {
		return nil, err
	}
	return &kpisummary.Summary{
		NodeID:            nodeID,
		Level:             hierarchy.Level(row.Level),
		Period:            row.Period,
		Availability:      row.Availability,
		Performance:       row.Performance,
		Quality:           row.Quality,
		OEE:               row.OEE,
		TotalProduction:   row.TotalProduction,
		TotalDefects:      row.TotalDefects,
		MTBFHours:         row.MTBFHours,
		MTTRHours:         row.MTTRHours,
		ReportingChildren: row.ReportingChildren,
		SnapshotVersion:   row.SnapshotVersion,
	}, nil
}

func toDomainAuditRecord(row *models.AuditRecord) (*audit.Record, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	recordID, err := uuid.Parse(row.RecordID)
	if err != nil {
		return nil, err
	}
	return &audit.Record{
		ID:         id,
		Actor:      row.Actor,
		Action:     audit.Action(row.Action),
		Table:      audit.Table(row.TableName),
		RecordID:   recordID,
		Before:     json.RawMessage(row.BeforeState),
		After:      json.RawMessage(row.AfterState),
		OccurredAt: row.OccurredAt,
	}, nil
}
