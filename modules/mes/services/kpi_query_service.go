package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/mes/modules/mes/domain/facts"
	"github.com/iota-uz/mes/modules/mes/domain/kpisummary"
	"github.com/iota-uz/mes/modules/mes/domain/oee"
	"github.com/iota-uz/mes/modules/mes/domain/reliability"
)

// KPIQueryService serves the analytical read models. Everything here reads
// either the published snapshot or the raw event store; nothing writes.
type KPIQueryService struct {
	summaries  kpisummary.Repository
	daily      oee.Repository
	rel        reliability.Repository
	downtime   facts.DowntimeRepository
	production facts.ProductionRepository
	quality    facts.QualityRepository
}

func NewKPIQueryService(
	summaries kpisummary.Repository,
	daily oee.Repository,
	rel reliability.Repository,
	downtime facts.DowntimeRepository,
	production facts.ProductionRepository,
	quality facts.QualityRepository,
) *KPIQueryService {
	return &KPIQueryService{
		summaries:  summaries,
		daily:      daily,
		rel:        rel,
		downtime:   downtime,
		production: production,
		quality:    quality,
	}
}

func (s *KPIQueryService) Summaries(ctx context.Context, params *kpisummary.FindParams) ([]*kpisummary.Summary, error) {
	return s.summaries.ListPublished(ctx, params)
}

func (s *KPIQueryService) DailyOEE(ctx context.Context, params *oee.FindParams) ([]*oee.DailyRecord, error) {
	return s.daily.ListPublished(ctx, params)
}

func (s *KPIQueryService) Reliability(ctx context.Context, params *reliability.FindParams) ([]*reliability.Summary, error) {
	return s.rel.ListPublished(ctx, params)
}

// DowntimeAnalysisRow is total downtime attributed to one reason over a
// range, with the reason's classification alongside.
type DowntimeAnalysisRow struct {
	Reason *facts.DowntimeReason
	Hours  decimal.Decimal
}

// DowntimeAnalysis returns hours by reason over [from, to), ordered by
// descending hours so the biggest loss leads.
func (s *KPIQueryService) DowntimeAnalysis(ctx context.Context, from, to time.Time) ([]*DowntimeAnalysisRow, error) {
	hours, err := s.downtime.HoursByReason(ctx, from, to)
	if err != nil {
		return nil, err
	}
	reasons, err := s.downtime.ListReasons(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]*DowntimeAnalysisRow, 0, len(hours))
	for _, reason := range reasons {
		h, ok := hours[reason.Code]
		if !ok {
			continue
		}
		rows = append(rows, &DowntimeAnalysisRow{Reason: reason, Hours: h})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Hours.Equal(rows[j].Hours) {
			return rows[i].Hours.GreaterThan(rows[j].Hours)
		}
		return rows[i].Reason.Code < rows[j].Reason.Code
	})
	return rows, nil
}

// ScrapAnalysisRow breaks one equipment's losses over a range into scrap and
// rework, with the scrap rate against total production.
type ScrapAnalysisRow struct {
	EquipmentID   uuid.UUID
	TotalProduced int64
	Scrap         int64
	Rework        int64
	ScrapRate     decimal.Decimal
}

func (s *KPIQueryService) ScrapAnalysis(ctx context.Context, from, to time.Time) ([]*ScrapAnalysisRow, error) {
	totals, err := s.production.TotalsWithinPeriod(ctx, from, to)
	if err != nil {
		return nil, err
	}

	rows := make([]*ScrapAnalysisRow, 0, len(totals))
	for id, t := range totals {
		row := &ScrapAnalysisRow{
			EquipmentID:   id,
			TotalProduced: t.TotalProduced,
			Scrap:         t.Scrap,
			Rework:        t.Rework,
		}
		if t.TotalProduced > 0 {
			row.ScrapRate = decimal.NewFromInt(t.Scrap).
				Div(decimal.NewFromInt(t.TotalProduced)).
				Round(oee.Scale)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].ScrapRate.Equal(rows[j].ScrapRate) {
			return rows[i].ScrapRate.GreaterThan(rows[j].ScrapRate)
		}
		return rows[i].EquipmentID.String() < rows[j].EquipmentID.String()
	})
	return rows, nil
}

// FirstPassYieldRow is the inspection-based good-sample ratio for one
// equipment over a range.
type FirstPassYieldRow struct {
	EquipmentID uuid.UUID
	Yield       decimal.Decimal
}

func (s *KPIQueryService) FirstPassYield(ctx context.Context, from, to time.Time) ([]*FirstPassYieldRow, error) {
	yields, err := s.quality.FirstPassYield(ctx, from, to)
	if err != nil {
		return nil, err
	}

	rows := make([]*FirstPassYieldRow, 0, len(yields))
	for id, y := range yields {
		rows = append(rows, &FirstPassYieldRow{EquipmentID: id, Yield: y})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].EquipmentID.String() < rows[j].EquipmentID.String()
	})
	return rows, nil
}
