package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/mes/modules/mes/domain/facts"
	"github.com/iota-uz/mes/modules/mes/domain/hierarchy"
	"github.com/iota-uz/mes/modules/mes/domain/oee"
	"github.com/iota-uz/mes/modules/mes/domain/reliability"
)

// ReliabilityService computes MTBF/MTTR over a trailing window per
// equipment.
//
//	MTBF = operating hours / failure count
//	MTTR = failure downtime hours / failure count
//
// With zero failures the summary still exists so "we watched and nothing
// broke" is distinguishable from "we did not watch": the counts are zero and
// both means are nil.
type ReliabilityService struct {
	production facts.ProductionRepository
	downtime   facts.DowntimeRepository
	repo       reliability.Repository
}

var minutesPerHour = decimal.NewFromInt(60)

func NewReliabilityService(
	production facts.ProductionRepository,
	downtime facts.DowntimeRepository,
	repo reliability.Repository,
) *ReliabilityService {
	return &ReliabilityService{production: production, downtime: downtime, repo: repo}
}

// ComputeWindow derives and upserts summaries for every equipment node over
// the trailing window ending at periodEnd.
func (s *ReliabilityService) ComputeWindow(
	ctx context.Context,
	version int64,
	periodEnd time.Time,
	windowDays int,
	equipment []*hierarchy.Node,
) ([]*reliability.Summary, error) {
	to := periodEnd.UTC()
	from := to.AddDate(0, 0, -windowDays)

	totals, err := s.production.TotalsWithinPeriod(ctx, from, to)
	if err != nil {
		return nil, err
	}
	failures, err := s.downtime.ListFailuresWithinPeriod(ctx, from, to)
	if err != nil {
		return nil, err
	}

	type tally struct {
		count int64
		hours decimal.Decimal
	}
	failuresByEquipment := make(map[uuid.UUID]tally)
	for _, event := range failures {
		t := failuresByEquipment[event.EquipmentID]
		t.count++
		t.hours = t.hours.Add(event.Hours())
		failuresByEquipment[event.EquipmentID] = t
	}

	summaries := make([]*reliability.Summary, 0, len(equipment))
	for _, node := range equipment {
		if !node.IsLeaf() {
			continue
		}
		operatingHours := totals[node.ID].OperatingMinutes.
			Div(minutesPerHour).
			Round(oee.Scale)
		failed := failuresByEquipment[node.ID]

		summary := &reliability.Summary{
			EquipmentID:     node.ID,
			PeriodEnd:       to,
			WindowDays:      windowDays,
			FailureCount:    failed.count,
			OperatingHours:  operatingHours,
			DowntimeHours:   failed.hours.Round(oee.Scale),
			SnapshotVersion: version,
		}
		if failed.count > 0 {
			n := decimal.NewFromInt(failed.count)
			mtbf := operatingHours.Div(n).Round(oee.Scale)
			mttr := failed.hours.Div(n).Round(oee.Scale)
			summary.MTBFHours = &mtbf
			summary.MTTRHours = &mttr
		}
		summaries = append(summaries, summary)
	}

	if len(summaries) == 0 {
		return nil, nil
	}
	if err := s.repo.Upsert(ctx, summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *ReliabilityService) ListPublished(ctx context.Context, params *reliability.FindParams) ([]*reliability.Summary, error) {
	return s.repo.ListPublished(ctx, params)
}
