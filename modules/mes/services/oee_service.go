package services

import (
	"context"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/mes/modules/mes/domain/facts"
	"github.com/iota-uz/mes/modules/mes/domain/hierarchy"
	"github.com/iota-uz/mes/modules/mes/domain/oee"
)

// OEEService computes the per-equipment daily effectiveness records.
//
// A day with an undefined component produces no record at all: zero planned
// time means availability does not exist, zero operating time means
// performance does not exist, zero production means quality does not exist.
// Absence is never rendered as zero.
type OEEService struct {
	production facts.ProductionRepository
	downtime   facts.DowntimeRepository
	repo       oee.Repository
	pool       pond.ResultPool[*oee.DailyRecord]
}

func NewOEEService(
	production facts.ProductionRepository,
	downtime facts.DowntimeRepository,
	repo oee.Repository,
	workers int,
) *OEEService {
	return &OEEService{
		production: production,
		downtime:   downtime,
		repo:       repo,
		pool:       pond.NewResultPool[*oee.DailyRecord](workers),
	}
}

var secondsPerMinute = decimal.NewFromInt(60)

// ComputeDailyRecord derives one equipment's record from its period totals
// and the day's unplanned availability-affecting downtime minutes.
// Availability = (operating - unplanned downtime) / planned, clamped.
// Returns nil when any component is undefined.
func ComputeDailyRecord(
	equipment *hierarchy.Node,
	day time.Time,
	totals facts.ProductionTotals,
	unplannedDowntimeMinutes decimal.Decimal,
) *oee.DailyRecord {
	if !totals.PlannedMinutes.IsPositive() {
		return nil
	}
	if !totals.OperatingMinutes.IsPositive() {
		return nil
	}
	if totals.TotalProduced <= 0 {
		return nil
	}
	if equipment.StandardCycleTimeSeconds == nil || !equipment.StandardCycleTimeSeconds.IsPositive() {
		return nil
	}

	availability := oee.Clamp(
		totals.OperatingMinutes.
			Sub(unplannedDowntimeMinutes).
			Div(totals.PlannedMinutes).
			Round(oee.Scale))

	// Ideal run time at the theoretical cycle rate, in minutes.
	idealMinutes := equipment.StandardCycleTimeSeconds.
		Mul(decimal.NewFromInt(totals.TotalProduced)).
		Div(secondsPerMinute)
	performance := oee.Clamp(idealMinutes.Div(totals.OperatingMinutes).Round(oee.Scale))

	quality := oee.Clamp(
		decimal.NewFromInt(totals.Good).
			Div(decimal.NewFromInt(totals.TotalProduced)).
			Round(oee.Scale))

	return &oee.DailyRecord{
		EquipmentID:  equipment.ID,
		Day:          day,
		Availability: availability,
		Performance:  performance,
		Quality:      quality,
		OEE:          availability.Mul(performance).Mul(quality).Round(oee.Scale),
	}
}

// ComputeDay derives records for every equipment node over the calendar day
// starting at day, and upserts them under the given snapshot version. Fact
// reads are set-based up front; the per-equipment arithmetic runs on the
// worker pool.
func (s *OEEService) ComputeDay(ctx context.Context, version int64, day time.Time, equipment []*hierarchy.Node) ([]*oee.DailyRecord, error) {
	from := day.UTC()
	to := from.Add(24 * time.Hour)

	totals, err := s.production.TotalsWithinPeriod(ctx, from, to)
	if err != nil {
		return nil, err
	}
	downtimeMinutes, err := s.downtime.UnplannedAvailabilityMinutes(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*hierarchy.Node, len(equipment))
	for _, node := range equipment {
		if node.IsLeaf() {
			byID[node.ID] = node
		}
	}

	group := s.pool.NewGroupContext(ctx)
	for id, t := range totals {
		node, ok := byID[id]
		if !ok {
			continue
		}
		t := t
		downtime := downtimeMinutes[id]
		group.SubmitErr(func() (*oee.DailyRecord, error) {
			return ComputeDailyRecord(node, from, t, downtime), nil
		})
	}
	results, err := group.Wait()
	if err != nil {
		return nil, err
	}

	records := make([]*oee.DailyRecord, 0, len(results))
	for _, record := range results {
		if record == nil {
			continue
		}
		record.SnapshotVersion = version
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if err := s.repo.Upsert(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *OEEService) ListPublished(ctx context.Context, params *oee.FindParams) ([]*oee.DailyRecord, error) {
	return s.repo.ListPublished(ctx, params)
}
