package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/mes/modules/mes/domain/facts"
	"github.com/iota-uz/mes/modules/mes/domain/hierarchy"
)

func TestReliabilityComputeWindow(t *testing.T) {
	ctx := txContext()
	periodEnd := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	node := equipmentNode("20")

	production := &fakeProductionRepo{}
	// 6000 operating minutes inside the window -> 100 operating hours.
	require.NoError(t, production.Create(ctx, &facts.ProductionEvent{
		EquipmentID:      node.ID,
		StartedAt:        periodEnd.AddDate(0, 0, -10),
		EndedAt:          periodEnd.AddDate(0, 0, -5),
		PlannedMinutes:   decimal.NewFromInt(7200),
		OperatingMinutes: decimal.NewFromInt(6000),
		TotalProduced:    100,
		Good:             100,
	}))

	downtime := newFakeDowntimeRepo()
	require.NoError(t, downtime.CreateReason(ctx, &facts.DowntimeReason{
		Code: "BRK", Failure: true, AffectsAvailability: true,
	}))
	require.NoError(t, downtime.CreateReason(ctx, &facts.DowntimeReason{
		Code: "PM", Planned: true,
	}))

	breakdown := func(start time.Time, d time.Duration, reason string) *facts.DowntimeEvent {
		return &facts.DowntimeEvent{
			EquipmentID: node.ID,
			StartedAt:   start,
			EndedAt:     start.Add(d),
			ReasonCode:  reason,
		}
	}
	// Two failures totalling 6 hours; planned maintenance does not count.
	require.NoError(t, downtime.Create(ctx, breakdown(periodEnd.AddDate(0, 0, -8), 2*time.Hour, "BRK")))
	require.NoError(t, downtime.Create(ctx, breakdown(periodEnd.AddDate(0, 0, -6), 4*time.Hour, "BRK")))
	require.NoError(t, downtime.Create(ctx, breakdown(periodEnd.AddDate(0, 0, -7), 8*time.Hour, "PM")))

	svc := NewReliabilityService(production, downtime, newFakeReliabilityRepo())
	summaries, err := svc.ComputeWindow(ctx, 3, periodEnd, 30, []*hierarchy.Node{node})
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	summary := summaries[0]
	assert.Equal(t, int64(2), summary.FailureCount)
	assert.Equal(t, "100", summary.OperatingHours.String())
	assert.Equal(t, "6", summary.DowntimeHours.String())
	require.NotNil(t, summary.MTBFHours)
	assert.Equal(t, "50", summary.MTBFHours.String())
	require.NotNil(t, summary.MTTRHours)
	assert.Equal(t, "3", summary.MTTRHours.String())
	assert.Equal(t, int64(3), summary.SnapshotVersion)
}

func TestReliabilityZeroFailures(t *testing.T) {
	ctx := txContext()
	periodEnd := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	node := equipmentNode("20")

	production := &fakeProductionRepo{}
	require.NoError(t, production.Create(ctx, &facts.ProductionEvent{
		EquipmentID:      node.ID,
		StartedAt:        periodEnd.AddDate(0, 0, -2),
		EndedAt:          periodEnd.AddDate(0, 0, -1),
		PlannedMinutes:   decimal.NewFromInt(1440),
		OperatingMinutes: decimal.NewFromInt(1440),
		TotalProduced:    10,
		Good:             10,
	}))

	svc := NewReliabilityService(production, newFakeDowntimeRepo(), newFakeReliabilityRepo())
	summaries, err := svc.ComputeWindow(ctx, 1, periodEnd, 30, []*hierarchy.Node{node})
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	// The row exists so "nothing broke" stays observable, but the means
	// are undefined.
	summary := summaries[0]
	assert.Equal(t, int64(0), summary.FailureCount)
	assert.Nil(t, summary.MTBFHours)
	assert.Nil(t, summary.MTTRHours)
	assert.Equal(t, "24", summary.OperatingHours.String())
}

func TestReliabilityExcludesEventsOutsideWindow(t *testing.T) {
	ctx := txContext()
	periodEnd := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	node := equipmentNode("20")

	downtime := newFakeDowntimeRepo()
	require.NoError(t, downtime.CreateReason(ctx, &facts.DowntimeReason{
		Code: "BRK", Failure: true, AffectsAvailability: true,
	}))
	old := periodEnd.AddDate(0, 0, -40)
	require.NoError(t, downtime.Create(ctx, &facts.DowntimeEvent{
		EquipmentID: node.ID,
		StartedAt:   old,
		EndedAt:     old.Add(time.Hour),
		ReasonCode:  "BRK",
	}))

	svc := NewReliabilityService(&fakeProductionRepo{}, downtime, newFakeReliabilityRepo())
	summaries, err := svc.ComputeWindow(ctx, 1, periodEnd, 30, []*hierarchy.Node{node})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(0), summaries[0].FailureCount)
}
