package facts_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/mes/modules/mes/domain/facts"
)

func validProductionEvent() *facts.ProductionEvent {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return &facts.ProductionEvent{
		EquipmentID:      uuid.New(),
		StartedAt:        start,
		EndedAt:          start.Add(8 * time.Hour),
		PlannedMinutes:   decimal.NewFromInt(480),
		OperatingMinutes: decimal.NewFromInt(432),
		TotalProduced:    1000,
		Good:             950,
		Scrap:            30,
		Rework:           20,
	}
}

func TestProductionEventValidate(t *testing.T) {
	t.Run("valid event passes", func(t *testing.T) {
		require.Nil(t, validProductionEvent().Validate())
	})

	t.Run("interval end before start", func(t *testing.T) {
		event := validProductionEvent()
		event.EndedAt = event.StartedAt.Add(-time.Hour)
		rejection := event.Validate()
		require.NotNil(t, rejection)
		assert.Equal(t, facts.CodeInvalidInterval, rejection.Code)
	})

	t.Run("zero-length interval", func(t *testing.T) {
		event := validProductionEvent()
		event.EndedAt = event.StartedAt
		rejection := event.Validate()
		require.NotNil(t, rejection)
		assert.Equal(t, facts.CodeInvalidInterval, rejection.Code)
	})

	t.Run("negative count", func(t *testing.T) {
		event := validProductionEvent()
		event.Scrap = -1
		rejection := event.Validate()
		require.NotNil(t, rejection)
		assert.Equal(t, facts.CodeNegativeCount, rejection.Code)
		assert.Equal(t, "scrap", rejection.Field)
	})

	t.Run("counts exceed total", func(t *testing.T) {
		event := validProductionEvent()
		event.Good = 990
		event.Scrap = 30
		event.Rework = 20
		rejection := event.Validate()
		require.NotNil(t, rejection)
		assert.Equal(t, facts.CodeCountsExceedTotal, rejection.Code)
	})

	t.Run("counts summing exactly to total pass", func(t *testing.T) {
		event := validProductionEvent()
		event.Good = 950
		event.Scrap = 30
		event.Rework = 20
		require.Nil(t, event.Validate())
	})

	t.Run("operating exceeds planned", func(t *testing.T) {
		event := validProductionEvent()
		event.OperatingMinutes = decimal.NewFromInt(481)
		rejection := event.Validate()
		require.NotNil(t, rejection)
		assert.Equal(t, facts.CodeOperatingExceedsPlanned, rejection.Code)
	})

	t.Run("negative planned time", func(t *testing.T) {
		event := validProductionEvent()
		event.PlannedMinutes = decimal.NewFromInt(-1)
		event.OperatingMinutes = decimal.NewFromInt(-2)
		rejection := event.Validate()
		require.NotNil(t, rejection)
		assert.Equal(t, facts.CodeInvalidValue, rejection.Code)
	})
}

func TestDowntimeEventValidate(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("valid event passes", func(t *testing.T) {
		event := &facts.DowntimeEvent{
			EquipmentID: uuid.New(),
			StartedAt:   start,
			EndedAt:     start.Add(30 * time.Minute),
			ReasonCode:  "BRK",
		}
		require.Nil(t, event.Validate())
	})

	t.Run("missing reason code", func(t *testing.T) {
		event := &facts.DowntimeEvent{
			EquipmentID: uuid.New(),
			StartedAt:   start,
			EndedAt:     start.Add(30 * time.Minute),
		}
		rejection := event.Validate()
		require.NotNil(t, rejection)
		assert.Equal(t, facts.CodeUnknownReason, rejection.Code)
	})
}

func TestQualityInspectionValidate(t *testing.T) {
	t.Run("defects exceed sample", func(t *testing.T) {
		inspection := &facts.QualityInspection{
			EquipmentID:  uuid.New(),
			ProductCode:  "P-100",
			InspectedAt:  time.Now(),
			SampleSize:   10,
			DefectsFound: 11,
		}
		rejection := inspection.Validate()
		require.NotNil(t, rejection)
		assert.Equal(t, facts.CodeCountsExceedTotal, rejection.Code)
	})

	t.Run("zero sample size", func(t *testing.T) {
		inspection := &facts.QualityInspection{
			EquipmentID: uuid.New(),
			InspectedAt: time.Now(),
			SampleSize:  0,
		}
		rejection := inspection.Validate()
		require.NotNil(t, rejection)
		assert.Equal(t, facts.CodeInvalidValue, rejection.Code)
	})
}

func TestDowntimeEventDurations(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	event := &facts.DowntimeEvent{StartedAt: start, EndedAt: start.Add(90 * time.Minute)}
	assert.Equal(t, "1.5", event.Hours().String())
	assert.Equal(t, "90", event.Minutes().String())
}

func TestProductionTotalsDefects(t *testing.T) {
	totals := facts.ProductionTotals{TotalProduced: 1000, Good: 950, Scrap: 30, Rework: 20}
	assert.Equal(t, int64(50), totals.Defects())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, facts.IsRetryable(&facts.PartitionRejection{Timestamp: time.Now()}))
	assert.False(t, facts.IsRetryable(&facts.Rejection{Code: facts.CodeInvalidValue}))
}
