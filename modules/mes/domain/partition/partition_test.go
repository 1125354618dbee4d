package partition_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iota-uz/mes/modules/mes/domain/partition"
)

func TestMonthStart(t *testing.T) {
	got := partition.MonthStart(time.Date(2026, 3, 15, 13, 45, 12, 0, time.UTC))
	assert.True(t, got.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))

	// Non-UTC inputs normalize to UTC before truncation.
	tz := time.FixedZone("UTC+5", 5*3600)
	got = partition.MonthStart(time.Date(2026, 4, 1, 2, 0, 0, 0, tz))
	assert.True(t, got.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))

	first := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, partition.MonthStart(first).Equal(first))
}
