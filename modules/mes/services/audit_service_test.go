package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/mes/modules/mes/domain/audit"
)

func TestAuditDiff(t *testing.T) {
	svc := NewAuditService(&fakeAuditRepo{})

	t.Run("update yields a patch of changed fields", func(t *testing.T) {
		record, err := audit.NewUpdate("op-1", audit.TableDowntimeEvents, uuid.New(),
			map[string]string{"reason_code": "BRK", "note": "same"},
			map[string]string{"reason_code": "PM", "note": "same"})
		require.NoError(t, err)

		patch, err := svc.Diff(record)
		require.NoError(t, err)
		require.Len(t, patch, 1)
		assert.Equal(t, "/reason_code", patch[0].Path)
		assert.Equal(t, "PM", patch[0].Value)
	})

	t.Run("insert yields no patch", func(t *testing.T) {
		record, err := audit.NewInsert("op-1", audit.TableProductionEvents, uuid.New(),
			map[string]string{"good": "950"})
		require.NoError(t, err)

		patch, err := svc.Diff(record)
		require.NoError(t, err)
		assert.Nil(t, patch)
	})
}
