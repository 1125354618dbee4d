package audit_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/mes/modules/mes/domain/audit"
)

type payload struct {
	Reason string `json:"reason"`
}

func TestNewInsert(t *testing.T) {
	id := uuid.New()
	record, err := audit.NewInsert("op-7", audit.TableDowntimeEvents, id, payload{Reason: "BRK"})
	require.NoError(t, err)

	assert.Equal(t, audit.ActionInsert, record.Action)
	assert.Equal(t, "op-7", record.Actor)
	assert.Equal(t, id, record.RecordID)
	assert.Nil(t, record.Before)
	assert.False(t, record.OccurredAt.IsZero())

	var after payload
	require.NoError(t, json.Unmarshal(record.After, &after))
	assert.Equal(t, "BRK", after.Reason)
}

func TestNewUpdateCapturesBothSides(t *testing.T) {
	id := uuid.New()
	record, err := audit.NewUpdate("op-7", audit.TableDowntimeEvents, id,
		payload{Reason: "BRK"}, payload{Reason: "PM"})
	require.NoError(t, err)

	assert.Equal(t, audit.ActionUpdate, record.Action)

	var before, after payload
	require.NoError(t, json.Unmarshal(record.Before, &before))
	require.NoError(t, json.Unmarshal(record.After, &after))
	assert.Equal(t, "BRK", before.Reason)
	assert.Equal(t, "PM", after.Reason)
}

func TestNewDelete(t *testing.T) {
	record, err := audit.NewDelete("system", audit.TableProductionEvents, uuid.New(), payload{Reason: "X"})
	require.NoError(t, err)
	assert.Equal(t, audit.ActionDelete, record.Action)
	assert.Nil(t, record.After)
	assert.NotEmpty(t, record.Before)
}
