package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Table is the closed set of monitored fact tables. The recorder is
// statically typed over this set; there is no runtime schema introspection.
type Table string

const (
	TableProductionEvents   Table = "production_events"
	TableDowntimeEvents     Table = "downtime_events"
	TableQualityInspections Table = "quality_inspections"
)

// Record captures the before/after state of exactly one mutation. Written
// in the same transaction as the mutation; if the record cannot be written
// the mutation fails with it.
type Record struct {
	ID         uuid.UUID
	Actor      string
	Action     Action
	Table      Table
	RecordID   uuid.UUID
	Before     json.RawMessage
	After      json.RawMessage
	OccurredAt time.Time
}

type FindParams struct {
	Table    Table
	Action   Action
	Actor    string
	RecordID *uuid.UUID
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

type Repository interface {
	Create(ctx context.Context, record *Record) error
	List(ctx context.Context, params *FindParams) ([]*Record, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	// DeleteOlderThan enforces the retention policy (default seven years).
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewInsert/NewUpdate/NewDelete build records from typed fact entities; the
// entity is serialized at the call site so the captured state is exactly
// what was written.

func NewInsert(actor string, table Table, recordID uuid.UUID, after any) (*Record, error) {
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return nil, err
	}
	return &Record{
		Actor:      actor,
		Action:     ActionInsert,
		Table:      table,
		RecordID:   recordID,
		After:      afterJSON,
		OccurredAt: time.Now().UTC(),
	}, nil
}

func NewUpdate(actor string, table Table, recordID uuid.UUID, before, after any) (*Record, error) {
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return nil, err
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return nil, err
	}
	return &Record{
		Actor:      actor,
		Action:     ActionUpdate,
		Table:      table,
		RecordID:   recordID,
		Before:     beforeJSON,
		After:      afterJSON,
		OccurredAt: time.Now().UTC(),
	}, nil
}

// NewDelete closes the builder set over all three actions. Fact tables are
// append-only today, so no ingest path emits it; compensating cleanup
// workflows that remove a fact record must record the deletion through it.
func NewDelete(actor string, table Table, recordID uuid.UUID, before any) (*Record, error) {
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return nil, err
	}
	return &Record{
		Actor:      actor,
		Action:     ActionDelete,
		Table:      table,
		RecordID:   recordID,
		Before:     beforeJSON,
		OccurredAt: time.Now().UTC(),
	}, nil
}
