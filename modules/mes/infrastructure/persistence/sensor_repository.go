package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iota-uz/mes/modules/mes/domain/facts"
	"github.com/iota-uz/mes/pkg/composables"
)

// Postgres reports a row routed to a missing partition as a check
// violation.
const pgCheckViolation = "23514"

type SensorRepository struct{}

func NewSensorRepository() facts.SensorRepository {
	return &SensorRepository{}
}

func (r *SensorRepository) CreateBatch(ctx context.Context, readings []*facts.SensorReading) error {
	if len(readings) == 0 {
		return nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(readings))
	for _, reading := range readings {
		rows = append(rows, []interface{}{
			reading.EquipmentID,
			reading.RecordedAt.UTC(),
			reading.Parameter,
			reading.Value,
		})
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"sensor_readings"},
		[]string{"equipment_id", "recorded_at", "parameter", "value"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation {
			return &facts.PartitionRejection{
				Timestamp:  readings[0].RecordedAt,
				RetryAfter: 24 * time.Hour,
			}
		}
		return err
	}
	return nil
}
