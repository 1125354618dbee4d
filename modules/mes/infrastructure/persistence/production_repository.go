package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/iota-uz/mes/modules/mes/domain/facts"
	"github.com/iota-uz/mes/modules/mes/infrastructure/persistence/models"
	"github.com/iota-uz/mes/pkg/composables"
)

var ErrEventNotFound = errors.New("fact event not found")

type ProductionRepository struct{}

func NewProductionRepository() facts.ProductionRepository {
	return &ProductionRepository{}
}

const productionEventColumns = `id, equipment_id, started_at, ended_at, planned_minutes, operating_minutes, total_produced, good, scrap, rework, created_at`

func (r *ProductionRepository) Create(ctx context.Context, event *facts.ProductionEvent) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	return tx.QueryRow(ctx, `
		INSERT INTO production_events (
			equipment_id, started_at, ended_at,
			planned_minutes, operating_minutes,
			total_produced, good, scrap, rework
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`,
		event.EquipmentID,
		event.StartedAt.UTC(),
		event.EndedAt.UTC(),
		event.PlannedMinutes,
		event.OperatingMinutes,
		event.TotalProduced,
		event.Good,
		event.Scrap,
		event.Rework,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *ProductionRepository) GetByID(ctx context.Context, id uuid.UUID) (*facts.ProductionEvent, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var row models.ProductionEvent
	err = tx.QueryRow(ctx, `
		SELECT `+productionEventColumns+`
		FROM production_events
		WHERE id = $1
	`, id).Scan(
		&row.ID,
		&row.EquipmentID,
		&row.StartedAt,
		&row.EndedAt,
		&row.PlannedMinutes,
		&row.OperatingMinutes,
		&row.TotalProduced,
		&row.Good,
		&row.Scrap,
		&row.Rework,
		&row.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomainProductionEvent(&row)
}

// ListWithinPeriod excludes events whose interval crosses the period
// boundary, so a rerun over the same closed period reads the same rows.
func (r *ProductionRepository) ListWithinPeriod(ctx context.Context, equipmentID uuid.UUID, from, to time.Time) ([]*facts.ProductionEvent, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+productionEventColumns+`
		FROM production_events
		WHERE equipment_id = $1 AND started_at >= $2 AND ended_at <= $3
		ORDER BY started_at
	`, equipmentID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*facts.ProductionEvent
	for rows.Next() {
		var row models.ProductionEvent
		if err := rows.Scan(
			&row.ID,
			&row.EquipmentID,
			&row.StartedAt,
			&row.EndedAt,
			&row.PlannedMinutes,
			&row.OperatingMinutes,
			&row.TotalProduced,
			&row.Good,
			&row.Scrap,
			&row.Rework,
			&row.CreatedAt,
		); err != nil {
			return nil, err
		}
		event, err := toDomainProductionEvent(&row)
		if err != nil {
			return nil, err
		}
		results = append(results, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ProductionRepository) TotalsWithinPeriod(ctx context.Context, from, to time.Time) (map[uuid.UUID]facts.ProductionTotals, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT equipment_id,
		       COALESCE(SUM(planned_minutes), 0),
		       COALESCE(SUM(operating_minutes), 0),
		       COALESCE(SUM(total_produced), 0),
		       COALESCE(SUM(good), 0),
		       COALESCE(SUM(scrap), 0),
		       COALESCE(SUM(rework), 0)
		FROM production_events
		WHERE started_at >= $1 AND ended_at <= $2
		GROUP BY equipment_id
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[uuid.UUID]facts.ProductionTotals)
	for rows.Next() {
		var equipmentID uuid.UUID
		var t facts.ProductionTotals
		if err := rows.Scan(&equipmentID, &t.PlannedMinutes, &t.OperatingMinutes, &t.TotalProduced, &t.Good, &t.Scrap, &t.Rework); err != nil {
			return nil, err
		}
		totals[equipmentID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return totals, nil
}
