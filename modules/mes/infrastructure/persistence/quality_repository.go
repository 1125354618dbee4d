package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/mes/modules/mes/domain/facts"
	"github.com/iota-uz/mes/modules/mes/infrastructure/persistence/models"
	"github.com/iota-uz/mes/pkg/composables"
)

type QualityRepository struct{}

func NewQualityRepository() facts.QualityRepository {
	return &QualityRepository{}
}

func (r *QualityRepository) Create(ctx context.Context, inspection *facts.QualityInspection) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	return tx.QueryRow(ctx, `
		INSERT INTO quality_inspections (equipment_id, product_code, inspected_at, sample_size, defects_found)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`,
		inspection.EquipmentID,
		inspection.ProductCode,
		inspection.InspectedAt.UTC(),
		inspection.SampleSize,
		inspection.DefectsFound,
	).Scan(&inspection.ID, &inspection.CreatedAt)
}

func (r *QualityRepository) ListWithinPeriod(ctx context.Context, equipmentID uuid.UUID, from, to time.Time) ([]*facts.QualityInspection, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, equipment_id, product_code, inspected_at, sample_size, defects_found, created_at
		FROM quality_inspections
		WHERE equipment_id = $1 AND inspected_at >= $2 AND inspected_at < $3
		ORDER BY inspected_at
	`, equipmentID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*facts.QualityInspection
	for rows.Next() {
		var row models.QualityInspection
		if err := rows.Scan(
			&row.ID,
			&row.EquipmentID,
			&row.ProductCode,
			&row.InspectedAt,
			&row.SampleSize,
			&row.DefectsFound,
			&row.CreatedAt,
		); err != nil {
			return nil, err
		}
		inspection, err := toDomainInspection(&row)
		if err != nil {
			return nil, err
		}
		results = append(results, inspection)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *QualityRepository) FirstPassYield(ctx context.Context, from, to time.Time) (map[uuid.UUID]decimal.Decimal, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT equipment_id,
		       ROUND(1 - SUM(defects_found)::numeric / NULLIF(SUM(sample_size), 0), 6)
		FROM quality_inspections
		WHERE inspected_at >= $1 AND inspected_at < $2
		GROUP BY equipment_id
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	yields := make(map[uuid.UUID]decimal.Decimal)
	for rows.Next() {
		var equipmentID uuid.UUID
		var y *decimal.Decimal
		if err := rows.Scan(&equipmentID, &y); err != nil {
			return nil, err
		}
		if y != nil {
			yields[equipmentID] = *y
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return yields, nil
}
