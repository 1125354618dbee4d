package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/mes/modules/mes/domain/facts"
	"github.com/iota-uz/mes/modules/mes/infrastructure/persistence/models"
	"github.com/iota-uz/mes/pkg/composables"
)

type DowntimeRepository struct{}

func NewDowntimeRepository() facts.DowntimeRepository {
	return &DowntimeRepository{}
}

const downtimeEventColumns = `id, equipment_id, started_at, ended_at, reason_code, created_at`

func (r *DowntimeRepository) Create(ctx context.Context, event *facts.DowntimeEvent) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	return tx.QueryRow(ctx, `
		INSERT INTO downtime_events (equipment_id, started_at, ended_at, reason_code)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`,
		event.EquipmentID,
		event.StartedAt.UTC(),
		event.EndedAt.UTC(),
		event.ReasonCode,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *DowntimeRepository) GetByID(ctx context.Context, id uuid.UUID) (*facts.DowntimeEvent, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var row models.DowntimeEvent
	err = tx.QueryRow(ctx, `
		SELECT `+downtimeEventColumns+`
		FROM downtime_events
		WHERE id = $1
	`, id).Scan(
		&row.ID,
		&row.EquipmentID,
		&row.StartedAt,
		&row.EndedAt,
		&row.ReasonCode,
		&row.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomainDowntimeEvent(&row)
}

func (r *DowntimeRepository) UpdateReason(ctx context.Context, id uuid.UUID, reasonCode string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE downtime_events SET reason_code = $2 WHERE id = $1
	`, id, reasonCode)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *DowntimeRepository) ListWithinPeriod(ctx context.Context, equipmentID uuid.UUID, from, to time.Time) ([]*facts.DowntimeEvent, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+downtimeEventColumns+`
		FROM downtime_events
		WHERE equipment_id = $1 AND started_at >= $2 AND ended_at <= $3
		ORDER BY started_at
	`, equipmentID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*facts.DowntimeEvent
	for rows.Next() {
		var row models.DowntimeEvent
		if err := rows.Scan(
			&row.ID,
			&row.EquipmentID,
			&row.StartedAt,
			&row.EndedAt,
			&row.ReasonCode,
			&row.CreatedAt,
		); err != nil {
			return nil, err
		}
		event, err := toDomainDowntimeEvent(&row)
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

func (r *DowntimeRepository) ListFailuresWithinPeriod(ctx context.Context, from, to time.Time) ([]*facts.DowntimeEvent, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT e.id, e.equipment_id, e.started_at, e.ended_at, e.reason_code, e.created_at
		FROM downtime_events e
		JOIN downtime_reasons r ON r.code = e.reason_code
		WHERE r.failure AND e.started_at >= $1 AND e.ended_at <= $2
		ORDER BY e.equipment_id, e.started_at
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*facts.DowntimeEvent
	for rows.Next() {
		var row models.DowntimeEvent
		if err := rows.Scan(
			&row.ID,
			&row.EquipmentID,
			&row.StartedAt,
			&row.EndedAt,
			&row.ReasonCode,
			&row.CreatedAt,
		); err != nil {
			return nil, err
		}
		event, err := toDomainDowntimeEvent(&row)
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

func (r *DowntimeRepository) UnplannedAvailabilityMinutes(ctx context.Context, from, to time.Time) (map[uuid.UUID]decimal.Decimal, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT e.equipment_id,
		       ROUND(SUM(EXTRACT(EPOCH FROM e.ended_at - e.started_at)) / 60.0, 6)
		FROM downtime_events e
		JOIN downtime_reasons r ON r.code = e.reason_code
		WHERE NOT r.planned AND r.affects_availability
		  AND e.started_at >= $1 AND e.ended_at <= $2
		GROUP BY e.equipment_id
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	minutes := make(map[uuid.UUID]decimal.Decimal)
	for rows.Next() {
		var id uuid.UUID
		var m decimal.Decimal
		if err := rows.Scan(&id, &m); err != nil {
			return nil, err
		}
		minutes[id] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return minutes, nil
}

func (r *DowntimeRepository) HoursByReason(ctx context.Context, from, to time.Time) (map[string]decimal.Decimal, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT reason_code,
		       ROUND(SUM(EXTRACT(EPOCH FROM ended_at - started_at)) / 3600.0, 6)
		FROM downtime_events
		WHERE started_at >= $1 AND ended_at <= $2
		GROUP BY reason_code
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hours := make(map[string]decimal.Decimal)
	for rows.Next() {
		var code string
		var h decimal.Decimal
		if err := rows.Scan(&code, &h); err != nil {
			return nil, err
		}
		hours[code] = h
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return hours, nil
}

func (r *DowntimeRepository) GetReason(ctx context.Context, code string) (*facts.DowntimeReason, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var row models.DowntimeReason
	err = tx.QueryRow(ctx, `
		SELECT code, description, planned, affects_availability, affects_performance, affects_quality, failure
		FROM downtime_reasons
		WHERE code = $1
	`, code).Scan(
		&row.Code,
		&row.Description,
		&row.Planned,
		&row.AffectsAvailability,
		&row.AffectsPerformance,
		&row.AffectsQuality,
		&row.Failure,
	)
	if err == pgx.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomainReason(&row), nil
}

func (r *DowntimeRepository) ListReasons(ctx context.Context) ([]*facts.DowntimeReason, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT code, description, planned, affects_availability, affects_performance, affects_quality, failure
		FROM downtime_reasons
		ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*facts.DowntimeReason
	for rows.Next() {
		var row models.DowntimeReason
		if err := rows.Scan(
			&row.Code,
			&row.Description,
			&row.Planned,
			&row.AffectsAvailability,
			&row.AffectsPerformance,
			&row.AffectsQuality,
			&row.Failure,
		); err != nil {
			return nil, err
		}
		results = append(results, toDomainReason(&row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *DowntimeRepository) CreateReason(ctx context.Context, reason *facts.DowntimeReason) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO downtime_reasons (code, description, planned, affects_availability, affects_performance, affects_quality, failure)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO NOTHING
	`,
		reason.Code,
		reason.Description,
		reason.Planned,
		reason.AffectsAvailability,
		reason.AffectsPerformance,
		reason.AffectsQuality,
		reason.Failure,
	)
	return err
}
