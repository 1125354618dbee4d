package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/mes/modules/mes/domain/oee"
	"github.com/iota-uz/mes/modules/mes/infrastructure/persistence/models"
	"github.com/iota-uz/mes/pkg/composables"
	"github.com/iota-uz/mes/pkg/repo"
)

type OEERepository struct{}

func NewOEERepository() oee.Repository {
	return &OEERepository{}
}

func (r *OEERepository) Upsert(ctx context.Context, records []*oee.DailyRecord) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	for _, record := range records {
		_, err := tx.Exec(ctx, `
			INSERT INTO daily_oee_records (equipment_id, day, availability, performance, quality, oee, snapshot_version)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (equipment_id, day, snapshot_version) DO UPDATE SET
				availability = EXCLUDED.availability,
				performance = EXCLUDED.performance,
				quality = EXCLUDED.quality,
				oee = EXCLUDED.oee
		`,
			record.EquipmentID,
			record.Day,
			record.Availability,
			record.Performance,
			record.Quality,
			record.OEE,
			record.SnapshotVersion,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *OEERepository) ListPublished(ctx context.Context, params *oee.FindParams) ([]*oee.DailyRecord, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where := []string{"sv.state = 'published'"}
	args := []interface{}{}
	if params != nil && params.EquipmentID != nil {
		args = append(args, *params.EquipmentID)
		where = append(where, fmt.Sprintf("r.equipment_id = $%d", len(args)))
	}
	if params != nil && !params.From.IsZero() {
		args = append(args, params.From)
		where = append(where, fmt.Sprintf("r.day >= $%d", len(args)))
	}
	if params != nil && !params.To.IsZero() {
		args = append(args, params.To)
		where = append(where, fmt.Sprintf("r.day <= $%d", len(args)))
	}

	query := `
		SELECT r.equipment_id, r.day, r.availability, r.performance, r.quality, r.oee, r.snapshot_version
		FROM daily_oee_records r
		JOIN snapshot_versions sv ON sv.id = r.snapshot_version
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY r.day, r.equipment_id
	`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDailyRecords(rows)
}

func (r *OEERepository) ListForVersion(ctx context.Context, version int64, day time.Time) ([]*oee.DailyRecord, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT equipment_id, day, availability, performance, quality, oee, snapshot_version
		FROM daily_oee_records
		WHERE snapshot_version = $1 AND day = $2
		ORDER BY equipment_id
	`, version, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDailyRecords(rows)
}

func scanDailyRecords(rows pgx.Rows) ([]*oee.DailyRecord, error) {
	var results []*oee.DailyRecord
	for rows.Next() {
		var row models.DailyOEERecord
		if err := rows.Scan(
			&row.EquipmentID,
			&row.Day,
			&row.Availability,
			&row.Performance,
			&row.Quality,
			&row.OEE,
			&row.SnapshotVersion,
		); err != nil {
			return nil, err
		}
		record, err := toDomainDailyRecord(&row)
		if err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
