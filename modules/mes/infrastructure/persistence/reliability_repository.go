package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/mes/modules/mes/domain/reliability"
	"github.com/iota-uz/mes/modules/mes/infrastructure/persistence/models"
	"github.com/iota-uz/mes/pkg/composables"
	"github.com/iota-uz/mes/pkg/repo"
)

type ReliabilityRepository struct{}

func NewReliabilityRepository() reliability.Repository {
	return &ReliabilityRepository{}
}

const reliabilityColumns = `equipment_id, period_end, window_days, failure_count, operating_hours, downtime_hours, mtbf_hours, mttr_hours, snapshot_version`

func (r *ReliabilityRepository) Upsert(ctx context.Context, summaries []*reliability.Summary) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	for _, s := range summaries {
		_, err := tx.Exec(ctx, `
			INSERT INTO reliability_summaries (`+reliabilityColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (equipment_id, period_end, window_days, snapshot_version) DO UPDATE SET
				failure_count = EXCLUDED.failure_count,
				operating_hours = EXCLUDED.operating_hours,
				downtime_hours = EXCLUDED.downtime_hours,
				mtbf_hours = EXCLUDED.mtbf_hours,
				mttr_hours = EXCLUDED.mttr_hours
		`,
			s.EquipmentID,
			s.PeriodEnd,
			s.WindowDays,
			s.FailureCount,
			s.OperatingHours,
			s.DowntimeHours,
			s.MTBFHours,
			s.MTTRHours,
			s.SnapshotVersion,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ReliabilityRepository) ListPublished(ctx context.Context, params *reliability.FindParams) ([]*reliability.Summary, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where := []string{"sv.state = 'published'"}
	args := []interface{}{}
	if params != nil && params.EquipmentID != nil {
		args = append(args, *params.EquipmentID)
		where = append(where, fmt.Sprintf("s.equipment_id = $%d", len(args)))
	}
	if params != nil && !params.From.IsZero() {
		args = append(args, params.From)
		where = append(where, fmt.Sprintf("s.period_end >= $%d", len(args)))
	}
	if params != nil && !params.To.IsZero() {
		args = append(args, params.To)
		where = append(where, fmt.Sprintf("s.period_end <= $%d", len(args)))
	}

	query := `
		SELECT s.equipment_id, s.period_end, s.window_days, s.failure_count, s.operating_hours, s.downtime_hours, s.mtbf_hours, s.mttr_hours, s.snapshot_version
		FROM reliability_summaries s
		JOIN snapshot_versions sv ON sv.id = s.snapshot_version
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY s.period_end, s.equipment_id
	`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReliabilitySummaries(rows)
}

func (r *ReliabilityRepository) ListForVersion(ctx context.Context, version int64, periodEnd time.Time) ([]*reliability.Summary, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+reliabilityColumns+`
		FROM reliability_summaries
		WHERE snapshot_version = $1 AND period_end = $2
		ORDER BY equipment_id
	`, version, periodEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReliabilitySummaries(rows)
}

func scanReliabilitySummaries(rows pgx.Rows) ([]*reliability.Summary, error) {
	var results []*reliability.Summary
	for rows.Next() {
		var row models.ReliabilitySummary
		if err := rows.Scan(
			&row.EquipmentID,
			&row.PeriodEnd,
			&row.WindowDays,
			&row.FailureCount,
			&row.OperatingHours,
			&row.DowntimeHours,
			&row.MTBFHours,
			&row.MTTRHours,
			&row.SnapshotVersion,
		); err != nil {
			return nil, err
		}
		summary, err := toDomainReliabilitySummary(&row)
		if err != nil {
			return nil, err
		}
		results = append(results, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
