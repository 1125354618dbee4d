package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/mes/modules/mes/domain/kpisummary"
	"github.com/iota-uz/mes/modules/mes/infrastructure/persistence/models"
	"github.com/iota-uz/mes/pkg/composables"
	"github.com/iota-uz/mes/pkg/repo"
)

type KPIRepository struct{}

func NewKPIRepository() kpisummary.Repository {
	return &KPIRepository{}
}

const kpiColumns = `node_id, level, period, availability, performance, quality, oee, total_production, total_defects, mtbf_hours, mttr_hours, reporting_children, snapshot_version`

func (r *KPIRepository) Upsert(ctx context.Context, summaries []*kpisummary.Summary) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	for _, s := range summaries {
		_, err := tx.Exec(ctx, `
			INSERT INTO kpi_summaries (`+kpiColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (node_id, period, snapshot_version) DO UPDATE SET
				level = EXCLUDED.level,
				availability = EXCLUDED.availability,
				performance = EXCLUDED.performance,
				quality = EXCLUDED.quality,
				oee = EXCLUDED.oee,
				total_production = EXCLUDED.total_production,
				total_defects = EXCLUDED.total_defects,
				mtbf_hours = EXCLUDED.mtbf_hours,
				mttr_hours = EXCLUDED.mttr_hours,
				reporting_children = EXCLUDED.reporting_children
		`,
			s.NodeID,
			string(s.Level),
			s.Period,
			s.Availability,
			s.Performance,
			s.Quality,
			s.OEE,
			s.TotalProduction,
			s.TotalDefects,
			s.MTBFHours,
			s.MTTRHours,
			s.ReportingChildren,
			s.SnapshotVersion,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *KPIRepository) ListPublished(ctx context.Context, params *kpisummary.FindParams) ([]*kpisummary.Summary, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where := []string{"sv.state = 'published'"}
	args := []interface{}{}
	if params != nil && params.NodeID != nil {
		args = append(args, *params.NodeID)
		where = append(where, fmt.Sprintf("s.node_id = $%d", len(args)))
	}
	if params != nil && params.Level != "" {
		args = append(args, string(params.Level))
		where = append(where, fmt.Sprintf("s.level = $%d", len(args)))
	}
	if params != nil && !params.From.IsZero() {
		args = append(args, params.From)
		where = append(where, fmt.Sprintf("s.period >= $%d", len(args)))
	}
	if params != nil && !params.To.IsZero() {
		args = append(args, params.To)
		where = append(where, fmt.Sprintf("s.period <= $%d", len(args)))
	}

	query := `
		SELECT s.node_id, s.level, s.period, s.availability, s.performance, s.quality, s.oee, s.total_production, s.total_defects, s.mtbf_hours, s.mttr_hours, s.reporting_children, s.snapshot_version
		FROM kpi_summaries s
		JOIN snapshot_versions sv ON sv.id = s.snapshot_version
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY s.period, s.level, s.node_id
	`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanKPISummaries(rows)
}

func (r *KPIRepository) ListForVersion(ctx context.Context, version int64, period time.Time) ([]*kpisummary.Summary, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+kpiColumns+`
		FROM kpi_summaries
		WHERE snapshot_version = $1 AND period = $2
		ORDER BY level, node_id
	`, version, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanKPISummaries(rows)
}

func scanKPISummaries(rows pgx.Rows) ([]*kpisummary.Summary, error) {
	var results []*kpisummary.Summary
	for rows.Next() {
		var row models.KPISummary
		if err := rows.Scan(
			&row.NodeID,
			&row.Level,
			&row.Period,
			&row.Availability,
			&row.Performance,
			&row.Quality,
			&row.OEE,
			&row.TotalProduction,
			&row.TotalDefects,
			&row.MTBFHours,
			&row.MTTRHours,
			&row.ReportingChildren,
			&row.SnapshotVersion,
		); err != nil {
			return nil, err
		}
		summary, err := toDomainKPISummary(&row)
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
