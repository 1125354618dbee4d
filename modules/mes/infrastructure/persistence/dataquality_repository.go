package persistence

import (
	"context"

	"github.com/iota-uz/mes/modules/mes/domain/dataquality"
	"github.com/iota-uz/mes/pkg/composables"
)

type DataQualityRepository struct{}

func NewDataQualityRepository() dataquality.Repository {
	return &DataQualityRepository{}
}

func (r *DataQualityRepository) Create(ctx context.Context, result *dataquality.Result) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	return tx.QueryRow(ctx, `
		INSERT INTO data_quality_checks (check_name, run_at, total_rows, failed_rows, score)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		result.CheckName,
		result.RunAt.UTC(),
		result.TotalRows,
		result.FailedRows,
		result.Score,
	).Scan(&result.ID)
}

func (r *DataQualityRepository) Latest(ctx context.Context) ([]*dataquality.Result, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT DISTINCT ON (check_name) id, check_name, run_at, total_rows, failed_rows, score
		FROM data_quality_checks
		ORDER BY check_name, run_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*dataquality.Result
	for rows.Next() {
		var result dataquality.Result
		if err := rows.Scan(
			&result.ID,
			&result.CheckName,
			&result.RunAt,
			&result.TotalRows,
			&result.FailedRows,
			&result.Score,
		); err != nil {
			return nil, err
		}
		results = append(results, &result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// CountOEEIdentityViolations samples published daily records whose stored OEE
// drifts from availability*performance*quality by more than one unit in the
// last stored decimal place.
func (r *DataQualityRepository) CountOEEIdentityViolations(ctx context.Context) (int64, int64, error) {
	return r.countProbe(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (
		           WHERE ABS(r.oee - ROUND(r.availability * r.performance * r.quality, 6)) > 0.000001
		       )
		FROM daily_oee_records r
		JOIN snapshot_versions sv ON sv.id = r.snapshot_version
		WHERE sv.state = 'published'
	`)
}

// CountMetricRangeViolations checks that every published ratio sits in [0,1].
func (r *DataQualityRepository) CountMetricRangeViolations(ctx context.Context) (int64, int64, error) {
	return r.countProbe(ctx, `
		SELECT SUM(total), SUM(failed) FROM (
			SELECT COUNT(*) AS total,
			       COUNT(*) FILTER (
			           WHERE r.availability NOT BETWEEN 0 AND 1
			              OR r.performance NOT BETWEEN 0 AND 1
			              OR r.quality NOT BETWEEN 0 AND 1
			              OR r.oee NOT BETWEEN 0 AND 1
			       ) AS failed
			FROM daily_oee_records r
			JOIN snapshot_versions sv ON sv.id = r.snapshot_version
			WHERE sv.state = 'published'
			UNION ALL
			SELECT COUNT(*),
			       COUNT(*) FILTER (
			           WHERE COALESCE(s.availability, 0) NOT BETWEEN 0 AND 1
			              OR COALESCE(s.performance, 0) NOT BETWEEN 0 AND 1
			              OR COALESCE(s.quality, 0) NOT BETWEEN 0 AND 1
			              OR COALESCE(s.oee, 0) NOT BETWEEN 0 AND 1
			       )
			FROM kpi_summaries s
			JOIN snapshot_versions sv ON sv.id = s.snapshot_version
			WHERE sv.state = 'published'
		) probes
	`)
}

// CountRollupPresenceViolations finds published non-leaf summaries that claim
// reporting children while no child summary exists for the same period and
// version.
func (r *DataQualityRepository) CountRollupPresenceViolations(ctx context.Context) (int64, int64, error) {
	return r.countProbe(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE NOT EXISTS (
		           SELECT 1
		           FROM kpi_summaries c
		           JOIN hierarchy_nodes n ON n.id = c.node_id
		           WHERE n.parent_id = s.node_id
		             AND c.period = s.period
		             AND c.snapshot_version = s.snapshot_version
		       ))
		FROM kpi_summaries s
		JOIN snapshot_versions sv ON sv.id = s.snapshot_version
		WHERE sv.state = 'published'
		  AND s.level <> 'equipment'
	`)
}

func (r *DataQualityRepository) countProbe(ctx context.Context, query string) (int64, int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, 0, err
	}

	var total, failed *int64
	if err := tx.QueryRow(ctx, query).Scan(&total, &failed); err != nil {
		return 0, 0, err
	}
	// SUM over an empty sample yields NULL.
	var t, f int64
	if total != nil {
		t = *total
	}
	if failed != nil {
		f = *failed
	}
	return t, f, nil
}
