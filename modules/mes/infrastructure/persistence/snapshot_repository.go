package persistence

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/mes/modules/mes/domain/snapshot"
	"github.com/iota-uz/mes/pkg/composables"
)

type SnapshotRepository struct{}

func NewSnapshotRepository() snapshot.Repository {
	return &SnapshotRepository{}
}

// AcquireLease uses a transaction-scoped advisory lock keyed by the period,
// so the lease is released automatically on commit or rollback.
func (r *SnapshotRepository) AcquireLease(ctx context.Context, period time.Time) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	var acquired bool
	err = tx.QueryRow(ctx, `
		SELECT pg_try_advisory_xact_lock(hashtext('mes_cycle_' || $1::text))
	`, period.Format("2006-01-02")).Scan(&acquired)
	if err != nil {
		return err
	}
	if !acquired {
		return snapshot.ErrCycleInFlight
	}
	return nil
}

func (r *SnapshotRepository) Begin(ctx context.Context, period time.Time) (*snapshot.Version, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	v := &snapshot.Version{Period: period, State: snapshot.StateComputing}
	err = tx.QueryRow(ctx, `
		INSERT INTO snapshot_versions (period, state)
		VALUES ($1, 'computing')
		RETURNING id, started_at
	`, period).Scan(&v.ID, &v.StartedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *SnapshotRepository) Publish(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	// Demote the currently published version for the same period first so
	// the partial unique index never sees two published rows.
	_, err = tx.Exec(ctx, `
		UPDATE snapshot_versions SET state = 'discarded'
		WHERE state = 'published'
		  AND period = (SELECT period FROM snapshot_versions WHERE id = $1)
	`, id)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE snapshot_versions SET state = 'published', published_at = now()
		WHERE id = $1 AND state = 'computing'
	`, id)
	return err
}

func (r *SnapshotRepository) Discard(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE snapshot_versions SET state = 'discarded' WHERE id = $1
	`, id)
	return err
}

func (r *SnapshotRepository) PublishedForPeriod(ctx context.Context, period time.Time) (*snapshot.Version, error) {
	return r.getOne(ctx, `
		SELECT id, period, state, started_at, published_at
		FROM snapshot_versions
		WHERE period = $1 AND state = 'published'
	`, period)
}

func (r *SnapshotRepository) Latest(ctx context.Context) (*snapshot.Version, error) {
	return r.getOne(ctx, `
		SELECT id, period, state, started_at, published_at
		FROM snapshot_versions
		WHERE state = 'published'
		ORDER BY period DESC, id DESC
		LIMIT 1
	`)
}

func (r *SnapshotRepository) getOne(ctx context.Context, query string, args ...interface{}) (*snapshot.Version, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var v snapshot.Version
	var state string
	err = tx.QueryRow(ctx, query, args...).Scan(&v.ID, &v.Period, &state, &v.StartedAt, &v.PublishedAt)
	if err == pgx.ErrNoRows {
		return nil, snapshot.ErrNoPublished
	}
	if err != nil {
		return nil, err
	}
	v.State = snapshot.State(state)
	return &v, nil
}

// PruneDiscarded removes derived rows belonging to discarded versions,
// keeping the most recent `keep` of them per period for post-mortems.
func (r *SnapshotRepository) PruneDiscarded(ctx context.Context, keep int) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id FROM snapshot_versions sv
		WHERE state = 'discarded'
		  AND id NOT IN (
			SELECT id FROM snapshot_versions
			WHERE state = 'discarded' AND period = sv.period
			ORDER BY id DESC
			LIMIT $1
		  )
	`, keep)
	if err != nil {
		return 0, err
	}
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var pruned int64
	for _, table := range []string{"daily_oee_records", "reliability_summaries", "kpi_summaries"} {
		tag, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE snapshot_version = ANY($1)`, ids)
		if err != nil {
			return pruned, err
		}
		pruned += tag.RowsAffected()
	}
	if _, err := tx.Exec(ctx, `DELETE FROM snapshot_versions WHERE id = ANY($1)`, ids); err != nil {
		return pruned, err
	}
	return pruned, nil
}
