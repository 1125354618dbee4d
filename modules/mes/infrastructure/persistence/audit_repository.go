package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iota-uz/mes/modules/mes/domain/audit"
	"github.com/iota-uz/mes/modules/mes/infrastructure/persistence/models"
	"github.com/iota-uz/mes/pkg/composables"
	"github.com/iota-uz/mes/pkg/repo"
)

type AuditRepository struct{}

func NewAuditRepository() audit.Repository {
	return &AuditRepository{}
}

func (r *AuditRepository) Create(ctx context.Context, record *audit.Record) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	var before, after interface{}
	if len(record.Before) > 0 {
		before = []byte(record.Before)
	}
	if len(record.After) > 0 {
		after = []byte(record.After)
	}
	return tx.QueryRow(ctx, `
		INSERT INTO audit_records (actor, action, table_name, record_id, before_state, after_state, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		record.Actor,
		string(record.Action),
		string(record.Table),
		record.RecordID,
		before,
		after,
		record.OccurredAt.UTC(),
	).Scan(&record.ID)
}

func buildAuditFilters(params *audit.FindParams) ([]string, []interface{}) {
	where := []string{"1 = 1"}
	args := []interface{}{}
	if params == nil {
		return where, args
	}
	if params.Table != "" {
		args = append(args, string(params.Table))
		where = append(where, fmt.Sprintf("table_name = $%d", len(args)))
	}
	if params.Action != "" {
		args = append(args, string(params.Action))
		where = append(where, fmt.Sprintf("action = $%d", len(args)))
	}
	if params.Actor != "" {
		args = append(args, params.Actor)
		where = append(where, fmt.Sprintf("actor = $%d", len(args)))
	}
	if params.RecordID != nil {
		args = append(args, *params.RecordID)
		where = append(where, fmt.Sprintf("record_id = $%d", len(args)))
	}
	if params.From != nil {
		args = append(args, params.From.UTC())
		where = append(where, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if params.To != nil {
		args = append(args, params.To.UTC())
		where = append(where, fmt.Sprintf("occurred_at < $%d", len(args)))
	}
	return where, args
}

func (r *AuditRepository) List(ctx context.Context, params *audit.FindParams) ([]*audit.Record, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where, args := buildAuditFilters(params)
	query := `
		SELECT id, actor, action, table_name, record_id, before_state, after_state, occurred_at
		FROM audit_records
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY occurred_at DESC
	`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*audit.Record
	for rows.Next() {
		var row models.AuditRecord
		if err := rows.Scan(
			&row.ID,
			&row.Actor,
			&row.Action,
			&row.TableName,
			&row.RecordID,
			&row.BeforeState,
			&row.AfterState,
			&row.OccurredAt,
		); err != nil {
			return nil, err
		}
		record, err := toDomainAuditRecord(&row)
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

func (r *AuditRepository) Count(ctx context.Context, params *audit.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	where, args := buildAuditFilters(params)
	var count int64
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM audit_records
		WHERE `+strings.Join(where, " AND "),
		args...,
	).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM audit_records WHERE occurred_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
