package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/iota-uz/mes/modules/mes/domain/hierarchy"
	"github.com/iota-uz/mes/modules/mes/infrastructure/persistence/models"
	"github.com/iota-uz/mes/pkg/composables"
	"github.com/iota-uz/mes/pkg/repo"
)

var ErrNodeNotFound = errors.New("hierarchy node not found")

type HierarchyRepository struct{}

func NewHierarchyRepository() hierarchy.Repository {
	return &HierarchyRepository{}
}

const hierarchyNodeColumns = `id, level, parent_id, code, name, standard_cycle_time_seconds, commissioned_at`

func (r *HierarchyRepository) Create(ctx context.Context, node *hierarchy.Node) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	var parentID *string
	if node.ParentID != nil {
		s := node.ParentID.String()
		parentID = &s
	}
	return tx.QueryRow(ctx, `
		INSERT INTO hierarchy_nodes (level, parent_id, code, name, standard_cycle_time_seconds)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, commissioned_at
	`,
		string(node.Level),
		parentID,
		node.Code,
		node.Name,
		node.StandardCycleTimeSeconds,
	).Scan(&node.ID, &node.CommissionedAt)
}

func (r *HierarchyRepository) GetByID(ctx context.Context, id uuid.UUID) (*hierarchy.Node, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var row models.HierarchyNode
	err = tx.QueryRow(ctx, `
		SELECT `+hierarchyNodeColumns+`
		FROM hierarchy_nodes
		WHERE id = $1
	`, id).Scan(
		&row.ID,
		&row.Level,
		&row.ParentID,
		&row.Code,
		&row.Name,
		&row.StandardCycleTimeSeconds,
		&row.CommissionedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, ErrNodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomainNode(&row)
}

func (r *HierarchyRepository) List(ctx context.Context, params *hierarchy.FindParams) ([]*hierarchy.Node, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where := []string{"1 = 1"}
	args := []interface{}{}
	if params != nil && params.Level != "" {
		args = append(args, string(params.Level))
		where = append(where, fmt.Sprintf("level = $%d", len(args)))
	}
	if params != nil && params.ParentID != nil {
		args = append(args, *params.ParentID)
		where = append(where, fmt.Sprintf("parent_id = $%d", len(args)))
	}
	query := `
		SELECT ` + hierarchyNodeColumns + `
		FROM hierarchy_nodes
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY code
	`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNodes(rows)
}

func (r *HierarchyRepository) All(ctx context.Context) ([]*hierarchy.Node, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+hierarchyNodeColumns+`
		FROM hierarchy_nodes
		ORDER BY level, code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNodes(rows)
}

func scanNodes(rows pgx.Rows) ([]*hierarchy.Node, error) {
	var results []*hierarchy.Node
	for rows.Next() {
		var row models.HierarchyNode
		if err := rows.Scan(
			&row.ID,
			&row.Level,
			&row.ParentID,
			&row.Code,
			&row.Name,
			&row.StandardCycleTimeSeconds,
			&row.CommissionedAt,
		); err != nil {
			return nil, err
		}
		node, err := toDomainNode(&row)
		if err != nil {
			return nil, err
		}
		results = append(results, node)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
