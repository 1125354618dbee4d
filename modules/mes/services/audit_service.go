package services

import (
	"context"

	"github.com/wI2L/jsondiff"

	"github.com/iota-uz/mes/modules/mes/domain/audit"
)

type AuditService struct {
	repo audit.Repository
}

func NewAuditService(repo audit.Repository) *AuditService {
	return &AuditService{repo: repo}
}

func (s *AuditService) List(ctx context.Context, params *audit.FindParams) ([]*audit.Record, error) {
	return s.repo.List(ctx, params)
}

func (s *AuditService) Count(ctx context.Context, params *audit.FindParams) (int64, error) {
	return s.repo.Count(ctx, params)
}

// Diff renders one record's before/after as a JSON patch, so reviewers see
// the changed fields instead of two full documents. Inserts and deletes
// have only one side and yield no patch.
func (s *AuditService) Diff(record *audit.Record) (jsondiff.Patch, error) {
	if record.Action != audit.ActionUpdate || record.Before == nil || record.After == nil {
		return nil, nil
	}
	return jsondiff.CompareJSON(record.Before, record.After)
}
