package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/iota-uz/mes/modules/mes/domain/hierarchy"
	"github.com/iota-uz/mes/pkg/composables"
	"github.com/iota-uz/mes/pkg/eventbus"
	"github.com/iota-uz/mes/pkg/serrors"
)

var (
	errUnknownLevel     = serrors.NewError("MES_UNKNOWN_LEVEL", "unknown hierarchy level", "")
	errRootHasParent    = serrors.NewError("MES_INVALID_PARENT", "enterprise node must not have a parent", "")
	errMissingParent    = serrors.NewError("MES_INVALID_PARENT", "node requires a parent one level up", "")
	errWrongParentLevel = serrors.NewError("MES_INVALID_PARENT", "parent is at the wrong level", "")
	errBadCycleTime     = serrors.NewError("MES_INVALID_CYCLE_TIME", "equipment requires a positive standard cycle time", "")
	errCycleTimeOnGroup = serrors.NewError("MES_INVALID_CYCLE_TIME", "standard cycle time is only valid on equipment nodes", "")
)

type HierarchyService struct {
	repo      hierarchy.Repository
	publisher eventbus.EventBus
}

func NewHierarchyService(repo hierarchy.Repository, publisher eventbus.EventBus) *HierarchyService {
	return &HierarchyService{repo: repo, publisher: publisher}
}

// CreateNode enforces the strict-tree shape: the enterprise root has no
// parent, every other node has a parent exactly one level up.
func (s *HierarchyService) CreateNode(ctx context.Context, node *hierarchy.Node) error {
	if !node.Level.Valid() {
		return errUnknownLevel.WithDetails("got %q", node.Level)
	}
	if node.Level == hierarchy.LevelEnterprise {
		if node.ParentID != nil {
			return errRootHasParent
		}
	} else {
		if node.ParentID == nil {
			return errMissingParent.WithDetails("level %s", node.Level)
		}
		parent, err := s.repo.GetByID(ctx, *node.ParentID)
		if err != nil {
			return err
		}
		if parent.Level != node.Level.Parent() {
			return errWrongParentLevel.WithDetails("%s node needs a %s parent, got %s",
				node.Level, node.Level.Parent(), parent.Level)
		}
	}
	if node.Level == hierarchy.LevelEquipment {
		if node.StandardCycleTimeSeconds == nil || !node.StandardCycleTimeSeconds.IsPositive() {
			return errBadCycleTime
		}
	} else if node.StandardCycleTimeSeconds != nil {
		return errCycleTimeOnGroup
	}

	if err := composables.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.Create(txCtx, node)
	}); err != nil {
		return err
	}
	s.publisher.Publish(node)
	return nil
}

func (s *HierarchyService) GetByID(ctx context.Context, id uuid.UUID) (*hierarchy.Node, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *HierarchyService) List(ctx context.Context, params *hierarchy.FindParams) ([]*hierarchy.Node, error) {
	return s.repo.List(ctx, params)
}

func (s *HierarchyService) All(ctx context.Context) ([]*hierarchy.Node, error) {
	return s.repo.All(ctx)
}
