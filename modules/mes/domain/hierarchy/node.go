package hierarchy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Level is the position of a node in the organizational tree. The tree is
// strict: every node except the enterprise root has exactly one parent at
// the next level up.
type Level string

const (
	LevelEnterprise Level = "enterprise"
	LevelSite       Level = "site"
	LevelArea       Level = "area"
	LevelWorkCenter Level = "work_center"
	LevelEquipment  Level = "equipment"
)

// Ordered from root to leaves.
var Levels = []Level{LevelEnterprise, LevelSite, LevelArea, LevelWorkCenter, LevelEquipment}

func (l Level) Valid() bool {
	for _, level := range Levels {
		if l == level {
			return true
		}
	}
	return false
}

// Child returns the level directly below l, or "" for equipment.
func (l Level) Child() Level {
	for i, level := range Levels[:len(Levels)-1] {
		if l == level {
			return Levels[i+1]
		}
	}
	return ""
}

// Parent returns the level directly above l, or "" for enterprise.
func (l Level) Parent() Level {
	for i, level := range Levels[1:] {
		if l == level {
			return Levels[i]
		}
	}
	return ""
}

type Node struct {
	ID       uuid.UUID
	Level    Level
	ParentID *uuid.UUID
	Code     string
	Name     string

	// Seconds of theoretical cycle time per unit. Set for equipment only;
	// drives the performance component of OEE.
	StandardCycleTimeSeconds *decimal.Decimal

	CommissionedAt time.Time
}

func (n *Node) IsLeaf() bool {
	return n.Level == LevelEquipment
}

type FindParams struct {
	Level    Level
	ParentID *uuid.UUID
	Limit    int
	Offset   int
}

type Repository interface {
	Create(ctx context.Context, node *Node) error
	GetByID(ctx context.Context, id uuid.UUID) (*Node, error)
	List(ctx context.Context, params *FindParams) ([]*Node, error)
	// All returns every node; the rollup engine builds its dependency
	// graph from a single read.
	All(ctx context.Context) ([]*Node, error)
}
