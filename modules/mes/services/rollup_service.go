package services

import (
	"context"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/mes/modules/mes/domain/hierarchy"
	"github.com/iota-uz/mes/modules/mes/domain/kpisummary"
	"github.com/iota-uz/mes/modules/mes/domain/oee"
	"github.com/iota-uz/mes/modules/mes/domain/reliability"
)

// RollupService folds leaf KPI summaries up the organizational tree one
// level at a time. A level is a barrier: every summary at level N is
// complete before any summary at level N-1 is computed, so a parent always
// sees its full set of reporting children.
//
// Parent ratios are the simple mean of the children that reported; children
// are deliberately not weighted by volume so a small line and a large line
// count equally in the site picture. Production counts are summed. A parent
// with zero reporting children has no summary; absence propagates upward.
type RollupService struct {
	repo kpisummary.Repository
	pool pond.ResultPool[*kpisummary.Summary]
}

func NewRollupService(repo kpisummary.Repository, workers int) *RollupService {
	return &RollupService{
		repo: repo,
		pool: pond.NewResultPool[*kpisummary.Summary](workers),
	}
}

// RollupInput is everything the engine needs for one period, read once
// before the fold starts.
type RollupInput struct {
	Version int64
	Period  time.Time

	Nodes        []*hierarchy.Node
	DailyRecords []*oee.DailyRecord
	Reliability  []*reliability.Summary

	// Per-equipment production and defect counts for the period.
	Production map[uuid.UUID]int64
	Defects    map[uuid.UUID]int64
}

func (s *RollupService) Rollup(ctx context.Context, input *RollupInput) ([]*kpisummary.Summary, error) {
	nodesByID := make(map[uuid.UUID]*hierarchy.Node, len(input.Nodes))
	childrenOf := make(map[uuid.UUID][]*hierarchy.Node)
	for _, node := range input.Nodes {
		nodesByID[node.ID] = node
		if node.ParentID != nil {
			childrenOf[*node.ParentID] = append(childrenOf[*node.ParentID], node)
		}
	}

	recordsByEquipment := make(map[uuid.UUID]*oee.DailyRecord, len(input.DailyRecords))
	for _, record := range input.DailyRecords {
		recordsByEquipment[record.EquipmentID] = record
	}
	reliabilityByEquipment := make(map[uuid.UUID]*reliability.Summary, len(input.Reliability))
	for _, summary := range input.Reliability {
		reliabilityByEquipment[summary.EquipmentID] = summary
	}

	byNode := make(map[uuid.UUID]*kpisummary.Summary)

	// Leaves first: an equipment reports iff it has a daily record.
	for _, node := range input.Nodes {
		if !node.IsLeaf() {
			continue
		}
		record, ok := recordsByEquipment[node.ID]
		if !ok {
			continue
		}
		summary := &kpisummary.Summary{
			NodeID:            node.ID,
			Level:             node.Level,
			Period:            input.Period,
			Availability:      record.Availability,
			Performance:       record.Performance,
			Quality:           record.Quality,
			OEE:               record.OEE,
			TotalProduction:   input.Production[node.ID],
			TotalDefects:      input.Defects[node.ID],
			ReportingChildren: 1,
			SnapshotVersion:   input.Version,
		}
		if r, ok := reliabilityByEquipment[node.ID]; ok {
			summary.MTBFHours = r.MTBFHours
			summary.MTTRHours = r.MTTRHours
		}
		byNode[node.ID] = summary
	}

	// Fold upward, one level per pass.
	for i := len(hierarchy.Levels) - 2; i >= 0; i-- {
		level := hierarchy.Levels[i]
		group := s.pool.NewGroupContext(ctx)
		for _, node := range input.Nodes {
			if node.Level != level {
				continue
			}
			node := node
			group.SubmitErr(func() (*kpisummary.Summary, error) {
				return aggregateChildren(node, childrenOf[node.ID], byNode, input), nil
			})
		}
		results, err := group.Wait()
		if err != nil {
			return nil, err
		}
		for _, summary := range results {
			if summary != nil {
				byNode[summary.NodeID] = summary
			}
		}
	}

	summaries := make([]*kpisummary.Summary, 0, len(byNode))
	for _, node := range input.Nodes {
		if summary, ok := byNode[node.ID]; ok {
			summaries = append(summaries, summary)
		}
	}
	if len(summaries) == 0 {
		return nil, nil
	}
	if err := s.repo.Upsert(ctx, summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// aggregateChildren builds one parent summary from its direct children, or
// nil when none of them reported.
func aggregateChildren(
	node *hierarchy.Node,
	children []*hierarchy.Node,
	byNode map[uuid.UUID]*kpisummary.Summary,
	input *RollupInput,
) *kpisummary.Summary {
	var (
		reporting            int
		a, p, q, o           decimal.Decimal
		production, defects  int64
		mtbfSum, mttrSum     decimal.Decimal
		mtbfCount, mttrCount int64
	)
	for _, child := range children {
		childSummary, ok := byNode[child.ID]
		if !ok {
			continue
		}
		reporting++
		a = a.Add(childSummary.Availability)
		p = p.Add(childSummary.Performance)
		q = q.Add(childSummary.Quality)
		o = o.Add(childSummary.OEE)
		production += childSummary.TotalProduction
		defects += childSummary.TotalDefects
		if childSummary.MTBFHours != nil {
			mtbfSum = mtbfSum.Add(*childSummary.MTBFHours)
			mtbfCount++
		}
		if childSummary.MTTRHours != nil {
			mttrSum = mttrSum.Add(*childSummary.MTTRHours)
			mttrCount++
		}
	}
	if reporting == 0 {
		return nil
	}

	n := decimal.NewFromInt(int64(reporting))
	summary := &kpisummary.Summary{
		NodeID:            node.ID,
		Level:             node.Level,
		Period:            input.Period,
		Availability:      a.Div(n).Round(oee.Scale),
		Performance:       p.Div(n).Round(oee.Scale),
		Quality:           q.Div(n).Round(oee.Scale),
		OEE:               o.Div(n).Round(oee.Scale),
		TotalProduction:   production,
		TotalDefects:      defects,
		ReportingChildren: reporting,
		SnapshotVersion:   input.Version,
	}
	if mtbfCount > 0 {
		mtbf := mtbfSum.Div(decimal.NewFromInt(mtbfCount)).Round(oee.Scale)
		summary.MTBFHours = &mtbf
	}
	if mttrCount > 0 {
		mttr := mttrSum.Div(decimal.NewFromInt(mttrCount)).Round(oee.Scale)
		summary.MTTRHours = &mttr
	}
	return summary
}

func (s *RollupService) ListPublished(ctx context.Context, params *kpisummary.FindParams) ([]*kpisummary.Summary, error) {
	return s.repo.ListPublished(ctx, params)
}
