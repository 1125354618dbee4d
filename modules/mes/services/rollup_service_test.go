package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/mes/modules/mes/domain/hierarchy"
	"github.com/iota-uz/mes/modules/mes/domain/kpisummary"
	"github.com/iota-uz/mes/modules/mes/domain/oee"
	"github.com/iota-uz/mes/modules/mes/domain/reliability"
)

type testTree struct {
	enterprise *hierarchy.Node
	site       *hierarchy.Node
	area       *hierarchy.Node
	workCenter *hierarchy.Node
	equipment  []*hierarchy.Node
	nodes      []*hierarchy.Node
}

func buildTestTree(equipmentCount int) *testTree {
	ct := decimal.NewFromInt(20)
	tree := &testTree{}
	tree.enterprise = &hierarchy.Node{ID: uuid.New(), Level: hierarchy.LevelEnterprise, Code: "ENT"}
	tree.site = &hierarchy.Node{ID: uuid.New(), Level: hierarchy.LevelSite, ParentID: &tree.enterprise.ID, Code: "SITE"}
	tree.area = &hierarchy.Node{ID: uuid.New(), Level: hierarchy.LevelArea, ParentID: &tree.site.ID, Code: "AREA"}
	tree.workCenter = &hierarchy.Node{ID: uuid.New(), Level: hierarchy.LevelWorkCenter, ParentID: &tree.area.ID, Code: "WC"}
	tree.nodes = []*hierarchy.Node{tree.enterprise, tree.site, tree.area, tree.workCenter}
	for i := 0; i < equipmentCount; i++ {
		node := &hierarchy.Node{
			ID:                       uuid.New(),
			Level:                    hierarchy.LevelEquipment,
			ParentID:                 &tree.workCenter.ID,
			StandardCycleTimeSeconds: &ct,
		}
		tree.equipment = append(tree.equipment, node)
		tree.nodes = append(tree.nodes, node)
	}
	return tree
}

func dailyRecord(equipmentID uuid.UUID, day time.Time, a, p, q string) *oee.DailyRecord {
	av, _ := decimal.NewFromString(a)
	pf, _ := decimal.NewFromString(p)
	qu, _ := decimal.NewFromString(q)
	return &oee.DailyRecord{
		EquipmentID:  equipmentID,
		Day:          day,
		Availability: av,
		Performance:  pf,
		Quality:      qu,
		OEE:          av.Mul(pf).Mul(qu).Round(oee.Scale),
	}
}

func TestRollupSimpleMean(t *testing.T) {
	ctx := txContext()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tree := buildTestTree(2)

	// Two machines with OEE 0.7 and 0.8; every ancestor reports 0.75.
	records := []*oee.DailyRecord{
		dailyRecord(tree.equipment[0].ID, day, "1", "1", "0.7"),
		dailyRecord(tree.equipment[1].ID, day, "1", "1", "0.8"),
	}

	repo := newFakeKPIRepo()
	svc := NewRollupService(repo, 4)
	summaries, err := svc.Rollup(ctx, &RollupInput{
		Version:      1,
		Period:       day,
		Nodes:        tree.nodes,
		DailyRecords: records,
		Production:   map[uuid.UUID]int64{tree.equipment[0].ID: 700, tree.equipment[1].ID: 800},
		Defects:      map[uuid.UUID]int64{tree.equipment[0].ID: 210, tree.equipment[1].ID: 160},
	})
	require.NoError(t, err)
	// 4 ancestors + 2 leaves.
	require.Len(t, summaries, 6)

	byNode := map[uuid.UUID]*kpisummary.Summary{}
	for _, s := range summaries {
		byNode[s.NodeID] = s
	}

	for _, ancestor := range []*hierarchy.Node{tree.enterprise, tree.site, tree.area, tree.workCenter} {
		summary, ok := byNode[ancestor.ID]
		require.True(t, ok, "missing summary for level %s", ancestor.Level)
		assert.Equal(t, "0.75", summary.OEE.String(), "level %s", ancestor.Level)
	}

	workCenter := byNode[tree.workCenter.ID]
	assert.Equal(t, 2, workCenter.ReportingChildren)
	assert.Equal(t, int64(1500), workCenter.TotalProduction)
	assert.Equal(t, int64(370), workCenter.TotalDefects)

	// Upper levels each have exactly one reporting child.
	assert.Equal(t, 1, byNode[tree.enterprise.ID].ReportingChildren)
	assert.Equal(t, int64(1500), byNode[tree.enterprise.ID].TotalProduction)
}

func TestRollupAbsencePropagates(t *testing.T) {
	ctx := txContext()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tree := buildTestTree(2)

	svc := NewRollupService(newFakeKPIRepo(), 4)
	summaries, err := svc.Rollup(ctx, &RollupInput{
		Version: 1,
		Period:  day,
		Nodes:   tree.nodes,
	})
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestRollupIgnoresSilentSibling(t *testing.T) {
	ctx := txContext()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tree := buildTestTree(3)

	// Only two of three machines reported; the mean divides by two.
	records := []*oee.DailyRecord{
		dailyRecord(tree.equipment[0].ID, day, "0.9", "1", "1"),
		dailyRecord(tree.equipment[1].ID, day, "0.7", "1", "1"),
	}

	repo := newFakeKPIRepo()
	svc := NewRollupService(repo, 4)
	summaries, err := svc.Rollup(ctx, &RollupInput{
		Version:      1,
		Period:       day,
		Nodes:        tree.nodes,
		DailyRecords: records,
		Production:   map[uuid.UUID]int64{},
		Defects:      map[uuid.UUID]int64{},
	})
	require.NoError(t, err)

	var workCenter *kpisummary.Summary
	for _, s := range summaries {
		if s.NodeID == tree.workCenter.ID {
			workCenter = s
		}
	}
	require.NotNil(t, workCenter)
	assert.Equal(t, 2, workCenter.ReportingChildren)
	assert.Equal(t, "0.8", workCenter.Availability.String())
}

func TestRollupReliabilityMeans(t *testing.T) {
	ctx := txContext()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tree := buildTestTree(2)

	records := []*oee.DailyRecord{
		dailyRecord(tree.equipment[0].ID, day, "1", "1", "1"),
		dailyRecord(tree.equipment[1].ID, day, "1", "1", "1"),
	}
	mtbf0 := decimal.NewFromInt(100)
	mttr0 := decimal.NewFromInt(2)
	rel := []*reliability.Summary{
		{EquipmentID: tree.equipment[0].ID, MTBFHours: &mtbf0, MTTRHours: &mttr0, FailureCount: 1},
		// Second machine had no failures: nil means, excluded from the mean.
		{EquipmentID: tree.equipment[1].ID, FailureCount: 0},
	}

	svc := NewRollupService(newFakeKPIRepo(), 4)
	summaries, err := svc.Rollup(ctx, &RollupInput{
		Version:      1,
		Period:       day,
		Nodes:        tree.nodes,
		DailyRecords: records,
		Reliability:  rel,
		Production:   map[uuid.UUID]int64{},
		Defects:      map[uuid.UUID]int64{},
	})
	require.NoError(t, err)

	for _, s := range summaries {
		if s.NodeID != tree.workCenter.ID {
			continue
		}
		require.NotNil(t, s.MTBFHours)
		assert.Equal(t, "100", s.MTBFHours.String())
		require.NotNil(t, s.MTTRHours)
		assert.Equal(t, "2", s.MTTRHours.String())
	}
}
