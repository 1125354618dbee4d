package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/mes/modules/mes/domain/audit"
	"github.com/iota-uz/mes/modules/mes/domain/facts"
	"github.com/iota-uz/mes/modules/mes/domain/hierarchy"
	"github.com/iota-uz/mes/modules/mes/domain/kpisummary"
	"github.com/iota-uz/mes/modules/mes/domain/oee"
	"github.com/iota-uz/mes/modules/mes/domain/partition"
	"github.com/iota-uz/mes/modules/mes/domain/reliability"
	"github.com/iota-uz/mes/modules/mes/domain/snapshot"
	"github.com/iota-uz/mes/modules/mes/infrastructure/persistence"
	"github.com/iota-uz/mes/pkg/constants"
)

var (
	errNotFound      = persistence.ErrNodeNotFound
	errEventNotFound = persistence.ErrEventNotFound
)

// txContext marks the context as already transactional so service-level
// tests run against in-memory fakes without a database pool.
func txContext() context.Context {
	return context.WithValue(context.Background(), constants.TxKey, struct{}{})
}

type fakeHierarchyRepo struct {
	mu    sync.Mutex
	nodes map[uuid.UUID]*hierarchy.Node
}

func newFakeHierarchyRepo() *fakeHierarchyRepo {
	return &fakeHierarchyRepo{nodes: map[uuid.UUID]*hierarchy.Node{}}
}

func (r *fakeHierarchyRepo) Create(_ context.Context, node *hierarchy.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if node.ID == uuid.Nil {
		node.ID = uuid.New()
	}
	r.nodes[node.ID] = node
	return nil
}

func (r *fakeHierarchyRepo) GetByID(_ context.Context, id uuid.UUID) (*hierarchy.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	node, ok := r.nodes[id]
	if !ok {
		return nil, errNotFound
	}
	return node, nil
}

func (r *fakeHierarchyRepo) List(_ context.Context, params *hierarchy.FindParams) ([]*hierarchy.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*hierarchy.Node
	for _, node := range r.nodes {
		if params != nil && params.Level != "" && node.Level != params.Level {
			continue
		}
		out = append(out, node)
	}
	return out, nil
}

func (r *fakeHierarchyRepo) All(_ context.Context) ([]*hierarchy.Node, error) {
	return r.List(nil, nil)
}

type fakeProductionRepo struct {
	events []*facts.ProductionEvent
}

func (r *fakeProductionRepo) Create(_ context.Context, event *facts.ProductionEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	r.events = append(r.events, event)
	return nil
}

func (r *fakeProductionRepo) GetByID(_ context.Context, id uuid.UUID) (*facts.ProductionEvent, error) {
	for _, event := range r.events {
		if event.ID == id {
			return event, nil
		}
	}
	return nil, errEventNotFound
}

func (r *fakeProductionRepo) ListWithinPeriod(_ context.Context, equipmentID uuid.UUID, from, to time.Time) ([]*facts.ProductionEvent, error) {
	var out []*facts.ProductionEvent
	for _, event := range r.events {
		if event.EquipmentID == equipmentID && !event.StartedAt.Before(from) && !event.EndedAt.After(to) {
			out = append(out, event)
		}
	}
	return out, nil
}

func (r *fakeProductionRepo) TotalsWithinPeriod(_ context.Context, from, to time.Time) (map[uuid.UUID]facts.ProductionTotals, error) {
	totals := map[uuid.UUID]facts.ProductionTotals{}
	for _, event := range r.events {
		if event.StartedAt.Before(from) || event.EndedAt.After(to) {
			continue
		}
		t := totals[event.EquipmentID]
		t.PlannedMinutes = t.PlannedMinutes.Add(event.PlannedMinutes)
		t.OperatingMinutes = t.OperatingMinutes.Add(event.OperatingMinutes)
		t.TotalProduced += event.TotalProduced
		t.Good += event.Good
		t.Scrap += event.Scrap
		t.Rework += event.Rework
		totals[event.EquipmentID] = t
	}
	return totals, nil
}

type fakeDowntimeRepo struct {
	events  []*facts.DowntimeEvent
	reasons map[string]*facts.DowntimeReason
}

func newFakeDowntimeRepo() *fakeDowntimeRepo {
	return &fakeDowntimeRepo{reasons: map[string]*facts.DowntimeReason{}}
}

func (r *fakeDowntimeRepo) Create(_ context.Context, event *facts.DowntimeEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	r.events = append(r.events, event)
	return nil
}

func (r *fakeDowntimeRepo) GetByID(_ context.Context, id uuid.UUID) (*facts.DowntimeEvent, error) {
	for _, event := range r.events {
		if event.ID == id {
			return event, nil
		}
	}
	return nil, errEventNotFound
}

func (r *fakeDowntimeRepo) UpdateReason(_ context.Context, id uuid.UUID, reasonCode string) error {
	for _, event := range r.events {
		if event.ID == id {
			event.ReasonCode = reasonCode
			return nil
		}
	}
	return errEventNotFound
}

func (r *fakeDowntimeRepo) ListWithinPeriod(_ context.Context, equipmentID uuid.UUID, from, to time.Time) ([]*facts.DowntimeEvent, error) {
	var out []*facts.DowntimeEvent
	for _, event := range r.events {
		if event.EquipmentID == equipmentID && !event.StartedAt.Before(from) && !event.EndedAt.After(to) {
			out = append(out, event)
		}
	}
	return out, nil
}

func (r *fakeDowntimeRepo) ListFailuresWithinPeriod(_ context.Context, from, to time.Time) ([]*facts.DowntimeEvent, error) {
	var out []*facts.DowntimeEvent
	for _, event := range r.events {
		reason, ok := r.reasons[event.ReasonCode]
		if !ok || !reason.Failure {
			continue
		}
		if !event.StartedAt.Before(from) && !event.EndedAt.After(to) {
			out = append(out, event)
		}
	}
	return out, nil
}

func (r *fakeDowntimeRepo) UnplannedAvailabilityMinutes(_ context.Context, from, to time.Time) (map[uuid.UUID]decimal.Decimal, error) {
	minutes := map[uuid.UUID]decimal.Decimal{}
	for _, event := range r.events {
		reason, ok := r.reasons[event.ReasonCode]
		if !ok || reason.Planned || !reason.AffectsAvailability {
			continue
		}
		if event.StartedAt.Before(from) || event.EndedAt.After(to) {
			continue
		}
		minutes[event.EquipmentID] = minutes[event.EquipmentID].Add(event.Minutes())
	}
	return minutes, nil
}

func (r *fakeDowntimeRepo) HoursByReason(_ context.Context, from, to time.Time) (map[string]decimal.Decimal, error) {
	hours := map[string]decimal.Decimal{}
	for _, event := range r.events {
		if event.StartedAt.Before(from) || event.EndedAt.After(to) {
			continue
		}
		hours[event.ReasonCode] = hours[event.ReasonCode].Add(event.Hours())
	}
	return hours, nil
}

func (r *fakeDowntimeRepo) GetReason(_ context.Context, code string) (*facts.DowntimeReason, error) {
	reason, ok := r.reasons[code]
	if !ok {
		return nil, errEventNotFound
	}
	return reason, nil
}

func (r *fakeDowntimeRepo) ListReasons(_ context.Context) ([]*facts.DowntimeReason, error) {
	var out []*facts.DowntimeReason
	for _, reason := range r.reasons {
		out = append(out, reason)
	}
	return out, nil
}

func (r *fakeDowntimeRepo) CreateReason(_ context.Context, reason *facts.DowntimeReason) error {
	r.reasons[reason.Code] = reason
	return nil
}

type fakeOEERepo struct {
	records map[int64][]*oee.DailyRecord
}

func newFakeOEERepo() *fakeOEERepo {
	return &fakeOEERepo{records: map[int64][]*oee.DailyRecord{}}
}

func (r *fakeOEERepo) Upsert(_ context.Context, records []*oee.DailyRecord) error {
	for _, record := range records {
		r.records[record.SnapshotVersion] = append(r.records[record.SnapshotVersion], record)
	}
	return nil
}

func (r *fakeOEERepo) ListPublished(_ context.Context, _ *oee.FindParams) ([]*oee.DailyRecord, error) {
	var out []*oee.DailyRecord
	for _, records := range r.records {
		out = append(out, records...)
	}
	return out, nil
}

func (r *fakeOEERepo) ListForVersion(_ context.Context, version int64, _ time.Time) ([]*oee.DailyRecord, error) {
	return r.records[version], nil
}

type fakeReliabilityRepo struct {
	summaries map[int64][]*reliability.Summary
}

func newFakeReliabilityRepo() *fakeReliabilityRepo {
	return &fakeReliabilityRepo{summaries: map[int64][]*reliability.Summary{}}
}

func (r *fakeReliabilityRepo) Upsert(_ context.Context, summaries []*reliability.Summary) error {
	for _, s := range summaries {
		r.summaries[s.SnapshotVersion] = append(r.summaries[s.SnapshotVersion], s)
	}
	return nil
}

func (r *fakeReliabilityRepo) ListPublished(_ context.Context, _ *reliability.FindParams) ([]*reliability.Summary, error) {
	var out []*reliability.Summary
	for _, summaries := range r.summaries {
		out = append(out, summaries...)
	}
	return out, nil
}

func (r *fakeReliabilityRepo) ListForVersion(_ context.Context, version int64, _ time.Time) ([]*reliability.Summary, error) {
	return r.summaries[version], nil
}

type fakeKPIRepo struct {
	summaries map[int64][]*kpisummary.Summary
}

func newFakeKPIRepo() *fakeKPIRepo {
	return &fakeKPIRepo{summaries: map[int64][]*kpisummary.Summary{}}
}

func (r *fakeKPIRepo) Upsert(_ context.Context, summaries []*kpisummary.Summary) error {
	for _, s := range summaries {
		r.summaries[s.SnapshotVersion] = append(r.summaries[s.SnapshotVersion], s)
	}
	return nil
}

func (r *fakeKPIRepo) ListPublished(_ context.Context, _ *kpisummary.FindParams) ([]*kpisummary.Summary, error) {
	var out []*kpisummary.Summary
	for _, summaries := range r.summaries {
		out = append(out, summaries...)
	}
	return out, nil
}

func (r *fakeKPIRepo) ListForVersion(_ context.Context, version int64, _ time.Time) ([]*kpisummary.Summary, error) {
	return r.summaries[version], nil
}

type fakeSnapshotRepo struct {
	mu       sync.Mutex
	nextID   int64
	versions map[int64]*snapshot.Version
	leased   map[time.Time]bool
}

func newFakeSnapshotRepo() *fakeSnapshotRepo {
	return &fakeSnapshotRepo{versions: map[int64]*snapshot.Version{}, leased: map[time.Time]bool{}}
}

func (r *fakeSnapshotRepo) AcquireLease(_ context.Context, period time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.leased[period] {
		return snapshot.ErrCycleInFlight
	}
	return nil
}

func (r *fakeSnapshotRepo) Begin(_ context.Context, period time.Time) (*snapshot.Version, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	v := &snapshot.Version{ID: r.nextID, Period: period, State: snapshot.StateComputing, StartedAt: time.Now()}
	r.versions[v.ID] = v
	return v, nil
}

func (r *fakeSnapshotRepo) Publish(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	target := r.versions[id]
	for _, v := range r.versions {
		if v.State == snapshot.StatePublished && v.Period.Equal(target.Period) {
			v.State = snapshot.StateDiscarded
		}
	}
	target.State = snapshot.StatePublished
	now := time.Now()
	target.PublishedAt = &now
	return nil
}

func (r *fakeSnapshotRepo) Discard(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.versions[id].State = snapshot.StateDiscarded
	return nil
}

func (r *fakeSnapshotRepo) PublishedForPeriod(_ context.Context, period time.Time) (*snapshot.Version, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.versions {
		if v.State == snapshot.StatePublished && v.Period.Equal(period) {
			return v, nil
		}
	}
	return nil, snapshot.ErrNoPublished
}

func (r *fakeSnapshotRepo) Latest(_ context.Context) (*snapshot.Version, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *snapshot.Version
	for _, v := range r.versions {
		if v.State != snapshot.StatePublished {
			continue
		}
		if latest == nil || v.Period.After(latest.Period) {
			latest = v
		}
	}
	if latest == nil {
		return nil, snapshot.ErrNoPublished
	}
	return latest, nil
}

func (r *fakeSnapshotRepo) PruneDiscarded(_ context.Context, _ int) (int64, error) {
	return 0, nil
}

type fakeAuditRepo struct {
	records []*audit.Record
}

func (r *fakeAuditRepo) Create(_ context.Context, record *audit.Record) error {
	record.ID = uuid.New()
	r.records = append(r.records, record)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _ *audit.FindParams) ([]*audit.Record, error) {
	return r.records, nil
}

func (r *fakeAuditRepo) Count(_ context.Context, _ *audit.FindParams) (int64, error) {
	return int64(len(r.records)), nil
}

func (r *fakeAuditRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var kept []*audit.Record
	var deleted int64
	for _, record := range r.records {
		if record.OccurredAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, record)
	}
	r.records = kept
	return deleted, nil
}

type fakePartitionRepo struct {
	months map[time.Time]bool
}

func newFakePartitionRepo() *fakePartitionRepo {
	return &fakePartitionRepo{months: map[time.Time]bool{}}
}

func (r *fakePartitionRepo) EnsureMonth(_ context.Context, monthStart time.Time) error {
	r.months[partition.MonthStart(monthStart)] = true
	return nil
}

func (r *fakePartitionRepo) ProvisionedRange(_ context.Context) (time.Time, time.Time, error) {
	var from, to time.Time
	for month := range r.months {
		if from.IsZero() || month.Before(from) {
			from = month
		}
		if to.IsZero() || month.After(to) {
			to = month
		}
	}
	if from.IsZero() {
		return time.Time{}, time.Time{}, nil
	}
	return from, to.AddDate(0, 1, 0), nil
}

func (r *fakePartitionRepo) List(_ context.Context) ([]*partition.Partition, error) {
	var out []*partition.Partition
	for month := range r.months {
		out = append(out, &partition.Partition{MonthStart: month})
	}
	return out, nil
}

func (r *fakePartitionRepo) DropOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	var dropped int
	for month := range r.months {
		if month.AddDate(0, 1, 0).Before(cutoff) || month.AddDate(0, 1, 0).Equal(cutoff) {
			delete(r.months, month)
			dropped++
		}
	}
	return dropped, nil
}

type fakeQualityRepo struct {
	inspections []*facts.QualityInspection
}

func (r *fakeQualityRepo) Create(_ context.Context, inspection *facts.QualityInspection) error {
	if inspection.ID == uuid.Nil {
		inspection.ID = uuid.New()
	}
	r.inspections = append(r.inspections, inspection)
	return nil
}

func (r *fakeQualityRepo) ListWithinPeriod(_ context.Context, equipmentID uuid.UUID, from, to time.Time) ([]*facts.QualityInspection, error) {
	var out []*facts.QualityInspection
	for _, inspection := range r.inspections {
		if inspection.EquipmentID == equipmentID && !inspection.InspectedAt.Before(from) && inspection.InspectedAt.Before(to) {
			out = append(out, inspection)
		}
	}
	return out, nil
}

func (r *fakeQualityRepo) FirstPassYield(_ context.Context, from, to time.Time) (map[uuid.UUID]decimal.Decimal, error) {
	samples := map[uuid.UUID]int64{}
	defects := map[uuid.UUID]int64{}
	for _, inspection := range r.inspections {
		if inspection.InspectedAt.Before(from) || !inspection.InspectedAt.Before(to) {
			continue
		}
		samples[inspection.EquipmentID] += inspection.SampleSize
		defects[inspection.EquipmentID] += inspection.DefectsFound
	}
	yields := map[uuid.UUID]decimal.Decimal{}
	for id, sample := range samples {
		if sample == 0 {
			continue
		}
		yields[id] = decimal.NewFromInt(1).Sub(
			decimal.NewFromInt(defects[id]).Div(decimal.NewFromInt(sample))).Round(oee.Scale)
	}
	return yields, nil
}

type fakeSensorRepo struct {
	readings []*facts.SensorReading
}

func (r *fakeSensorRepo) CreateBatch(_ context.Context, readings []*facts.SensorReading) error {
	r.readings = append(r.readings, readings...)
	return nil
}
