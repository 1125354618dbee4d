package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/mes/modules/mes/domain/audit"
	"github.com/iota-uz/mes/modules/mes/domain/facts"
	"github.com/iota-uz/mes/modules/mes/domain/hierarchy"
	"github.com/iota-uz/mes/modules/mes/domain/partition"
	"github.com/iota-uz/mes/modules/mes/infrastructure/persistence"
	"github.com/iota-uz/mes/pkg/composables"
	"github.com/iota-uz/mes/pkg/metrics"
)

// IngestionService is the single write path into the event store. Every
// accepted mutation lands together with its audit record in one transaction;
// a rejected record is never partially written.
type IngestionService struct {
	production facts.ProductionRepository
	downtime   facts.DowntimeRepository
	quality    facts.QualityRepository
	sensors    facts.SensorRepository
	hierarchy  hierarchy.Repository
	partitions partition.Repository
	auditRepo  audit.Repository
}

func NewIngestionService(
	production facts.ProductionRepository,
	downtime facts.DowntimeRepository,
	quality facts.QualityRepository,
	sensors facts.SensorRepository,
	hierarchyRepo hierarchy.Repository,
	partitions partition.Repository,
	auditRepo audit.Repository,
) *IngestionService {
	return &IngestionService{
		production: production,
		downtime:   downtime,
		quality:    quality,
		sensors:    sensors,
		hierarchy:  hierarchyRepo,
		partitions: partitions,
		auditRepo:  auditRepo,
	}
}

// BatchResult reports the fate of one record in a batch submission. Accepted
// and rejected records coexist in one response; a batch is not a transaction.
type BatchResult struct {
	Index     int
	ID        uuid.UUID
	Rejection *facts.Rejection
}

func (s *IngestionService) checkEquipment(ctx context.Context, id uuid.UUID) *facts.Rejection {
	node, err := s.hierarchy.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNodeNotFound) {
			return &facts.Rejection{
				Code:    facts.CodeUnknownEquipment,
				Field:   "equipment_id",
				Message: "no equipment node with id " + id.String(),
			}
		}
		return &facts.Rejection{
			Code:    facts.CodeUnknownEquipment,
			Field:   "equipment_id",
			Message: err.Error(),
		}
	}
	if !node.IsLeaf() {
		return &facts.Rejection{
			Code:    facts.CodeUnknownEquipment,
			Field:   "equipment_id",
			Message: "node " + id.String() + " is a " + string(node.Level) + ", not equipment",
		}
	}
	return nil
}

func (s *IngestionService) RecordProduction(ctx context.Context, event *facts.ProductionEvent) error {
	if rej := event.Validate(); rej != nil {
		metrics.IngestEvents.WithLabelValues("production", "rejected").Inc()
		return rej
	}
	if rej := s.checkEquipment(ctx, event.EquipmentID); rej != nil {
		metrics.IngestEvents.WithLabelValues("production", "rejected").Inc()
		return rej
	}

	actor := composables.UseActor(ctx)
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		if err := s.production.Create(txCtx, event); err != nil {
			return err
		}
		record, err := audit.NewInsert(actor, audit.TableProductionEvents, event.ID, event)
		if err != nil {
			return err
		}
		return s.auditRepo.Create(txCtx, record)
	})
	if err != nil {
		metrics.IngestEvents.WithLabelValues("production", "failed").Inc()
		return err
	}
	metrics.IngestEvents.WithLabelValues("production", "accepted").Inc()
	return nil
}

func (s *IngestionService) RecordProductionBatch(ctx context.Context, events []*facts.ProductionEvent) []BatchResult {
	results := make([]BatchResult, len(events))
	for i, event := range events {
		results[i].Index = i
		err := s.RecordProduction(ctx, event)
		var rej *facts.Rejection
		if errors.As(err, &rej) {
			results[i].Rejection = rej
			continue
		}
		if err != nil {
			results[i].Rejection = &facts.Rejection{Code: facts.CodeInvalidValue, Message: err.Error()}
			continue
		}
		results[i].ID = event.ID
	}
	return results
}

func (s *IngestionService) RecordDowntime(ctx context.Context, event *facts.DowntimeEvent) error {
	if rej := event.Validate(); rej != nil {
		metrics.IngestEvents.WithLabelValues("downtime", "rejected").Inc()
		return rej
	}
	if rej := s.checkEquipment(ctx, event.EquipmentID); rej != nil {
		metrics.IngestEvents.WithLabelValues("downtime", "rejected").Inc()
		return rej
	}
	if _, err := s.downtime.GetReason(ctx, event.ReasonCode); err != nil {
		metrics.IngestEvents.WithLabelValues("downtime", "rejected").Inc()
		return &facts.Rejection{
			Code:    facts.CodeUnknownReason,
			Field:   "reason_code",
			Message: "no downtime reason with code " + event.ReasonCode,
		}
	}

	actor := composables.UseActor(ctx)
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		if err := s.downtime.Create(txCtx, event); err != nil {
			return err
		}
		record, err := audit.NewInsert(actor, audit.TableDowntimeEvents, event.ID, event)
		if err != nil {
			return err
		}
		return s.auditRepo.Create(txCtx, record)
	})
	if err != nil {
		metrics.IngestEvents.WithLabelValues("downtime", "failed").Inc()
		return err
	}
	metrics.IngestEvents.WithLabelValues("downtime", "accepted").Inc()
	return nil
}

// ReclassifyDowntime is the one audited in-place mutation of the event
// store: an operator moves an event to a different reason code. Aggregates
// pick the change up on the next cycle recompute.
func (s *IngestionService) ReclassifyDowntime(ctx context.Context, id uuid.UUID, reasonCode string) error {
	if _, err := s.downtime.GetReason(ctx, reasonCode); err != nil {
		return &facts.Rejection{
			Code:    facts.CodeUnknownReason,
			Field:   "reason_code",
			Message: "no downtime reason with code " + reasonCode,
		}
	}

	actor := composables.UseActor(ctx)
	return composables.InTx(ctx, func(txCtx context.Context) error {
		current, err := s.downtime.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		// Copy before mutating: the repository may hand back a shared
		// entity, and the audit record must capture the pre-update state.
		before := *current
		if err := s.downtime.UpdateReason(txCtx, id, reasonCode); err != nil {
			return err
		}
		after := before
		after.ReasonCode = reasonCode
		record, err := audit.NewUpdate(actor, audit.TableDowntimeEvents, id, &before, &after)
		if err != nil {
			return err
		}
		return s.auditRepo.Create(txCtx, record)
	})
}

func (s *IngestionService) RecordInspection(ctx context.Context, inspection *facts.QualityInspection) error {
	if rej := inspection.Validate(); rej != nil {
		metrics.IngestEvents.WithLabelValues("quality", "rejected").Inc()
		return rej
	}
	if rej := s.checkEquipment(ctx, inspection.EquipmentID); rej != nil {
		metrics.IngestEvents.WithLabelValues("quality", "rejected").Inc()
		return rej
	}

	actor := composables.UseActor(ctx)
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		if err := s.quality.Create(txCtx, inspection); err != nil {
			return err
		}
		record, err := audit.NewInsert(actor, audit.TableQualityInspections, inspection.ID, inspection)
		if err != nil {
			return err
		}
		return s.auditRepo.Create(txCtx, record)
	})
	if err != nil {
		metrics.IngestEvents.WithLabelValues("quality", "failed").Inc()
		return err
	}
	metrics.IngestEvents.WithLabelValues("quality", "accepted").Inc()
	return nil
}

// RecordSensorBatch appends a batch of readings all-or-nothing. Readings
// outside the provisioned partition range fail with a retryable rejection so
// collectors buffer and resubmit instead of dropping data. Sensor readings
// are not audited.
func (s *IngestionService) RecordSensorBatch(ctx context.Context, readings []*facts.SensorReading) error {
	if len(readings) == 0 {
		return nil
	}
	for _, reading := range readings {
		if rej := reading.Validate(); rej != nil {
			metrics.IngestEvents.WithLabelValues("sensor", "rejected").Inc()
			return rej
		}
	}

	from, to, err := s.partitions.ProvisionedRange(ctx)
	if err != nil {
		return err
	}
	for _, reading := range readings {
		ts := reading.RecordedAt.UTC()
		if from.IsZero() || ts.Before(from) || !ts.Before(to) {
			metrics.IngestEvents.WithLabelValues("sensor", "rejected").Inc()
			return &facts.PartitionRejection{Timestamp: ts, RetryAfter: 24 * time.Hour}
		}
	}

	if err := composables.InTx(ctx, func(txCtx context.Context) error {
		return s.sensors.CreateBatch(txCtx, readings)
	}); err != nil {
		outcome := "failed"
		if facts.IsRetryable(err) {
			outcome = "rejected"
		}
		metrics.IngestEvents.WithLabelValues("sensor", outcome).Inc()
		return err
	}
	metrics.IngestEvents.WithLabelValues("sensor", "accepted").Inc()
	return nil
}
