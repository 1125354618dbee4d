package handlers

import (
	"context"

	"github.com/iota-uz/mes/modules/mes/domain/snapshot"
	"github.com/iota-uz/mes/modules/mes/services"
	"github.com/iota-uz/mes/pkg/application"
	"github.com/iota-uz/mes/pkg/composables"
)

// CycleEventHandler runs the post-publication work: data quality checks
// sample the freshly published snapshot outside the cycle transaction.
type CycleEventHandler struct {
	app         application.Application
	dataQuality *services.DataQualityService
}

func RegisterCycleEventHandler(app application.Application) *CycleEventHandler {
	handler := &CycleEventHandler{
		app:         app,
		dataQuality: app.Service(services.DataQualityService{}).(*services.DataQualityService),
	}
	app.EventPublisher().Subscribe(handler.onCycleCompleted)
	return handler
}

func (h *CycleEventHandler) onCycleCompleted(event snapshot.CycleCompleted) {
	ctx := composables.WithPool(context.Background(), h.app.Pool())
	ctx = composables.WithLogger(ctx, h.app.Logger().WithField("snapshot_version", event.Version))

	if _, err := h.dataQuality.RunChecks(ctx); err != nil {
		h.app.Logger().WithError(err).Error("data quality checks failed after cycle")
	}
}
