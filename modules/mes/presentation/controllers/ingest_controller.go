package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/mes/modules/mes/domain/facts"
	"github.com/iota-uz/mes/modules/mes/presentation/controllers/dtos"
	"github.com/iota-uz/mes/modules/mes/services"
	"github.com/iota-uz/mes/pkg/application"
	"github.com/iota-uz/mes/pkg/httpapi"
)

// IngestController is the write surface of the event store. Single records
// return 201 or a rejection envelope; batches return per-record outcomes
// with 207.
type IngestController struct {
	app      application.Application
	basePath string
	svc      *services.IngestionService
}

func NewIngestController(app application.Application) application.Controller {
	return &IngestController{
		app:      app,
		basePath: "/mes/api",
		svc:      app.Service(services.IngestionService{}).(*services.IngestionService),
	}
}

func (c *IngestController) Key() string {
	return c.basePath + "/ingest"
}

func (c *IngestController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/production-events", c.CreateProduction).Methods(http.MethodPost)
	router.HandleFunc("/production-events/batch", c.CreateProductionBatch).Methods(http.MethodPost)
	router.HandleFunc("/downtime-events", c.CreateDowntime).Methods(http.MethodPost)
	router.HandleFunc("/downtime-events/{id}/reason", c.ReclassifyDowntime).Methods(http.MethodPut)
	router.HandleFunc("/quality-inspections", c.CreateInspection).Methods(http.MethodPost)
	router.HandleFunc("/sensor-readings", c.CreateSensorBatch).Methods(http.MethodPost)
}

func (c *IngestController) CreateProduction(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.ProductionEventDTO{}
	if !decodeAndValidate(w, r, dto) {
		return
	}
	event := dto.ToEntity()
	if err := c.svc.RecordProduction(r.Context(), event); err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]any{"id": event.ID})
}

// CreateProductionBatch accepts and rejects records independently; the
// response carries one outcome per input index.
func (c *IngestController) CreateProductionBatch(w http.ResponseWriter, r *http.Request) {
	var batch []dtos.ProductionEventDTO
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "MES_INVALID_JSON", "invalid JSON body", nil)
		return
	}
	events := make([]*facts.ProductionEvent, len(batch))
	for i := range batch {
		events[i] = batch[i].ToEntity()
	}
	results := c.svc.RecordProductionBatch(r.Context(), events)
	_ = httpapi.WriteJSON(w, http.StatusMultiStatus, results)
}

func (c *IngestController) CreateDowntime(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.DowntimeEventDTO{}
	if !decodeAndValidate(w, r, dto) {
		return
	}
	event := dto.ToEntity()
	if err := c.svc.RecordDowntime(r.Context(), event); err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]any{"id": event.ID})
}

func (c *IngestController) ReclassifyDowntime(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "MES_INVALID_ID", "invalid event id", nil)
		return
	}
	dto := &dtos.ReclassifyDowntimeDTO{}
	if !decodeAndValidate(w, r, dto) {
		return
	}
	if err := c.svc.ReclassifyDowntime(r.Context(), id, dto.ReasonCode); err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "reason_code": dto.ReasonCode})
}

func (c *IngestController) CreateInspection(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.QualityInspectionDTO{}
	if !decodeAndValidate(w, r, dto) {
		return
	}
	inspection := dto.ToEntity()
	if err := c.svc.RecordInspection(r.Context(), inspection); err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]any{"id": inspection.ID})
}

func (c *IngestController) CreateSensorBatch(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.SensorBatchDTO{}
	if !decodeAndValidate(w, r, dto) {
		return
	}
	readings := dto.ToEntities()
	if err := c.svc.RecordSensorBatch(r.Context(), readings); err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]any{"accepted": len(readings)})
}
