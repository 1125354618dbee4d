package controllers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/iota-uz/mes/modules/mes/domain/hierarchy"
	"github.com/iota-uz/mes/modules/mes/presentation/controllers/dtos"
	"github.com/iota-uz/mes/modules/mes/services"
	"github.com/iota-uz/mes/pkg/application"
	"github.com/iota-uz/mes/pkg/httpapi"
)

// AdminController exposes the operational surface: manual cycle runs,
// partition management, hierarchy maintenance, data quality and retention.
type AdminController struct {
	app         application.Application
	basePath    string
	cycles      *services.CycleService
	partitions  *services.PartitionService
	hierarchy   *services.HierarchyService
	dataQuality *services.DataQualityService
	retention   *services.RetentionService
}

func NewAdminController(app application.Application) application.Controller {
	return &AdminController{
		app:         app,
		basePath:    "/mes/api/admin",
		cycles:      app.Service(services.CycleService{}).(*services.CycleService),
		partitions:  app.Service(services.PartitionService{}).(*services.PartitionService),
		hierarchy:   app.Service(services.HierarchyService{}).(*services.HierarchyService),
		dataQuality: app.Service(services.DataQualityService{}).(*services.DataQualityService),
		retention:   app.Service(services.RetentionService{}).(*services.RetentionService),
	}
}

func (c *AdminController) Key() string {
	return c.basePath
}

func (c *AdminController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/cycles/run", c.RunCycle).Methods(http.MethodPost)
	router.HandleFunc("/snapshots/latest", c.LatestSnapshot).Methods(http.MethodGet)
	router.HandleFunc("/partitions", c.ListPartitions).Methods(http.MethodGet)
	router.HandleFunc("/partitions/ensure", c.EnsurePartitions).Methods(http.MethodPost)
	router.HandleFunc("/hierarchy/nodes", c.CreateNode).Methods(http.MethodPost)
	router.HandleFunc("/hierarchy/nodes", c.ListNodes).Methods(http.MethodGet)
	router.HandleFunc("/data-quality", c.DataQuality).Methods(http.MethodGet)
	router.HandleFunc("/data-quality/run", c.RunDataQuality).Methods(http.MethodPost)
	router.HandleFunc("/retention/run", c.RunRetention).Methods(http.MethodPost)
}

func (c *AdminController) RunCycle(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.RunCycleDTO{}
	if !decodeAndValidate(w, r, dto) {
		return
	}
	period, err := time.Parse("2006-01-02", dto.Period)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "MES_INVALID_VALUE", "invalid period", nil)
		return
	}
	if err := c.cycles.RunCycle(r.Context(), period); err != nil {
		writeServiceError(w, err)
		return
	}
	version, err := c.cycles.PublishedForPeriod(r.Context(), period)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, version)
}

func (c *AdminController) LatestSnapshot(w http.ResponseWriter, r *http.Request) {
	version, err := c.cycles.Latest(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, version)
}

func (c *AdminController) ListPartitions(w http.ResponseWriter, r *http.Request) {
	partitions, err := c.partitions.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, partitions)
}

func (c *AdminController) EnsurePartitions(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.EnsurePartitionsDTO{}
	if !decodeAndValidate(w, r, dto) {
		return
	}
	from, err := time.Parse("2006-01", dto.From)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "MES_INVALID_VALUE", "invalid 'from' month", nil)
		return
	}
	to, err := time.Parse("2006-01", dto.To)
	if err != nil || to.Before(from) {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "MES_INVALID_VALUE", "invalid 'to' month", nil)
		return
	}
	if err := c.partitions.EnsureRange(r.Context(), from, to); err != nil {
		writeServiceError(w, err)
		return
	}
	partitions, err := c.partitions.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, partitions)
}

func (c *AdminController) CreateNode(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.CreateNodeDTO{}
	if !decodeAndValidate(w, r, dto) {
		return
	}
	node := dto.ToEntity()
	if err := c.hierarchy.CreateNode(r.Context(), node); err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, node)
}

func (c *AdminController) ListNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := c.hierarchy.List(r.Context(), &hierarchy.FindParams{
		Level:    hierarchy.Level(r.URL.Query().Get("level")),
		ParentID: queryUUID(r, "parent_id"),
		Limit:    queryInt(r, "limit", 0),
		Offset:   queryInt(r, "offset", 0),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, nodes)
}

func (c *AdminController) DataQuality(w http.ResponseWriter, r *http.Request) {
	results, err := c.dataQuality.Latest(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, results)
}

func (c *AdminController) RunDataQuality(w http.ResponseWriter, r *http.Request) {
	results, err := c.dataQuality.RunChecks(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, results)
}

func (c *AdminController) RunRetention(w http.ResponseWriter, r *http.Request) {
	report, err := c.retention.Enforce(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, report)
}
