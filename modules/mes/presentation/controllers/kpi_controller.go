package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/mes/modules/mes/domain/hierarchy"
	"github.com/iota-uz/mes/modules/mes/domain/kpisummary"
	"github.com/iota-uz/mes/modules/mes/domain/oee"
	"github.com/iota-uz/mes/modules/mes/domain/reliability"
	"github.com/iota-uz/mes/modules/mes/services"
	"github.com/iota-uz/mes/pkg/application"
	"github.com/iota-uz/mes/pkg/configuration"
	"github.com/iota-uz/mes/pkg/httpapi"
)

// KPIController serves the published snapshot and the analytical read
// models. All responses come from published data only; an in-flight cycle is
// never visible here.
type KPIController struct {
	app      application.Application
	basePath string
	svc      *services.KPIQueryService
	pageSize int
	maxPage  int
}

func NewKPIController(app application.Application, cfg *configuration.Configuration) application.Controller {
	return &KPIController{
		app:      app,
		basePath: "/mes/api/kpi",
		svc:      app.Service(services.KPIQueryService{}).(*services.KPIQueryService),
		pageSize: cfg.PageSize,
		maxPage:  cfg.MaxPageSize,
	}
}

func (c *KPIController) Key() string {
	return c.basePath
}

func (c *KPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/summaries", c.Summaries).Methods(http.MethodGet)
	router.HandleFunc("/oee/daily", c.DailyOEE).Methods(http.MethodGet)
	router.HandleFunc("/reliability", c.Reliability).Methods(http.MethodGet)
	router.HandleFunc("/downtime-analysis", c.DowntimeAnalysis).Methods(http.MethodGet)
	router.HandleFunc("/scrap-analysis", c.ScrapAnalysis).Methods(http.MethodGet)
	router.HandleFunc("/first-pass-yield", c.FirstPassYield).Methods(http.MethodGet)
}

func (c *KPIController) limit(r *http.Request) int {
	limit := queryInt(r, "limit", c.pageSize)
	if limit > c.maxPage {
		return c.maxPage
	}
	return limit
}

func (c *KPIController) period(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	to, err := queryTime(r, "to", time.Now().UTC().Truncate(24*time.Hour))
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "MES_INVALID_VALUE", "invalid 'to' timestamp", nil)
		return time.Time{}, time.Time{}, false
	}
	from, err := queryTime(r, "from", to.AddDate(0, 0, -30))
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "MES_INVALID_VALUE", "invalid 'from' timestamp", nil)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func queryUUID(r *http.Request, key string) *uuid.UUID {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func (c *KPIController) Summaries(w http.ResponseWriter, r *http.Request) {
	from, to, ok := c.period(w, r)
	if !ok {
		return
	}
	summaries, err := c.svc.Summaries(r.Context(), &kpisummary.FindParams{
		NodeID: queryUUID(r, "node_id"),
		Level:  hierarchy.Level(r.URL.Query().Get("level")),
		From:   from,
		To:     to,
		Limit:  c.limit(r),
		Offset: queryInt(r, "offset", 0),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, summaries)
}

func (c *KPIController) DailyOEE(w http.ResponseWriter, r *http.Request) {
	from, to, ok := c.period(w, r)
	if !ok {
		return
	}
	records, err := c.svc.DailyOEE(r.Context(), &oee.FindParams{
		EquipmentID: queryUUID(r, "equipment_id"),
		From:        from,
		To:          to,
		Limit:       c.limit(r),
		Offset:      queryInt(r, "offset", 0),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, records)
}

func (c *KPIController) Reliability(w http.ResponseWriter, r *http.Request) {
	from, to, ok := c.period(w, r)
	if !ok {
		return
	}
	summaries, err := c.svc.Reliability(r.Context(), &reliability.FindParams{
		EquipmentID: queryUUID(r, "equipment_id"),
		From:        from,
		To:          to,
		Limit:       c.limit(r),
		Offset:      queryInt(r, "offset", 0),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, summaries)
}

func (c *KPIController) DowntimeAnalysis(w http.ResponseWriter, r *http.Request) {
	from, to, ok := c.period(w, r)
	if !ok {
		return
	}
	rows, err := c.svc.DowntimeAnalysis(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, rows)
}

func (c *KPIController) ScrapAnalysis(w http.ResponseWriter, r *http.Request) {
	from, to, ok := c.period(w, r)
	if !ok {
		return
	}
	rows, err := c.svc.ScrapAnalysis(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, rows)
}

func (c *KPIController) FirstPassYield(w http.ResponseWriter, r *http.Request) {
	from, to, ok := c.period(w, r)
	if !ok {
		return
	}
	rows, err := c.svc.FirstPassYield(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, rows)
}
