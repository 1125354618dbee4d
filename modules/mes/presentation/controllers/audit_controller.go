package controllers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/wI2L/jsondiff"

	"github.com/iota-uz/mes/modules/mes/domain/audit"
	"github.com/iota-uz/mes/modules/mes/services"
	"github.com/iota-uz/mes/pkg/application"
	"github.com/iota-uz/mes/pkg/configuration"
	"github.com/iota-uz/mes/pkg/httpapi"
)

type AuditController struct {
	app      application.Application
	basePath string
	svc      *services.AuditService
	pageSize int
	maxPage  int
}

func NewAuditController(app application.Application, cfg *configuration.Configuration) application.Controller {
	return &AuditController{
		app:      app,
		basePath: "/mes/api/audit",
		svc:      app.Service(services.AuditService{}).(*services.AuditService),
		pageSize: cfg.PageSize,
		maxPage:  cfg.MaxPageSize,
	}
}

func (c *AuditController) Key() string {
	return c.basePath
}

func (c *AuditController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/records", c.List).Methods(http.MethodGet)
}

type auditRecordResponse struct {
	*audit.Record
	Patch jsondiff.Patch `json:"patch,omitempty"`
}

func (c *AuditController) List(w http.ResponseWriter, r *http.Request) {
	params := &audit.FindParams{
		Table:  audit.Table(r.URL.Query().Get("table")),
		Action: audit.Action(r.URL.Query().Get("action")),
		Actor:  r.URL.Query().Get("actor"),
		Limit:  queryInt(r, "limit", c.pageSize),
		Offset: queryInt(r, "offset", 0),
	}
	if params.Limit > c.maxPage {
		params.Limit = c.maxPage
	}
	if id := queryUUID(r, "record_id"); id != nil {
		params.RecordID = id
	}
	if from, err := queryTime(r, "from", time.Time{}); err == nil && !from.IsZero() {
		params.From = &from
	}
	if to, err := queryTime(r, "to", time.Time{}); err == nil && !to.IsZero() {
		params.To = &to
	}

	records, err := c.svc.List(r.Context(), params)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	total, err := c.svc.Count(r.Context(), params)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	withDiff := r.URL.Query().Get("diff") == "true"
	items := make([]auditRecordResponse, len(records))
	for i, record := range records {
		items[i] = auditRecordResponse{Record: record}
		if withDiff {
			patch, err := c.svc.Diff(record)
			if err == nil {
				items[i].Patch = patch
			}
		}
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"total": total,
		"items": items,
	})
}
