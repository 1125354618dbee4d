package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iota-uz/mes/modules/mes/domain/facts"
	"github.com/iota-uz/mes/modules/mes/domain/snapshot"
	"github.com/iota-uz/mes/modules/mes/infrastructure/persistence"
	"github.com/iota-uz/mes/modules/mes/presentation/controllers/dtos"
	"github.com/iota-uz/mes/pkg/httpapi"
	"github.com/iota-uz/mes/pkg/serrors"
)

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dto any) bool {
	if err := json.NewDecoder(r.Body).Decode(dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "MES_INVALID_JSON", "invalid JSON body", nil)
		return false
	}
	if err := dtos.Validate(dto); err != nil {
		meta := map[string]string{}
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			for _, f := range vErrs {
				meta[f.Field()] = f.Tag()
			}
		}
		_ = httpapi.WriteError(w, http.StatusBadRequest, facts.CodeInvalidValue, "validation failed", meta)
		return false
	}
	return true
}

// writeServiceError maps domain errors onto the stable HTTP error envelope.
func writeServiceError(w http.ResponseWriter, err error) {
	var rejection *facts.Rejection
	if errors.As(err, &rejection) {
		meta := map[string]string{}
		if rejection.Field != "" {
			meta["field"] = rejection.Field
		}
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, rejection.Code, rejection.Message, meta)
		return
	}
	var partitionRejection *facts.PartitionRejection
	if errors.As(err, &partitionRejection) {
		_ = httpapi.WriteRetryable(w, facts.CodePartitionNotProvisioned, partitionRejection.Error(), partitionRejection.RetryAfter)
		return
	}
	var base *serrors.Base
	if errors.As(err, &base) {
		meta := map[string]string{}
		if base.Details != "" {
			meta["details"] = base.Details
		}
		_ = httpapi.WriteError(w, http.StatusBadRequest, base.Code, base.Message, meta)
		return
	}
	switch {
	case errors.Is(err, persistence.ErrNodeNotFound),
		errors.Is(err, persistence.ErrEventNotFound):
		_ = httpapi.WriteError(w, http.StatusNotFound, "MES_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, snapshot.ErrNoPublished):
		_ = httpapi.WriteError(w, http.StatusNotFound, "MES_NO_PUBLISHED_SNAPSHOT", err.Error(), nil)
	case errors.Is(err, snapshot.ErrCycleInFlight):
		_ = httpapi.WriteError(w, http.StatusConflict, "MES_CYCLE_IN_FLIGHT", err.Error(), nil)
	default:
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "MES_INTERNAL", "internal server error", nil)
	}
}

func queryTime(r *http.Request, key string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.RFC3339, raw)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
