package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// WriteRetryable signals a transient rejection (e.g. a write landing outside
// provisioned partitions). The Retry-After hint tells collectors when the
// next provisioning cycle will have run.
func WriteRetryable(w http.ResponseWriter, code, message string, retryAfter time.Duration) error {
	if w != nil && retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	}
	return WriteError(w, http.StatusServiceUnavailable, code, message, nil)
}
