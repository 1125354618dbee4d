package facts

import (
	"errors"
	"fmt"
	"time"
)

// Rejection codes returned to ingestion callers. Stable; collectors key
// retry/drop decisions off them.
const (
	CodeNegativeCount           = "MES_NEGATIVE_COUNT"
	CodeCountsExceedTotal       = "MES_COUNTS_EXCEED_TOTAL"
	CodeOperatingExceedsPlanned = "MES_OPERATING_EXCEEDS_PLANNED"
	CodeInvalidInterval         = "MES_INVALID_INTERVAL"
	CodeInvalidValue            = "MES_INVALID_VALUE"
	CodeUnknownEquipment        = "MES_UNKNOWN_EQUIPMENT"
	CodeUnknownReason           = "MES_UNKNOWN_REASON"
	CodePartitionNotProvisioned = "MES_PARTITION_NOT_PROVISIONED"
)

// Rejection is a synchronous validation failure. It is a result, not a
// pipeline fault: the offending record is never partially written.
type Rejection struct {
	Code    string
	Field   string
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

func reject(code, field, format string, args ...any) *Rejection {
	return &Rejection{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

// PartitionRejection means the write targeted an unprovisioned time range.
// Retryable: the caller should resubmit after the next provisioning cycle.
type PartitionRejection struct {
	Timestamp  time.Time
	RetryAfter time.Duration
}

func (r *PartitionRejection) Error() string {
	return fmt.Sprintf("%s: no partition provisioned for %s", CodePartitionNotProvisioned, r.Timestamp.Format(time.RFC3339))
}

func IsRetryable(err error) bool {
	var pr *PartitionRejection
	return errors.As(err, &pr)
}
