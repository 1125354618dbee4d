package facts

// Validation of the event-store invariants. Every check returns a Rejection
// naming the violated constraint; the first violation wins.

func (e *ProductionEvent) Validate() *Rejection {
	if !e.EndedAt.After(e.StartedAt) {
		return reject(CodeInvalidInterval, "ended_at", "interval end %s must be after start %s", e.EndedAt, e.StartedAt)
	}
	if e.PlannedMinutes.IsNegative() {
		return reject(CodeInvalidValue, "planned_minutes", "planned time must be non-negative")
	}
	if e.OperatingMinutes.IsNegative() {
		return reject(CodeInvalidValue, "operating_minutes", "operating time must be non-negative")
	}
	if e.OperatingMinutes.GreaterThan(e.PlannedMinutes) {
		return reject(CodeOperatingExceedsPlanned, "operating_minutes",
			"operating time %s exceeds planned time %s", e.OperatingMinutes, e.PlannedMinutes)
	}
	counts := []struct {
		field string
		value int64
	}{
		{"total_produced", e.TotalProduced},
		{"good", e.Good},
		{"scrap", e.Scrap},
		{"rework", e.Rework},
	}
	for _, c := range counts {
		if c.value < 0 {
			return reject(CodeNegativeCount, c.field, "count must be non-negative, got %d", c.value)
		}
	}
	if e.Good+e.Scrap+e.Rework > e.TotalProduced {
		return reject(CodeCountsExceedTotal, "total_produced",
			"good %d + scrap %d + rework %d exceeds total produced %d", e.Good, e.Scrap, e.Rework, e.TotalProduced)
	}
	return nil
}

func (e *DowntimeEvent) Validate() *Rejection {
	if !e.EndedAt.After(e.StartedAt) {
		return reject(CodeInvalidInterval, "ended_at", "interval end %s must be after start %s", e.EndedAt, e.StartedAt)
	}
	if e.ReasonCode == "" {
		return reject(CodeUnknownReason, "reason_code", "reason code is required")
	}
	return nil
}

func (i *QualityInspection) Validate() *Rejection {
	if i.SampleSize <= 0 {
		return reject(CodeInvalidValue, "sample_size", "sample size must be positive, got %d", i.SampleSize)
	}
	if i.DefectsFound < 0 {
		return reject(CodeNegativeCount, "defects_found", "count must be non-negative, got %d", i.DefectsFound)
	}
	if i.DefectsFound > i.SampleSize {
		return reject(CodeCountsExceedTotal, "defects_found",
			"defects found %d exceeds sample size %d", i.DefectsFound, i.SampleSize)
	}
	if i.InspectedAt.IsZero() {
		return reject(CodeInvalidValue, "inspected_at", "inspection timestamp is required")
	}
	return nil
}

func (r *SensorReading) Validate() *Rejection {
	if r.RecordedAt.IsZero() {
		return reject(CodeInvalidValue, "recorded_at", "reading timestamp is required")
	}
	if r.Parameter == "" {
		return reject(CodeInvalidValue, "parameter", "parameter name is required")
	}
	return nil
}
