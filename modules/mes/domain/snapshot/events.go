package snapshot

import "time"

// CycleCompleted is published on the in-process bus after a snapshot is
// committed and visible. Subscribers run outside the cycle transaction.
type CycleCompleted struct {
	Version  int64
	Period   time.Time
	Duration time.Duration
}
