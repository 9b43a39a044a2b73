package wire

import (
	"time"

	"github.com/erauner12/openadr-vtn/internal/openadr/duration"
)

// IntervalPeriod defines a time window: a start instant, an optional
// duration (missing means "extends to end-of-time"), and an optional
// randomize_start offset applied by a VEN/client to avoid synchronized
// load-shedding across a fleet.
type IntervalPeriod struct {
	Start           time.Time          `json:"start"`
	Duration        *duration.Duration `json:"duration,omitempty"`
	RandomizeStart  *duration.Duration `json:"randomizeStart,omitempty"`
}

// End resolves the end of the period relative to Start. ok is false when
// Duration is nil, meaning the period extends to end-of-time.
func (p IntervalPeriod) End() (t time.Time, ok bool) {
	if p.Duration == nil {
		return time.Time{}, false
	}
	return p.Duration.Resolve(p.Start), true
}
