package updateloop

import (
	"fmt"
	"time"

	"github.com/erauner12/openadr-vtn/internal/openadr/timeline"
	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
)

// farFuture stands in for "no further change expected", mirroring
// timeline's own sentinel for an unbounded interval's end.
var farFuture = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// LimitsRes is the power limit extracted from one interval's
// IMPORT_CAPACITY_LIMIT payload, in watts. This mirrors the everest-core
// "ExternalLimits" schema's total_power_W field.
type LimitsRes struct {
	TotalPowerW float64
}

// extractLimits finds the first IMPORT_CAPACITY_LIMIT payload among values
// and converts its lone numeric entry to watts. ok is false if no such
// payload is present.
func extractLimits(values []wire.EventValuesMap) (LimitsRes, bool, error) {
	for _, v := range values {
		if v.ValueType != wire.EventTypeImportCapacityLimit {
			continue
		}
		if len(v.Values) != 1 {
			return LimitsRes{}, false, fmt.Errorf("updateloop: IMPORT_CAPACITY_LIMIT must carry exactly one value, got %d", len(v.Values))
		}
		switch n := v.Values[0].(type) {
		case float64:
			return LimitsRes{TotalPowerW: n}, true, nil
		case int:
			return LimitsRes{TotalPowerW: float64(n)}, true, nil
		default:
			return LimitsRes{}, false, fmt.Errorf("updateloop: unexpected IMPORT_CAPACITY_LIMIT value type %T", n)
		}
	}
	return LimitsRes{}, false, nil
}

// ScheduleResEntry is one future (start, limit) entry in EnforcedLimits'
// forward-looking schedule.
type ScheduleResEntry struct {
	Start       time.Time
	LimitsSide  LimitsRes
}

// EnforcedLimits is one update-loop emission: the limit active right now,
// everything known about limit changes after it, and how long the emission
// may be trusted without a fresh one.
type EnforcedLimits struct {
	ID             string
	ValidUntil     time.Time
	LimitsRootSide LimitsRes
	Schedule       []ScheduleResEntry
}

// buildEnforcedLimits takes the root limit from the interval active at now,
// then walks tl forward from now, collecting every interval that carries an
// IMPORT_CAPACITY_LIMIT payload into Schedule, regardless of gaps between
// them. validUntil tracks the running max of every qualifying interval's end,
// so a gap never truncates limits that reappear later in the timeline. ok is
// false if no interval is active at now or the active one carries no limit.
func buildEnforcedLimits(tl *timeline.Timeline, now time.Time, id string) (EnforcedLimits, bool, error) {
	current, active := tl.At(now)
	if !active {
		return EnforcedLimits{}, false, nil
	}
	root, haveRoot, err := extractLimits(current.Values)
	if err != nil {
		return EnforcedLimits{}, false, err
	}

	var schedule []ScheduleResEntry
	validUntil := now

	it := tl.Iter()
	for {
		interval, ok := it.Next()
		if !ok {
			break
		}
		if !interval.Unbounded && !interval.End.After(now) {
			continue
		}
		limits, found, err := extractLimits(interval.Values)
		if err != nil {
			return EnforcedLimits{}, false, err
		}
		if !found {
			continue
		}
		schedule = append(schedule, ScheduleResEntry{Start: interval.Start, LimitsSide: limits})
		if interval.Unbounded {
			validUntil = farFuture
			continue
		}
		if interval.End.After(validUntil) {
			validUntil = interval.End
		}
	}

	if !haveRoot {
		return EnforcedLimits{}, false, nil
	}
	return EnforcedLimits{ID: id, ValidUntil: validUntil, LimitsRootSide: root, Schedule: schedule}, true, nil
}
