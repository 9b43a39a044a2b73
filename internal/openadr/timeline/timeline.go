// Package timeline merges a program's events into a single priority-ordered,
// non-overlapping sequence of intervals: the view a VEN or client actually
// acts on, as opposed to the raw overlapping event list the VTN stores.
package timeline

import (
	"sort"
	"time"

	"github.com/erauner12/openadr-vtn/internal/openadr/duration"
	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
	"github.com/rs/zerolog/log"
)

// Interval is one segment of a resolved Timeline.
type Interval struct {
	Start time.Time
	End   time.Time
	// Unbounded is true when the interval has no end (its originating event
	// interval specified no duration); End is meaningless in that case.
	Unbounded bool
	// RandomizeStart carries the source interval's randomizeStart. An
	// Iterator sets it only on the first interval it yields from a given
	// event, so a VEN does not re-randomize the start of every segment; At
	// always returns the stored value.
	RandomizeStart *duration.Duration
	Values         []wire.EventValuesMap
}

// Timeline is a sequence of ordered, non-overlapping intervals built from a
// program's events. Intervals are sorted by start; there may be gaps between
// them, but they never overlap.
type Timeline struct {
	rm rangeMap
}

// Build merges events into a Timeline. ok is false if some event interval
// has no interval_period resolvable from itself, its event, or the program
// — the spec assumes at least one of those three always supplies one, and a
// caller hitting this case has a data problem upstream, not a Timeline bug.
//
// Where two events of equal priority overlap, the one later in events wins
// the overlap, and a warning is logged for it.
func Build(program *wire.ProgramContent, events []*wire.EventContent) (tl *Timeline, ok bool) {
	sorted := make([]*wire.EventContent, len(events))
	copy(sorted, events)
	// Ascending by priority "strength": Unspecified first, MaxPriority (0)
	// last, so that when two events overlap the higher-priority one is
	// inserted later and therefore wins. Stable so that among equal
	// priorities, the last one passed in still ends up inserted last.
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[j].Priority.Higher(sorted[i].Priority)
	})

	rm := rangeMap{}
	for id, ev := range sorted {
		defaultPeriod := ev.IntervalPeriod
		if defaultPeriod == nil {
			defaultPeriod = program.IntervalPeriod
		}

		for _, iv := range ev.Intervals {
			period := iv.IntervalPeriod
			if period == nil {
				period = defaultPeriod
			}
			if period == nil {
				return nil, false
			}

			start := period.Start
			end := farFuture
			if period.Duration != nil {
				end = period.Duration.Resolve(start)
			}

			for _, existing := range rm.overlapping(start, end) {
				if existing.priority == ev.Priority {
					log.Warn().
						Time("existing_start", existing.start).
						Time("existing_end", existing.end).
						Time("new_start", start).
						Time("new_end", end).
						Msg("timeline: overlapping intervals with equal priority")
				}
			}

			rm.insert(start, end, entry{
				id:             id,
				priority:       ev.Priority,
				randomizeStart: period.RandomizeStart,
				values:         iv.Payloads,
			})
		}
	}

	return &Timeline{rm: rm}, true
}

func toInterval(e entry, randomize *duration.Duration) Interval {
	return Interval{
		Start:          e.start,
		End:            e.end,
		Unbounded:      e.end.Equal(farFuture),
		RandomizeStart: randomize,
		Values:         e.values,
	}
}

// At returns the interval active at when, if any.
func (t *Timeline) At(when time.Time) (Interval, bool) {
	e, ok := t.rm.get(when)
	if !ok {
		return Interval{}, false
	}
	return toInterval(e, e.randomizeStart), true
}

// NextUpdate returns the next instant at which the active interval changes:
// the end of the currently active interval, or the start of the next one if
// none is currently active. ok is false if nothing changes from here on.
func (t *Timeline) NextUpdate(when time.Time) (next time.Time, ok bool) {
	if e, found := t.rm.get(when); found {
		return e.end, true
	}
	if len(t.rm.entries) == 0 {
		return time.Time{}, false
	}
	lastEnd := t.rm.entries[len(t.rm.entries)-1].end
	upcoming := t.rm.overlapping(when, lastEnd)
	if len(upcoming) == 0 {
		return time.Time{}, false
	}
	return upcoming[0].start, true
}

// Iterator walks a Timeline's intervals in order, applying randomize-start-
// once semantics: RandomizeStart is populated only on the first interval
// seen for a given source event (all of an event's intervals share one id).
type Iterator struct {
	entries []entry
	idx     int
	seen    map[int]bool
}

// Iter returns a fresh Iterator over t's intervals.
func (t *Timeline) Iter() *Iterator {
	return &Iterator{entries: t.rm.entries, seen: make(map[int]bool)}
}

// Next returns the next interval, or ok=false once exhausted.
func (it *Iterator) Next() (Interval, bool) {
	if it.idx >= len(it.entries) {
		return Interval{}, false
	}
	e := it.entries[it.idx]
	it.idx++

	var randomize *duration.Duration
	if !it.seen[e.id] {
		it.seen[e.id] = true
		randomize = e.randomizeStart
	}
	return toInterval(e, randomize), true
}
