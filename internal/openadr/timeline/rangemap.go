package timeline

import (
	"sort"
	"time"

	"github.com/erauner12/openadr-vtn/internal/openadr/duration"
	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
)

// farFuture stands in for "no end": an interval whose duration is
// unspecified extends to this sentinel rather than a true end-of-time value,
// which avoids the overflow corners of pushing time.Time to its limits.
var farFuture = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// entry is one segment of a rangeMap: a half-open [start, end) range and the
// event-interval payload active during it.
type entry struct {
	start          time.Time
	end            time.Time
	id             int
	priority       wire.Priority
	randomizeStart *duration.Duration
	values         []wire.EventValuesMap
}

// rangeMap is a sorted, non-overlapping set of entries. insert overwrites
// whatever portion of existing entries the new range covers, splitting a
// spanning entry into left/right remainders exactly as Rust's rangemap crate
// does — the behavior the reference timeline engine is built on.
type rangeMap struct {
	entries []entry
}

// overlapping returns the contiguous slice of entries overlapping [start, end).
func (m *rangeMap) overlapping(start, end time.Time) []entry {
	lo := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].end.After(start)
	})
	hi := sort.Search(len(m.entries), func(i int) bool {
		return !m.entries[i].start.Before(end)
	})
	if lo >= hi {
		return nil
	}
	return m.entries[lo:hi]
}

// insert writes v into [start, end), overwriting any overlapping entries.
// Entries that extend beyond the new range on either side are trimmed to
// their surviving remainder rather than removed outright.
func (m *rangeMap) insert(start, end time.Time, v entry) {
	v.start, v.end = start, end

	lo := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].end.After(start)
	})
	hi := sort.Search(len(m.entries), func(i int) bool {
		return !m.entries[i].start.Before(end)
	})

	out := make([]entry, 0, len(m.entries)-(hi-lo)+3)
	out = append(out, m.entries[:lo]...)

	if lo < hi {
		first := m.entries[lo]
		if first.start.Before(start) {
			left := first
			left.end = start
			out = append(out, left)
		}
	}

	out = append(out, v)

	if lo < hi {
		last := m.entries[hi-1]
		if last.end.After(end) {
			right := last
			right.start = end
			out = append(out, right)
		}
	}

	out = append(out, m.entries[hi:]...)
	m.entries = out
}

// get returns the entry containing when, if any.
func (m *rangeMap) get(when time.Time) (entry, bool) {
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].end.After(when)
	})
	if i < len(m.entries) && !m.entries[i].start.After(when) {
		return m.entries[i], true
	}
	return entry{}, false
}
