package timeline

import (
	"testing"
	"time"

	"github.com/erauner12/openadr-vtn/internal/openadr/duration"
	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
)

func hours(h int) time.Time {
	return time.Unix(0, 0).UTC().Add(time.Duration(h) * time.Hour)
}

func intPayload(v int64) []wire.EventValuesMap {
	return []wire.EventValuesMap{{ValueType: wire.EventTypePrice, Values: []wire.Value{v}}}
}

func eventWithInterval(startH, endH int, value int64, priority wire.Priority) *wire.EventContent {
	dur := duration.Duration{Hours: endH - startH}
	return &wire.EventContent{
		ProgramID: "test-program",
		Priority:  priority,
		Intervals: []wire.EventInterval{{
			ID: int32(startH),
			IntervalPeriod: &wire.IntervalPeriod{
				Start:    hours(startH),
				Duration: &dur,
			},
			Payloads: intPayload(value),
		}},
	}
}

func collect(t *Timeline) []Interval {
	var out []Interval
	it := t.Iter()
	for {
		iv, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, iv)
	}
	return out
}

// Scenario 1: overlap, same priority, insert order wins.
func TestBuildOverlapSamePriorityInsertOrderWins(t *testing.T) {
	e1 := eventWithInterval(0, 10, 42, wire.Unspecified)
	e2 := eventWithInterval(5, 15, 43, wire.Unspecified)

	tl, ok := Build(&wire.ProgramContent{}, []*wire.EventContent{e1, e2})
	if !ok {
		t.Fatal("Build returned ok=false")
	}
	ivs := collect(tl)
	if len(ivs) != 2 {
		t.Fatalf("want 2 intervals, got %d: %+v", len(ivs), ivs)
	}
	if !ivs[0].Start.Equal(hours(0)) || !ivs[0].End.Equal(hours(5)) {
		t.Errorf("interval 0: want [0h,5h), got [%v,%v)", ivs[0].Start, ivs[0].End)
	}
	if !ivs[1].Start.Equal(hours(5)) || !ivs[1].End.Equal(hours(15)) {
		t.Errorf("interval 1: want [5h,15h), got [%v,%v)", ivs[1].Start, ivs[1].End)
	}
	if got := ivs[1].Values[0].Values[0]; got != int64(43) {
		t.Errorf("interval 1 value: want 43, got %v", got)
	}
}

// Scenario 2: higher priority event carves the middle out of a lower
// priority one, and randomize_start only survives on the first fragment.
func TestBuildHigherPriorityCarvesMiddle(t *testing.T) {
	e1 := eventWithInterval(0, 10, 42, wire.NewPriority(2))
	e1.Intervals[0].IntervalPeriod.RandomizeStart = durationPtr(t, "PT1H")
	e2 := eventWithInterval(5, 8, 43, wire.NewPriority(1))

	tl, ok := Build(&wire.ProgramContent{}, []*wire.EventContent{e1, e2})
	if !ok {
		t.Fatal("Build returned ok=false")
	}
	ivs := collect(tl)
	if len(ivs) != 3 {
		t.Fatalf("want 3 intervals, got %d: %+v", len(ivs), ivs)
	}

	wantBounds := [][2]int{{0, 5}, {5, 8}, {8, 10}}
	for i, b := range wantBounds {
		if !ivs[i].Start.Equal(hours(b[0])) || !ivs[i].End.Equal(hours(b[1])) {
			t.Errorf("interval %d: want [%dh,%dh), got [%v,%v)", i, b[0], b[1], ivs[i].Start, ivs[i].End)
		}
	}
	if ivs[0].RandomizeStart == nil {
		t.Error("first fragment of split event should retain randomize_start")
	}
	if ivs[2].RandomizeStart != nil {
		t.Error("later fragment of split event must not repeat randomize_start")
	}
	if ivs[1].RandomizeStart != nil {
		t.Error("intruding higher-priority event had no randomize_start to begin with")
	}
}

func TestNoOverlappingInteriors(t *testing.T) {
	e1 := eventWithInterval(0, 10, 1, wire.NewPriority(5))
	e2 := eventWithInterval(3, 7, 2, wire.NewPriority(3))
	e3 := eventWithInterval(4, 20, 3, wire.NewPriority(1))

	tl, ok := Build(&wire.ProgramContent{}, []*wire.EventContent{e1, e2, e3})
	if !ok {
		t.Fatal("Build returned ok=false")
	}
	ivs := collect(tl)
	for i := 1; i < len(ivs); i++ {
		if ivs[i].Start.Before(ivs[i-1].End) {
			t.Fatalf("interval %d [%v,%v) overlaps interval %d [%v,%v)",
				i, ivs[i].Start, ivs[i].End, i-1, ivs[i-1].Start, ivs[i-1].End)
		}
	}
}

func TestAtAndNextUpdate(t *testing.T) {
	e1 := eventWithInterval(0, 10, 42, wire.NewPriority(2))
	e2 := eventWithInterval(5, 8, 43, wire.NewPriority(1))

	tl, ok := Build(&wire.ProgramContent{}, []*wire.EventContent{e1, e2})
	if !ok {
		t.Fatal("Build returned ok=false")
	}

	iv, ok := tl.At(hours(6))
	if !ok || iv.Values[0].Values[0] != int64(43) {
		t.Fatalf("At(6h): want active interval with value 43, got %+v ok=%v", iv, ok)
	}

	next, ok := tl.NextUpdate(hours(6))
	if !ok || !next.Equal(hours(8)) {
		t.Fatalf("NextUpdate(6h): want 8h, got %v ok=%v", next, ok)
	}

	next, ok = tl.NextUpdate(hours(3))
	if !ok || !next.Equal(hours(5)) {
		t.Fatalf("NextUpdate(3h) (end of the active interval): want 5h, got %v ok=%v", next, ok)
	}

	_, ok = tl.NextUpdate(hours(100))
	if ok {
		t.Fatal("NextUpdate past the last interval should report ok=false")
	}
}

func TestBuildNoResolvableIntervalPeriod(t *testing.T) {
	ev := &wire.EventContent{
		ProgramID: "p",
		Intervals: []wire.EventInterval{{ID: 0, Payloads: intPayload(1)}},
	}
	_, ok := Build(&wire.ProgramContent{}, []*wire.EventContent{ev})
	if ok {
		t.Fatal("Build should fail when no interval_period is resolvable from interval, event, or program")
	}
}

func durationPtr(t *testing.T, s string) *duration.Duration {
	t.Helper()
	d, err := duration.Parse(s)
	if err != nil {
		t.Fatalf("parse duration %q: %v", s, err)
	}
	return &d
}
