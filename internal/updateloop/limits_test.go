package updateloop

import (
	"testing"
	"time"

	"github.com/erauner12/openadr-vtn/internal/openadr/duration"
	"github.com/erauner12/openadr-vtn/internal/openadr/timeline"
	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
)

func importLimitEvent(start time.Time, watts float64) *wire.EventContent {
	return &wire.EventContent{
		Priority: wire.Unspecified,
		Intervals: []wire.EventInterval{
			{
				IntervalPeriod: &wire.IntervalPeriod{Start: start, Duration: &duration.Duration{Hours: 1}},
				Payloads: []wire.EventValuesMap{
					{ValueType: wire.EventTypeImportCapacityLimit, Values: []wire.Value{watts}},
				},
			},
		},
	}
}

// TestBuildEnforcedLimits reproduces the scenario of two adjacent
// IMPORT_CAPACITY_LIMIT hours: the first poll sees both, the active one
// plus the one that follows; once the clock crosses into the second hour,
// only the remainder is scheduled.
func TestBuildEnforcedLimits(t *testing.T) {
	nineAM := time.Date(1970, 1, 1, 9, 0, 0, 0, time.UTC)
	tenAM := time.Date(1970, 1, 1, 10, 0, 0, 0, time.UTC)
	elevenAM := time.Date(1970, 1, 1, 11, 0, 0, 0, time.UTC)

	events := []*wire.EventContent{
		importLimitEvent(nineAM, 42),
		importLimitEvent(tenAM, 21),
	}
	tl, ok := timeline.Build(&wire.ProgramContent{}, events)
	if !ok {
		t.Fatal("timeline.Build returned ok=false")
	}

	now := nineAM.Add(42 * time.Minute)
	limits, ok, err := buildEnforcedLimits(tl, now, "resource-1")
	if err != nil {
		t.Fatalf("buildEnforcedLimits: %v", err)
	}
	if !ok {
		t.Fatal("expected EnforcedLimits, got none")
	}
	if limits.LimitsRootSide.TotalPowerW != 42 {
		t.Errorf("root watts = %v, want 42", limits.LimitsRootSide.TotalPowerW)
	}
	if !limits.ValidUntil.Equal(elevenAM) {
		t.Errorf("validUntil = %v, want %v", limits.ValidUntil, elevenAM)
	}
	wantSchedule := []ScheduleResEntry{
		{Start: nineAM, LimitsSide: LimitsRes{TotalPowerW: 42}},
		{Start: tenAM, LimitsSide: LimitsRes{TotalPowerW: 21}},
	}
	if len(limits.Schedule) != len(wantSchedule) {
		t.Fatalf("schedule = %+v, want %+v", limits.Schedule, wantSchedule)
	}
	for i, e := range limits.Schedule {
		if !e.Start.Equal(wantSchedule[i].Start) || e.LimitsSide != wantSchedule[i].LimitsSide {
			t.Errorf("schedule[%d] = %+v, want %+v", i, e, wantSchedule[i])
		}
	}

	// Advance an hour: the first interval has now elapsed.
	now = now.Add(time.Hour)
	limits, ok, err = buildEnforcedLimits(tl, now, "resource-1")
	if err != nil {
		t.Fatalf("buildEnforcedLimits after advance: %v", err)
	}
	if !ok {
		t.Fatal("expected EnforcedLimits after advance, got none")
	}
	if limits.LimitsRootSide.TotalPowerW != 21 {
		t.Errorf("root watts after advance = %v, want 21", limits.LimitsRootSide.TotalPowerW)
	}
	if len(limits.Schedule) != 1 || !limits.Schedule[0].Start.Equal(tenAM) {
		t.Errorf("schedule after advance = %+v, want single entry starting at %v", limits.Schedule, tenAM)
	}
}

// TestBuildEnforcedLimitsSkipsGap covers a timeline where an interval between
// two IMPORT_CAPACITY_LIMIT intervals carries a different payload type: the
// gap must not truncate the schedule, and ValidUntil must still reach the end
// of the later qualifying interval.
func TestBuildEnforcedLimitsSkipsGap(t *testing.T) {
	nineAM := time.Date(1970, 1, 1, 9, 0, 0, 0, time.UTC)
	tenAM := time.Date(1970, 1, 1, 10, 0, 0, 0, time.UTC)
	elevenAM := time.Date(1970, 1, 1, 11, 0, 0, 0, time.UTC)
	noon := time.Date(1970, 1, 1, 12, 0, 0, 0, time.UTC)

	gapEvent := &wire.EventContent{
		Priority: wire.Unspecified,
		Intervals: []wire.EventInterval{
			{
				IntervalPeriod: &wire.IntervalPeriod{Start: tenAM, Duration: &duration.Duration{Hours: 1}},
				Payloads: []wire.EventValuesMap{
					{ValueType: wire.EventTypeSimple, Values: []wire.Value{1}},
				},
			},
		},
	}
	events := []*wire.EventContent{
		importLimitEvent(nineAM, 42),
		gapEvent,
		importLimitEvent(elevenAM, 21),
	}
	tl, ok := timeline.Build(&wire.ProgramContent{}, events)
	if !ok {
		t.Fatal("timeline.Build returned ok=false")
	}

	limits, ok, err := buildEnforcedLimits(tl, nineAM, "resource-1")
	if err != nil {
		t.Fatalf("buildEnforcedLimits: %v", err)
	}
	if !ok {
		t.Fatal("expected EnforcedLimits, got none")
	}
	if limits.LimitsRootSide.TotalPowerW != 42 {
		t.Errorf("root watts = %v, want 42", limits.LimitsRootSide.TotalPowerW)
	}
	if !limits.ValidUntil.Equal(noon) {
		t.Errorf("validUntil = %v, want %v (gap must not truncate it)", limits.ValidUntil, noon)
	}
	wantSchedule := []ScheduleResEntry{
		{Start: nineAM, LimitsSide: LimitsRes{TotalPowerW: 42}},
		{Start: elevenAM, LimitsSide: LimitsRes{TotalPowerW: 21}},
	}
	if len(limits.Schedule) != len(wantSchedule) {
		t.Fatalf("schedule = %+v, want %+v", limits.Schedule, wantSchedule)
	}
	for i, e := range limits.Schedule {
		if !e.Start.Equal(wantSchedule[i].Start) || e.LimitsSide != wantSchedule[i].LimitsSide {
			t.Errorf("schedule[%d] = %+v, want %+v", i, e, wantSchedule[i])
		}
	}
}

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(1970, 1, 1, 9, 42, 0, 0, time.UTC)
	clock := NewFakeClock(start)
	if !clock.Now().Equal(start) {
		t.Fatalf("Now() = %v, want %v", clock.Now(), start)
	}
	clock.Advance(time.Hour)
	want := start.Add(time.Hour)
	if !clock.Now().Equal(want) {
		t.Fatalf("Now() after advance = %v, want %v", clock.Now(), want)
	}
}
