package duration

import (
	"testing"
	"time"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []Duration{
		Zero,
		{Hours: 1},
		{Years: 1, Months: 2, Days: 3, Hours: 4, Minutes: 5, Seconds: 6},
		{Years: 999},
		{Minutes: 90},
	}

	for _, d := range cases {
		s := d.String()
		got, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", s, err)
		}
		if got != d {
			t.Fatalf("round trip mismatch: print %+v -> %q -> parse %+v", d, s, got)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{"", "1Y", "PT", "P1Z", "PTT1H"} {
		if _, err := Parse(s); err == nil {
			t.Fatalf("Parse(%q) expected error, got nil", s)
		}
	}
}

func TestResolve(t *testing.T) {
	anchor := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
	d := Duration{Months: 1}
	got := d.Resolve(anchor)
	want := time.Date(2023, 3, 3, 0, 0, 0, 0, time.UTC) // Feb has 28 days, AddDate normalizes
	if !got.Equal(want) {
		t.Fatalf("Resolve month rollover = %v, want %v", got, want)
	}

	hourAnchor := time.Date(2023, 6, 1, 9, 0, 0, 0, time.UTC)
	hd := Duration{Hours: 1}
	if got := hd.Resolve(hourAnchor); !got.Equal(hourAnchor.Add(time.Hour)) {
		t.Fatalf("Resolve hour = %v, want %v", got, hourAnchor.Add(time.Hour))
	}
}
