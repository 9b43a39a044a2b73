// Package updateloop runs the VEN-side poll/react cycle that turns a
// program's events into a stream of EnforcedLimits a local controller can
// act on, re-polling the VTN on a fixed interval and re-emitting sooner
// whenever the currently known timeline says a limit is about to change.
package updateloop

import (
	"context"
	"time"

	"github.com/erauner12/openadr-vtn/internal/openadr/timeline"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// TimelineSource fetches the latest merged timeline for one VEN/resource.
// ClientSource (a client.Client plus GetProgramByName, GetEventList and
// timeline.Build) implements it.
type TimelineSource interface {
	FetchTimeline(ctx context.Context) (*timeline.Timeline, error)
}

// Loop polls a TimelineSource and emits EnforcedLimits on Updates each time
// a poll delivers a timeline and each time the clock reaches a boundary the
// current timeline already told us about, provided the interval active at
// that moment carries a limit. An emission is not suppressed when the limit
// is the same as in the previous one.
type Loop struct {
	ID           string
	Source       TimelineSource
	Clock        Clock
	PollInterval time.Duration

	Updates chan EnforcedLimits
}

// New builds a Loop with a buffered Updates channel, ready for Run.
func New(id string, source TimelineSource, clock Clock, pollInterval time.Duration) *Loop {
	return &Loop{
		ID:           id,
		Source:       source,
		Clock:        clock,
		PollInterval: pollInterval,
		Updates:      make(chan EnforcedLimits, 1),
	}
}

// Run blocks until ctx is canceled, running the poll and react goroutines
// and closing Updates on exit.
func (l *Loop) Run(ctx context.Context) error {
	timelineCh := make(chan *timeline.Timeline, 1)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return l.pollTimeline(ctx, timelineCh) })
	g.Go(func() error { return l.updateListener(ctx, timelineCh) })

	err := g.Wait()
	close(l.Updates)
	return err
}

// pollTimeline fetches a fresh timeline every PollInterval (and once
// immediately on start) and hands it to updateListener via timelineCh.
func (l *Loop) pollTimeline(ctx context.Context, timelineCh chan<- *timeline.Timeline) error {
	ticker := time.NewTicker(l.PollInterval)
	defer ticker.Stop()

	fetch := func() error {
		tl, err := l.Source.FetchTimeline(ctx)
		if err != nil {
			log.Error().Err(err).Str("id", l.ID).Msg("updateloop: failed to fetch timeline")
			return nil
		}
		select {
		case timelineCh <- tl:
		case <-ctx.Done():
		}
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := fetch(); err != nil {
				return err
			}
		}
	}
}

// updateListener holds the current timeline and emits EnforcedLimits
// whenever it changes or whenever the clock reaches the timeline's next
// known boundary, whichever happens first.
func (l *Loop) updateListener(ctx context.Context, timelineCh <-chan *timeline.Timeline) error {
	var current *timeline.Timeline
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	emit := func() {
		if current == nil {
			return
		}
		now := l.Clock.Now()
		limits, ok, err := buildEnforcedLimits(current, now, l.ID)
		if err != nil {
			log.Error().Err(err).Str("id", l.ID).Msg("updateloop: failed to extract limits")
			return
		}
		if !ok {
			return
		}
		select {
		case l.Updates <- limits:
		case <-ctx.Done():
		}
	}

	rearm := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
		}
		if current == nil {
			return
		}
		next, ok := current.NextUpdate(l.Clock.Now())
		if !ok {
			return
		}
		d := next.Sub(l.Clock.Now())
		if d < 0 {
			d = 0
		}
		timer = time.NewTimer(d)
	}

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case tl := <-timelineCh:
			current = tl
			emit()
			rearm()
		case <-timerC:
			emit()
			rearm()
		}
	}
}
