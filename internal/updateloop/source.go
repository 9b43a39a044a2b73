package updateloop

import (
	"context"
	"fmt"

	"github.com/erauner12/openadr-vtn/internal/client"
	"github.com/erauner12/openadr-vtn/internal/openadr/timeline"
	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
)

// ClientSource is a TimelineSource backed by a VTN client.Client: it fetches
// one program by name and every event under it, then merges them.
type ClientSource struct {
	Client      *client.Client
	ProgramName string
}

func (s *ClientSource) FetchTimeline(ctx context.Context) (*timeline.Timeline, error) {
	program, err := s.Client.GetProgramByName(ctx, s.ProgramName)
	if err != nil {
		return nil, fmt.Errorf("updateloop: fetch program %q: %w", s.ProgramName, err)
	}

	events, err := s.Client.GetEventList(ctx, program.ID)
	if err != nil {
		return nil, fmt.Errorf("updateloop: fetch events for program %q: %w", s.ProgramName, err)
	}

	eventContents := make([]*wire.EventContent, len(events))
	for i := range events {
		eventContents[i] = &events[i].Content
	}

	tl, ok := timeline.Build(&program.Content, eventContents)
	if !ok {
		return nil, fmt.Errorf("updateloop: program %q has an event interval with no resolvable interval period: %w", s.ProgramName, client.ErrInvalidInterval)
	}
	return tl, nil
}
