package client

import (
	"context"

	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
)

// CreateEvent creates an event and returns the server-assigned record.
func (c *Client) CreateEvent(ctx context.Context, content wire.EventContent) (wire.Event, error) {
	if content.ProgramID == "" {
		return wire.Event{}, ErrInvalidParentObject
	}
	var out wire.Event
	if err := c.post(ctx, "/events/", content, &out); err != nil {
		return wire.Event{}, err
	}
	return out, nil
}

// GetEventByID fetches a single event by its server-assigned ID.
func (c *Client) GetEventByID(ctx context.Context, id string) (wire.Event, error) {
	if id == "" {
		return wire.Event{}, ErrInvalidParentObject
	}
	var out wire.Event
	if err := c.get(ctx, "/events/"+id, nil, &out); err != nil {
		return wire.Event{}, err
	}
	return out, nil
}

// UpdateEvent replaces an event's content.
func (c *Client) UpdateEvent(ctx context.Context, id string, content wire.EventContent) (wire.Event, error) {
	var out wire.Event
	if err := c.put(ctx, "/events/"+id, content, &out); err != nil {
		return wire.Event{}, err
	}
	return out, nil
}

// DeleteEvent deletes an event by ID.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.delete(ctx, "/events/"+id)
}

// GetEvents fetches a single page of events for one program.
func (c *Client) GetEvents(ctx context.Context, programID string, skip, limit int) ([]wire.Event, error) {
	q := skipParam(skip, limit)
	q.Set("programID", programID)
	var out []wire.Event
	if err := c.get(ctx, "/events/", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetEventList fetches every event for one program, auto-paginating.
func (c *Client) GetEventList(ctx context.Context, programID string) ([]wire.Event, error) {
	if programID == "" {
		return nil, ErrInvalidParentObject
	}
	var all []wire.Event
	skip := 0
	for {
		page, err := c.GetEvents(ctx, programID, skip, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
		skip += pageSize
	}
}

// GetAllEvents fetches every event visible to the caller across every
// program, auto-paginating. Unlike GetEventList it does not scope to one
// program: the programID query parameter is simply omitted.
func (c *Client) GetAllEvents(ctx context.Context) ([]wire.Event, error) {
	var all []wire.Event
	skip := 0
	for {
		var page []wire.Event
		if err := c.get(ctx, "/events/", skipParam(skip, pageSize), &page); err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
		skip += pageSize
	}
}
