package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
)

// CreateProgram creates a program and returns the server-assigned record.
func (c *Client) CreateProgram(ctx context.Context, content wire.ProgramContent) (wire.Program, error) {
	var out wire.Program
	if err := c.post(ctx, "/programs/", content, &out); err != nil {
		return wire.Program{}, err
	}
	return out, nil
}

// GetProgramByID fetches a single program by its server-assigned ID.
func (c *Client) GetProgramByID(ctx context.Context, id string) (wire.Program, error) {
	if id == "" {
		return wire.Program{}, ErrInvalidParentObject
	}
	var out wire.Program
	if err := c.get(ctx, "/programs/"+id, nil, &out); err != nil {
		return wire.Program{}, err
	}
	return out, nil
}

// UpdateProgram replaces a program's content.
func (c *Client) UpdateProgram(ctx context.Context, id string, content wire.ProgramContent) (wire.Program, error) {
	var out wire.Program
	if err := c.put(ctx, "/programs/"+id, content, &out); err != nil {
		return wire.Program{}, err
	}
	return out, nil
}

// DeleteProgram deletes a program by ID.
func (c *Client) DeleteProgram(ctx context.Context, id string) error {
	return c.delete(ctx, "/programs/"+id)
}

// GetPrograms fetches a single page of programs starting at skip.
func (c *Client) GetPrograms(ctx context.Context, skip, limit int) ([]wire.Program, error) {
	var out []wire.Program
	if err := c.get(ctx, "/programs/", skipParam(skip, limit), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAllPrograms walks every page sequentially until a short page is
// returned, mirroring the reference client's paginated get_all_programs.
func (c *Client) GetAllPrograms(ctx context.Context) ([]wire.Program, error) {
	var all []wire.Program
	skip := 0
	for {
		page, err := c.GetPrograms(ctx, skip, pageSize)
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

// GetProgramByName finds the program whose programName matches exactly. It
// requests limit=2 so it can distinguish "not found" from "more than one
// match" without having to page through the whole collection.
func (c *Client) GetProgramByName(ctx context.Context, name string) (wire.Program, error) {
	query := url.Values{"limit": {"2"}, "targetType": {"PROGRAM_NAME"}, "targetValues": {name}}
	var page []wire.Program
	if err := c.get(ctx, "/programs/", query, &page); err != nil {
		return wire.Program{}, err
	}
	matches := make([]wire.Program, 0, len(page))
	for _, p := range page {
		if p.Content.ProgramName == name {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return wire.Program{}, fmt.Errorf("%w: programName %q", ErrObjectNotFound, name)
	case 1:
		return matches[0], nil
	default:
		return wire.Program{}, fmt.Errorf("%w: programName %q", ErrDuplicateObject, name)
	}
}
