package client

import (
	"context"

	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
)

// CreateReport creates a report and returns the server-assigned record.
func (c *Client) CreateReport(ctx context.Context, content wire.ReportContent) (wire.Report, error) {
	if content.ProgramID == "" || content.EventID == "" {
		return wire.Report{}, ErrInvalidParentObject
	}
	var out wire.Report
	if err := c.post(ctx, "/reports/", content, &out); err != nil {
		return wire.Report{}, err
	}
	return out, nil
}

// GetReportByID fetches a single report by its server-assigned ID.
func (c *Client) GetReportByID(ctx context.Context, id string) (wire.Report, error) {
	if id == "" {
		return wire.Report{}, ErrInvalidParentObject
	}
	var out wire.Report
	if err := c.get(ctx, "/reports/"+id, nil, &out); err != nil {
		return wire.Report{}, err
	}
	return out, nil
}

// UpdateReport replaces a report's content.
func (c *Client) UpdateReport(ctx context.Context, id string, content wire.ReportContent) (wire.Report, error) {
	var out wire.Report
	if err := c.put(ctx, "/reports/"+id, content, &out); err != nil {
		return wire.Report{}, err
	}
	return out, nil
}

// DeleteReport deletes a report by ID.
func (c *Client) DeleteReport(ctx context.Context, id string) error {
	return c.delete(ctx, "/reports/"+id)
}

// GetReports fetches a single page of reports for one program/event.
func (c *Client) GetReports(ctx context.Context, programID, eventID string, skip, limit int) ([]wire.Report, error) {
	q := skipParam(skip, limit)
	if programID != "" {
		q.Set("programID", programID)
	}
	if eventID != "" {
		q.Set("eventID", eventID)
	}
	var out []wire.Report
	if err := c.get(ctx, "/reports/", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetReportList fetches every report for one event, auto-paginating.
func (c *Client) GetReportList(ctx context.Context, programID, eventID string) ([]wire.Report, error) {
	if eventID == "" {
		return nil, ErrInvalidParentObject
	}
	var all []wire.Report
	skip := 0
	for {
		page, err := c.GetReports(ctx, programID, eventID, skip, pageSize)
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

// GetAllReports fetches every report visible to the caller, auto-paginating.
func (c *Client) GetAllReports(ctx context.Context) ([]wire.Report, error) {
	var all []wire.Report
	skip := 0
	for {
		page, err := c.GetReports(ctx, "", "", skip, pageSize)
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
