package client

import (
	"context"
	"net/url"
	"strconv"
)

// StartImport triggers a new ingestion run.
func (c *Client) StartImport(ctx context.Context, req StartImportRequest) (*ImportRun, error) {
	var run ImportRun
	if err := c.post(ctx, "/api/imports", req, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ImportStatus returns the current state of a run.
func (c *Client) ImportStatus(ctx context.Context, runID string) (*ImportRun, error) {
	var run ImportRun
	if err := c.get(ctx, "/api/imports/"+url.PathEscape(runID), nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListImports returns recent runs, newest first.
func (c *Client) ListImports(ctx context.Context, limit int) ([]ImportRun, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp struct {
		Runs []ImportRun `json:"runs"`
	}
	if err := c.get(ctx, "/api/imports", params, &resp); err != nil {
		return nil, err
	}
	return resp.Runs, nil
}

// CancelImport requests cooperative cancellation of an active run.
func (c *Client) CancelImport(ctx context.Context, runID string) error {
	return c.post(ctx, "/api/imports/"+url.PathEscape(runID)+"/cancel", nil, nil)
}

// ResetCheckpoints deletes all checkpoints for a source, forcing the next
// incremental run to start over. Returns the number removed.
func (c *Client) ResetCheckpoints(ctx context.Context, sourceID string) (int, error) {
	var resp struct {
		Removed int `json:"removed"`
	}
	if err := c.post(ctx, "/api/checkpoints/reset", map[string]string{"source_id": sourceID}, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}
