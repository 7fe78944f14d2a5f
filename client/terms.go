package client

import (
	"context"
	"net/url"
	"strconv"
)

// ListTerms returns a page of the catalog, optionally filtered by category.
func (c *Client) ListTerms(ctx context.Context, category string, limit, offset int) ([]TermSummary, error) {
	params := url.Values{}
	if category != "" {
		params.Set("category", category)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}

	var resp struct {
		Terms []TermSummary `json:"terms"`
	}
	if err := c.get(ctx, "/api/terms", params, &resp); err != nil {
		return nil, err
	}
	return resp.Terms, nil
}

// GetTerm returns one full term by slug.
func (c *Client) GetTerm(ctx context.Context, slug string) (*Term, error) {
	var term Term
	if err := c.get(ctx, "/api/terms/"+url.PathEscape(slug), nil, &term); err != nil {
		return nil, err
	}
	return &term, nil
}

// ListCategories returns all categories.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var resp struct {
		Categories []Category `json:"categories"`
	}
	if err := c.get(ctx, "/api/categories", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}
