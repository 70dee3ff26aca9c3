package client

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/medialog/internal/models"
)

func (c *HTTPClient) Ping(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, apiCall{method: http.MethodGet, path: "/api/health", out: &out}); err != nil {
		return err
	}
	if out.Status != "ok" {
		return ErrUnavailable
	}
	return nil
}

func (c *HTTPClient) GetEntries(ctx context.Context, filters models.Filters) ([]models.Entry, error) {
	var out struct {
		Entries []models.Entry `json:"entries"`
	}
	err := c.do(ctx, apiCall{method: http.MethodGet, path: "/api/entries", query: filters.Values(), out: &out})
	if err != nil {
		return nil, err
	}
	if out.Entries == nil {
		out.Entries = []models.Entry{}
	}
	return out.Entries, nil
}

func (c *HTTPClient) GetStats(ctx context.Context) (*models.Stats, error) {
	var out models.Stats
	if err := c.do(ctx, apiCall{method: http.MethodGet, path: "/api/stats", out: &out}); err != nil {
		return nil, err
	}
	if out.ByType == nil {
		out.ByType = map[string]int{}
	}
	return &out, nil
}

func (c *HTTPClient) GetDates(ctx context.Context) ([]models.DateCount, error) {
	var out struct {
		Dates []models.DateCount `json:"dates"`
	}
	if err := c.do(ctx, apiCall{method: http.MethodGet, path: "/api/dates", out: &out}); err != nil {
		return nil, err
	}
	if out.Dates == nil {
		out.Dates = []models.DateCount{}
	}
	return out.Dates, nil
}
