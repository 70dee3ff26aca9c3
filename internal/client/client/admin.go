package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/medialog/internal/models"
)

// Login exchanges the admin password for a session token and persists it.
func (c *HTTPClient) Login(ctx context.Context, password string) (*models.Session, error) {
	in := struct {
		Password string `json:"password"`
	}{Password: password}
	var out struct {
		Success bool `json:"success"`
		models.Session
	}

	if err := c.do(ctx, apiCall{method: http.MethodPost, path: "/api/admin/login", in: in, out: &out}); err != nil {
		return nil, err
	}
	if !out.Success || out.Token == "" {
		return nil, ErrUnauthorized
	}

	if err := c.tokens.SaveToken(ctx, out.Token); err != nil {
		return nil, fmt.Errorf("save admin token: %w", err)
	}
	c.setSession(out.Token, true)
	return &out.Session, nil
}

// Logout revokes the session on the server when possible and always
// forgets it locally.
func (c *HTTPClient) Logout(ctx context.Context) error {
	if c.HasToken() {
		if err := c.do(ctx, apiCall{method: http.MethodPost, path: "/api/admin/logout", auth: true}); err != nil {
			c.logger.Warn(ctx, "server logout failed", "error", err)
		}
	}
	return c.dropSession(ctx)
}

// VerifySession asks the server whether the stored token is still valid.
// A rejected token is cleared; a transport failure leaves the token in
// place but the client is not treated as admin until verified.
func (c *HTTPClient) VerifySession(ctx context.Context) (bool, error) {
	token := c.currentToken()
	if token == "" {
		return false, nil
	}

	var out struct {
		Valid bool `json:"valid"`
	}
	err := c.do(ctx, apiCall{method: http.MethodGet, path: "/api/admin/verify", out: &out, auth: true})
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return false, nil
		}
		c.setSession(token, false)
		return false, err
	}

	c.setSession(token, out.Valid)
	return out.Valid, nil
}

func (c *HTTPClient) CreateEntry(ctx context.Context, entry models.Entry) (*models.Entry, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}

	var out struct {
		ID    models.ID     `json:"id"`
		Entry *models.Entry `json:"entry"`
	}
	err := c.do(ctx, apiCall{method: http.MethodPost, path: "/api/admin/entries", in: entry, out: &out, auth: true})
	if err != nil {
		return nil, err
	}

	if out.Entry == nil {
		created := entry.WithID(out.ID)
		return &created, nil
	}
	if out.Entry.ID == 0 {
		out.Entry.ID = out.ID
	}
	return out.Entry, nil
}

func (c *HTTPClient) UpdateEntry(ctx context.Context, id models.ID, entry models.Entry) error {
	if err := c.requireAdmin(); err != nil {
		return err
	}
	return c.do(ctx, apiCall{method: http.MethodPut, path: "/api/admin/entries/" + id.String(), in: entry, auth: true})
}

func (c *HTTPClient) DeleteEntry(ctx context.Context, id models.ID) error {
	if err := c.requireAdmin(); err != nil {
		return err
	}
	return c.do(ctx, apiCall{method: http.MethodDelete, path: "/api/admin/entries/" + id.String(), auth: true})
}

func (c *HTTPClient) ImportEntries(ctx context.Context, entries []models.Entry) (int, error) {
	if err := c.requireAdmin(); err != nil {
		return 0, err
	}
	in := struct {
		Entries []models.Entry `json:"entries"`
	}{Entries: entries}
	var out struct {
		Imported int `json:"imported"`
	}
	if err := c.do(ctx, apiCall{method: http.MethodPost, path: "/api/admin/import", in: in, out: &out, auth: true}); err != nil {
		return 0, err
	}
	return out.Imported, nil
}

func (c *HTTPClient) ExportEntries(ctx context.Context) ([]models.Entry, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	var out struct {
		Entries []models.Entry `json:"entries"`
	}
	if err := c.do(ctx, apiCall{method: http.MethodGet, path: "/api/admin/export", out: &out, auth: true}); err != nil {
		return nil, err
	}
	if out.Entries == nil {
		out.Entries = []models.Entry{}
	}
	return out.Entries, nil
}

func (c *HTTPClient) ClearAll(ctx context.Context) (int64, error) {
	if err := c.requireAdmin(); err != nil {
		return 0, err
	}
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := c.do(ctx, apiCall{method: http.MethodDelete, path: "/api/admin/clear-all", out: &out, auth: true}); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

func (c *HTTPClient) GetSettings(ctx context.Context) (*models.Settings, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	var out struct {
		Settings models.Settings `json:"settings"`
	}
	if err := c.do(ctx, apiCall{method: http.MethodGet, path: "/api/admin/settings", out: &out, auth: true}); err != nil {
		return nil, err
	}
	return &out.Settings, nil
}

func (c *HTTPClient) UpdateSettings(ctx context.Context, autoSync bool) error {
	if err := c.requireAdmin(); err != nil {
		return err
	}
	in := struct {
		AutoSync bool `json:"auto_sync"`
	}{AutoSync: autoSync}
	return c.do(ctx, apiCall{method: http.MethodPut, path: "/api/admin/settings", in: in, auth: true})
}
