package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/medialog/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/medialog/internal/logging"
	"github.com/dmitrijs2005/medialog/internal/models"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*************
 * Fake API
 *************/

type fakeAPI struct {
	token    string
	entries  []models.Entry
	requests atomic.Int32
	failWith int
	lastAuth string
	lastBody []byte
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			f.lastAuth = r.Header.Get("Authorization")
			if f.lastAuth != "Bearer "+f.token || f.token == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
				return
			}
			h(w, r)
		}
	}

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /api/entries", func(w http.ResponseWriter, r *http.Request) {
		out := models.FilterEntries(f.entries, models.FiltersFromValues(r.URL.Query()))
		writeJSON(w, http.StatusOK, map[string]any{"entries": out})
	})
	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.Stats{Total: 2, ThisMonth: 1, ThisYear: 2, ByType: map[string]int{"book": 2}})
	})
	mux.HandleFunc("GET /api/dates", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"dates": models.CountByDate(f.entries)})
	})
	mux.HandleFunc("POST /api/admin/login", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Password != "play123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid password"})
			return
		}
		f.token = "tok-1"
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": f.token, "expiresAt": time.Now().Add(24 * time.Hour)})
	})
	mux.HandleFunc("POST /api/admin/logout", admin(func(w http.ResponseWriter, r *http.Request) {
		f.token = ""
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}))
	mux.HandleFunc("GET /api/admin/verify", admin(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
	}))
	mux.HandleFunc("POST /api/admin/entries", admin(func(w http.ResponseWriter, r *http.Request) {
		f.lastBody, _ = io.ReadAll(r.Body)
		var e models.Entry
		_ = json.Unmarshal(f.lastBody, &e)
		e.ID = models.ID(len(f.entries) + 100)
		f.entries = append(f.entries, e)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": e.ID, "entry": e})
	}))
	mux.HandleFunc("PUT /api/admin/entries/{id}", admin(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "100" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Entry not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated": 1})
	}))
	mux.HandleFunc("DELETE /api/admin/entries/{id}", admin(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": 1})
	}))
	mux.HandleFunc("POST /api/admin/import", admin(func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Entries []models.Entry `json:"entries"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "imported": len(in.Entries)})
	}))
	mux.HandleFunc("GET /api/admin/export", admin(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"entries": f.entries})
	}))
	mux.HandleFunc("DELETE /api/admin/clear-all", admin(func(w http.ResponseWriter, r *http.Request) {
		n := len(f.entries)
		f.entries = nil
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": n})
	}))
	mux.HandleFunc("GET /api/admin/settings", admin(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"settings": map[string]any{"auto_sync": true}})
	}))
	mux.HandleFunc("PUT /api/admin/settings", admin(func(w http.ResponseWriter, r *http.Request) {
		f.lastBody, _ = io.ReadAll(r.Body)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		if f.failWith != 0 {
			writeJSON(w, f.failWith, map[string]string{"error": "boom"})
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func newTestClient(t *testing.T, f *fakeAPI, tokens TokenStore, opts ...Option) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	if tokens == nil {
		tokens = &metadata.MemoryTokenStore{}
	}
	c, err := NewHTTPClient(context.Background(), srv.URL, tokens, logging.Discard(), opts...)
	require.NoError(t, err)
	return c, srv
}

func login(t *testing.T, c *HTTPClient) {
	t.Helper()
	_, err := c.Login(context.Background(), "play123")
	require.NoError(t, err)
}

/*************
 * Tests
 *************/

func TestNewHTTPClient_InvalidURL(t *testing.T) {
	_, err := NewHTTPClient(context.Background(), "not a url", &metadata.MemoryTokenStore{}, logging.Discard())
	require.Error(t, err)
}

func TestPublicEndpoints(t *testing.T) {
	f := &fakeAPI{entries: []models.Entry{
		{ID: 1, Title: "Dune", MediaType: "book", Date: "2024-03-01"},
		{ID: 2, Title: "Emma", MediaType: "book", Date: "2024-02-01"},
	}}
	c, _ := newTestClient(t, f, nil)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	all, err := c.GetEntries(ctx, models.Filters{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	march, err := c.GetEntries(ctx, models.Filters{Month: "2024-03"})
	require.NoError(t, err)
	require.Len(t, march, 1)
	assert.Equal(t, "Dune", march[0].Title)

	stats, err := c.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)

	dates, err := c.GetDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.DateCount{{Date: "2024-03-01", Count: 1}, {Date: "2024-02-01", Count: 1}}, dates)
}

func TestAdminOperations_FailFastWithoutSession(t *testing.T) {
	f := &fakeAPI{}
	c, _ := newTestClient(t, f, nil)
	ctx := context.Background()
	before := f.requests.Load()

	_, err := c.CreateEntry(ctx, models.Entry{Title: "x", MediaType: "y", Date: "2024-01-01"})
	assert.ErrorIs(t, err, ErrAdminRequired)
	assert.ErrorIs(t, c.UpdateEntry(ctx, 1, models.Entry{}), ErrAdminRequired)
	assert.ErrorIs(t, c.DeleteEntry(ctx, 1), ErrAdminRequired)
	_, err = c.ImportEntries(ctx, nil)
	assert.ErrorIs(t, err, ErrAdminRequired)
	_, err = c.ExportEntries(ctx)
	assert.ErrorIs(t, err, ErrAdminRequired)
	_, err = c.ClearAll(ctx)
	assert.ErrorIs(t, err, ErrAdminRequired)
	_, err = c.GetSettings(ctx)
	assert.ErrorIs(t, err, ErrAdminRequired)
	assert.ErrorIs(t, c.UpdateSettings(ctx, true), ErrAdminRequired)

	assert.Equal(t, before, f.requests.Load(), "no request may leave the client")
}

func TestLogin_WrongPassword(t *testing.T) {
	c, _ := newTestClient(t, &fakeAPI{}, nil)

	_, err := c.Login(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid password", apiErr.Message)
	assert.False(t, c.IsAdmin())
}

func TestLoginAdminFlowAndLogout(t *testing.T) {
	f := &fakeAPI{}
	tokens := &metadata.MemoryTokenStore{}
	c, _ := newTestClient(t, f, tokens)
	ctx := context.Background()

	sess, err := c.Login(ctx, "play123")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", sess.Token)
	assert.True(t, c.IsAdmin())

	stored, _ := tokens.LoadToken(ctx)
	assert.Equal(t, "tok-1", stored)

	created, err := c.CreateEntry(ctx, models.Entry{Title: "Dune", MediaType: "book", Date: "2024-03-01"})
	require.NoError(t, err)
	assert.Equal(t, models.ID(100), created.ID)
	assert.Equal(t, "Bearer tok-1", f.lastAuth)

	require.NoError(t, c.UpdateEntry(ctx, 100, *created))
	err = c.UpdateEntry(ctx, 5, *created)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.DeleteEntry(ctx, 100))

	n, err := c.ImportEntries(ctx, []models.Entry{{Title: "a", MediaType: "b", Date: "2024-01-01"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	exported, err := c.ExportEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, exported, 1)

	settings, err := c.GetSettings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.AutoSync)
	require.NoError(t, c.UpdateSettings(ctx, false))
	assert.JSONEq(t, `{"auto_sync":false}`, string(f.lastBody))

	deleted, err := c.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	require.NoError(t, c.Logout(ctx))
	assert.False(t, c.IsAdmin())
	assert.False(t, c.HasToken())
	stored, _ = tokens.LoadToken(ctx)
	assert.Empty(t, stored)
	assert.Empty(t, f.token, "server session revoked")
}

func TestNewHTTPClient_VerifiesStoredToken(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token promotes to admin", func(t *testing.T) {
		f := &fakeAPI{token: "kept"}
		tokens := &metadata.MemoryTokenStore{}
		require.NoError(t, tokens.SaveToken(ctx, "kept"))

		c, _ := newTestClient(t, f, tokens)
		assert.True(t, c.IsAdmin())
	})

	t.Run("rejected token is cleared", func(t *testing.T) {
		f := &fakeAPI{token: "other"}
		tokens := &metadata.MemoryTokenStore{}
		require.NoError(t, tokens.SaveToken(ctx, "stale"))

		c, _ := newTestClient(t, f, tokens)
		assert.False(t, c.IsAdmin())
		assert.False(t, c.HasToken())
		stored, _ := tokens.LoadToken(ctx)
		assert.Empty(t, stored)
	})

	t.Run("unreachable server keeps token but demotes", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		tokens := &metadata.MemoryTokenStore{}
		require.NoError(t, tokens.SaveToken(ctx, "kept"))

		c, err := NewHTTPClient(ctx, url, tokens, logging.Discard())
		require.NoError(t, err)
		assert.False(t, c.IsAdmin())
		assert.True(t, c.HasToken())
	})
}

func TestExpiredSessionIsDropped(t *testing.T) {
	f := &fakeAPI{}
	c, _ := newTestClient(t, f, nil)
	login(t, c)

	f.token = "rotated"
	err := c.DeleteEntry(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, IsTransient(err))
	assert.False(t, c.IsAdmin())
	assert.False(t, c.HasToken())
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(context.Background(), url, &metadata.MemoryTokenStore{}, logging.Discard())
	require.NoError(t, err)

	_, err = c.GetEntries(context.Background(), models.Filters{})
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "connection error", ErrUnavailable.Error())
	assert.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

func TestServerErrors_OpenCircuit(t *testing.T) {
	f := &fakeAPI{failWith: http.StatusInternalServerError}
	c, _ := newTestClient(t, f, nil, WithBreaker(2, time.Hour))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.GetStats(ctx)
		require.ErrorIs(t, err, ErrServer)
	}
	sent := f.requests.Load()

	_, err := c.GetStats(ctx)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, sent, f.requests.Load(), "open circuit must not hit the server")
}

func TestClientErrors_DoNotOpenCircuit(t *testing.T) {
	f := &fakeAPI{failWith: http.StatusBadRequest}
	c, _ := newTestClient(t, f, nil, WithBreaker(1, time.Hour))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.GetDates(ctx)
		require.ErrorIs(t, err, ErrValidation)
	}
	assert.Equal(t, int32(3), f.requests.Load())
}

func TestAPIError_Is(t *testing.T) {
	assert.ErrorIs(t, &APIError{StatusCode: 403}, ErrUnauthorized)
	assert.ErrorIs(t, &APIError{StatusCode: 503}, ErrServer)
	assert.NotErrorIs(t, &APIError{StatusCode: 409}, ErrNotFound)
	assert.False(t, IsTransient(&APIError{StatusCode: 404}))
	assert.True(t, IsTransient(ErrAdminRequired))
}
