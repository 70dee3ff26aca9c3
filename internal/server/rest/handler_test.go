package rest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/medialog/internal/logging"
	"github.com/dmitrijs2005/medialog/internal/models"
	"github.com/dmitrijs2005/medialog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/medialog/internal/server/services"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "play123"

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()

	rm := repomanager.NewInMemoryRepositoryManager()
	logger := logging.Discard()
	as, err := services.NewAuthService(nil, rm, testPassword, "secret", time.Hour, logger)
	require.NoError(t, err)

	s := NewServer("127.0.0.1:0", logger,
		services.NewEntryService(nil, rm, logger), as, services.NewSettingsService(nil, rm), opts)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func login(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	status, out := call(t, ts, http.MethodPost, "/api/admin/login", "", map[string]string{"password": testPassword})
	require.Equal(t, http.StatusOK, status)
	token, _ := out["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Options{})

	status, out := call(t, ts, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", out["status"])
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t, Options{})

	tests := []struct {
		name   string
		body   any
		status int
		msg    string
	}{
		{"empty password", map[string]string{"password": ""}, http.StatusBadRequest, "Password required"},
		{"wrong password", map[string]string{"password": "nope"}, http.StatusUnauthorized, "Invalid password"},
		{"no body", nil, http.StatusBadRequest, "Request body required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := call(t, ts, http.MethodPost, "/api/admin/login", "", tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.msg, out["error"])
		})
	}

	status, out := call(t, ts, http.MethodPost, "/api/admin/login", "", map[string]string{"password": testPassword})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, out["success"])
	assert.NotEmpty(t, out["expiresAt"])
}

func TestAdminRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t, Options{})

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/admin/verify"},
		{http.MethodPost, "/api/admin/entries"},
		{http.MethodPut, "/api/admin/entries/1"},
		{http.MethodDelete, "/api/admin/entries/1"},
		{http.MethodPost, "/api/admin/import"},
		{http.MethodGet, "/api/admin/export"},
		{http.MethodDelete, "/api/admin/clear-all"},
		{http.MethodGet, "/api/admin/settings"},
		{http.MethodPut, "/api/admin/settings"},
		{http.MethodPost, "/api/admin/logout"},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			status, out := call(t, ts, r.method, r.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, "Unauthorized", out["error"])

			status, _ = call(t, ts, r.method, r.path, "garbage", nil)
			assert.Equal(t, http.StatusUnauthorized, status)
		})
	}
}

func TestEntryLifecycle(t *testing.T) {
	ts := newTestServer(t, Options{})
	token := login(t, ts)

	status, out := call(t, ts, http.MethodPost, "/api/admin/entries", token, models.Entry{Title: "Dune"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, out["error"])

	status, out = call(t, ts, http.MethodPost, "/api/admin/entries", token,
		models.Entry{Title: "Dune", MediaType: "book", Date: "2024-03-01", Rating: models.IntPtr(5)})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), out["id"])

	status, out = call(t, ts, http.MethodGet, "/api/entries?month=2024-03", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, out["entries"], 1)

	status, out = call(t, ts, http.MethodGet, "/api/entries?search=alien", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, out["entries"], 0)

	status, _ = call(t, ts, http.MethodPut, "/api/admin/entries/1", token,
		models.Entry{Title: "Dune Messiah", MediaType: "book", Date: "2024-03-02"})
	assert.Equal(t, http.StatusOK, status)

	status, out = call(t, ts, http.MethodPut, "/api/admin/entries/42", token,
		models.Entry{Title: "x", MediaType: "book", Date: "2024-03-02"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Entry not found", out["error"])

	status, out = call(t, ts, http.MethodDelete, "/api/admin/entries/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid id", out["error"])

	status, out = call(t, ts, http.MethodGet, "/api/dates", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{map[string]any{"date": "2024-03-02", "count": float64(1)}}, out["dates"])

	status, out = call(t, ts, http.MethodGet, "/api/stats", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), out["total"])

	status, _ = call(t, ts, http.MethodDelete, "/api/admin/entries/1", token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, ts, http.MethodDelete, "/api/admin/entries/1", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestImportExportClear(t *testing.T) {
	ts := newTestServer(t, Options{})
	token := login(t, ts)

	status, out := call(t, ts, http.MethodPost, "/api/admin/import", token, map[string]any{
		"entries": []models.Entry{
			{Title: "Dune", MediaType: "book", Date: "2024-03-01"},
			{Title: "broken"},
			{Title: "Alien", MediaType: "film", Date: "2024-02-01"},
		},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), out["imported"])

	status, out = call(t, ts, http.MethodGet, "/api/admin/export", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, out["entries"], 2)

	status, out = call(t, ts, http.MethodGet, "/api/admin/settings", token, nil)
	require.Equal(t, http.StatusOK, status)
	settings, _ := out["settings"].(map[string]any)
	assert.Equal(t, true, settings["auto_sync"])
	assert.NotEmpty(t, settings["last_sync"], "import stamps last_sync")

	status, out = call(t, ts, http.MethodDelete, "/api/admin/clear-all", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), out["deleted"])

	status, out = call(t, ts, http.MethodGet, "/api/entries", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, out["entries"], 0)
}

func TestSettingsUpdate(t *testing.T) {
	ts := newTestServer(t, Options{})
	token := login(t, ts)

	status, out := call(t, ts, http.MethodPut, "/api/admin/settings", token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "auto_sync required", out["error"])

	status, _ = call(t, ts, http.MethodPut, "/api/admin/settings", token, map[string]any{"auto_sync": false})
	require.Equal(t, http.StatusOK, status)

	_, out = call(t, ts, http.MethodGet, "/api/admin/settings", token, nil)
	settings, _ := out["settings"].(map[string]any)
	assert.Equal(t, false, settings["auto_sync"])
}

func TestLogoutRevokesToken(t *testing.T) {
	ts := newTestServer(t, Options{})
	token := login(t, ts)

	status, out := call(t, ts, http.MethodGet, "/api/admin/verify", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, out["valid"])

	status, _ = call(t, ts, http.MethodPost, "/api/admin/logout", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, ts, http.MethodGet, "/api/admin/verify", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLoginRateLimit(t *testing.T) {
	ts := newTestServer(t, Options{LoginRateLimit: 2})

	for i := 0; i < 2; i++ {
		status, _ := call(t, ts, http.MethodPost, "/api/admin/login", "", map[string]string{"password": "nope"})
		require.Equal(t, http.StatusUnauthorized, status)
	}
	status, out := call(t, ts, http.MethodPost, "/api/admin/login", "", map[string]string{"password": testPassword})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "Too many login attempts", out["error"])

	status, _ = call(t, ts, http.MethodGet, "/api/entries", "", nil)
	assert.Equal(t, http.StatusOK, status, "only login is limited")
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t, Options{})

	status, out := call(t, ts, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not found", out["error"])
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, Options{CORSOrigins: []string{"https://log.example.com"}})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/admin/entries", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://log.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "https://log.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, Options{})
	call(t, ts, http.MethodGet, "/api/entries", "", nil)
	call(t, ts, http.MethodPost, "/api/admin/login", "", map[string]string{"password": "nope"})

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `medialog_http_requests_total{method="GET",route="/api/entries",status="200"} 1`)
	assert.Contains(t, string(body), `medialog_login_attempts_total{outcome="rejected"} 1`)
}

func TestServe_StopsOnCancel(t *testing.T) {
	rm := repomanager.NewInMemoryRepositoryManager()
	logger := logging.Discard()
	as, err := services.NewAuthService(nil, rm, testPassword, "secret", time.Hour, logger)
	require.NoError(t, err)
	s := NewServer("127.0.0.1:0", logger, services.NewEntryService(nil, rm, logger), as, services.NewSettingsService(nil, rm), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
