package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/medialog/internal/common"
	"github.com/dmitrijs2005/medialog/internal/logging"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxFailures = 5
	defaultOpenTimeout = 30 * time.Second
)

type response struct {
	status int
	body   []byte
}

// HTTPClient implements Client over the medialog REST API.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenStore
	logger  logging.Logger
	cb      *gobreaker.CircuitBreaker[*response]

	maxFailures uint32
	openTimeout time.Duration

	mu      sync.RWMutex
	token   string
	isAdmin bool
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.http.Timeout = d }
}

// WithBreaker configures the circuit breaker: it opens after maxFailures
// consecutive failures and probes the server again after openTimeout.
func WithBreaker(maxFailures uint32, openTimeout time.Duration) Option {
	return func(c *HTTPClient) {
		c.maxFailures = maxFailures
		c.openTimeout = openTimeout
	}
}

// NewHTTPClient builds a client for the API rooted at baseURL. A token
// found in tokens is verified right away; the client starts as admin only
// if the server accepts it.
func NewHTTPClient(ctx context.Context, baseURL string, tokens TokenStore, logger logging.Logger, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: scheme and host required", baseURL)
	}

	c := &HTTPClient{
		baseURL:     u,
		http:        &http.Client{Timeout: defaultTimeout},
		tokens:      tokens,
		logger:      logging.Component(logger, "api-client"),
		maxFailures: defaultMaxFailures,
		openTimeout: defaultOpenTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cb = c.newBreaker()

	token, err := tokens.LoadToken(ctx)
	if err != nil {
		c.logger.Warn(ctx, "failed to load admin token", "error", err)
	}
	if token != "" {
		c.token = token
		if _, err := c.VerifySession(ctx); err != nil {
			c.logger.Warn(ctx, "admin session not verified", "error", err)
		}
	}

	return c, nil
}

func (c *HTTPClient) newBreaker() *gobreaker.CircuitBreaker[*response] {
	maxFailures := c.maxFailures
	return gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        "medialog-api",
		MaxRequests: 1,
		Timeout:     c.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn(context.Background(), "circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

func (c *HTTPClient) IsAdmin() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isAdmin && c.token != ""
}

func (c *HTTPClient) HasToken() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

func (c *HTTPClient) requireAdmin() error {
	if !c.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

func (c *HTTPClient) setSession(token string, admin bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.isAdmin = admin
}

func (c *HTTPClient) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// dropSession forgets the token locally and in the token store.
func (c *HTTPClient) dropSession(ctx context.Context) error {
	c.setSession("", false)
	if err := c.tokens.ClearToken(ctx); err != nil {
		return fmt.Errorf("clear admin token: %w", err)
	}
	return nil
}

type apiCall struct {
	method string
	path   string
	query  url.Values
	in     any
	out    any
	auth   bool
}

// do sends one request through the circuit breaker. Only transport errors
// and 5xx responses count as breaker failures.
func (c *HTTPClient) do(ctx context.Context, call apiCall) error {
	var payload []byte
	if call.in != nil {
		var err error
		if payload, err = json.Marshal(call.in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + call.path
	if len(call.query) > 0 {
		u.RawQuery = call.query.Encode()
	}

	var token string
	if call.auth {
		token = c.currentToken()
	}

	resp, err := c.cb.Execute(func() (*response, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, call.method, u.String(), body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
		}

		res, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer res.Body.Close()

		data, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
		}

		r := &response{status: res.StatusCode, body: data}
		if r.status >= http.StatusInternalServerError {
			return nil, newAPIError(r)
		}
		return r, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}

	if resp.status >= http.StatusBadRequest {
		apiErr := newAPIError(resp)
		if call.auth && resp.status == http.StatusUnauthorized {
			c.logger.Warn(ctx, "admin session rejected by server", "path", call.path)
			if err := c.dropSession(ctx); err != nil {
				c.logger.Error(ctx, "failed to drop session", "error", err)
			}
		}
		return apiErr
	}

	if call.out != nil && len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, call.out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", call.method, call.path, err)
		}
	}
	return nil
}

func newAPIError(r *response) *APIError {
	var body struct {
		Error string `json:"error"`
	}
	msg := http.StatusText(r.status)
	if err := json.Unmarshal(r.body, &body); err == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{StatusCode: r.status, Message: msg}
}
