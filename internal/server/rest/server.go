// Package rest serves the medialog HTTP API: public read endpoints, the
// admin surface behind bearer tokens, health and Prometheus metrics.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/medialog/internal/logging"
	"github.com/dmitrijs2005/medialog/internal/models"
)

type EntryService interface {
	List(ctx context.Context, filters models.Filters) ([]models.Entry, error)
	Create(ctx context.Context, e models.Entry) (*models.Entry, error)
	Update(ctx context.Context, id models.ID, e models.Entry) error
	Delete(ctx context.Context, id models.ID) error
	Import(ctx context.Context, list []models.Entry) (int, error)
	Export(ctx context.Context) ([]models.Entry, error)
	ClearAll(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*models.Stats, error)
	Dates(ctx context.Context) ([]models.DateCount, error)
}

type AuthService interface {
	Login(ctx context.Context, password string) (*models.Session, error)
	Verify(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context, sessionID string) error
}

type SettingsService interface {
	Get(ctx context.Context) (*models.Settings, error)
	SetAutoSync(ctx context.Context, autoSync bool) error
}

// Options tune the HTTP surface.
type Options struct {
	CORSOrigins []string
	// LoginRateLimit is the number of login attempts allowed per client IP
	// and minute; zero disables the limit.
	LoginRateLimit  int
	ShutdownTimeout time.Duration
}

type Server struct {
	address  string
	logger   logging.Logger
	entries  EntryService
	auth     AuthService
	settings SettingsService
	metrics  *Metrics
	opts     Options
}

func NewServer(address string, logger logging.Logger, es EntryService, as AuthService, ss SettingsService, opts Options) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		address:  address,
		logger:   logging.Component(logger, "http"),
		entries:  es,
		auth:     as,
		settings: ss,
		metrics:  NewMetrics(),
		opts:     opts,
	}
}

// Run listens on the configured address until ctx is done, then shuts the
// server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
