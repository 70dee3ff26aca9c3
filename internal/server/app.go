// Package server wires the medialog server together: storage, services,
// the REST API and background maintenance, and runs them until a signal
// arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/medialog/internal/logging"
	"github.com/dmitrijs2005/medialog/internal/server/config"
	"github.com/dmitrijs2005/medialog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/medialog/internal/server/rest"
	"github.com/dmitrijs2005/medialog/internal/server/services"
)

const sessionPurgeInterval = 10 * time.Minute

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	entryService    *services.EntryService
	authService     *services.AuthService
	settingsService *services.SettingsService
}

// NewApp opens storage and builds the services. An empty DatabaseDSN runs
// the server on the in-memory store.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogLevel, c.LogFormat, os.Stdout)

	var (
		db *sql.DB
		rm repomanager.RepositoryManager
	)
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database configured, entries are kept in memory")
		rm = repomanager.NewInMemoryRepositoryManager()
	} else {
		var err error
		db, err = repomanager.OpenPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		rm = repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	as, err := services.NewAuthService(db, rm, c.AdminPassword, c.SecretKey, c.SessionTTL, logger)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}

	return &App{
		config:          c,
		logger:          logger,
		db:              db,
		entryService:    services.NewEntryService(db, rm, logger),
		authService:     as,
		settingsService: services.NewSettingsService(db, rm),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := rest.NewServer(app.config.HTTPAddr, app.logger,
		app.entryService, app.authService, app.settingsService,
		rest.Options{
			CORSOrigins:    app.config.CORSOrigins,
			LoginRateLimit: app.config.LoginRateLimit,
		})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// purgeSessions drops expired sessions until ctx is done.
func (app *App) purgeSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.authService.PurgeExpired(ctx)
			if err != nil {
				app.logger.Error(ctx, "session purge failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "expired sessions purged", "count", n)
			}
		}
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.purgeSessions(ctx, sessionPurgeInterval)
	}()

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(context.Background(), "close database", "error", err)
		}
	}
	app.logger.Info(context.Background(), "App stopped")
}
