package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/medialog/internal/client/client"
	"github.com/dmitrijs2005/medialog/internal/client/config"
	"github.com/dmitrijs2005/medialog/internal/client/repositories"
	"github.com/dmitrijs2005/medialog/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/medialog/internal/client/services"
	"github.com/dmitrijs2005/medialog/internal/logging"
)

const pingTimeout = 3 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	svc    *services.DataService
	repos  *repositories.Repositories
	reader *bufio.Reader
	out    io.Writer
	now    func() time.Time
}

func NewApp(in io.Reader, out io.Writer) *App {
	return &App{
		reader: bufio.NewReader(in),
		out:    out,
		now:    time.Now,
	}
}

// Open wires local storage, the API client and the data service for cfg.
// In backend mode the server is probed once so that a command run while
// offline goes straight to the local cache.
func (a *App) Open(ctx context.Context, cfg *config.Config) error {
	if a.svc != nil {
		return nil
	}

	mode, err := services.ParseStorageMode(cfg.StorageMode)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	repos, err := repositories.Open(ctx, repositories.Options{
		DataDir:      cfg.DataDir,
		CacheBackend: cfg.CacheBackend,
		PersistQueue: cfg.PersistQueue,
	})
	if err != nil {
		return err
	}

	var api client.Client
	online := true
	if mode == services.ModeBackend {
		hc, err := client.NewHTTPClient(ctx, cfg.ServerURL, metadata.NewTokenStore(repos.Metadata), logger,
			client.WithTimeout(cfg.RequestTimeout))
		if err != nil {
			_ = repos.Close()
			return err
		}
		api = hc

		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		online = hc.Ping(pctx) == nil
		cancel()
		if !online {
			logger.Warn(ctx, "server unreachable, working offline", "server", cfg.ServerURL)
		}
	}

	svc, err := services.NewDataService(services.Options{
		StorageMode:      mode,
		FallbackToLocal:  cfg.FallbackToLocal,
		AutoSyncInterval: cfg.AutoSyncInterval,
	}, api, repos.Entries, repos.Queue, logger,
		services.WithMetadata(repos.Metadata),
		services.WithInitialOnline(online),
		services.WithClock(a.now),
	)
	if err != nil {
		_ = repos.Close()
		return err
	}

	a.config = cfg
	a.logger = logger
	a.repos = repos
	a.svc = svc
	return nil
}

// Close waits for background syncs and releases local storage.
func (a *App) Close() error {
	if a.svc == nil {
		return nil
	}
	a.svc.Wait()
	err := a.repos.Close()
	a.svc, a.repos = nil, nil
	return err
}
