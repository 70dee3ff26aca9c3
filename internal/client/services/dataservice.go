package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/medialog/internal/client/client"
	"github.com/dmitrijs2005/medialog/internal/client/repositories/entries"
	"github.com/dmitrijs2005/medialog/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/medialog/internal/client/repositories/syncqueue"
	"github.com/dmitrijs2005/medialog/internal/logging"
)

// StorageMode selects where the service keeps entries.
type StorageMode string

const (
	ModeBackend StorageMode = "backend"
	ModeLocal   StorageMode = "local"
)

func ParseStorageMode(s string) (StorageMode, error) {
	switch StorageMode(s) {
	case ModeBackend, ModeLocal:
		return StorageMode(s), nil
	}
	return "", fmt.Errorf("unknown storage mode %q", s)
}

var (
	// ErrNoStorage is returned by writes when neither the server nor a
	// local cache can take them.
	ErrNoStorage = errors.New("no storage available")
	// ErrOffline is returned by a manual sync while the service is offline.
	ErrOffline = errors.New("offline")
	// ErrSyncInProgress is returned when another drain pass is running.
	ErrSyncInProgress = errors.New("sync already in progress")
)

const defaultBackgroundSyncTimeout = time.Minute

type Options struct {
	StorageMode     StorageMode
	FallbackToLocal bool
	// AutoSyncInterval is the period of RunAutoSync; zero disables it.
	AutoSyncInterval time.Duration
	// BackgroundSyncTimeout bounds a drain started by a reconnect.
	BackgroundSyncTimeout time.Duration
}

// DataService routes entry operations between the remote API and the local
// cache and owns the offline sync queue.
type DataService struct {
	opts     Options
	api      client.Client
	cache    entries.Repository
	queue    syncqueue.Queue
	metadata metadata.Repository
	logger   logging.Logger
	now      func() time.Time

	online atomic.Bool
	syncMu sync.Mutex
	bg     sync.WaitGroup
}

type ServiceOption func(*DataService)

// WithClock replaces the wall clock used for stats and queue timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *DataService) { s.now = now }
}

// WithMetadata records the last successful sync in repo.
func WithMetadata(repo metadata.Repository) ServiceOption {
	return func(s *DataService) { s.metadata = repo }
}

// WithInitialOnline sets the connectivity flag the service starts with.
// The default is online.
func WithInitialOnline(online bool) ServiceOption {
	return func(s *DataService) { s.online.Store(online) }
}

// NewDataService wires the service. cache may be nil; it is ignored in
// backend mode unless FallbackToLocal is set. A nil queue is replaced by an
// in-memory one.
func NewDataService(opts Options, api client.Client, cache entries.Repository, queue syncqueue.Queue, logger logging.Logger, svcOpts ...ServiceOption) (*DataService, error) {
	if opts.StorageMode == "" {
		opts.StorageMode = ModeBackend
	}
	if _, err := ParseStorageMode(string(opts.StorageMode)); err != nil {
		return nil, err
	}
	if opts.StorageMode == ModeBackend && api == nil {
		return nil, errors.New("backend mode requires an api client")
	}
	if opts.StorageMode == ModeBackend && !opts.FallbackToLocal {
		cache = nil
	}
	if queue == nil {
		queue = syncqueue.NewMemoryQueue()
	}
	if opts.BackgroundSyncTimeout <= 0 {
		opts.BackgroundSyncTimeout = defaultBackgroundSyncTimeout
	}

	s := &DataService{
		opts:   opts,
		api:    api,
		cache:  cache,
		queue:  queue,
		logger: logging.Component(logger, "data-service"),
		now:    time.Now,
	}
	s.online.Store(true)
	for _, o := range svcOpts {
		o(s)
	}
	return s, nil
}

func (s *DataService) Mode() StorageMode {
	return s.opts.StorageMode
}

// HasLocalStorage reports whether the service can fall back to the cache.
func (s *DataService) HasLocalStorage() bool {
	return s.cache != nil
}

func (s *DataService) IsOnline() bool {
	return s.online.Load()
}

// SetOnline updates the connectivity flag. Going from offline to online in
// backend mode starts a background drain of the sync queue.
func (s *DataService) SetOnline(online bool) {
	was := s.online.Swap(online)
	if was == online {
		return
	}
	s.logger.Info(context.Background(), "connectivity changed", "online", online)
	if online && s.opts.StorageMode == ModeBackend {
		s.syncInBackground()
	}
}

func (s *DataService) syncInBackground() {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.BackgroundSyncTimeout)
		defer cancel()

		report, err := s.ProcessSyncQueue(ctx)
		switch {
		case errors.Is(err, ErrSyncInProgress), errors.Is(err, ErrOffline):
		case err != nil:
			s.logger.Error(ctx, "background sync failed", "error", err)
		case report.Total() > 0:
			s.logger.Info(ctx, "background sync finished", "replayed", report.Replayed,
				"requeued", report.Requeued, "dropped", report.Dropped)
		}
	}()
}

// Wait blocks until background drains started by SetOnline have finished.
func (s *DataService) Wait() {
	s.bg.Wait()
}

// useRemote reports whether the remote path is tried first.
func (s *DataService) useRemote() bool {
	return s.opts.StorageMode == ModeBackend && s.IsOnline()
}

// shouldQueue reports whether local writes must be replayed later.
func (s *DataService) shouldQueue() bool {
	return s.opts.StorageMode == ModeBackend
}

// deferrable reports whether a failed remote write may be retried later.
// Without a cache the write still fails, wrapped in ErrNoStorage.
func (s *DataService) deferrable(err error) bool {
	return client.IsTransient(err)
}
