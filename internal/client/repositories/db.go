// Package repositories opens the client database and assembles the local
// stores used by the data service: the entry cache, the metadata slot and
// the sync queue.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/medialog/internal/client/migrations"
	"github.com/dmitrijs2005/medialog/internal/client/repositories/entries"
	"github.com/dmitrijs2005/medialog/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/medialog/internal/client/repositories/syncqueue"
	"github.com/dmitrijs2005/medialog/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const (
	CacheSQLite = "sqlite"
	CacheBadger = "badger"
	CacheNone   = "none"

	databaseFile = "medialog.db"
	badgerDir    = "cache"
)

// Options select the local stores.
type Options struct {
	DataDir      string
	CacheBackend string
	PersistQueue bool
}

type Repositories struct {
	DB       *sql.DB
	Metadata metadata.Repository
	// Entries is nil when the local cache is disabled.
	Entries entries.Repository
	Queue   syncqueue.Queue

	badger *entries.BadgerRepository
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite database at dsn and migrates it.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one writer keeps SQLite from returning SQLITE_BUSY under concurrent use
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Open creates the data directory if needed and wires every local store.
func Open(ctx context.Context, opts Options) (*Repositories, error) {
	dir, err := filex.EnsureDir(opts.DataDir)
	if err != nil {
		return nil, err
	}

	db, err := InitDatabase(ctx, filepath.Join(dir, databaseFile))
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	repos := &Repositories{
		DB:       db,
		Metadata: metadata.NewSQLiteRepository(db),
	}

	switch opts.CacheBackend {
	case CacheSQLite, "":
		repos.Entries = entries.NewSQLiteRepository(db)
	case CacheBadger:
		b, err := entries.OpenBadger(filepath.Join(dir, badgerDir))
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		repos.badger = b
		repos.Entries = b
	case CacheNone:
	default:
		_ = db.Close()
		return nil, fmt.Errorf("unknown cache backend %q", opts.CacheBackend)
	}

	if opts.PersistQueue {
		repos.Queue = syncqueue.NewSQLiteQueue(db)
	} else {
		repos.Queue = syncqueue.NewMemoryQueue()
	}

	return repos, nil
}

func (r *Repositories) Close() error {
	var errs []error
	if r.badger != nil {
		errs = append(errs, r.badger.Close())
	}
	if r.DB != nil {
		errs = append(errs, r.DB.Close())
	}
	return errors.Join(errs...)
}
