package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/medialog/internal/common"
	"github.com/dmitrijs2005/medialog/internal/dbx"
	"github.com/dmitrijs2005/medialog/internal/logging"
	"github.com/dmitrijs2005/medialog/internal/models"
	"github.com/dmitrijs2005/medialog/internal/server/repositories/entries"
	"github.com/dmitrijs2005/medialog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/medialog/internal/server/repositories/settings"
)

type EntryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	now         func() time.Time
}

// NewEntryService builds the service. db may be nil when rm serves
// in-memory stores.
func NewEntryService(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) *EntryService {
	return &EntryService{db: db, repomanager: rm, logger: logging.Component(logger, "entries"), now: time.Now}
}

func (s *EntryService) repo() entries.Repository {
	return s.repomanager.Entries(conn(s.db))
}

func (s *EntryService) List(ctx context.Context, filters models.Filters) ([]models.Entry, error) {
	return s.repo().List(ctx, filters)
}

func (s *EntryService) Create(ctx context.Context, e models.Entry) (*models.Entry, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	e.ID = 0
	return s.repo().Create(ctx, &e)
}

func (s *EntryService) Update(ctx context.Context, id models.ID, e models.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	n, err := s.repo().Update(ctx, id, &e)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (s *EntryService) Delete(ctx context.Context, id models.ID) error {
	n, err := s.repo().Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Import inserts entries in one transaction, skipping those that fail
// validation, and records the time of the import as the last sync.
func (s *EntryService) Import(ctx context.Context, list []models.Entry) (int, error) {
	imported := 0
	err := withTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Entries(tx)
		for i := range list {
			e := list[i]
			if err := e.Validate(); err != nil {
				s.logger.Warn(ctx, "skipping invalid entry on import", "index", i, "error", err)
				continue
			}
			e.ID = 0
			if _, err := repo.Create(ctx, &e); err != nil {
				return fmt.Errorf("import entry %d: %w", i, err)
			}
			imported++
		}
		return s.repomanager.Settings(tx).Set(ctx, settings.KeyLastSync, s.now().UTC().Format(time.RFC3339))
	})
	if err != nil {
		return 0, err
	}
	return imported, nil
}

func (s *EntryService) Export(ctx context.Context) ([]models.Entry, error) {
	return s.repo().List(ctx, models.Filters{})
}

func (s *EntryService) ClearAll(ctx context.Context) (int64, error) {
	return s.repo().DeleteAll(ctx)
}

func (s *EntryService) Stats(ctx context.Context) (*models.Stats, error) {
	now := s.now()
	return s.repo().Stats(ctx, now.Format("2006-01"), now.Format("2006"))
}

func (s *EntryService) Dates(ctx context.Context) ([]models.DateCount, error) {
	return s.repo().Dates(ctx)
}
