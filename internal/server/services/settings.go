package services

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/dmitrijs2005/medialog/internal/models"
	"github.com/dmitrijs2005/medialog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/medialog/internal/server/repositories/settings"
)

type SettingsService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewSettingsService(db *sql.DB, rm repomanager.RepositoryManager) *SettingsService {
	return &SettingsService{db: db, repomanager: rm}
}

func (s *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	kv, err := s.repomanager.Settings(conn(s.db)).All(ctx)
	if err != nil {
		return nil, err
	}
	out := settings.Decode(kv)
	return &out, nil
}

func (s *SettingsService) SetAutoSync(ctx context.Context, autoSync bool) error {
	return s.repomanager.Settings(conn(s.db)).Set(ctx, settings.KeyAutoSync, strconv.FormatBool(autoSync))
}
