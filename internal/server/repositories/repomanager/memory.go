package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/medialog/internal/dbx"
	"github.com/dmitrijs2005/medialog/internal/server/repositories/entries"
	"github.com/dmitrijs2005/medialog/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/medialog/internal/server/repositories/settings"
)

// InMemoryRepositoryManager hands out the same process-local stores for any
// DBTX. It has no transactions: callers pass a nil *sql.DB.
type InMemoryRepositoryManager struct {
	entries  *entries.MemoryRepository
	sessions *sessions.MemoryRepository
	settings *settings.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		entries:  entries.NewMemoryRepository(),
		sessions: sessions.NewMemoryRepository(),
		settings: settings.NewMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Entries(dbx.DBTX) entries.Repository {
	return m.entries
}

func (m *InMemoryRepositoryManager) Sessions(dbx.DBTX) sessions.Repository {
	return m.sessions
}

func (m *InMemoryRepositoryManager) Settings(dbx.DBTX) settings.Repository {
	return m.settings
}
