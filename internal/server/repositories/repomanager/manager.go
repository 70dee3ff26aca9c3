// Package repomanager vends the server repositories for a storage backend
// and runs its schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/medialog/internal/dbx"
	"github.com/dmitrijs2005/medialog/internal/server/repositories/entries"
	"github.com/dmitrijs2005/medialog/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/medialog/internal/server/repositories/settings"
)

// RepositoryManager builds repositories bound to a DBTX, so that callers can
// run several of them inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Entries(db dbx.DBTX) entries.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Settings(db dbx.DBTX) settings.Repository
}
