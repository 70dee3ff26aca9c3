package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/medialog/internal/dbx"
)

// withTx runs fn in a transaction on db. Without a database (in-memory
// stores) fn runs directly.
func withTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if db == nil {
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, db, nil, fn)
}

func conn(db *sql.DB) dbx.DBTX { return dbx.Maybe(db) }
