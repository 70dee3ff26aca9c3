// Package entries is the local durable cache of media log entries.
//
// # Overview
//
// Repository is a keyed store of models.Entry with secondary lookups by
// date and by media type. Two implementations exist:
//
//   - SQLiteRepository persists into the client SQLite database over a
//     dbx.DBTX (either *sql.DB or *sql.Tx). Indices on date and media_type
//     back the secondary lookups.
//   - BadgerRepository stores JSON-encoded entries in a BadgerDB key space
//     and maintains explicit index keys for date and media type.
//
// # Keys
//
// Insert assigns the next free id when the entry carries none; entries
// mirrored from the server keep their server id. Put upserts by id.
//
// # Bulk replace
//
// Replace clears the store and inserts every given entry. Individual
// insert failures are skipped; the returned count tells the caller how
// many made it.
//
// Typical Usage
//
//	repo := entries.NewSQLiteRepository(db)
//	id, _ := repo.Insert(ctx, &entry)
//	one, _ := repo.GetByID(ctx, id)
//	n, _ := repo.Replace(ctx, remoteEntries)
package entries
