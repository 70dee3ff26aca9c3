package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/medialog/internal/common"
	"github.com/dmitrijs2005/medialog/internal/dbx"
	"github.com/dmitrijs2005/medialog/internal/models"
)

const selectColumns = `id, title, media_type, creator, rating, url, date, notes, created_at, updated_at`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Entry, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM entries ORDER BY date DESC, id DESC`)
}

func (r *SQLiteRepository) ListByDate(ctx context.Context, date string) ([]models.Entry, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM entries WHERE date = ? ORDER BY id DESC`, date)
}

func (r *SQLiteRepository) ListByMediaType(ctx context.Context, mediaType string) ([]models.Entry, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM entries WHERE media_type = ? ORDER BY date DESC, id DESC`, mediaType)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id models.ID) (*models.Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM entries WHERE id = ?`, int64(id))
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry %d: %w", id, err)
	}
	return e, nil
}

// Insert stores e under e.ID, or under a fresh local id when e.ID is zero.
func (r *SQLiteRepository) Insert(ctx context.Context, e *models.Entry) (models.ID, error) {
	id := e.ID
	if id == 0 {
		var err error
		if id, err = r.nextLocalID(ctx); err != nil {
			return 0, fmt.Errorf("failed to insert entry: %w", err)
		}
	} else if id.Local() {
		if err := r.claimLocalID(ctx, id); err != nil {
			return 0, fmt.Errorf("failed to insert entry: %w", err)
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO entries (id, title, media_type, creator, rating, url, date, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(id), e.Title, e.MediaType, nullString(e.Creator), nullInt(e.Rating), nullString(e.URL),
		e.Date, nullString(e.Notes), nullTime(e.CreatedAt), nullTime(e.UpdatedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to insert entry: %w", err)
	}
	return id, nil
}

// nextLocalID draws from the local_ids counter. AUTOINCREMENT never hands
// out a seq twice, even after its row is gone.
func (r *SQLiteRepository) nextLocalID(ctx context.Context) (models.ID, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO local_ids DEFAULT VALUES`)
	if err != nil {
		return 0, fmt.Errorf("allocate local id: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("allocate local id: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM local_ids WHERE seq < ?`, seq); err != nil {
		return 0, fmt.Errorf("trim local ids: %w", err)
	}
	return models.LocalID(seq), nil
}

// claimLocalID moves the counter past an explicitly given local id.
func (r *SQLiteRepository) claimLocalID(ctx context.Context, id models.ID) error {
	if _, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO local_ids (seq) VALUES (?)`, -int64(id)); err != nil {
		return fmt.Errorf("claim local id %s: %w", id.Label(), err)
	}
	return nil
}

func (r *SQLiteRepository) Put(ctx context.Context, e *models.Entry) error {
	if e.ID == 0 {
		return fmt.Errorf("put entry: %w", common.ErrorValidation)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO entries (id, title, media_type, creator, rating, url, date, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			media_type = excluded.media_type,
			creator = excluded.creator,
			rating = excluded.rating,
			url = excluded.url,
			date = excluded.date,
			notes = excluded.notes,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		int64(e.ID), e.Title, e.MediaType, nullString(e.Creator), nullInt(e.Rating), nullString(e.URL),
		e.Date, nullString(e.Notes), nullTime(e.CreatedAt), nullTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert entry %d: %w", e.ID, err)
	}
	return nil
}

// DeleteByID removes the row. It expects exactly one row to be affected.
func (r *SQLiteRepository) DeleteByID(ctx context.Context, id models.ID) error {
	ra, err := dbx.ExecAffected(ctx, r.db, `DELETE FROM entries WHERE id = ?`, int64(id))
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	return nil
}

// Replace runs inside a transaction when the repository is bound to a
// *sql.DB, so readers never observe the emptied table.
func (r *SQLiteRepository) Replace(ctx context.Context, entries []models.Entry) (int, error) {
	db, ok := r.db.(*sql.DB)
	if !ok {
		return r.replace(ctx, entries)
	}

	var n int
	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		n, err = NewSQLiteRepository(tx).replace(ctx, entries)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *SQLiteRepository) replace(ctx context.Context, entries []models.Entry) (int, error) {
	if err := r.Clear(ctx); err != nil {
		return 0, err
	}
	n := 0
	for i := range entries {
		if _, err := r.Insert(ctx, &entries[i]); err != nil {
			continue
		}
		n++
	}
	return n, nil
}

func (r *SQLiteRepository) query(ctx context.Context, q string, args ...any) ([]models.Entry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	result := make([]models.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.Entry, error) {
	var (
		e                    models.Entry
		id                   int64
		creator, url, notes  sql.NullString
		createdAt, updatedAt sql.NullString
		rating               sql.NullInt64
	)
	if err := s.Scan(&id, &e.Title, &e.MediaType, &creator, &rating, &url, &e.Date, &notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.ID = models.ID(id)
	e.Creator = creator.String
	e.URL = url.String
	e.Notes = notes.String
	if rating.Valid {
		e.Rating = models.IntPtr(int(rating.Int64))
	}
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return &e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func parseTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil
	}
	return &t
}
