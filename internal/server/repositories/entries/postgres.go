package entries

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/medialog/internal/dbx"
	"github.com/dmitrijs2005/medialog/internal/models"
)

const entryColumns = `id, title, media_type, creator, rating, url, date, notes, created_at, updated_at`

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *PostgresRepository) List(ctx context.Context, f models.Filters) ([]models.Entry, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Date != "" {
		add("date = $%d", f.Date)
	}
	if f.Month != "" {
		add("left(date, 7) = $%d", f.Month)
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR notes ILIKE $%d)", n, n))
	}

	query := `SELECT ` + entryColumns + ` FROM entries`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY date DESC, created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]models.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func scanEntry(rows *sql.Rows) (*models.Entry, error) {
	var (
		e                    models.Entry
		id                   int64
		creator, url, notes  sql.NullString
		rating               sql.NullInt64
		createdAt, updatedAt time.Time
	)
	if err := rows.Scan(&id, &e.Title, &e.MediaType, &creator, &rating, &url, &e.Date, &notes, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	e.ID = models.ID(id)
	e.Creator = creator.String
	e.URL = url.String
	e.Notes = notes.String
	if rating.Valid {
		e.Rating = models.IntPtr(int(rating.Int64))
	}
	e.CreatedAt = &createdAt
	e.UpdatedAt = &updatedAt
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

func (r *PostgresRepository) Create(ctx context.Context, e *models.Entry) (*models.Entry, error) {
	query := `
		INSERT INTO entries (title, media_type, creator, rating, url, date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	var (
		id                   int64
		createdAt, updatedAt time.Time
	)
	err := r.db.QueryRowContext(ctx, query,
		e.Title, e.MediaType, nullString(e.Creator), nullInt(e.Rating), nullString(e.URL), e.Date, nullString(e.Notes),
	).Scan(&id, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	created := *e
	created.ID = models.ID(id)
	created.CreatedAt = &createdAt
	created.UpdatedAt = &updatedAt
	return &created, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id models.ID, e *models.Entry) (int64, error) {
	query := `
		UPDATE entries
		SET title = $1, media_type = $2, creator = $3, rating = $4, url = $5, date = $6, notes = $7, updated_at = now()
		WHERE id = $8
	`
	n, err := dbx.ExecAffected(ctx, r.db, query,
		e.Title, e.MediaType, nullString(e.Creator), nullInt(e.Rating), nullString(e.URL), e.Date, nullString(e.Notes), int64(id))
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id models.ID) (int64, error) {
	n, err := dbx.ExecAffected(ctx, r.db, `DELETE FROM entries WHERE id = $1`, int64(id))
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) (int64, error) {
	n, err := dbx.ExecAffected(ctx, r.db, `DELETE FROM entries`)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Stats(ctx context.Context, month, year string) (*models.Stats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE left(date, 7) = $1),
		       COUNT(*) FILTER (WHERE left(date, 4) = $2)
		FROM entries
	`
	s := models.EmptyStats()
	if err := r.db.QueryRowContext(ctx, query, month, year).Scan(&s.Total, &s.ThisMonth, &s.ThisYear); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT media_type, COUNT(*) FROM entries GROUP BY media_type`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			mediaType string
			n         int
		)
		if err := rows.Scan(&mediaType, &n); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		s.ByType[mediaType] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &s, nil
}

func (r *PostgresRepository) Dates(ctx context.Context) ([]models.DateCount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT date, COUNT(*) FROM entries GROUP BY date ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]models.DateCount, 0)
	for rows.Next() {
		var dc models.DateCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
