package syncqueue

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/medialog/internal/dbx"
	"github.com/dmitrijs2005/medialog/internal/models"
	"github.com/goccy/go-json"
)

// SQLiteQueue persists operations in the sync_queue table so pending
// writes survive a restart. Order is the autoincrement seq column.
type SQLiteQueue struct {
	db *sql.DB
}

func NewSQLiteQueue(db *sql.DB) *SQLiteQueue {
	return &SQLiteQueue{db: db}
}

func (q *SQLiteQueue) Push(ctx context.Context, op models.Operation) error {
	return insert(ctx, q.db, op)
}

func insert(ctx context.Context, db dbx.DBTX, op models.Operation) error {
	payload, err := encodePayload(op)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO sync_queue (op_id, action, entry_id, payload, enqueued_at)
		VALUES (?, ?, ?, ?, ?)`,
		op.ID, string(op.Action), nullID(op.EntryID), payload, op.EnqueuedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to enqueue %s operation: %w", op.Action, err)
	}
	return nil
}

func encodePayload(op models.Operation) ([]byte, error) {
	if op.Entry == nil {
		return nil, nil
	}
	payload, err := json.Marshal(op.Entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode queued entry: %w", err)
	}
	return payload, nil
}

func (q *SQLiteQueue) Remove(ctx context.Context, opID string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE op_id = ?`, opID); err != nil {
		return fmt.Errorf("failed to remove queued operation %s: %w", opID, err)
	}
	return nil
}

// Requeue deletes and re-inserts op in one transaction; the new row takes
// the next seq and so lands at the tail.
func (q *SQLiteQueue) Requeue(ctx context.Context, op models.Operation) error {
	return dbx.WithTx(ctx, q.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sync_queue WHERE op_id = ?`, op.ID); err != nil {
			return fmt.Errorf("failed to requeue %s: %w", op.ID, err)
		}
		return insert(ctx, tx, op)
	})
}

// Rekey rewrites entry_id and the id inside the payload of every operation
// on entry from. Rows keep their seq, so order is unchanged.
func (q *SQLiteQueue) Rekey(ctx context.Context, from, to models.ID) error {
	return dbx.WithTx(ctx, q.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ops, err := list(ctx, tx, `WHERE entry_id = ?`, int64(from))
		if err != nil {
			return err
		}
		for _, op := range ops {
			op = rekey(op, from, to)
			payload, err := encodePayload(op)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `UPDATE sync_queue SET entry_id = ?, payload = ? WHERE op_id = ?`,
				nullID(op.EntryID), payload, op.ID)
			if err != nil {
				return fmt.Errorf("failed to rekey queued operation %s: %w", op.ID, err)
			}
		}
		return nil
	})
}

func (q *SQLiteQueue) List(ctx context.Context) ([]models.Operation, error) {
	return list(ctx, q.db, "")
}

func (q *SQLiteQueue) Len(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sync queue: %w", err)
	}
	return n, nil
}

func list(ctx context.Context, db dbx.DBTX, where string, args ...any) ([]models.Operation, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT op_id, action, entry_id, payload, enqueued_at
		FROM sync_queue `+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read sync queue: %w", err)
	}
	defer rows.Close()

	ops := make([]models.Operation, 0)
	for rows.Next() {
		var (
			op       models.Operation
			action   string
			entryID  sql.NullInt64
			payload  []byte
			enqueued string
		)
		if err := rows.Scan(&op.ID, &action, &entryID, &payload, &enqueued); err != nil {
			return nil, fmt.Errorf("failed to scan queued operation: %w", err)
		}
		op.Action = models.Action(action)
		op.EntryID = models.ID(entryID.Int64)
		if len(payload) > 0 {
			var e models.Entry
			if err := json.Unmarshal(payload, &e); err != nil {
				return nil, fmt.Errorf("failed to decode queued entry %s: %w", op.ID, err)
			}
			op.Entry = &e
		}
		if t, err := time.Parse(time.RFC3339Nano, enqueued); err == nil {
			op.EnqueuedAt = t
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync queue: %w", err)
	}
	return ops, nil
}

func nullID(id models.ID) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(id), Valid: id != 0}
}
