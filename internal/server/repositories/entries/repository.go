// Package entries declares the server-side storage contract for log entries
// and provides PostgreSQL and in-memory implementations.
package entries

import (
	"context"

	"github.com/dmitrijs2005/medialog/internal/models"
)

// Repository stores log entries. Listings are ordered by date descending,
// then by creation time descending.
type Repository interface {
	// List returns entries matching filters.
	List(ctx context.Context, filters models.Filters) ([]models.Entry, error)

	// Create inserts e and returns it with the assigned id and timestamps.
	Create(ctx context.Context, e *models.Entry) (*models.Entry, error)

	// Update overwrites the entry stored under id and reports how many rows
	// changed (0 when id is absent).
	Update(ctx context.Context, id models.ID, e *models.Entry) (int64, error)

	// Delete removes the entry stored under id and reports how many rows
	// were removed.
	Delete(ctx context.Context, id models.ID) (int64, error)

	// DeleteAll removes every entry.
	DeleteAll(ctx context.Context) (int64, error)

	// Stats counts entries overall, in month (YYYY-MM), in year (YYYY) and
	// per media type.
	Stats(ctx context.Context, month, year string) (*models.Stats, error)

	// Dates lists distinct dates with entry counts, newest first.
	Dates(ctx context.Context) ([]models.DateCount, error)
}
