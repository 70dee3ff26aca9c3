package entries

import (
	"context"

	"github.com/dmitrijs2005/medialog/internal/models"
)

// Repository describes the local cache operations used by the data service.
// Lookups of an absent id return common.ErrorNotFound.
type Repository interface {
	// GetAll returns every cached entry.
	GetAll(ctx context.Context) ([]models.Entry, error)

	// GetByID returns the entry stored under id.
	GetByID(ctx context.Context, id models.ID) (*models.Entry, error)

	// ListByDate returns entries whose date equals date.
	ListByDate(ctx context.Context, date string) ([]models.Entry, error)

	// ListByMediaType returns entries of the given media type.
	ListByMediaType(ctx context.Context, mediaType string) ([]models.Entry, error)

	// Insert stores e and returns its id, assigning one when e.ID is zero.
	Insert(ctx context.Context, e *models.Entry) (models.ID, error)

	// Put inserts or overwrites the entry stored under e.ID.
	Put(ctx context.Context, e *models.Entry) error

	// DeleteByID removes the entry stored under id.
	DeleteByID(ctx context.Context, id models.ID) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Replace clears the store, then inserts entries one by one, skipping
	// those that fail. It returns the number of inserted entries.
	Replace(ctx context.Context, entries []models.Entry) (int, error)
}
