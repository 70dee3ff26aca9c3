// Package sessions stores issued admin sessions so that tokens can be
// revoked before they expire.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/medialog/internal/server/models"
)

type Repository interface {
	// Create records a session valid until expiresAt.
	Create(ctx context.Context, id string, expiresAt time.Time) error

	// Find returns the session or common.ErrorNotFound.
	Find(ctx context.Context, id string) (*models.Session, error)

	// Delete revokes a session. Deleting an absent session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes sessions that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
