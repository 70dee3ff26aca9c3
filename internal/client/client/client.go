package client

import (
	"context"

	"github.com/dmitrijs2005/medialog/internal/models"
)

type Client interface {
	Ping(ctx context.Context) error

	GetEntries(ctx context.Context, filters models.Filters) ([]models.Entry, error)
	GetStats(ctx context.Context) (*models.Stats, error)
	GetDates(ctx context.Context) ([]models.DateCount, error)

	Login(ctx context.Context, password string) (*models.Session, error)
	Logout(ctx context.Context) error
	VerifySession(ctx context.Context) (bool, error)
	IsAdmin() bool
	HasToken() bool

	CreateEntry(ctx context.Context, entry models.Entry) (*models.Entry, error)
	UpdateEntry(ctx context.Context, id models.ID, entry models.Entry) error
	DeleteEntry(ctx context.Context, id models.ID) error
	ImportEntries(ctx context.Context, entries []models.Entry) (int, error)
	ExportEntries(ctx context.Context) ([]models.Entry, error)
	ClearAll(ctx context.Context) (int64, error)
	GetSettings(ctx context.Context) (*models.Settings, error)
	UpdateSettings(ctx context.Context, autoSync bool) error
}

// TokenStore persists the admin session token between runs.
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}
