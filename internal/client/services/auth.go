package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/medialog/internal/models"
)

// Login opens an admin session. Writes queued while the session was
// missing are replayed right away.
func (s *DataService) Login(ctx context.Context, password string) (*models.Session, error) {
	if s.api == nil {
		return nil, ErrNoStorage
	}
	sess, err := s.api.Login(ctx, password)
	if err != nil {
		return nil, err
	}
	if s.IsOnline() && s.opts.StorageMode == ModeBackend {
		s.syncInBackground()
	}
	return sess, nil
}

func (s *DataService) Logout(ctx context.Context) error {
	if s.api == nil {
		return nil
	}
	return s.api.Logout(ctx)
}

func (s *DataService) IsAdmin() bool {
	return s.api != nil && s.api.IsAdmin()
}

// Ping reports whether the server answers.
func (s *DataService) Ping(ctx context.Context) error {
	if s.api == nil {
		return ErrNoStorage
	}
	return s.api.Ping(ctx)
}

// Import sends entries to the server in bulk and returns how many it took.
func (s *DataService) Import(ctx context.Context, list []models.Entry) (int, error) {
	if s.api == nil {
		return 0, ErrNoStorage
	}
	return s.api.ImportEntries(ctx, list)
}

// Export returns every entry from the server. In local mode the cache is
// exported instead.
func (s *DataService) Export(ctx context.Context) ([]models.Entry, error) {
	if s.opts.StorageMode == ModeLocal {
		return s.GetAll(ctx)
	}
	return s.api.ExportEntries(ctx)
}

// ClearAll deletes every entry on the server and empties the local cache.
func (s *DataService) ClearAll(ctx context.Context) (int64, error) {
	if s.api == nil {
		return 0, ErrNoStorage
	}
	n, err := s.api.ClearAll(ctx)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			return n, fmt.Errorf("clear local cache: %w", err)
		}
	}
	return n, nil
}

func (s *DataService) Settings(ctx context.Context) (*models.Settings, error) {
	if s.api == nil {
		return nil, ErrNoStorage
	}
	return s.api.GetSettings(ctx)
}

func (s *DataService) UpdateSettings(ctx context.Context, autoSync bool) error {
	if s.api == nil {
		return ErrNoStorage
	}
	return s.api.UpdateSettings(ctx, autoSync)
}
