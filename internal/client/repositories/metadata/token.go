package metadata

import (
	"context"
	"sync"
)

// TokenStore keeps the admin session token under KeyAdminToken. It
// satisfies client.TokenStore.
type TokenStore struct {
	repo Repository
}

func NewTokenStore(repo Repository) *TokenStore {
	return &TokenStore{repo: repo}
}

func (s *TokenStore) LoadToken(ctx context.Context) (string, error) {
	v, _, err := s.repo.Get(ctx, KeyAdminToken)
	return v, err
}

func (s *TokenStore) SaveToken(ctx context.Context, token string) error {
	return s.repo.Set(ctx, KeyAdminToken, token)
}

func (s *TokenStore) ClearToken(ctx context.Context) error {
	return s.repo.Delete(ctx, KeyAdminToken)
}

// MemoryTokenStore is a process-local token slot, used when no client
// database is configured.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemoryTokenStore) LoadToken(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) SaveToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) ClearToken(context.Context) error {
	return s.SaveToken(context.Background(), "")
}
