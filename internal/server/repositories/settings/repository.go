// Package settings stores the admin-editable server settings as key/value
// pairs.
package settings

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/medialog/internal/models"
)

const (
	KeyAutoSync = "auto_sync"
	KeyLastSync = "last_sync"
)

type Repository interface {
	// All returns every stored setting.
	All(ctx context.Context) (map[string]string, error)
	// Set inserts or overwrites key.
	Set(ctx context.Context, key, value string) error
}

// Decode maps raw key/value pairs onto models.Settings. Missing or
// malformed values keep their defaults.
func Decode(kv map[string]string) models.Settings {
	s := models.Settings{AutoSync: true}
	if v, ok := kv[KeyAutoSync]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.AutoSync = b
		}
	}
	if v, ok := kv[KeyLastSync]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			s.LastSync = &t
		}
	}
	return s
}

type MemoryRepository struct {
	mu sync.RWMutex
	kv map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{kv: map[string]string{KeyAutoSync: "true"}}
}

func (r *MemoryRepository) All(context.Context) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.kv))
	for k, v := range r.kv {
		out[k] = v
	}
	return out, nil
}

func (r *MemoryRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kv[key] = value
	return nil
}
