package entries

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/medialog/internal/models"
)

// MemoryRepository keeps entries in process memory. It serves development
// runs without a database and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[models.ID]models.Entry
	nextID  models.ID
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[models.ID]models.Entry), nextID: 1, now: time.Now}
}

func (r *MemoryRepository) snapshot() []models.Entry {
	out := make([]models.Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

func (r *MemoryRepository) List(_ context.Context, f models.Filters) ([]models.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return models.FilterEntries(r.snapshot(), f), nil
}

func (r *MemoryRepository) Create(_ context.Context, e *models.Entry) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	created := *e
	created.ID = r.nextID
	created.CreatedAt = &now
	created.UpdatedAt = &now
	r.nextID++
	r.entries[created.ID] = created
	return &created, nil
}

func (r *MemoryRepository) Update(_ context.Context, id models.ID, e *models.Entry) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.entries[id]
	if !ok {
		return 0, nil
	}
	now := r.now().UTC()
	updated := *e
	updated.ID = id
	updated.CreatedAt = old.CreatedAt
	updated.UpdatedAt = &now
	r.entries[id] = updated
	return 1, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id models.ID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return 0, nil
	}
	delete(r.entries, id)
	return 1, nil
}

func (r *MemoryRepository) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.entries))
	r.entries = make(map[models.ID]models.Entry)
	return n, nil
}

func (r *MemoryRepository) Stats(_ context.Context, month, year string) (*models.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := models.EmptyStats()
	for _, e := range r.entries {
		s.Total++
		if e.Month() == month {
			s.ThisMonth++
		}
		if e.Year() == year {
			s.ThisYear++
		}
		s.ByType[e.MediaType]++
	}
	return &s, nil
}

func (r *MemoryRepository) Dates(_ context.Context) ([]models.DateCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return models.CountByDate(r.snapshot()), nil
}
