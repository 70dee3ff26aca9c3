package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/medialog/internal/common"
	"github.com/dmitrijs2005/medialog/internal/models"
)

// GetAll returns every entry, newest first.
func (s *DataService) GetAll(ctx context.Context) ([]models.Entry, error) {
	return s.GetEntries(ctx, models.Filters{})
}

// GetEntries lists entries matching filters. An unfiltered remote listing
// refreshes the local cache.
func (s *DataService) GetEntries(ctx context.Context, filters models.Filters) ([]models.Entry, error) {
	if s.useRemote() {
		list, err := s.api.GetEntries(ctx, filters)
		if err == nil {
			if filters.IsEmpty() {
				s.refreshCache(ctx, list)
			}
			return list, nil
		}
		s.logger.Warn(ctx, "remote listing failed, using local cache", "error", err)
	}

	if s.cache == nil {
		return []models.Entry{}, nil
	}
	all, err := s.cache.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read local cache: %w", err)
	}
	return models.FilterEntries(all, filters), nil
}

// Get returns the entry with the given id or common.ErrorNotFound.
func (s *DataService) Get(ctx context.Context, id models.ID) (*models.Entry, error) {
	if s.useRemote() && !id.Local() {
		list, err := s.api.GetEntries(ctx, models.Filters{})
		if err == nil {
			for i := range list {
				if list[i].ID == id {
					return &list[i], nil
				}
			}
			return nil, common.ErrorNotFound
		}
		s.logger.Warn(ctx, "remote lookup failed, using local cache", "id", id, "error", err)
	}

	if s.cache == nil {
		return nil, common.ErrorNotFound
	}
	return s.cache.GetByID(ctx, id)
}

// Add validates and stores a new entry, returning its id. The id is the
// server's when the remote accepted the entry and a local one otherwise.
func (s *DataService) Add(ctx context.Context, entry models.Entry) (models.ID, error) {
	if err := entry.Validate(); err != nil {
		return 0, err
	}
	entry.ID = 0

	var remoteErr error
	if s.useRemote() {
		created, err := s.api.CreateEntry(ctx, entry)
		if err == nil {
			s.mirror(ctx, created)
			return created.ID, nil
		}
		if !s.deferrable(err) {
			return 0, err
		}
		s.logger.Warn(ctx, "remote create failed", "error", err, "fallback", s.cache != nil)
		remoteErr = err
	}

	if s.cache == nil {
		return 0, noStorage(remoteErr)
	}
	id, err := s.cache.Insert(ctx, &entry)
	if err != nil {
		return 0, fmt.Errorf("store entry locally: %w", err)
	}
	if s.shouldQueue() {
		if err := s.enqueue(ctx, models.ActionAdd, id, entry.WithID(id)); err != nil {
			return id, err
		}
	}
	return id, nil
}

// Update replaces the entry stored under id.
func (s *DataService) Update(ctx context.Context, id models.ID, entry models.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	entry.ID = id

	var remoteErr error
	if s.useRemote() && !id.Local() {
		err := s.api.UpdateEntry(ctx, id, entry)
		if err == nil {
			s.mirror(ctx, &entry)
			return nil
		}
		if !s.deferrable(err) {
			return err
		}
		s.logger.Warn(ctx, "remote update failed", "id", id, "error", err, "fallback", s.cache != nil)
		remoteErr = err
	}

	if s.cache == nil {
		return noStorage(remoteErr)
	}
	if _, err := s.cache.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Put(ctx, &entry); err != nil {
		return fmt.Errorf("update local entry: %w", err)
	}
	if s.shouldQueue() {
		return s.enqueue(ctx, models.ActionUpdate, id, entry)
	}
	return nil
}

// Delete removes the entry stored under id.
func (s *DataService) Delete(ctx context.Context, id models.ID) error {
	var remoteErr error
	if s.useRemote() && !id.Local() {
		err := s.api.DeleteEntry(ctx, id)
		if err == nil {
			s.forget(ctx, id)
			return nil
		}
		if !s.deferrable(err) {
			return err
		}
		s.logger.Warn(ctx, "remote delete failed", "id", id, "error", err, "fallback", s.cache != nil)
		remoteErr = err
	}

	if s.cache == nil {
		return noStorage(remoteErr)
	}
	if err := s.cache.DeleteByID(ctx, id); err != nil {
		return err
	}
	if s.shouldQueue() {
		return s.enqueue(ctx, models.ActionDelete, id, models.Entry{})
	}
	return nil
}

// GetStats returns log statistics, computed from the cache when the server
// cannot answer.
func (s *DataService) GetStats(ctx context.Context) (*models.Stats, error) {
	if s.useRemote() {
		stats, err := s.api.GetStats(ctx)
		if err == nil {
			return stats, nil
		}
		s.logger.Warn(ctx, "remote stats failed, computing locally", "error", err)
	}

	if s.cache == nil {
		empty := models.EmptyStats()
		return &empty, nil
	}
	all, err := s.cache.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read local cache: %w", err)
	}
	stats := models.ComputeStats(all, s.now())
	return &stats, nil
}

// GetDates lists the distinct entry dates with their entry counts.
func (s *DataService) GetDates(ctx context.Context) ([]models.DateCount, error) {
	if s.useRemote() {
		dates, err := s.api.GetDates(ctx)
		if err == nil {
			return dates, nil
		}
		s.logger.Warn(ctx, "remote dates failed, computing locally", "error", err)
	}

	if s.cache == nil {
		return []models.DateCount{}, nil
	}
	all, err := s.cache.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read local cache: %w", err)
	}
	return models.CountByDate(all), nil
}

// refreshCache replaces the cached entries with a server listing, keeping
// the entries that exist only locally until their add is replayed.
func (s *DataService) refreshCache(ctx context.Context, list []models.Entry) {
	if s.cache == nil {
		return
	}
	cached, err := s.cache.GetAll(ctx)
	if err != nil {
		s.logger.Warn(ctx, "failed to read local cache", "error", err)
		return
	}
	merged := slices.Clone(list)
	for _, e := range cached {
		if e.ID.Local() {
			merged = append(merged, e)
		}
	}
	if _, err := s.cache.Replace(ctx, merged); err != nil {
		s.logger.Warn(ctx, "failed to refresh local cache", "error", err)
	}
}

// noStorage reports a write that neither the server nor a cache could take.
func noStorage(remoteErr error) error {
	if remoteErr == nil {
		return ErrNoStorage
	}
	return fmt.Errorf("%w: %w", ErrNoStorage, remoteErr)
}

// mirror copies an entry the server accepted into the cache.
func (s *DataService) mirror(ctx context.Context, e *models.Entry) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, e); err != nil {
		s.logger.Warn(ctx, "failed to mirror entry into local cache", "id", e.ID, "error", err)
	}
}

func (s *DataService) forget(ctx context.Context, id models.ID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByID(ctx, id); err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Warn(ctx, "failed to remove entry from local cache", "id", id, "error", err)
	}
}

func (s *DataService) enqueue(ctx context.Context, action models.Action, id models.ID, entry models.Entry) error {
	var payload *models.Entry
	if action != models.ActionDelete {
		payload = &entry
	}
	op := models.NewOperation(action, id, payload, s.now())
	if err := s.queue.Push(ctx, op); err != nil {
		return fmt.Errorf("queue %s of entry %s: %w", action, id, err)
	}
	s.logger.Debug(ctx, "operation queued", "op", op.ID, "action", action, "id", id)
	return nil
}
