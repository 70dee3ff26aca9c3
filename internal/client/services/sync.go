package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/medialog/internal/client/client"
	"github.com/dmitrijs2005/medialog/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/medialog/internal/common"
	"github.com/dmitrijs2005/medialog/internal/models"
)

// SyncReport counts the outcome of one drain pass.
type SyncReport struct {
	Replayed int
	Requeued int
	Dropped  int
}

func (r SyncReport) Total() int {
	return r.Replayed + r.Requeued + r.Dropped
}

// Pending lists the operations waiting for replay.
func (s *DataService) Pending(ctx context.Context) ([]models.Operation, error) {
	return s.queue.List(ctx)
}

// ProcessSyncQueue replays queued writes against the server in order.
//
// Each operation stays in the queue until it is settled: removed once the
// server accepted it, or moved to the tail when the server could not be
// reached. Operations the server rejects outright (400, 404) are removed
// as well and counted as dropped, since replaying them can never succeed;
// this is the one case where a queued write is discarded without reaching
// the server. Settling uses a context detached from ctx, so a pass that is
// cancelled midway leaves every unsettled operation where it was.
//
// Delivery is at least once: a crash between the server accepting an
// operation and its removal replays it on the next pass.
func (s *DataService) ProcessSyncQueue(ctx context.Context) (SyncReport, error) {
	var report SyncReport

	if !s.syncMu.TryLock() {
		return report, ErrSyncInProgress
	}
	defer s.syncMu.Unlock()

	if !s.IsOnline() {
		return report, ErrOffline
	}
	if s.api == nil {
		return report, nil
	}

	ops, err := s.queue.List(ctx)
	if err != nil {
		return report, fmt.Errorf("read sync queue: %w", err)
	}
	if len(ops) == 0 {
		return report, nil
	}

	if s.api.HasToken() && !s.api.IsAdmin() {
		if _, err := s.api.VerifySession(ctx); err != nil {
			s.logger.Warn(ctx, "session check before sync failed", "error", err)
		}
	}

	s.logger.Info(ctx, "replaying sync queue", "operations", len(ops))

	settle := context.WithoutCancel(ctx)
	r := newReplayer(s, ops)
	var errs []error
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("sync interrupted: %w", err))
			break
		}

		outcome, next := r.replay(ctx, op)
		switch outcome {
		case replayed:
			if err := s.queue.Remove(settle, op.ID); err != nil {
				errs = append(errs, fmt.Errorf("settle %s: %w", op.ID, err))
			}
			report.Replayed++
		case requeued:
			if err := s.queue.Requeue(settle, next); err != nil {
				errs = append(errs, fmt.Errorf("requeue %s: %w", op.ID, err))
				continue
			}
			report.Requeued++
		case dropped:
			if err := s.queue.Remove(settle, op.ID); err != nil {
				errs = append(errs, fmt.Errorf("drop %s: %w", op.ID, err))
			}
			report.Dropped++
		}
	}

	s.recordSync(settle)
	return report, errors.Join(errs...)
}

func (s *DataService) recordSync(ctx context.Context) {
	if s.metadata == nil {
		return
	}
	stamp := s.now().UTC().Format(time.RFC3339)
	if err := s.metadata.Set(ctx, metadata.KeyLastSync, stamp); err != nil {
		s.logger.Warn(ctx, "failed to record last sync", "error", err)
	}
}

// LastSync returns the time of the last completed drain pass.
func (s *DataService) LastSync(ctx context.Context) (*time.Time, error) {
	if s.metadata == nil {
		return nil, nil
	}
	v, ok, err := s.metadata.Get(ctx, metadata.KeyLastSync)
	if err != nil || !ok {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("parse last sync %q: %w", v, err)
	}
	return &t, nil
}

type outcome int

const (
	replayed outcome = iota
	requeued
	dropped
)

// replayer carries the state of one drain pass. remap translates local ids
// of replayed adds to server ids. pendingAdds holds local ids whose add is
// still queued: later operations on them wait behind it, and operations on
// a local id with no pending add can never be delivered.
type replayer struct {
	s           *DataService
	remap       map[models.ID]models.ID
	pendingAdds map[models.ID]bool
}

func newReplayer(s *DataService, ops []models.Operation) *replayer {
	r := &replayer{
		s:           s,
		remap:       make(map[models.ID]models.ID),
		pendingAdds: make(map[models.ID]bool),
	}
	for _, op := range ops {
		if op.Action == models.ActionAdd && op.EntryID.Local() {
			r.pendingAdds[op.EntryID] = true
		}
	}
	return r
}

func (r *replayer) replay(ctx context.Context, op models.Operation) (outcome, models.Operation) {
	log := r.s.logger.With("op", op.ID, "action", string(op.Action), "id", op.EntryID)

	if id, ok := r.remap[op.EntryID]; ok {
		op.EntryID = id
		if op.Entry != nil {
			e := *op.Entry
			e.ID = id
			op.Entry = &e
		}
	}
	if op.Action != models.ActionAdd && op.EntryID.Local() {
		if r.pendingAdds[op.EntryID] {
			log.Debug(ctx, "operation waits for its add")
			return requeued, op
		}
		log.Warn(ctx, "operation dropped, entry never reached the server")
		return dropped, op
	}

	var err error
	switch op.Action {
	case models.ActionAdd:
		err = r.add(ctx, op)
	case models.ActionUpdate:
		if op.Entry == nil {
			err = fmt.Errorf("%w: update without payload", common.ErrorValidation)
			break
		}
		if err = r.s.api.UpdateEntry(ctx, op.EntryID, *op.Entry); err == nil {
			r.s.mirror(context.WithoutCancel(ctx), op.Entry)
		}
	case models.ActionDelete:
		if err = r.s.api.DeleteEntry(ctx, op.EntryID); err == nil {
			r.s.forget(context.WithoutCancel(ctx), op.EntryID)
		}
	default:
		err = fmt.Errorf("%w: unknown action %q", common.ErrorValidation, op.Action)
	}

	switch {
	case err == nil:
		log.Debug(ctx, "operation replayed")
		return replayed, op
	case client.IsTransient(err):
		log.Warn(ctx, "operation requeued", "error", err)
		return requeued, op
	default:
		log.Warn(ctx, "operation dropped", "error", err)
		if op.Action == models.ActionAdd {
			delete(r.pendingAdds, op.EntryID)
		}
		return dropped, op
	}
}

// add creates the entry on the server and moves everything that refers to
// its local id over to the server id: the cache row and the operations
// still queued behind it.
func (r *replayer) add(ctx context.Context, op models.Operation) error {
	if op.Entry == nil {
		return fmt.Errorf("%w: add without payload", common.ErrorValidation)
	}
	entry := *op.Entry
	entry.ID = 0

	created, err := r.s.api.CreateEntry(ctx, entry)
	if err != nil {
		return err
	}

	local := op.EntryID
	settle := context.WithoutCancel(ctx)
	if local.Local() {
		r.remap[local] = created.ID
		delete(r.pendingAdds, local)
		if err := r.s.queue.Rekey(settle, local, created.ID); err != nil {
			r.s.logger.Error(ctx, "failed to rekey queued operations", "from", local, "to", created.ID, "error", err)
		}
	}
	if created.ID != local {
		r.s.forget(settle, local)
	}
	r.s.mirror(settle, created)
	return nil
}
