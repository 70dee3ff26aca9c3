// Package syncqueue holds writes that could not reach the server.
//
// Operations are kept in insertion order without deduplication or a size
// limit. A replayer reads a snapshot with List and settles each operation
// on its own: Remove once the server has it, Requeue to move it behind
// everything else. An operation is never out of the queue before it is
// settled, so an interrupted pass loses nothing.
package syncqueue

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/medialog/internal/models"
)

type Queue interface {
	// Push appends op to the tail.
	Push(ctx context.Context, op models.Operation) error
	// List returns the queued operations in order without removing them.
	List(ctx context.Context) ([]models.Operation, error)
	Len(ctx context.Context) (int, error)
	// Remove deletes the operation with the given id. Unknown ids are ignored.
	Remove(ctx context.Context, opID string) error
	// Requeue replaces the stored copy of op and moves it to the tail.
	Requeue(ctx context.Context, op models.Operation) error
	// Rekey points every queued operation on entry from at entry to.
	Rekey(ctx context.Context, from, to models.ID) error
}

// MemoryQueue keeps operations for the lifetime of the process.
type MemoryQueue struct {
	mu  sync.Mutex
	ops []models.Operation
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Push(_ context.Context, op models.Operation) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ops = append(q.ops, op)
	return nil
}

func (q *MemoryQueue) List(_ context.Context) ([]models.Operation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.Operation, len(q.ops))
	copy(out, q.ops)
	return out, nil
}

func (q *MemoryQueue) Len(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops), nil
}

func (q *MemoryQueue) Remove(_ context.Context, opID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ops = slices.DeleteFunc(q.ops, func(op models.Operation) bool { return op.ID == opID })
	return nil
}

func (q *MemoryQueue) Requeue(_ context.Context, op models.Operation) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ops = slices.DeleteFunc(q.ops, func(o models.Operation) bool { return o.ID == op.ID })
	q.ops = append(q.ops, op)
	return nil
}

func (q *MemoryQueue) Rekey(_ context.Context, from, to models.ID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.ops {
		q.ops[i] = rekey(q.ops[i], from, to)
	}
	return nil
}

// rekey returns op moved from entry from to entry to. The payload is
// copied so snapshots handed out by List stay untouched.
func rekey(op models.Operation, from, to models.ID) models.Operation {
	if op.EntryID != from {
		return op
	}
	op.EntryID = to
	if op.Entry != nil {
		e := *op.Entry
		if e.ID == from {
			e.ID = to
		}
		op.Entry = &e
	}
	return op
}
