package models

import (
	"time"

	"github.com/google/uuid"
)

// Action is the kind of a queued write.
type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

func (a Action) Valid() bool {
	switch a {
	case ActionAdd, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Operation is a write that could not reach the server and waits in the
// sync queue. EntryID is the local id for adds and the target id for
// updates and deletes; Entry is nil for deletes.
type Operation struct {
	ID         string    `json:"id"`
	Action     Action    `json:"action"`
	EntryID    ID        `json:"entryId,omitempty"`
	Entry      *Entry    `json:"entry,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// NewOperation stamps a fresh operation id and enqueue time.
func NewOperation(action Action, id ID, entry *Entry, now time.Time) Operation {
	var payload *Entry
	if entry != nil {
		cp := *entry
		payload = &cp
	}
	return Operation{
		ID:         uuid.NewString(),
		Action:     action,
		EntryID:    id,
		Entry:      payload,
		EnqueuedAt: now.UTC(),
	}
}
