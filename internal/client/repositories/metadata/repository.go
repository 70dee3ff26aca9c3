// Package metadata is a small key/value table in the client database. It
// holds the admin session token and bookkeeping such as the time of the
// last successful sync.
package metadata

import (
	"context"
)

const (
	KeyAdminToken = "admin_token"
	KeyLastSync   = "last_sync"
)

type Repository interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
}
