// Package services contains the client DataService: the single entry point
// the CLI uses to read and write log entries.
//
// The service routes every call either to the remote API or to the local
// cache. In backend mode while online the remote is tried first; deferrable
// failures (server unreachable, 5xx, missing or expired admin session) fall
// through to the cache and writes are queued for replay. The queue is
// drained in the background when connectivity returns, on a timer, or on
// demand through ProcessSyncQueue. Without a cache such failures surface
// as ErrNoStorage wrapping the remote error.
//
// Entries created while offline get negative local ids (shown as L1, L2,
// ...), so they can never collide with server ids. Reads and writes of a
// local id go straight to the cache; replaying the queued add moves the
// entry and every operation still queued for it over to the server id.
package services
