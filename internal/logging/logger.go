// Package logging is the structured logger used by both medialog binaries.
// Everything logs through the Logger interface; New builds the log/slog
// backed implementation from the configured level and format.
package logging

import "context"

// ComponentKey tags every record with the part of the system that wrote it.
const ComponentKey = "component"

// Logger takes a message plus key/value pairs:
//
//	log.Info(ctx, "sync queue drained", "replayed", n, "requeued", m)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger carrying args on every record.
	With(args ...any) Logger
}

// Component scopes l to a named component, e.g. "data-service" or "http".
func Component(l Logger, name string) Logger {
	return l.With(ComponentKey, name)
}
