// Package log provides the structured logging abstraction used across the
// IAM core. It wraps go.uber.org/zap behind a narrow interface so call
// sites never import zap directly, following the same seam the rest of the
// codebase uses for every external collaborator (database, authorization
// engine, OIDC provider).
package log

import "context"

// Logger is the logging interface every component depends on.
type Logger interface {
	Info(args ...any)
	Infof(format string, args ...any)

	Error(args ...any)
	Errorf(format string, args ...any)

	Warn(args ...any)
	Warnf(format string, args ...any)

	Debug(args ...any)
	Debugf(format string, args ...any)

	// WithFields returns a child logger carrying the given key/value pairs
	// on every subsequent entry.
	WithFields(fields ...any) Logger

	Sync() error
}

type loggerContextKey struct{}

// FromContext extracts the Logger stored in ctx, or a NoneLogger if absent.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerContextKey{}).(Logger); ok && l != nil {
		return l
	}

	return &NoneLogger{}
}

// WithContext returns a copy of ctx carrying logger.
func WithContext(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}
