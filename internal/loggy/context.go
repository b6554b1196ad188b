package loggy

import (
	"context"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	sessionIDKey contextKey = "session_id"
)

// FromContext retrieves the logger from the context, falling back to the global logger
func FromContext(ctx context.Context) *Logger {
	if ctx == nil {
		return globalLogger
	}

	if logger, ok := ctx.Value(loggerKey).(*Logger); ok && logger != nil {
		return logger
	}

	return globalLogger
}

// WithLogger returns a new context with the logger attached
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// SessionID retrieves the merge session id from the context
func SessionID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}

	return ""
}

// WithSessionID attaches a merge session id to the context and to the context logger,
// so every record logged during the session carries it.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)

	if logger := FromContext(ctx); logger != nil {
		ctx = WithLogger(ctx, logger.With("session_id", sessionID))
	}
	return ctx
}
