package http

import (
	"context"
	"log/slog"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger prefers the request scoped logger and tags it with the
// handler, the operation and whichever caller and session identities the
// routing layer already resolved.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	pairs := make([]any, 0, 8+len(attrs))
	pairs = append(pairs, "handler", handlerName)
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if userID, ok := UserIDFromContext(ctx); ok {
		pairs = append(pairs, "user_id", userID)
	}
	if sessionID, ok := SessionIDFromContext(ctx); ok && sessionID != "" {
		pairs = append(pairs, "session_id", sessionID)
	}
	return logger.With(append(pairs, attrs...)...)
}
