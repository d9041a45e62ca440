// Package observability holds the structured logger and its request scope.
package observability

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

type ctxKey string

const (
	ctxKeyRequestID    ctxKey = "request_id"
	ctxKeySessionToken ctxKey = "session_token"
)

// NewLogger builds a JSON logger at the given level and installs it as the
// slog default.
func NewLogger(w io.Writer, level string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID stores a request_id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// WithSessionToken stores the resolved session token in the context.
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeySessionToken, token)
}

// LoggerFromContext returns the default logger with request scoped fields.
// Only a prefix of the session token is logged.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if reqID, _ := ctx.Value(ctxKeyRequestID).(string); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if token, _ := ctx.Value(ctxKeySessionToken).(string); token != "" {
		logger = logger.With("session", TokenPrefix(token))
	}
	return logger
}

// TokenPrefix shortens a session token for logs.
func TokenPrefix(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}
