package audit

import (
	"context"
	"log/slog"
	"time"
)

// Logger emits structured audit records for mutating operations.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

// LogRequest records an inbound mutating request before it is handled.
func (al *Logger) LogRequest(ctx context.Context, userID, role, method, path string) {
	al.logger.Info("audit",
		slog.String("user_id", userID),
		slog.String("role", role),
		slog.String("method", method),
		slog.String("path", path),
		slog.Time("timestamp", time.Now()),
	)
}

// LogAction records a domain-level action outcome.
func (al *Logger) LogAction(ctx context.Context, userID, action, resource, resourceID, status string) {
	al.logger.Info("audit",
		slog.String("user_id", userID),
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("status", status),
		slog.Time("timestamp", time.Now()),
	)
}

// LogDenied records a rejected authorization attempt.
func (al *Logger) LogDenied(ctx context.Context, userID, reason string) {
	al.LogAction(ctx, userID, "access_denied", "api", "", reason)
}
