package audit

import (
	"context"
	"log/slog"
	"time"
)

type requestIDKey struct{}

// WithRequestID stores the request id picked up by every audit entry
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger.With(slog.String("channel", "audit"))}
}

func (al *Logger) LogAction(ctx context.Context, actorID, role, action, resource, resourceID, status, details string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("actor_id", actorID),
		slog.String("role", role),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", RequestID(ctx)),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogPayment(ctx context.Context, actorID, paymentID, status, details string) {
	al.LogAction(ctx, actorID, "client", "pay", "payment", paymentID, status, details)
}

func (al *Logger) LogEnrollment(ctx context.Context, actorID, action, classRef, status string) {
	al.LogAction(ctx, actorID, "client", action, "enrollment", classRef, status, "")
}

func (al *Logger) LogDenied(ctx context.Context, actorID, role, reason string) {
	al.LogAction(ctx, actorID, role, "access_denied", "api", "", "denied", reason)
}
