package events

import (
	"context"
	"log/slog"
)

const (
	UserRegisteredEvent = "user.registered"
	UserLoggedInEvent   = "user.logged_in"
)

func NewUserRegisteredEvent(publicID, email, role string) BaseEvent {
	return NewBaseEvent(UserRegisteredEvent, map[string]interface{}{
		"public_id": publicID,
		"email":     email,
		"role":      role,
	})
}

func NewUserLoggedInEvent(publicID, email string) BaseEvent {
	return NewBaseEvent(UserLoggedInEvent, map[string]interface{}{
		"public_id": publicID,
		"email":     email,
	})
}

// AuditLogHandler writes every received event to logger at info level.
func AuditLogHandler(logger *slog.Logger) Handler {
	return func(ctx context.Context, event Event) error {
		attrs := []any{
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
		}
		if data, ok := event.Payload().(map[string]interface{}); ok {
			for k, v := range data {
				attrs = append(attrs, k, v)
			}
		}
		logger.InfoContext(ctx, "audit", attrs...)
		return nil
	}
}
