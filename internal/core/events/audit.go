package events

import (
	"context"
	"log/slog"
)

// AuditLogger writes one structured line per access-control change.
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger.With("component", "audit")}
}

func (a *AuditLogger) Register(bus *EventBus) {
	bus.Subscribe(EventTypeUserCreated, a.Handle)
	bus.Subscribe(EventTypeUserRolesReplaced, a.Handle)
	bus.Subscribe(EventTypeRolePermissionsReplaced, a.Handle)
}

func (a *AuditLogger) Handle(ctx context.Context, event Event) error {
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
	a.logger.InfoContext(ctx, "access control change", attrs...)
	return nil
}
