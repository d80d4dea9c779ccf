package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/employee-management/internal/core/events"
)

var notificationSubjects = map[string]string{
	events.EventTypeUserCreated:       "New user registered",
	events.EventTypeUserUpdated:       "User profile updated",
	events.EventTypeEmployeeCreated:   "Employee onboarded",
	events.EventTypeEmployeeUpdated:   "Employee record changed",
	events.EventTypeEmployeeDeleted:   "Employee removed",
	events.EventTypeDepartmentCreated: "Department created",
	events.EventTypeDepartmentUpdated: "Department changed",
	events.EventTypeDepartmentDeleted: "Department removed",
}

// Register subscribes a notification handler for every entity event type.
func Register(bus *events.EventBus, lg *slog.Logger) {
	for _, eventType := range events.AllEventTypes {
		bus.Subscribe(eventType, Notify(lg))
	}
}

// Notify logs one notification line per event.
func Notify(lg *slog.Logger) events.Handler {
	return func(_ context.Context, event events.Event) error {
		subject, ok := notificationSubjects[event.EventType()]
		if !ok {
			return fmt.Errorf("no notification for event type %q", event.EventType())
		}

		args := []any{
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
		}
		if entity, ok := event.(*events.EntityEvent); ok {
			args = append(args, "aggregate", entity.Aggregate, "key", entity.Key)
		}
		if data, ok := event.Payload().(map[string]interface{}); ok {
			for k, v := range data {
				args = append(args, k, v)
			}
		}

		lg.Info("notification: "+subject, args...)
		return nil
	}
}
