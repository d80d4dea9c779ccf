package events

import (
	"context"
	"log/slog"
)

// Publisher hands entity events to the broker. Publish never blocks on the broker
// and never reports failure to the caller.
type Publisher interface {
	Publish(ctx context.Context, event *EntityEvent)
	Close() error
}

// Recorder receives publish outcomes. *metrics.Metrics satisfies it.
type Recorder interface {
	EventPublished(topic, eventType string)
	EventFailed(topic, eventType string)
	EventDropped(topic, eventType string)
}

type nopRecorder struct{}

func (nopRecorder) EventPublished(string, string) {}
func (nopRecorder) EventFailed(string, string)    {}
func (nopRecorder) EventDropped(string, string)   {}

// NopPublisher is used when kafka is disabled.
type NopPublisher struct {
	Logger *slog.Logger
}

func (p NopPublisher) Publish(_ context.Context, event *EntityEvent) {
	if p.Logger != nil {
		p.Logger.Debug("event publishing disabled, skipping",
			"event_type", event.Type,
			"key", event.Key)
	}
}

func (NopPublisher) Close() error { return nil }
