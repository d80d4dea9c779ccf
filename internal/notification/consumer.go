package notification

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/frahmantamala/employee-management/internal/core/events"
)

// MessageReader is the subset of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Recorder receives consume outcomes. *metrics.Metrics satisfies it.
type Recorder interface {
	EventConsumed(topic, status string)
}

type nopRecorder struct{}

func (nopRecorder) EventConsumed(string, string) {}

const (
	StatusHandled   = "handled"
	StatusMalformed = "malformed"
	StatusFailed    = "failed"
)

func NewKafkaReader(brokers []string, groupID string, topics []string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
}

// Consumer reads entity events from the broker and dispatches them on the in-process bus.
// Every message is committed once dispatched, whether or not a handler failed.
type Consumer struct {
	reader   MessageReader
	topics   map[string]events.Aggregate
	bus      *events.EventBus
	logger   *slog.Logger
	recorder Recorder
}

func NewConsumer(reader MessageReader, topics map[string]events.Aggregate, bus *events.EventBus, logger *slog.Logger, recorder Recorder) *Consumer {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Consumer{
		reader:   reader,
		topics:   topics,
		bus:      bus,
		logger:   logger,
		recorder: recorder,
	}
}

// Run blocks until ctx is cancelled or the reader is closed.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("notification consumer started", "topics", len(c.topics))

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				c.logger.Info("notification consumer stopped")
				return nil
			}
			return err
		}

		c.recorder.EventConsumed(msg.Topic, c.handle(ctx, msg))

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("failed to commit message",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) string {
	aggregate, ok := c.topics[msg.Topic]
	if !ok {
		c.logger.Warn("message from unexpected topic, skipping", "topic", msg.Topic)
		return StatusMalformed
	}

	event, err := events.DecodeEntityEvent(aggregate, msg.Key, msg.Value)
	if err != nil {
		c.logger.Warn("malformed event, skipping",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err)
		return StatusMalformed
	}

	if err := c.bus.PublishSync(ctx, event); err != nil {
		return StatusFailed
	}
	return StatusHandled
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
