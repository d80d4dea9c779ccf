package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisherConfig struct {
	Topics       map[Aggregate]string
	WriteTimeout time.Duration
	MaxWorkers   int
	QueueSize    int
}

type publishJob struct {
	topic string
	event *EntityEvent
}

// KafkaPublisher sends events from a bounded queue drained by a fixed set of workers.
// A full queue drops the event. Delivery is at most once.
type KafkaPublisher struct {
	writer       MessageWriter
	topics       map[Aggregate]string
	writeTimeout time.Duration
	logger       *slog.Logger
	recorder     Recorder

	jobQueue   chan publishJob
	maxWorkers int
	wg         sync.WaitGroup
	mu         sync.RWMutex
	closed     bool
	once       sync.Once
}

// NewKafkaWriter builds a writer that routes by message topic and hashes the key to a partition.
func NewKafkaWriter(brokers []string, writeTimeout time.Duration) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           writeTimeout,
	}
}

func NewKafkaPublisher(writer MessageWriter, config KafkaPublisherConfig, logger *slog.Logger, recorder Recorder) *KafkaPublisher {
	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}

	writeTimeout := config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	if recorder == nil {
		recorder = nopRecorder{}
	}

	p := &KafkaPublisher{
		writer:       writer,
		topics:       config.Topics,
		writeTimeout: writeTimeout,
		logger:       logger,
		recorder:     recorder,
		jobQueue:     make(chan publishJob, queueSize),
		maxWorkers:   maxWorkers,
	}

	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.work(i)
	}

	p.logger.Info("kafka publisher started",
		"max_workers", p.maxWorkers,
		"queue_size", cap(p.jobQueue))

	return p
}

// Publish enqueues the event and returns immediately. The request context is not
// used for the write since the response is usually sent before the broker acks.
func (p *KafkaPublisher) Publish(_ context.Context, event *EntityEvent) {
	topic, ok := p.topics[event.Aggregate]
	if !ok || topic == "" {
		p.logger.Error("no topic configured for aggregate",
			"aggregate", event.Aggregate,
			"event_type", event.Type)
		p.recorder.EventDropped("", event.Type)
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warn("publisher closed, dropping event",
			"topic", topic,
			"event_type", event.Type,
			"key", event.Key)
		p.recorder.EventDropped(topic, event.Type)
		return
	}

	select {
	case p.jobQueue <- publishJob{topic: topic, event: event}:
	default:
		p.logger.Warn("publish queue full, dropping event",
			"topic", topic,
			"event_type", event.Type,
			"key", event.Key)
		p.recorder.EventDropped(topic, event.Type)
	}
}

func (p *KafkaPublisher) work(id int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		p.logger.Debug("worker publishing event", "worker_id", id, "event_type", job.event.Type)
		p.send(job)
	}
}

func (p *KafkaPublisher) send(job publishJob) {
	value, err := json.Marshal(job.event)
	if err != nil {
		p.logger.Error("failed to encode event",
			"event_type", job.event.Type,
			"key", job.event.Key,
			"error", err)
		p.recorder.EventFailed(job.topic, job.event.Type)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: job.topic,
		Key:   []byte(job.event.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(job.event.Type)},
		},
		Time: job.event.Timestamp,
	})
	if err != nil {
		p.logger.Error("failed to publish event",
			"topic", job.topic,
			"event_type", job.event.Type,
			"key", job.event.Key,
			"error", err)
		p.recorder.EventFailed(job.topic, job.event.Type)
		return
	}

	p.logger.Info("event published",
		"topic", job.topic,
		"event_type", job.event.Type,
		"key", job.event.Key)
	p.recorder.EventPublished(job.topic, job.event.Type)
}

// Close stops accepting events, waits for queued ones to be attempted, then closes the writer.
func (p *KafkaPublisher) Close() error {
	var err error
	p.once.Do(func() {
		p.logger.Info("shutting down kafka publisher")

		p.mu.Lock()
		p.closed = true
		close(p.jobQueue)
		p.mu.Unlock()

		p.wg.Wait()
		err = p.writer.Close()

		p.logger.Info("kafka publisher shutdown complete")
	})
	return err
}
