package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/kafka"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/logger"
)

// DomainEvent is the envelope published after a state transition
type DomainEvent struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// EventPublisher publishes lifecycle events after state transitions.
// Publishing is best-effort: settlement never rolls back because an
// event could not be sent.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, key string, payload interface{}) error
	Close()
}

// KafkaEventPublisher publishes events to a Kafka topic, keyed for
// per-entity ordering
type KafkaEventPublisher struct {
	producer *kafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates a Kafka-backed event publisher
func NewKafkaEventPublisher(producer *kafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

// Publish sends one event envelope
func (p *KafkaEventPublisher) Publish(ctx context.Context, eventType, key string, payload interface{}) error {
	event := DomainEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now(),
		Payload:    payload,
	}

	err := p.producer.ProduceJSON(ctx, p.topic, key, event, map[string]string{
		"event_type": eventType,
	})
	if err != nil {
		logger.Get().Warn("failed to publish event",
			zap.String("event_type", eventType),
			zap.String("key", key),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Close flushes and closes the underlying producer
func (p *KafkaEventPublisher) Close() {
	p.producer.Close()
}

// NoOpEventPublisher drops all events. Used when Kafka is disabled.
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a publisher that drops everything
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

// Publish drops the event
func (p *NoOpEventPublisher) Publish(ctx context.Context, eventType, key string, payload interface{}) error {
	return nil
}

// Close is a no-op
func (p *NoOpEventPublisher) Close() {}

// Ensure implementations satisfy EventPublisher
var (
	_ EventPublisher = (*KafkaEventPublisher)(nil)
	_ EventPublisher = (*NoOpEventPublisher)(nil)
)
