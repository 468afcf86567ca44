package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers       []string
	Group         string
	Topics        []string
	ClientID      string
	PollTimeout   time.Duration
	CommitOnError bool
}

// Message is a consumed Kafka record
type Message struct {
	Topic   string
	Key     string
	Value   []byte
	Headers map[string]string
}

// Handler processes a consumed message. Returning an error leaves the
// offset uncommitted unless CommitOnError is set.
type Handler func(ctx context.Context, msg *Message) error

// Consumer wraps a franz-go consumer-group client
type Consumer struct {
	client *kgo.Client
	config *ConsumerConfig
}

// NewConsumer creates a consumer-group consumer
func NewConsumer(ctx context.Context, cfg *ConsumerConfig) (*Consumer, error) {
	if cfg == nil || len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.Group == "" {
		return nil, fmt.Errorf("consumer group is required")
	}
	if len(cfg.Topics) == 0 {
		return nil, fmt.Errorf("at least one topic is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach kafka brokers: %w", err)
	}

	return &Consumer{client: client, config: cfg}, nil
}

// Run polls until the context is cancelled, invoking the handler per record.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			// Poll errors are transient by default; surface the first fatal one.
			for _, fe := range errs {
				if fe.Err == context.Canceled {
					return fe.Err
				}
			}
		}

		var failed bool
		fetches.EachRecord(func(record *kgo.Record) {
			msg := &Message{
				Topic:   record.Topic,
				Key:     string(record.Key),
				Value:   record.Value,
				Headers: make(map[string]string, len(record.Headers)),
			}
			for _, h := range record.Headers {
				msg.Headers[h.Key] = string(h.Value)
			}

			if err := handler(ctx, msg); err != nil && !c.config.CommitOnError {
				failed = true
			}
		})

		if !failed {
			if err := c.client.CommitUncommittedOffsets(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("failed to commit offsets: %w", err)
			}
		}
	}
}

// Close closes the consumer
func (c *Consumer) Close() {
	c.client.Close()
}
