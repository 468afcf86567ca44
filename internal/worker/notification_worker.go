package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/service"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/kafka"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/logger"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/retry"
)

// Notifier delivers one notification to its channel (email, push, ...).
type Notifier interface {
	Notify(ctx context.Context, event *service.DomainEvent) error
}

// NotificationWorker consumes booking and withdrawal lifecycle events
// and fans them out to notifiers.
type NotificationWorker struct {
	consumer  *kafka.Consumer
	notifiers []Notifier
	retrier   *retry.Retrier
}

// NewNotificationWorker creates a notification worker
func NewNotificationWorker(consumer *kafka.Consumer, notifiers ...Notifier) *NotificationWorker {
	return &NotificationWorker{
		consumer:  consumer,
		notifiers: notifiers,
		retrier: retry.New(&retry.Config{
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Multiplier:      2,
			JitterFactor:    0.1,
		}),
	}
}

// Run consumes events until ctx is cancelled
func (w *NotificationWorker) Run(ctx context.Context) error {
	return w.consumer.Run(ctx, w.handle)
}

// Close closes the underlying consumer
func (w *NotificationWorker) Close() {
	w.consumer.Close()
}

func (w *NotificationWorker) handle(ctx context.Context, msg *kafka.Message) error {
	var event service.DomainEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// A malformed record never becomes parseable; skip it.
		logger.Get().Warn("skipping malformed event",
			zap.String("topic", msg.Topic),
			zap.String("key", msg.Key),
			zap.Error(err))
		return nil
	}

	switch event.Type {
	case domain.BookingEventCreated,
		domain.BookingEventConfirmed,
		domain.BookingEventRefunded,
		domain.WithdrawalEventRequested,
		domain.WithdrawalEventCompleted,
		domain.WithdrawalEventRejected:
	default:
		return nil
	}

	for _, n := range w.notifiers {
		notifier := n
		err := w.retrier.Do(ctx, func(ctx context.Context) error {
			return notifier.Notify(ctx, &event)
		})
		if err != nil {
			logger.Get().Error("notification delivery failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", event.Type),
				zap.Error(err))
			return fmt.Errorf("notify %s: %w", event.Type, err)
		}
	}

	logger.Get().Info("notification delivered",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.String("key", msg.Key))
	return nil
}

// LogNotifier writes notifications to the log. Stand-in for real
// channels in development and tests.
type LogNotifier struct{}

// Notify logs the event
func (LogNotifier) Notify(ctx context.Context, event *service.DomainEvent) error {
	logger.Get().Info("notification",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.Time("occurred_at", event.OccurredAt))
	return nil
}
