package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/config"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/worker"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/kafka"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/logger"
)

const bookingEventsTopic = "booking-events"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCfg := &logger.Config{
		Level:       "info",
		ServiceName: "notification-worker",
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting notification worker...")

	if !cfg.Kafka.Enabled {
		appLog.Fatal("Kafka must be enabled for the notification worker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group := cfg.Kafka.ConsumerGroup
	if group == "" {
		group = "notification-worker"
	}
	consumer, err := kafka.NewConsumer(ctx, &kafka.ConsumerConfig{
		Brokers:  cfg.Kafka.Brokers,
		Group:    group,
		Topics:   []string{bookingEventsTopic},
		ClientID: cfg.Kafka.ClientID,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to connect to Kafka: %v", err))
	}

	w := worker.NewNotificationWorker(consumer, worker.LogNotifier{})
	defer w.Close()

	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		appLog.Info("Shutting down notification worker...")
		cancel()
		<-done
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			appLog.Fatal(fmt.Sprintf("Worker stopped with error: %v", err))
		}
	}

	appLog.Info("Notification worker exited gracefully")
}
