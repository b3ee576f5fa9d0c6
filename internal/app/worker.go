package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-leave-assistant/internal/config"
	"go-leave-assistant/internal/messaging/kafka"
	"go-leave-assistant/internal/messaging/kafka/producer"
	"go-leave-assistant/internal/shared/connection"

	"go.uber.org/zap"
)

const outboxPollInterval = 3 * time.Second

// RunWorker relays leave status events from the outbox table to Kafka.
func RunWorker(cfg *config.Config, logger *zap.Logger) error {
	log := logger.Named("app.worker")
	if err := cfg.ValidateMessaging(); err != nil {
		return err
	}

	_, sqlDB, err := connectDB(cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, cfg.ConnectRetries)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(sqlDB)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	go producer.ProcessOutboxEvents(ctx, outboxRepo, kafkaWriter, log, outboxPollInterval)

	<-ctx.Done()
	log.Info("worker shutting down")
	return nil
}
