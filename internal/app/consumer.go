package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-leave-assistant/internal/balance"
	"go-leave-assistant/internal/config"
	"go-leave-assistant/internal/events"
	"go-leave-assistant/internal/messaging/kafka/consumer"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const balanceSeederGroup = "go-leave-assistant-balance-seeder"

// RunConsumer seeds leave balances for employees announced on the HR
// lifecycle topic.
func RunConsumer(cfg *config.Config, logger *zap.Logger) error {
	log := logger.Named("app.consumer")
	if err := cfg.ValidateMessaging(); err != nil {
		return err
	}

	infra, err := Connect(cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	ledger := balance.NewLedger(balance.NewRepository(infra.GormDB), logger)
	balanceService := balance.NewService(infra.SQLDB, ledger, infra.Redis, logger)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.KafkaBroker},
		Topic:          events.EmployeeCreatedTopic,
		GroupID:        balanceSeederGroup,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	go consumer.ConsumeEmployeeLifecycle(ctx, reader, balanceService, time.Now, log)

	<-ctx.Done()
	log.Info("consumer shutting down")
	return nil
}
