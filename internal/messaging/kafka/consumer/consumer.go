package consumer

import (
	"context"
	"encoding/json"
	"time"

	"go-leave-assistant/internal/balance"
	"go-leave-assistant/internal/events"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the part of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// BalanceSeeder creates the year's default balance rows if they are missing.
type BalanceSeeder interface {
	GetBalances(ctx context.Context, employeeID uuid.UUID, year int) (balance.SnapshotResponse, error)
}

// ConsumeEmployeeLifecycle seeds leave balances for newly hired employees
// so their first chat does not pay for the insert.
func ConsumeEmployeeLifecycle(
	ctx context.Context,
	reader MessageReader,
	seeder BalanceSeeder,
	now func() time.Time,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.employee_lifecycle")
	log.Info("employee lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("employee lifecycle consumer stopped")
				return
			}
			log.Error("fetch employee lifecycle message failed", zap.Error(err))
			continue
		}

		if err := HandleEmployeeCreated(ctx, msg, seeder, now, log); err != nil {
			// left uncommitted so the message is redelivered
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit employee lifecycle message failed", zap.Error(err))
		}
	}
}

// HandleEmployeeCreated returns an error only when the message should be retried.
func HandleEmployeeCreated(
	ctx context.Context,
	msg kafkago.Message,
	seeder BalanceSeeder,
	now func() time.Time,
	log *zap.Logger,
) error {
	var event events.EmployeeCreatedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Warn("decode employee lifecycle event failed, skipping", zap.Error(err))
		return nil
	}
	if event.EventType != events.EmployeeCreatedEventType {
		return nil
	}

	employeeID, err := uuid.Parse(event.EmployeeID)
	if err != nil {
		log.Warn("employee_created event with invalid id, skipping", zap.String("employee_id", event.EmployeeID))
		return nil
	}

	year := now().Year()
	if _, err := seeder.GetBalances(ctx, employeeID, year); err != nil {
		log.Error("seed leave balances failed",
			zap.String("employee_id", event.EmployeeID),
			zap.Int("year", year),
			zap.Error(err),
		)
		return err
	}

	log.Info("leave balances seeded from employee_created event",
		zap.String("employee_id", event.EmployeeID),
		zap.Int("year", year),
	)
	return nil
}
