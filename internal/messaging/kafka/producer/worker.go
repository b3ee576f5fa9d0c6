package producer

import (
	"context"
	"time"

	"go-leave-assistant/internal/messaging/kafka"
	"go-leave-assistant/internal/metrics"

	"go.uber.org/zap"
)

const (
	batchSize = 50
	// claimLease must outlast one batch of broker writes.
	claimLease = 2 * time.Minute
	// MaxPublishAttempts is how often an event is tried before it is parked.
	MaxPublishAttempts = 10
)

// ProcessOutboxEvents relays the outbox until ctx is cancelled. Several
// relays may run against the same table.
func ProcessOutboxEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer MessageWriter,
	logger *zap.Logger,
	pollInterval time.Duration,
) {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}

	log := logger.Named("kafka.producer.worker")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log.Info("outbox relay started", zap.Duration("poll_interval", pollInterval))

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox relay stopped")
			return
		case <-ticker.C:
			// drain a backlog without waiting a full tick per batch
			for {
				sent, err := ProcessPendingEvents(ctx, repo, writer, log)
				if err != nil {
					log.Error("relay outbox batch failed", zap.Error(err))
					break
				}
				if sent < batchSize || ctx.Err() != nil {
					break
				}
			}
		}
	}
}

// ProcessPendingEvents claims and publishes one batch, returning how many
// were sent. A failed publish is rescheduled and does not stop the batch.
func ProcessPendingEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer MessageWriter,
	logger *zap.Logger,
) (int, error) {
	events, err := repo.ClaimPending(ctx, batchSize, claimLease)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	logger.Debug("relaying claimed outbox events", zap.Int("count", len(events)))

	sent := 0
	for _, event := range events {
		if err := publishEvent(ctx, writer, event); err != nil {
			dead, markErr := repo.MarkFailed(ctx, event.ID, err.Error(), MaxPublishAttempts)
			if markErr != nil {
				logger.Error("mark outbox event failed",
					zap.String("outbox_id", event.ID),
					zap.Error(markErr),
				)
				continue
			}
			outcome := "retry"
			if dead {
				outcome = "dead"
				logger.Error("outbox event parked after repeated publish failures",
					zap.String("outbox_id", event.ID),
					zap.String("event_type", event.EventType),
					zap.String("aggregate_id", event.AggregateID),
					zap.Error(err),
				)
			} else {
				logger.Warn("publish outbox event failed",
					zap.String("outbox_id", event.ID),
					zap.String("topic", event.Topic),
					zap.Int("retry_count", event.RetryCount),
					zap.Error(err),
				)
			}
			metrics.OutboxEvents.WithLabelValues(outcome, event.EventType).Inc()
			continue
		}

		if err := repo.MarkSent(ctx, event.ID); err != nil {
			// the claim lease expires and the event is sent again
			logger.Error("mark outbox event sent failed",
				zap.String("outbox_id", event.ID),
				zap.Error(err),
			)
			continue
		}
		sent++
		metrics.OutboxEvents.WithLabelValues("sent", event.EventType).Inc()

		logger.Info("outbox event sent",
			zap.String("outbox_id", event.ID),
			zap.String("event_type", event.EventType),
			zap.String("aggregate_id", event.AggregateID),
		)
	}
	return sent, nil
}
