package consumer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-leave-assistant/internal/balance"
	"go-leave-assistant/internal/messaging/kafka/consumer"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeSeeder struct {
	calls []uuid.UUID
	years []int
	err   error
}

func (f *fakeSeeder) GetBalances(_ context.Context, employeeID uuid.UUID, year int) (balance.SnapshotResponse, error) {
	f.calls = append(f.calls, employeeID)
	f.years = append(f.years, year)
	return balance.SnapshotResponse{}, f.err
}

func TestHandleEmployeeCreated(t *testing.T) {
	ctx := context.Background()
	now := func() time.Time { return time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC) }
	employeeID := uuid.New()

	t.Run("seeds the current year", func(t *testing.T) {
		seeder := &fakeSeeder{}
		msg := kafkago.Message{Value: []byte(`{"event_type":"employee_created","employee_id":"` + employeeID.String() + `"}`)}

		err := consumer.HandleEmployeeCreated(ctx, msg, seeder, now, zap.NewNop())

		assert.NoError(t, err)
		assert.Equal(t, []uuid.UUID{employeeID}, seeder.calls)
		assert.Equal(t, []int{2025}, seeder.years)
	})

	t.Run("poison messages are skipped", func(t *testing.T) {
		seeder := &fakeSeeder{}
		for _, body := range []string{`not json`, `{"event_type":"employee_created","employee_id":"nope"}`, `{"event_type":"employee_terminated"}`} {
			err := consumer.HandleEmployeeCreated(ctx, kafkago.Message{Value: []byte(body)}, seeder, now, zap.NewNop())
			assert.NoError(t, err, body)
		}
		assert.Empty(t, seeder.calls)
	})

	t.Run("store failure asks for redelivery", func(t *testing.T) {
		seeder := &fakeSeeder{err: errors.New("db down")}
		msg := kafkago.Message{Value: []byte(`{"event_type":"employee_created","employee_id":"` + employeeID.String() + `"}`)}

		err := consumer.HandleEmployeeCreated(ctx, msg, seeder, now, zap.NewNop())

		assert.EqualError(t, err, "db down")
	})
}
