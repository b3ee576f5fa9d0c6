package balance_test

import (
	"testing"

	"go-leave-assistant/internal/balance"
	balanceerrors "go-leave-assistant/internal/balance/errors"
	"go-leave-assistant/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func annualRow() balance.LeaveBalance {
	return balance.NewDefaultBalance(uuid.New(), 2024, domain.DefaultAllocation{
		LeaveType: domain.LeaveAnnual,
		Days:      decimal.NewFromInt(21),
	})
}

func TestLeaveBalance_Operations(t *testing.T) {
	t.Run("reserve commit release keep invariant", func(t *testing.T) {
		b := annualRow()
		require.NoError(t, b.CheckInvariant())

		require.NoError(t, b.Reserve(d("3")))
		assert.True(t, b.PendingDays.Equal(d("3")))
		assert.True(t, b.RemainingDays.Equal(d("18")))
		require.NoError(t, b.CheckInvariant())

		require.NoError(t, b.Commit(d("3")))
		assert.True(t, b.PendingDays.IsZero())
		assert.True(t, b.UsedDays.Equal(d("3")))
		assert.True(t, b.RemainingDays.Equal(d("18")))
		require.NoError(t, b.CheckInvariant())

		require.NoError(t, b.Reserve(d("1.5")))
		require.NoError(t, b.Release(d("1.5")))
		assert.True(t, b.RemainingDays.Equal(d("18")))
		assert.True(t, b.PendingDays.IsZero())
		require.NoError(t, b.CheckInvariant())
	})

	t.Run("reserve beyond remaining is rejected without mutation", func(t *testing.T) {
		b := annualRow()
		err := b.Reserve(d("22"))
		assert.ErrorIs(t, err, balanceerrors.ErrInsufficientBalance)
		assert.True(t, b.RemainingDays.Equal(d("21")))
		assert.True(t, b.PendingDays.IsZero())
	})

	t.Run("commit or release beyond pending underflows", func(t *testing.T) {
		b := annualRow()
		require.NoError(t, b.Reserve(d("2")))
		assert.ErrorIs(t, b.Commit(d("3")), balanceerrors.ErrLedgerUnderflow)
		assert.ErrorIs(t, b.Release(d("3")), balanceerrors.ErrLedgerUnderflow)
		assert.True(t, b.PendingDays.Equal(d("2")))
		require.NoError(t, b.CheckInvariant())
	})

	t.Run("non positive days are invalid", func(t *testing.T) {
		b := annualRow()
		assert.ErrorIs(t, b.Reserve(decimal.Zero), balanceerrors.ErrInvalidDays)
		assert.ErrorIs(t, b.Commit(d("-1")), balanceerrors.ErrInvalidDays)
		assert.ErrorIs(t, b.Release(decimal.Zero), balanceerrors.ErrInvalidDays)
	})

	t.Run("corrupted row fails invariant", func(t *testing.T) {
		b := annualRow()
		b.UsedDays = d("1")
		assert.ErrorIs(t, b.CheckInvariant(), balanceerrors.ErrInvariantViolated)
	})

	t.Run("carried forward counts toward the right side", func(t *testing.T) {
		b := annualRow()
		b.CarriedForward = d("2")
		b.RemainingDays = d("23")
		require.NoError(t, b.CheckInvariant())
		require.NoError(t, b.Reserve(d("23")))
		require.NoError(t, b.CheckInvariant())
	})
}
