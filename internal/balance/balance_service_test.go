package balance_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-leave-assistant/internal/balance"
	"go-leave-assistant/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type fakeLedger struct {
	getOrCreateFn func(ctx context.Context, employeeID uuid.UUID, year int) ([]balance.LeaveBalance, error)
	reserveFn     func(ctx context.Context, employeeID uuid.UUID, leaveType domain.LeaveType, year int, days decimal.Decimal) (balance.LeaveBalance, error)
	commitFn      func(ctx context.Context, employeeID uuid.UUID, leaveType domain.LeaveType, year int, days decimal.Decimal) (balance.LeaveBalance, error)
	releaseFn     func(ctx context.Context, employeeID uuid.UUID, leaveType domain.LeaveType, year int, days decimal.Decimal) (balance.LeaveBalance, error)
}

func (f *fakeLedger) WithTx(*sql.Tx) balance.Ledger { return f }

func (f *fakeLedger) GetOrCreate(ctx context.Context, employeeID uuid.UUID, year int) ([]balance.LeaveBalance, error) {
	if f.getOrCreateFn != nil {
		return f.getOrCreateFn(ctx, employeeID, year)
	}
	return nil, nil
}

func (f *fakeLedger) Reserve(ctx context.Context, employeeID uuid.UUID, leaveType domain.LeaveType, year int, days decimal.Decimal) (balance.LeaveBalance, error) {
	if f.reserveFn != nil {
		return f.reserveFn(ctx, employeeID, leaveType, year, days)
	}
	return balance.LeaveBalance{}, nil
}

func (f *fakeLedger) Commit(ctx context.Context, employeeID uuid.UUID, leaveType domain.LeaveType, year int, days decimal.Decimal) (balance.LeaveBalance, error) {
	if f.commitFn != nil {
		return f.commitFn(ctx, employeeID, leaveType, year, days)
	}
	return balance.LeaveBalance{}, nil
}

func (f *fakeLedger) Release(ctx context.Context, employeeID uuid.UUID, leaveType domain.LeaveType, year int, days decimal.Decimal) (balance.LeaveBalance, error) {
	if f.releaseFn != nil {
		return f.releaseFn(ctx, employeeID, leaveType, year, days)
	}
	return balance.LeaveBalance{}, nil
}

type balanceServiceDeps struct {
	sqlMock   sqlmock.Sqlmock
	redismock redismock.ClientMock
	ledger    *fakeLedger
	service   balance.Service
}

func setupBalanceServiceTest(t *testing.T) *balanceServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	rdb, redisMock := redismock.NewClientMock()

	ledger := &fakeLedger{}
	return &balanceServiceDeps{
		sqlMock:   sqlMock,
		redismock: redisMock,
		ledger:    ledger,
		service:   balance.NewService(db, ledger, rdb),
	}
}

func TestBalanceService_GetBalances(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New()
	year := 2024
	genKey := balance.GetGenerationKey(employeeID, year)
	cacheKey := balance.GetSnapshotKey(employeeID, year, 0)

	row := balance.NewDefaultBalance(employeeID, year, domain.DefaultAllocation{
		LeaveType: domain.LeaveAnnual,
		Days:      decimal.NewFromInt(21),
	})
	expected := balance.SnapshotResponse{
		EmployeeID: employeeID.String(),
		Year:       year,
		Balances: []balance.BalanceResponse{{
			LeaveType:      "ANNUAL",
			DisplayName:    "Annual",
			TotalAllocated: row.TotalAllocated,
			UsedDays:       row.UsedDays,
			PendingDays:    row.PendingDays,
			RemainingDays:  row.RemainingDays,
			CarriedForward: row.CarriedForward,
		}},
	}
	expectedJSON, _ := json.Marshal(expected)

	t.Run("cache hit skips the store", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		deps.redismock.ExpectGet(genKey).RedisNil()
		deps.redismock.ExpectGet(cacheKey).SetVal(string(expectedJSON))
		deps.ledger.getOrCreateFn = func(context.Context, uuid.UUID, int) ([]balance.LeaveBalance, error) {
			t.Fatal("ledger must not be called on cache hit")
			return nil, nil
		}

		resp, err := deps.service.GetBalances(ctx, employeeID, year)

		assert.NoError(t, err)
		assert.Equal(t, employeeID.String(), resp.EmployeeID)
		got, ok := resp.Find("ANNUAL")
		assert.True(t, ok)
		assert.True(t, got.RemainingDays.Equal(decimal.NewFromInt(21)))
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("cache miss seeds in a tx and stores the snapshot", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		deps.redismock.ExpectGet(genKey).RedisNil()
		deps.redismock.ExpectGet(cacheKey).RedisNil()
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()
		deps.redismock.ExpectSet(cacheKey, expectedJSON, 10*time.Minute).SetVal("OK")

		deps.ledger.getOrCreateFn = func(_ context.Context, id uuid.UUID, y int) ([]balance.LeaveBalance, error) {
			assert.Equal(t, employeeID, id)
			assert.Equal(t, year, y)
			return []balance.LeaveBalance{row}, nil
		}

		resp, err := deps.service.GetBalances(ctx, employeeID, year)

		assert.NoError(t, err)
		assert.Len(t, resp.Balances, 1)
		assert.Equal(t, "Annual", resp.Balances[0].DisplayName)
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("ledger failure rolls back and caches nothing", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		deps.redismock.ExpectGet(genKey).RedisNil()
		deps.redismock.ExpectGet(cacheKey).RedisNil()
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		deps.ledger.getOrCreateFn = func(context.Context, uuid.UUID, int) ([]balance.LeaveBalance, error) {
			return nil, errors.New("db down")
		}

		_, err := deps.service.GetBalances(ctx, employeeID, year)

		assert.EqualError(t, err, "db down")
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("load racing an invalidation caches under the retired generation", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		staleKey := balance.GetSnapshotKey(employeeID, year, 2)
		freshKey := balance.GetSnapshotKey(employeeID, year, 3)

		deps.redismock.ExpectGet(genKey).SetVal("2")
		deps.redismock.ExpectGet(staleKey).RedisNil()
		deps.sqlMock.ExpectBegin()
		deps.redismock.ExpectIncr(genKey).SetVal(3)
		deps.sqlMock.ExpectCommit()
		deps.redismock.ExpectSet(staleKey, expectedJSON, 10*time.Minute).SetVal("OK")

		deps.ledger.getOrCreateFn = func(ctx context.Context, id uuid.UUID, y int) ([]balance.LeaveBalance, error) {
			// a reservation commits and invalidates while this read is in flight
			deps.service.Invalidate(ctx, id, y)
			return []balance.LeaveBalance{row}, nil
		}
		_, err := deps.service.GetBalances(ctx, employeeID, year)
		assert.NoError(t, err)

		reserved := row
		reserved.PendingDays = decimal.NewFromInt(2)
		reserved.RemainingDays = decimal.NewFromInt(19)
		deps.ledger.getOrCreateFn = func(context.Context, uuid.UUID, int) ([]balance.LeaveBalance, error) {
			return []balance.LeaveBalance{reserved}, nil
		}
		deps.redismock.ExpectGet(genKey).SetVal("3")
		deps.redismock.ExpectGet(freshKey).RedisNil()
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()
		fresh := expected
		fresh.Balances = []balance.BalanceResponse{expected.Balances[0]}
		fresh.Balances[0].PendingDays = reserved.PendingDays
		fresh.Balances[0].RemainingDays = reserved.RemainingDays
		freshJSON, _ := json.Marshal(fresh)
		deps.redismock.ExpectSet(freshKey, freshJSON, 10*time.Minute).SetVal("OK")

		resp, err := deps.service.GetBalances(ctx, employeeID, year)

		assert.NoError(t, err)
		got, ok := resp.Find("ANNUAL")
		assert.True(t, ok)
		assert.True(t, got.RemainingDays.Equal(decimal.NewFromInt(19)))
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("redis failure reads the store without caching", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		deps.redismock.ExpectGet(genKey).SetErr(errors.New("redis down"))
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()
		deps.ledger.getOrCreateFn = func(context.Context, uuid.UUID, int) ([]balance.LeaveBalance, error) {
			return []balance.LeaveBalance{row}, nil
		}

		resp, err := deps.service.GetBalances(ctx, employeeID, year)

		assert.NoError(t, err)
		assert.Len(t, resp.Balances, 1)
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		deps.redismock.ExpectGet(genKey).RedisNil()
		deps.redismock.ExpectGet(cacheKey).RedisNil()
		deps.sqlMock.ExpectBegin().WillReturnError(errors.New("no conn"))

		_, err := deps.service.GetBalances(ctx, employeeID, year)

		assert.EqualError(t, err, "no conn")
	})
}

func TestBalanceService_Invalidate(t *testing.T) {
	deps := setupBalanceServiceTest(t)
	employeeID := uuid.New()
	deps.redismock.ExpectIncr(balance.GetGenerationKey(employeeID, 2024)).SetVal(1)

	deps.service.Invalidate(context.Background(), employeeID, 2024)

	assert.NoError(t, deps.redismock.ExpectationsWereMet())
}

func TestBalanceService_NilRedis(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	sqlMock.ExpectBegin()
	sqlMock.ExpectCommit()

	employeeID := uuid.New()
	ledger := &fakeLedger{
		getOrCreateFn: func(context.Context, uuid.UUID, int) ([]balance.LeaveBalance, error) {
			return []balance.LeaveBalance{balance.NewDefaultBalance(employeeID, 2024, domain.DefaultAllocations()[0])}, nil
		},
	}
	svc := balance.NewService(db, ledger, nil)

	resp, err := svc.GetBalances(context.Background(), employeeID, 2024)
	assert.NoError(t, err)
	assert.Len(t, resp.Balances, 1)
	svc.Invalidate(context.Background(), employeeID, 2024)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestBalanceService_LoadSurvivesCallerCancellation(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	sqlMock.ExpectBegin()
	sqlMock.ExpectCommit()

	employeeID := uuid.New()
	ledger := &fakeLedger{
		getOrCreateFn: func(ctx context.Context, _ uuid.UUID, _ int) ([]balance.LeaveBalance, error) {
			assert.NoError(t, ctx.Err())
			return []balance.LeaveBalance{balance.NewDefaultBalance(employeeID, 2024, domain.DefaultAllocations()[0])}, nil
		},
	}
	svc := balance.NewService(db, ledger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp, err := svc.GetBalances(ctx, employeeID, 2024)

	assert.NoError(t, err)
	assert.Len(t, resp.Balances, 1)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
