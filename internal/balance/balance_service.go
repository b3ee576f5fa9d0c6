package balance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	BalanceSnapshotKeyPrefix   = "balances:"
	BalanceGenerationKeyPrefix = "balances:gen:"
	snapshotTTL                = 10 * time.Minute
)

// GetSnapshotKey names the snapshot cached for one generation. Invalidate
// bumps the generation, so a load that raced a mutation writes under a key
// that is never read again. Generation keys carry no TTL and only grow.
func GetSnapshotKey(employeeID uuid.UUID, year int, generation int64) string {
	return fmt.Sprintf("%s%s:%d:g%d", BalanceSnapshotKeyPrefix, employeeID.String(), year, generation)
}

func GetGenerationKey(employeeID uuid.UUID, year int) string {
	return fmt.Sprintf("%s%s:%d", BalanceGenerationKeyPrefix, employeeID.String(), year)
}

//go:generate mockgen -source=balance_service.go -destination=mock/balance_service_mock.go -package=mock
type Service interface {
	GetBalances(ctx context.Context, employeeID uuid.UUID, year int) (SnapshotResponse, error)
	Invalidate(ctx context.Context, employeeID uuid.UUID, year int)
}

type service struct {
	db     *sql.DB
	ledger Ledger
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

// NewService accepts a nil redis client; snapshots are then always read from the store.
func NewService(db *sql.DB, ledger Ledger, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	return &service{db: db, ledger: ledger, rdb: rdb, sf: &singleflight.Group{}, logger: l}
}

func (s *service) GetBalances(ctx context.Context, employeeID uuid.UUID, year int) (SnapshotResponse, error) {
	generation, cacheable := s.generation(ctx, employeeID, year)
	cacheKey := GetSnapshotKey(employeeID, year, generation)

	if cacheable {
		cached, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var resp SnapshotResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return resp, nil
			}
		}
	}

	// Waiters share the load, so one caller's cancellation must not fail the rest.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		rows, err := s.loadOrSeed(loadCtx, employeeID, year)
		if err != nil {
			return nil, err
		}

		resp := mapToSnapshot(employeeID, year, rows)
		if cacheable {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(loadCtx, cacheKey, jsonData, snapshotTTL)
			}
		}
		return resp, nil
	})
	if err != nil {
		return SnapshotResponse{}, err
	}
	return v.(SnapshotResponse), nil
}

// generation reads the current cache generation. A missing key is
// generation zero; a Redis failure disables caching for this call.
func (s *service) generation(ctx context.Context, employeeID uuid.UUID, year int) (int64, bool) {
	if s.rdb == nil {
		return 0, false
	}
	gen, err := s.rdb.Get(ctx, GetGenerationKey(employeeID, year)).Int64()
	switch {
	case err == nil:
		return gen, true
	case errors.Is(err, redis.Nil):
		return 0, true
	}
	s.logger.Warn("read balance cache generation failed",
		zap.String("employee_id", employeeID.String()),
		zap.Error(err),
	)
	return 0, false
}

func (s *service) loadOrSeed(ctx context.Context, employeeID uuid.UUID, year int) ([]LeaveBalance, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("get balances begin tx failed", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	rows, err := s.ledger.WithTx(tx).GetOrCreate(ctx, employeeID, year)
	if err != nil {
		s.logger.Error("get balances failed",
			zap.String("employee_id", employeeID.String()),
			zap.Int("year", year),
			zap.Error(err),
		)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("get balances commit failed", zap.Error(err))
		return nil, err
	}
	return rows, nil
}

// Invalidate retires every cached snapshot of the year. Call after the
// mutating tx commits.
func (s *service) Invalidate(ctx context.Context, employeeID uuid.UUID, year int) {
	if s.rdb == nil {
		return
	}
	genKey := GetGenerationKey(employeeID, year)
	if err := s.rdb.Incr(ctx, genKey).Err(); err != nil {
		s.logger.Warn("invalidate balance snapshot failed",
			zap.String("key", genKey),
			zap.Error(err),
		)
	}
}

func mapToSnapshot(employeeID uuid.UUID, year int, rows []LeaveBalance) SnapshotResponse {
	resp := SnapshotResponse{
		EmployeeID: employeeID.String(),
		Year:       year,
		Balances:   make([]BalanceResponse, len(rows)),
	}
	for i, b := range rows {
		resp.Balances[i] = BalanceResponse{
			LeaveType:      string(b.LeaveType),
			DisplayName:    b.LeaveType.DisplayName(),
			TotalAllocated: b.TotalAllocated,
			UsedDays:       b.UsedDays,
			PendingDays:    b.PendingDays,
			RemainingDays:  b.RemainingDays,
			CarriedForward: b.CarriedForward,
		}
	}
	return resp
}
