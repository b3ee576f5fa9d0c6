package balance

import (
	"context"
	"database/sql"
	"errors"

	balanceerrors "go-leave-assistant/internal/balance/errors"
	"go-leave-assistant/internal/domain"
	"go-leave-assistant/internal/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	OpReserve = "reserve"
	OpCommit  = "commit"
	OpRelease = "release"
)

// Ledger is the bookkeeping API. Callers own the transaction: bind it with
// WithTx so the bucket move commits or rolls back with their own writes.
type Ledger interface {
	WithTx(tx *sql.Tx) Ledger
	GetOrCreate(ctx context.Context, employeeID uuid.UUID, year int) ([]LeaveBalance, error)
	Reserve(ctx context.Context, employeeID uuid.UUID, leaveType domain.LeaveType, year int, days decimal.Decimal) (LeaveBalance, error)
	Commit(ctx context.Context, employeeID uuid.UUID, leaveType domain.LeaveType, year int, days decimal.Decimal) (LeaveBalance, error)
	Release(ctx context.Context, employeeID uuid.UUID, leaveType domain.LeaveType, year int, days decimal.Decimal) (LeaveBalance, error)
}

type ledger struct {
	repo   Repository
	logger *zap.Logger
}

func NewLedger(repo Repository, logger ...*zap.Logger) Ledger {
	l := zap.L().Named("balance.ledger")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.ledger")
	}
	return &ledger{repo: repo, logger: l}
}

func (l *ledger) WithTx(tx *sql.Tx) Ledger {
	return &ledger{repo: l.repo.WithTx(tx), logger: l.logger}
}

func (l *ledger) GetOrCreate(ctx context.Context, employeeID uuid.UUID, year int) ([]LeaveBalance, error) {
	if year <= 0 {
		return nil, balanceerrors.ErrInvalidYear
	}
	rows, err := l.repo.FindByEmployeeYear(ctx, employeeID, year)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows, nil
	}

	l.logger.Debug("seeding default balances",
		zap.String("employee_id", employeeID.String()),
		zap.Int("year", year),
	)
	if err := l.repo.InsertDefaults(ctx, employeeID, year); err != nil {
		return nil, err
	}
	return l.repo.FindByEmployeeYear(ctx, employeeID, year)
}

func (l *ledger) Reserve(ctx context.Context, employeeID uuid.UUID, leaveType domain.LeaveType, year int, days decimal.Decimal) (LeaveBalance, error) {
	return l.mutate(ctx, OpReserve, employeeID, leaveType, year, days, (*LeaveBalance).Reserve)
}

func (l *ledger) Commit(ctx context.Context, employeeID uuid.UUID, leaveType domain.LeaveType, year int, days decimal.Decimal) (LeaveBalance, error) {
	return l.mutate(ctx, OpCommit, employeeID, leaveType, year, days, (*LeaveBalance).Commit)
}

func (l *ledger) Release(ctx context.Context, employeeID uuid.UUID, leaveType domain.LeaveType, year int, days decimal.Decimal) (LeaveBalance, error) {
	return l.mutate(ctx, OpRelease, employeeID, leaveType, year, days, (*LeaveBalance).Release)
}

func (l *ledger) mutate(
	ctx context.Context,
	op string,
	employeeID uuid.UUID,
	leaveType domain.LeaveType,
	year int,
	days decimal.Decimal,
	move func(*LeaveBalance, decimal.Decimal) error,
) (LeaveBalance, error) {
	if year <= 0 {
		return LeaveBalance{}, balanceerrors.ErrInvalidYear
	}

	b, err := l.lockRow(ctx, employeeID, leaveType, year)
	if err != nil {
		return LeaveBalance{}, err
	}

	if err := move(b, days); err != nil {
		l.logger.Warn("ledger operation rejected",
			zap.String("operation", op),
			zap.String("employee_id", employeeID.String()),
			zap.String("leave_type", string(leaveType)),
			zap.Int("year", year),
			zap.String("days", days.String()),
			zap.Error(err),
		)
		return LeaveBalance{}, err
	}

	if err := l.repo.Save(ctx, b); err != nil {
		return LeaveBalance{}, err
	}

	metrics.LedgerOperations.WithLabelValues(op, string(leaveType)).Inc()
	l.logger.Debug("ledger operation applied",
		zap.String("operation", op),
		zap.String("employee_id", employeeID.String()),
		zap.String("leave_type", string(leaveType)),
		zap.Int("year", year),
		zap.String("days", days.String()),
		zap.String("pending", b.PendingDays.String()),
		zap.String("remaining", b.RemainingDays.String()),
	)
	return *b, nil
}

// lockRow locks the row, seeding the year's defaults on first touch.
func (l *ledger) lockRow(ctx context.Context, employeeID uuid.UUID, leaveType domain.LeaveType, year int) (*LeaveBalance, error) {
	b, err := l.repo.FindForUpdate(ctx, employeeID, leaveType, year)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, err := l.GetOrCreate(ctx, employeeID, year); err != nil {
		return nil, err
	}
	b, err = l.repo.FindForUpdate(ctx, employeeID, leaveType, year)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, balanceerrors.ErrNoAllocation
	}
	return b, err
}
