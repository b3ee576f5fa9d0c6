package balance

import (
	"time"

	balanceerrors "go-leave-assistant/internal/balance/errors"
	"go-leave-assistant/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeaveBalance is one ledger row per (employee, leave type, year).
// remaining + used + pending == allocated + carried_forward at all times.
type LeaveBalance struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID     uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uq_leave_balances_employee_type_year"`
	LeaveType      domain.LeaveType `gorm:"type:varchar(30);not null;uniqueIndex:uq_leave_balances_employee_type_year"`
	Year           int              `gorm:"not null;uniqueIndex:uq_leave_balances_employee_type_year"`
	TotalAllocated decimal.Decimal  `gorm:"type:numeric(5,2);not null;default:0"`
	UsedDays       decimal.Decimal  `gorm:"type:numeric(5,2);not null;default:0"`
	PendingDays    decimal.Decimal  `gorm:"type:numeric(5,2);not null;default:0"`
	RemainingDays  decimal.Decimal  `gorm:"type:numeric(5,2);not null;default:0"`
	CarriedForward decimal.Decimal  `gorm:"type:numeric(5,2);not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewDefaultBalance(employeeID uuid.UUID, year int, alloc domain.DefaultAllocation) LeaveBalance {
	return LeaveBalance{
		ID:             uuid.New(),
		EmployeeID:     employeeID,
		LeaveType:      alloc.LeaveType,
		Year:           year,
		TotalAllocated: alloc.Days,
		UsedDays:       decimal.Zero,
		PendingDays:    decimal.Zero,
		RemainingDays:  alloc.Days,
		CarriedForward: decimal.Zero,
	}
}

func (b LeaveBalance) CheckInvariant() error {
	lhs := b.RemainingDays.Add(b.UsedDays).Add(b.PendingDays)
	rhs := b.TotalAllocated.Add(b.CarriedForward)
	if !lhs.Equal(rhs) {
		return balanceerrors.ErrInvariantViolated
	}
	return nil
}

// Reserve moves days from remaining to pending.
func (b *LeaveBalance) Reserve(days decimal.Decimal) error {
	if !days.IsPositive() {
		return balanceerrors.ErrInvalidDays
	}
	if days.GreaterThan(b.RemainingDays) {
		return balanceerrors.ErrInsufficientBalance
	}
	return b.apply(days, decimal.Zero, days.Neg())
}

// Commit moves days from pending to used.
func (b *LeaveBalance) Commit(days decimal.Decimal) error {
	if !days.IsPositive() {
		return balanceerrors.ErrInvalidDays
	}
	if days.GreaterThan(b.PendingDays) {
		return balanceerrors.ErrLedgerUnderflow
	}
	return b.apply(days.Neg(), days, decimal.Zero)
}

// Release moves days from pending back to remaining.
func (b *LeaveBalance) Release(days decimal.Decimal) error {
	if !days.IsPositive() {
		return balanceerrors.ErrInvalidDays
	}
	if days.GreaterThan(b.PendingDays) {
		return balanceerrors.ErrLedgerUnderflow
	}
	return b.apply(days.Neg(), decimal.Zero, days)
}

// apply leaves b untouched when the result would break the invariant.
func (b *LeaveBalance) apply(pendingDelta, usedDelta, remainingDelta decimal.Decimal) error {
	next := *b
	next.PendingDays = next.PendingDays.Add(pendingDelta)
	next.UsedDays = next.UsedDays.Add(usedDelta)
	next.RemainingDays = next.RemainingDays.Add(remainingDelta)
	if err := next.CheckInvariant(); err != nil {
		return err
	}
	*b = next
	return nil
}
