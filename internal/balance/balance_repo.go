package balance

import (
	"context"
	"database/sql"

	"go-leave-assistant/internal/domain"
	"go-leave-assistant/internal/shared/connection"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=balance_repo.go -destination=mock/balance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	InsertDefaults(ctx context.Context, employeeID uuid.UUID, year int) error
	FindByEmployeeYear(ctx context.Context, employeeID uuid.UUID, year int) ([]LeaveBalance, error)
	FindForUpdate(ctx context.Context, employeeID uuid.UUID, leaveType domain.LeaveType, year int) (*LeaveBalance, error)
	Save(ctx context.Context, b *LeaveBalance) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: connection.BindTx(r.db, tx)}
}

// InsertDefaults seeds the default allocation rows, skipping any that exist.
func (r *repository) InsertDefaults(ctx context.Context, employeeID uuid.UUID, year int) error {
	allocs := domain.DefaultAllocations()
	rows := make([]LeaveBalance, 0, len(allocs))
	for _, a := range allocs {
		rows = append(rows, NewDefaultBalance(employeeID, year, a))
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}, {Name: "leave_type"}, {Name: "year"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

func (r *repository) FindByEmployeeYear(ctx context.Context, employeeID uuid.UUID, year int) ([]LeaveBalance, error) {
	var rows []LeaveBalance
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("year = ?", year).
		Order("leave_type ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindForUpdate(ctx context.Context, employeeID uuid.UUID, leaveType domain.LeaveType, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employee_id = ?", employeeID).
		Where("leave_type = ?", leaveType).
		Where("year = ?", year).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) Save(ctx context.Context, b *LeaveBalance) error {
	return r.db.WithContext(ctx).
		Model(&LeaveBalance{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"used_days":      b.UsedDays,
			"pending_days":   b.PendingDays,
			"remaining_days": b.RemainingDays,
			"updated_at":     gorm.Expr("now()"),
		}).Error
}
