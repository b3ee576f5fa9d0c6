package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-leave-assistant/internal/shared/connection"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListFilter struct {
	EmployeeID  *uuid.UUID
	ManagerID   *uuid.UUID
	Statuses    []Status
	OverlapFrom *time.Time
	OverlapTo   *time.Time
	StartFrom   *time.Time
	Limit       int
	Ascending   bool
}

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, app *LeaveApplication) error
	FindByID(ctx context.Context, id uuid.UUID) (*LeaveApplication, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*LeaveApplication, error)
	FindByNumber(ctx context.Context, number string) (*LeaveApplication, error)
	UpdateStatus(ctx context.Context, app *LeaveApplication, expected Status, expectedVersion int) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]LeaveApplication, error)
	HasOverlappingPeriod(ctx context.Context, employeeID uuid.UUID, startDate, endDate time.Time) (bool, error)
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

func (r *repository) Create(ctx context.Context, app *LeaveApplication) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*LeaveApplication, error) {
	var app LeaveApplication
	if err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*LeaveApplication, error) {
	var app LeaveApplication
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&app, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *repository) FindByNumber(ctx context.Context, number string) (*LeaveApplication, error) {
	var app LeaveApplication
	if err := r.db.WithContext(ctx).First(&app, "application_number = ?", number).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// UpdateStatus writes the decision fields only if the row is still at the
// expected status and version. It returns false when another writer won.
func (r *repository) UpdateStatus(ctx context.Context, app *LeaveApplication, expected Status, expectedVersion int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&LeaveApplication{}).
		Where("id = ?", app.ID).
		Where("status = ?", expected).
		Where("version = ?", expectedVersion).
		Updates(map[string]any{
			"status":              app.Status,
			"manager_comments":    app.ManagerComments,
			"manager_approved_at": app.ManagerApprovedAt,
			"hr_approver_id":      app.HRApproverID,
			"hr_comments":         app.HRComments,
			"hr_approved_at":      app.HRApprovedAt,
			"rejection_reason":    app.RejectionReason,
			"final_decision_at":   app.FinalDecisionAt,
			"version":             gorm.Expr("version + 1"),
			"updated_at":          app.UpdatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]LeaveApplication, error) {
	db := r.db.WithContext(ctx).Model(&LeaveApplication{})
	if filter.EmployeeID != nil {
		db = db.Where("employee_id = ?", *filter.EmployeeID)
	}
	if filter.ManagerID != nil {
		db = db.Where("manager_id = ?", *filter.ManagerID)
	}
	if len(filter.Statuses) > 0 {
		db = db.Where("status IN ?", filter.Statuses)
	}
	if filter.OverlapFrom != nil && filter.OverlapTo != nil {
		db = db.Where("NOT (end_date < ? OR start_date > ?)", *filter.OverlapFrom, *filter.OverlapTo)
	}
	if filter.StartFrom != nil {
		db = db.Where("start_date >= ?", *filter.StartFrom)
	}
	if filter.Ascending {
		db = db.Order("start_date ASC")
	} else {
		db = db.Order("applied_at DESC")
	}
	if filter.Limit > 0 {
		db = db.Limit(filter.Limit)
	}

	var apps []LeaveApplication
	err := db.Find(&apps).Error
	return apps, err
}

func (r *repository) HasOverlappingPeriod(ctx context.Context, employeeID uuid.UUID, startDate, endDate time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&LeaveApplication{}).
		Where("employee_id = ?", employeeID).
		Where("status IN ?", ActiveStatuses()).
		Where("NOT (end_date < ? OR start_date > ?)", startDate, endDate).
		Count(&count).Error
	return count > 0, err
}

func isUniqueNumberViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
