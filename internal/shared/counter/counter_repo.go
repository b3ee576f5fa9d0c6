package counter

import (
	"context"
	"database/sql"

	"go-leave-assistant/internal/shared/connection"

	"gorm.io/gorm"
)

const TypeLeaveApplication = "leave_application"

//go:generate mockgen -destination=mock/counter_repo_mock.go -package=mock . Repository
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	GetNextValue(ctx context.Context, counterType string, year int) (int64, error)
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

// GetNextValue increments the (type, year) counter atomically. Concurrent
// callers serialize on the counter row, so values are never handed out twice.
func (r *repository) GetNextValue(ctx context.Context, counterType string, year int) (int64, error) {
	var nextValue int64

	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO leave_counters (counter_type, year, last_value, updated_at)
		VALUES (?, ?, 1, now())
		ON CONFLICT (counter_type, year) DO UPDATE
		SET last_value = leave_counters.last_value + 1, updated_at = now()
		RETURNING last_value
	`, counterType, year).Scan(&nextValue).Error

	if err != nil {
		return 0, err
	}

	return nextValue, nil
}
