package actor

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=actor_repo.go -destination=mock/actor_repo_mock.go -package=mock
type Repository interface {
	FindActiveByID(ctx context.Context, id string) (*Actor, error)
	FindByIDs(ctx context.Context, ids []string) ([]Actor, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindActiveByID(ctx context.Context, id string) (*Actor, error) {
	var a Actor
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		First(&a, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []string) ([]Actor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var actors []Actor
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&actors).Error
	return actors, err
}
