package repository

import (
	"context"

	"github.com/antontit/buffet/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DishRepository exposes the dish catalog. Dishes are immutable once seeded.
type DishRepository interface {
	Create(ctx context.Context, d *model.Dish) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Dish, error)
	List(ctx context.Context) ([]model.Dish, error)
	Count(ctx context.Context) (int64, error)
}

type dishRepo struct{ db *gorm.DB }

func NewDishRepository(db *gorm.DB) DishRepository { return &dishRepo{db: db} }

func (r *dishRepo) Create(ctx context.Context, d *model.Dish) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *dishRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Dish, error) {
	var d model.Dish
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	return &d, err
}

func (r *dishRepo) List(ctx context.Context) ([]model.Dish, error) {
	var dishes []model.Dish
	err := r.db.WithContext(ctx).Order("name ASC").Find(&dishes).Error
	return dishes, err
}

func (r *dishRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Dish{}).Count(&n).Error
	return n, err
}
