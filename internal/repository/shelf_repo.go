package repository

import (
	"context"

	"github.com/antontit/buffet/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShelfRepository is read-mostly: the core only places stacks on shelves.
type ShelfRepository interface {
	Create(ctx context.Context, s *model.Shelf) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Shelf, error)
	List(ctx context.Context) ([]model.Shelf, error)
	Count(ctx context.Context) (int64, error)
}

type shelfRepo struct{ db *gorm.DB }

func NewShelfRepository(db *gorm.DB) ShelfRepository { return &shelfRepo{db: db} }

func (r *shelfRepo) Create(ctx context.Context, s *model.Shelf) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *shelfRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Shelf, error) {
	var s model.Shelf
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	return &s, err
}

func (r *shelfRepo) List(ctx context.Context) ([]model.Shelf, error) {
	var shelves []model.Shelf
	err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&shelves).Error
	return shelves, err
}

func (r *shelfRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Shelf{}).Count(&n).Error
	return n, err
}
