package repository

import (
	"context"

	"github.com/antontit/buffet/internal/geometry"
	"github.com/antontit/buffet/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StackRepository is the storage boundary for stacks. Footprint writes
// (CreateGuarded, MoveGuarded) enforce the no-overlap invariant and return
// *domain.CollisionError on violation; count writes take a caller tx.
type StackRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Stack, error)
	ListByShelf(ctx context.Context, shelfID uuid.UUID) ([]model.Stack, error)
	ListAll(ctx context.Context) ([]model.Stack, error)

	// FindFirstFreeSpot runs the row-major free-spot scan against the
	// footprints currently stored for shelfID.
	FindFirstFreeSpot(ctx context.Context, shelfID uuid.UUID, maxX, maxY, width, height int) (geometry.Point, bool, error)

	// CreateGuarded inserts s in its own transaction after re-checking the shelf.
	CreateGuarded(ctx context.Context, s *model.Stack) error
	// MoveGuarded persists s.ShelfID, s.X and s.Y under the same guard.
	MoveGuarded(ctx context.Context, s *model.Stack) error

	// Used inside transactions; callers must pass the tx instance
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Stack, error)
	FindStackTargetTx(tx *gorm.DB, shelfID, dishID uuid.UUID, limit int) (*model.Stack, error)
	UpdateCountTx(tx *gorm.DB, id uuid.UUID, count int) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) (bool, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type stackRepo struct{ db *gorm.DB }

func NewStackRepository(db *gorm.DB) StackRepository { return &stackRepo{db: db} }

func (r *stackRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Stack, error) {
	var s model.Stack
	err := r.db.WithContext(ctx).Preload("Dish").Where("id = ?", id).First(&s).Error
	return &s, err
}

func (r *stackRepo) ListByShelf(ctx context.Context, shelfID uuid.UUID) ([]model.Stack, error) {
	var stacks []model.Stack
	err := r.db.WithContext(ctx).Preload("Dish").
		Where("shelf_id = ?", shelfID).
		Order("x ASC, y ASC").
		Find(&stacks).Error
	return stacks, err
}

func (r *stackRepo) ListAll(ctx context.Context) ([]model.Stack, error) {
	var stacks []model.Stack
	err := r.db.WithContext(ctx).Preload("Dish").
		Order("shelf_id ASC, x ASC, y ASC").
		Find(&stacks).Error
	return stacks, err
}

func (r *stackRepo) FindFirstFreeSpot(ctx context.Context, shelfID uuid.UUID, maxX, maxY, width, height int) (geometry.Point, bool, error) {
	if maxX < 0 || maxY < 0 {
		return geometry.Point{}, false, nil
	}
	var stacks []model.Stack
	err := r.db.WithContext(ctx).Model(&model.Stack{}).
		Select("x", "y", "width", "height").
		Where("shelf_id = ?", shelfID).
		Find(&stacks).Error
	if err != nil {
		return geometry.Point{}, false, err
	}
	occupied := make([]geometry.Rect, 0, len(stacks))
	for i := range stacks {
		occupied = append(occupied, footprint(&stacks[i]))
	}
	p, ok := geometry.FindFirstFreeSpot(occupied, maxX, maxY, width, height)
	return p, ok, nil
}

func (r *stackRepo) CreateGuarded(ctx context.Context, s *model.Stack) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := assertFootprintFree(tx, s); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(s).Error
	})
	return classifyFootprintErr(err, s)
}

func (r *stackRepo) MoveGuarded(ctx context.Context, s *model.Stack) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := assertFootprintFree(tx, s); err != nil {
			return err
		}
		res := tx.Model(&model.Stack{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
			"shelf_id": s.ShelfID,
			"x":        s.X,
			"y":        s.Y,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return classifyFootprintErr(err, s)
}

func (r *stackRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Stack, error) {
	var s model.Stack
	err := r.conn(tx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Dish").
		Where("id = ?", id).
		First(&s).Error
	return &s, err
}

// FindStackTargetTx returns the most recently created stack of dishID on
// shelfID that still has room below limit.
func (r *stackRepo) FindStackTargetTx(tx *gorm.DB, shelfID, dishID uuid.UUID, limit int) (*model.Stack, error) {
	var s model.Stack
	err := r.conn(tx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Dish").
		Where("shelf_id = ? AND dish_id = ? AND count < ?", shelfID, dishID, limit).
		Order("created_at DESC, id DESC").
		First(&s).Error
	return &s, err
}

func (r *stackRepo) UpdateCountTx(tx *gorm.DB, id uuid.UUID, count int) error {
	res := r.conn(tx).Model(&model.Stack{}).Where("id = ?", id).Update("count", count)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *stackRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := r.conn(tx).Where("id = ?", id).Delete(&model.Stack{})
	return res.RowsAffected > 0, res.Error
}

func (r *stackRepo) DB() *gorm.DB { return r.db }

// conn falls back to the base handle when no transaction is supplied.
func (r *stackRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
