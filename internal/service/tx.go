package service

import (
	"context"
	"errors"

	"github.com/antontit/buffet/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// notFound turns gorm.ErrRecordNotFound into the domain error for entity;
// other errors pass through untouched.
func notFound(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound(entity, id)
	}
	return err
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ValidationError(field + " is not a valid id")
	}
	return id, nil
}

// ShelfChangeNotifier is told which shelves a committed mutation touched.
// Implementations must not fail the caller; the mutation is already durable.
type ShelfChangeNotifier interface {
	ShelvesChanged(ctx context.Context, shelfIDs ...uuid.UUID)
}
