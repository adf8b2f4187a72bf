// Package domain defines the failure taxonomy shared by the storage adapter,
// the stack engine and the HTTP layer. Callers classify with errors.Is.
package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotFound: a referenced shelf, dish or stack does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation: caller-correctable input (type mismatch, not stackable, wrong shelf).
	ErrValidation = errors.New("validation failed")
	// ErrCollision: the footprint overlaps a stack already on the shelf.
	ErrCollision = errors.New("collision detected")
	// ErrCapacity: the stack already holds dish.StackLimit items.
	ErrCapacity = errors.New("stack is full")
	// ErrNoSpace: no free footprint exists on the shelf for the dish.
	ErrNoSpace = errors.New("no space available")
)

// NotFound tags a missing entity, e.g. NotFound("shelf", id).
func NotFound(entity string, id uuid.UUID) error {
	return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
}

// ValidationError tags msg as a validation failure.
func ValidationError(msg string) error {
	return errors.Join(ErrValidation, errors.New(strings.TrimSpace(msg)))
}

// CapacityError reports an add that would push count past limit.
func CapacityError(stackID uuid.UUID, limit int) error {
	return fmt.Errorf("stack %s holds %d items: %w", stackID, limit, ErrCapacity)
}

// NoSpaceError reports that nothing fits on the shelf.
func NoSpaceError(shelfID uuid.UUID) error {
	return fmt.Errorf("shelf %s: %w", shelfID, ErrNoSpace)
}

// CollisionError is returned by the storage boundary when a footprint write
// would overlap another stack. It deliberately does not wrap the driver error.
type CollisionError struct {
	ShelfID uuid.UUID
	X, Y    int
	Width   int
	Height  int
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("footprint (%d,%d %dx%d) collides with an existing stack on shelf %s",
		e.X, e.Y, e.Width, e.Height, e.ShelfID)
}

// Is makes errors.Is(err, ErrCollision) match any *CollisionError.
func (e *CollisionError) Is(target error) bool { return target == ErrCollision }
