package model

import (
	"time"

	"github.com/google/uuid"
)

// Stack is the unit occupying shelf space: Count identical dishes sharing one
// footprint. Width/Height are copied from the dish when the stack is created.
type Stack struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ShelfID   uuid.UUID `gorm:"type:uuid;not null;index"`
	DishID    uuid.UUID `gorm:"type:uuid;not null;index"`
	X         int       `gorm:"not null"`
	Y         int       `gorm:"not null"`
	Width     int       `gorm:"not null"`
	Height    int       `gorm:"not null"`
	Count     int       `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	Shelf *Shelf `gorm:"foreignKey:ShelfID;constraint:OnDelete:CASCADE"`
	Dish  *Dish  `gorm:"foreignKey:DishID;constraint:OnDelete:CASCADE"`
}
