package model

import (
	"time"

	"github.com/google/uuid"
)

// Dish is the template for an item placed on shelves.
// Type is the stacking compatibility key; StackLimit 1 means not stackable.
type Dish struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"not null"`
	Type       string    `gorm:"index;not null"`
	Image      string    `gorm:"not null"`
	Width      int       `gorm:"not null"`
	Height     int       `gorm:"not null"`
	StackLimit int       `gorm:"not null;default:1"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
