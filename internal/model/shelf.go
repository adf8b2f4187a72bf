package model

import (
	"time"

	"github.com/google/uuid"
)

// Shelf is a bounded placement target. Width and Height use the same unit as
// dish footprints; X and Y only position the shelf on the buffet page.
type Shelf struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	Width     int       `gorm:"not null"`
	Height    int       `gorm:"not null"`
	X         *int
	Y         *int
	CreatedAt time.Time
	UpdatedAt time.Time
}
