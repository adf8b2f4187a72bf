package repository

import (
	"errors"

	"github.com/antontit/buffet/internal/domain"
	"github.com/antontit/buffet/internal/geometry"
	"github.com/antontit/buffet/internal/metrics"
	"github.com/antontit/buffet/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SQLSTATE codes the collision guard translates into *domain.CollisionError.
// Anything else, serialization failures included, is a storage failure.
const (
	sqlstateExclusionViolation = "23P01" // stacks_no_overlap exclusion constraint
	// Two writers whose new footprints overlap each other wait on each
	// other's exclusion check; PostgreSQL breaks the tie with a deadlock.
	sqlstateDeadlockDetected = "40P01"
)

func footprint(s *model.Stack) geometry.Rect {
	return geometry.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}

func collisionFor(s *model.Stack) *domain.CollisionError {
	return &domain.CollisionError{ShelfID: s.ShelfID, X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}

// assertFootprintFree checks s against its shelf's bounds and re-reads every
// footprint on that shelf inside tx, rejecting s if it overlaps any of them.
// This is the guard on stores without a native exclusion constraint; on
// PostgreSQL the constraint decides races between concurrent writers.
func assertFootprintFree(tx *gorm.DB, s *model.Stack) error {
	var shelf model.Shelf
	if err := tx.Select("id", "width", "height").Where("id = ?", s.ShelfID).First(&shelf).Error; err != nil {
		return err
	}
	if !geometry.FitsWithin(footprint(s), shelf.Width, shelf.Height) {
		return domain.ValidationError("stack footprint lies outside the shelf")
	}

	var others []model.Stack
	err := tx.Model(&model.Stack{}).
		Select("id", "x", "y", "width", "height").
		Where("shelf_id = ? AND id <> ?", s.ShelfID, s.ID).
		Find(&others).Error
	if err != nil {
		return err
	}
	rects := make([]geometry.Rect, 0, len(others))
	for i := range others {
		rects = append(rects, footprint(&others[i]))
	}
	if geometry.OverlapsAny(footprint(s), rects) {
		return collisionFor(s)
	}
	return nil
}

// classifyFootprintErr maps driver-level failures of a footprint write to the
// domain taxonomy. Anything unrecognised is returned unchanged.
func classifyFootprintErr(err error, s *model.Stack) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrCollision) {
		metrics.Collisions.WithLabelValues("guard").Inc()
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlstateExclusionViolation, sqlstateDeadlockDetected:
			log.Debug().
				Str("sqlstate", pgErr.Code).
				Str("constraint", pgErr.ConstraintName).
				Str("shelf_id", s.ShelfID.String()).
				Msg("footprint write rejected by store")
			metrics.Collisions.WithLabelValues("store").Inc()
			return collisionFor(s)
		}
	}
	return err
}
