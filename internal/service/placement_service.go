package service

import (
	"context"
	"errors"

	"github.com/antontit/buffet/internal/domain"
	"github.com/antontit/buffet/internal/dto"
	"github.com/antontit/buffet/internal/geometry"
	"github.com/antontit/buffet/internal/metrics"
	"github.com/antontit/buffet/internal/model"
	"github.com/antontit/buffet/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// autoPlaceAttempts bounds the free-spot scan + write loop: one lost race is
// tolerated, the second is reported as no space.
const autoPlaceAttempts = 2

// errNoStackTarget aborts the stacking transaction when no existing stack of
// the dish has room, so placement falls through to free space.
var errNoStackTarget = errors.New("no stack target with room")

// PlacementService is the entry point for every stack mutation that touches
// shelf geometry.
type PlacementService interface {
	PlaceOnShelf(ctx context.Context, shelfID uuid.UUID, req dto.PlaceStackRequest) (*dto.StackResponse, error)
	PlaceStacked(ctx context.Context, shelfID uuid.UUID, req dto.PlaceStackedRequest) (*dto.StackResponse, error)
	MoveStack(ctx context.Context, stackID uuid.UUID, req dto.MoveStackRequest) (*dto.MoveStackResponse, error)
	DeleteStack(ctx context.Context, stackID uuid.UUID) error
}

type placementService struct {
	shelves  repository.ShelfRepository
	dishes   repository.DishRepository
	stacks   repository.StackRepository
	engine   StackService
	notifier ShelfChangeNotifier
}

func NewPlacementService(
	shelves repository.ShelfRepository,
	dishes repository.DishRepository,
	stacks repository.StackRepository,
	engine StackService,
	notifier ShelfChangeNotifier,
) PlacementService {
	return &placementService{
		shelves:  shelves,
		dishes:   dishes,
		stacks:   stacks,
		engine:   engine,
		notifier: notifier,
	}
}

// ── PlaceOnShelf ──────────────────────────────────────────────────────────────

func (s *placementService) PlaceOnShelf(ctx context.Context, shelfID uuid.UUID, req dto.PlaceStackRequest) (resp *dto.StackResponse, err error) {
	defer func() { metrics.ObserveOp("place", err) }()

	shelf, dish, err := s.loadShelfAndDish(ctx, shelfID, req.DishID)
	if err != nil {
		return nil, err
	}

	if dish.StackLimit > 1 {
		stacked, err := s.stackOntoExisting(ctx, shelf, dish)
		switch {
		case err == nil:
			s.changed(ctx, shelf.ID)
			return stackToResponse(stacked), nil
		case !errors.Is(err, errNoStackTarget):
			return nil, err
		}
	}

	maxX := shelf.Width - dish.Width
	maxY := shelf.Height - dish.Height
	if maxX < 0 || maxY < 0 {
		return nil, domain.NoSpaceError(shelf.ID)
	}

	stack := &model.Stack{
		ShelfID: shelf.ID,
		DishID:  dish.ID,
		Width:   dish.Width,
		Height:  dish.Height,
		Count:   1,
	}

	if req.X != nil {
		err = s.placeExplicit(ctx, stack, *req.X, maxX)
	} else {
		err = s.placeAuto(ctx, stack, maxX)
	}
	if err != nil {
		return nil, err
	}

	s.changed(ctx, shelf.ID)
	return stackToResponse(stack), nil
}

func (s *placementService) stackOntoExisting(ctx context.Context, shelf *model.Shelf, dish *model.Dish) (*model.Stack, error) {
	var out *model.Stack
	err := runTx(ctx, s.stacks.DB(), func(tx *gorm.DB) error {
		target, err := s.stacks.FindStackTargetTx(tx, shelf.ID, dish.ID, dish.StackLimit)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errNoStackTarget
		}
		if err != nil {
			return err
		}
		out, err = s.engine.AddOneTx(tx, dish, target, shelf.ID)
		return err
	})
	return out, err
}

// placeExplicit writes once at the clamped x. The caller chose the spot, so a
// collision is final.
func (s *placementService) placeExplicit(ctx context.Context, stack *model.Stack, x, maxX int) error {
	stack.X = min(max(x, 0), maxX)
	stack.Y = 0
	err := s.stacks.CreateGuarded(ctx, stack)
	if errors.Is(err, domain.ErrCollision) {
		stack.ID = uuid.Nil
		return domain.NoSpaceError(stack.ShelfID)
	}
	return err
}

// placeAuto scans the single row for the first free x and writes there,
// re-scanning once if another writer took the spot in between.
func (s *placementService) placeAuto(ctx context.Context, stack *model.Stack, maxX int) error {
	for attempt := 1; attempt <= autoPlaceAttempts; attempt++ {
		spot, ok, err := s.stacks.FindFirstFreeSpot(ctx, stack.ShelfID, maxX, 0, stack.Width, stack.Height)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NoSpaceError(stack.ShelfID)
		}

		stack.ID = uuid.Nil
		stack.X, stack.Y = spot.X, spot.Y
		err = s.stacks.CreateGuarded(ctx, stack)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrCollision) {
			return err
		}

		log.Debug().
			Str("shelf_id", stack.ShelfID.String()).
			Int("x", spot.X).
			Int("attempt", attempt).
			Msg("placement lost race for free spot")
		if attempt < autoPlaceAttempts {
			metrics.PlacementRetries.Inc()
		}
	}
	stack.ID = uuid.Nil
	return domain.NoSpaceError(stack.ShelfID)
}

// ── PlaceStacked ──────────────────────────────────────────────────────────────

func (s *placementService) PlaceStacked(ctx context.Context, shelfID uuid.UUID, req dto.PlaceStackedRequest) (resp *dto.StackResponse, err error) {
	defer func() { metrics.ObserveOp("place_stacked", err) }()

	shelf, dish, err := s.loadShelfAndDish(ctx, shelfID, req.DishID)
	if err != nil {
		return nil, err
	}
	targetID, err := parseID("target_stack_id", req.TargetStackID)
	if err != nil {
		return nil, err
	}
	if dish.StackLimit <= 1 {
		return nil, domain.ValidationError("dish is not stackable")
	}

	var out *model.Stack
	err = runTx(ctx, s.stacks.DB(), func(tx *gorm.DB) error {
		target, err := s.stacks.FindByIDForUpdateTx(tx, targetID)
		if err != nil {
			return notFound(err, "stack", targetID)
		}
		if target.Dish == nil {
			return domain.NotFound("dish", target.DishID)
		}
		out, err = s.engine.AddOneTx(tx, dish, target, shelf.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, shelf.ID)
	return stackToResponse(out), nil
}

// ── MoveStack ─────────────────────────────────────────────────────────────────

func (s *placementService) MoveStack(ctx context.Context, stackID uuid.UUID, req dto.MoveStackRequest) (resp *dto.MoveStackResponse, err error) {
	defer func() { metrics.ObserveOp("move", err) }()

	shelfID, err := parseID("shelf_id", req.ShelfID)
	if err != nil {
		return nil, err
	}
	if req.X == nil || req.Y == nil {
		return nil, domain.ValidationError("x and y are required")
	}
	x, y := *req.X, *req.Y
	if x < 0 || y < 0 {
		return nil, domain.ValidationError("coordinates must not be negative")
	}

	stack, err := s.stacks.FindByID(ctx, stackID)
	if err != nil {
		return nil, notFound(err, "stack", stackID)
	}
	shelf, err := s.shelves.FindByID(ctx, shelfID)
	if err != nil {
		return nil, notFound(err, "shelf", shelfID)
	}
	target := geometry.Rect{X: x, Y: y, Width: stack.Width, Height: stack.Height}
	if !geometry.FitsWithin(target, shelf.Width, shelf.Height) {
		return nil, domain.ValidationError("stack does not fit on the shelf at that position")
	}

	fromShelf := stack.ShelfID
	stack.ShelfID, stack.X, stack.Y = shelf.ID, x, y
	if err := s.stacks.MoveGuarded(ctx, stack); err != nil {
		return nil, notFound(err, "stack", stackID)
	}

	s.changed(ctx, fromShelf, shelf.ID)
	return &dto.MoveStackResponse{
		ID:      stack.ID.String(),
		ShelfID: stack.ShelfID.String(),
		X:       stack.X,
		Y:       stack.Y,
	}, nil
}

// ── DeleteStack ───────────────────────────────────────────────────────────────

// DeleteStack succeeds whether or not the stack exists.
func (s *placementService) DeleteStack(ctx context.Context, stackID uuid.UUID) (err error) {
	defer func() { metrics.ObserveOp("delete", err) }()

	stack, err := s.stacks.FindByID(ctx, stackID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var deleted bool
	err = runTx(ctx, s.stacks.DB(), func(tx *gorm.DB) error {
		var err error
		deleted, err = s.stacks.DeleteTx(tx, stackID)
		return err
	})
	if err != nil {
		return err
	}
	if deleted {
		s.changed(ctx, stack.ShelfID)
	}
	return nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (s *placementService) loadShelfAndDish(ctx context.Context, shelfID uuid.UUID, rawDishID string) (*model.Shelf, *model.Dish, error) {
	dishID, err := parseID("dish_id", rawDishID)
	if err != nil {
		return nil, nil, err
	}
	shelf, err := s.shelves.FindByID(ctx, shelfID)
	if err != nil {
		return nil, nil, notFound(err, "shelf", shelfID)
	}
	dish, err := s.dishes.FindByID(ctx, dishID)
	if err != nil {
		return nil, nil, notFound(err, "dish", dishID)
	}
	return shelf, dish, nil
}

func (s *placementService) changed(ctx context.Context, shelfIDs ...uuid.UUID) {
	if s.notifier != nil {
		s.notifier.ShelvesChanged(ctx, shelfIDs...)
	}
}
