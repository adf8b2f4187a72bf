package service

import (
	"context"

	"github.com/antontit/buffet/internal/dto"
	"github.com/antontit/buffet/internal/model"
	"github.com/antontit/buffet/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LayoutCache stores rendered shelf layouts. A miss or a cache failure only
// costs a store read, so neither is reported to the caller.
type LayoutCache interface {
	Get(ctx context.Context, shelfID uuid.UUID, dst any) bool
	Set(ctx context.Context, shelfID uuid.UUID, v any)
}

// LayoutService is the read side: shelves with the stacks placed on them.
type LayoutService interface {
	ShelfLayout(ctx context.Context, shelfID uuid.UUID) (*dto.ShelfLayoutResponse, error)
	BuffetLayout(ctx context.Context) (*dto.BuffetLayoutResponse, error)
	// RefreshShelf rebuilds the cached layout of one shelf from the store.
	RefreshShelf(ctx context.Context, shelfID uuid.UUID) error
}

type layoutService struct {
	shelves repository.ShelfRepository
	stacks  repository.StackRepository
	cache   LayoutCache
}

// NewLayoutService accepts a nil cache; every read then goes to the store.
func NewLayoutService(shelves repository.ShelfRepository, stacks repository.StackRepository, cache LayoutCache) LayoutService {
	return &layoutService{shelves: shelves, stacks: stacks, cache: cache}
}

func (s *layoutService) ShelfLayout(ctx context.Context, shelfID uuid.UUID) (*dto.ShelfLayoutResponse, error) {
	if s.cache != nil {
		var cached dto.ShelfLayoutResponse
		if s.cache.Get(ctx, shelfID, &cached) {
			return &cached, nil
		}
	}
	return s.build(ctx, shelfID)
}

func (s *layoutService) RefreshShelf(ctx context.Context, shelfID uuid.UUID) error {
	_, err := s.build(ctx, shelfID)
	return err
}

func (s *layoutService) build(ctx context.Context, shelfID uuid.UUID) (*dto.ShelfLayoutResponse, error) {
	shelf, err := s.shelves.FindByID(ctx, shelfID)
	if err != nil {
		return nil, notFound(err, "shelf", shelfID)
	}
	stacks, err := s.stacks.ListByShelf(ctx, shelfID)
	if err != nil {
		return nil, err
	}
	layout := buildLayout(shelf, stacks)
	if s.cache != nil {
		s.cache.Set(ctx, shelfID, layout)
	}
	return layout, nil
}

// BuffetLayout always reads the store: two queries cover every shelf.
func (s *layoutService) BuffetLayout(ctx context.Context) (*dto.BuffetLayoutResponse, error) {
	shelves, err := s.shelves.List(ctx)
	if err != nil {
		return nil, err
	}
	stacks, err := s.stacks.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	byShelf := make(map[uuid.UUID][]model.Stack, len(shelves))
	for _, st := range stacks {
		byShelf[st.ShelfID] = append(byShelf[st.ShelfID], st)
	}

	resp := &dto.BuffetLayoutResponse{Shelves: make([]dto.ShelfLayoutResponse, 0, len(shelves))}
	for i := range shelves {
		resp.Shelves = append(resp.Shelves, *buildLayout(&shelves[i], byShelf[shelves[i].ID]))
	}
	return resp, nil
}

func buildLayout(shelf *model.Shelf, stacks []model.Stack) *dto.ShelfLayoutResponse {
	layout := &dto.ShelfLayoutResponse{
		Shelf:          shelfToResponse(shelf),
		Stacks:         make([]dto.PlacedStackResponse, 0, len(stacks)),
		UtilizationPct: decimal.Zero,
	}
	occupied := 0
	for i := range stacks {
		st := &stacks[i]
		layout.Stacks = append(layout.Stacks, dto.PlacedStackResponse{
			StackResponse: *stackToResponse(st),
			Dish:          dishToResponse(st.Dish),
		})
		layout.ItemCount += st.Count
		occupied += st.Width * st.Height
	}
	layout.UtilizationPct = utilization(occupied, shelf.Width*shelf.Height)
	return layout
}

// utilization returns occupied/total as a percentage rounded to two places.
func utilization(occupied, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(occupied)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}
