package service_test

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/antontit/buffet/internal/dto"
	"github.com/antontit/buffet/internal/geometry"
	"github.com/antontit/buffet/internal/model"
	"github.com/antontit/buffet/internal/repository"
	"github.com/antontit/buffet/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// engines is the surface a random run drives, backed by stubs or a real store.
type engines struct {
	placement service.PlacementService
	stacks    service.StackService
	repo      repository.StackRepository
}

// runRandomOperations applies steps random mutations and checks no-overlap,
// shelf bounds and stack capacity after each one. Errors from individual
// operations are expected; only the stored state is judged.
func runRandomOperations(t *testing.T, e engines, shelves []*model.Shelf, dishes []*model.Dish, steps int, seed int64) {
	t.Helper()
	ctx := context.Background()
	rng := rand.New(rand.NewSource(seed))

	byID := make(map[uuid.UUID]*model.Shelf, len(shelves))
	for _, sh := range shelves {
		byID[sh.ID] = sh
	}

	pickStack := func() (uuid.UUID, bool) {
		all, err := e.repo.ListAll(ctx)
		require.NoError(t, err)
		if len(all) == 0 {
			return uuid.Nil, false
		}
		return all[rng.Intn(len(all))].ID, true
	}
	// Mostly in-range values, with the occasional negative or near-overflow one.
	coord := func(limit int) int {
		switch rng.Intn(8) {
		case 0:
			return math.MaxInt - rng.Intn(64)
		case 1:
			return -1 - rng.Intn(5)
		default:
			return rng.Intn(limit)
		}
	}

	for step := 0; step < steps; step++ {
		sh := shelves[rng.Intn(len(shelves))]
		d := dishes[rng.Intn(len(dishes))]

		switch rng.Intn(6) {
		case 0:
			_, _ = e.placement.PlaceOnShelf(ctx, sh.ID, placeReq(d))
		case 1:
			_, _ = e.placement.PlaceOnShelf(ctx, sh.ID, placeAt(d, coord(sh.Width)))
		case 2:
			if id, ok := pickStack(); ok {
				_, _ = e.placement.MoveStack(ctx, id, dto.MoveStackRequest{
					ShelfID: sh.ID.String(), X: intPtr(coord(sh.Width)), Y: intPtr(coord(sh.Height)),
				})
			}
		case 3:
			src, ok1 := pickStack()
			dst, ok2 := pickStack()
			if ok1 && ok2 {
				_, _ = e.stacks.Merge(ctx, mergeReq(src, dst))
			}
		case 4:
			if id, ok := pickStack(); ok {
				_, _ = e.stacks.UnstackOne(ctx, id)
			}
		case 5:
			if id, ok := pickStack(); ok {
				_, _ = e.placement.PlaceStacked(ctx, sh.ID, dto.PlaceStackedRequest{
					DishID: d.ID.String(), TargetStackID: id.String(),
				})
			}
		}

		assertInvariants(t, e.repo, byID, step)
	}
}

func assertInvariants(t *testing.T, repo repository.StackRepository, shelves map[uuid.UUID]*model.Shelf, step int) {
	t.Helper()
	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)

	for i := range all {
		a := all[i]
		require.NotNil(t, a.Dish)
		require.GreaterOrEqual(t, a.Count, 1, "step %d: count below 1", step)
		require.LessOrEqual(t, a.Count, a.Dish.StackLimit, "step %d: count above limit", step)

		ra := geometry.Rect{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height}
		sh, ok := shelves[a.ShelfID]
		require.True(t, ok, "step %d: stack on unknown shelf", step)
		require.True(t, geometry.FitsWithin(ra, sh.Width, sh.Height), "step %d: %v outside shelf %dx%d", step, ra, sh.Width, sh.Height)

		for j := i + 1; j < len(all); j++ {
			b := all[j]
			if a.ShelfID != b.ShelfID {
				continue
			}
			rb := geometry.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
			require.False(t, geometry.Overlaps(ra, rb), "step %d: %v overlaps %v", step, ra, rb)
		}
	}
}
