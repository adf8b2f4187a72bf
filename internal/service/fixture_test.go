package service_test

import (
	"testing"

	"github.com/antontit/buffet/internal/model"
	"github.com/antontit/buffet/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	shelves   *memShelfRepo
	dishes    *memDishRepo
	stacks    *memStackRepo
	notifier  *recordingNotifier
	engine    service.StackService
	placement service.PlacementService
	layout    service.LayoutService
}

func newFixture(shelves []*model.Shelf, dishes []*model.Dish) *fixture {
	f := &fixture{
		shelves:  newMemShelfRepo(shelves...),
		dishes:   newMemDishRepo(dishes...),
		notifier: &recordingNotifier{},
	}
	f.stacks = newMemStackRepo(f.dishes)
	f.engine = service.NewStackService(f.stacks, f.notifier)
	f.placement = service.NewPlacementService(f.shelves, f.dishes, f.stacks, f.engine, f.notifier)
	f.layout = service.NewLayoutService(f.shelves, f.stacks, nil)
	return f
}

func shelf(width, height int) *model.Shelf {
	return &model.Shelf{Name: "shelf", Width: width, Height: height}
}

func dish(typ string, width, height, limit int) *model.Dish {
	return &model.Dish{Name: typ, Type: typ, Width: width, Height: height, StackLimit: limit}
}

// seed stores a stack of d directly, bypassing placement rules.
func (f *fixture) seed(sh *model.Shelf, d *model.Dish, x, count int) uuid.UUID {
	s := f.stacks.insert(&model.Stack{
		ShelfID: sh.ID,
		DishID:  d.ID,
		X:       x,
		Width:   d.Width,
		Height:  d.Height,
		Count:   count,
	})
	return s.ID
}

func (f *fixture) mustStack(t *testing.T, id uuid.UUID) model.Stack {
	t.Helper()
	s, ok := f.stacks.get(id)
	require.True(t, ok, "stack %s should exist", id)
	return s
}
