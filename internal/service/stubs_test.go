package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/antontit/buffet/internal/domain"
	"github.com/antontit/buffet/internal/geometry"
	"github.com/antontit/buffet/internal/model"
	"github.com/antontit/buffet/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── In-memory ShelfRepository / DishRepository ───────────────────────────────

type memShelfRepo struct{ shelves map[uuid.UUID]*model.Shelf }

func newMemShelfRepo(shelves ...*model.Shelf) *memShelfRepo {
	r := &memShelfRepo{shelves: make(map[uuid.UUID]*model.Shelf)}
	for _, s := range shelves {
		_ = r.Create(context.Background(), s)
	}
	return r
}

func (r *memShelfRepo) Create(_ context.Context, s *model.Shelf) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.shelves[s.ID] = s
	return nil
}

func (r *memShelfRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Shelf, error) {
	s, ok := r.shelves[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memShelfRepo) List(_ context.Context) ([]model.Shelf, error) {
	out := make([]model.Shelf, 0, len(r.shelves))
	for _, s := range r.shelves {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r *memShelfRepo) Count(_ context.Context) (int64, error) { return int64(len(r.shelves)), nil }

type memDishRepo struct{ dishes map[uuid.UUID]*model.Dish }

func newMemDishRepo(dishes ...*model.Dish) *memDishRepo {
	r := &memDishRepo{dishes: make(map[uuid.UUID]*model.Dish)}
	for _, d := range dishes {
		_ = r.Create(context.Background(), d)
	}
	return r
}

func (r *memDishRepo) Create(_ context.Context, d *model.Dish) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	r.dishes[d.ID] = d
	return nil
}

func (r *memDishRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Dish, error) {
	d, ok := r.dishes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return d, nil
}

func (r *memDishRepo) List(_ context.Context) ([]model.Dish, error) {
	out := make([]model.Dish, 0, len(r.dishes))
	for _, d := range r.dishes {
		out = append(out, *d)
	}
	return out, nil
}

func (r *memDishRepo) Count(_ context.Context) (int64, error) { return int64(len(r.dishes)), nil }

// ── In-memory StackRepository ────────────────────────────────────────────────
// Enforces the same no-overlap guard as the real repository. beforeCreate runs
// ahead of every guarded insert so a test can slip in a competing writer.

type memStackRepo struct {
	mu           sync.Mutex
	dishes       *memDishRepo
	stacks       map[uuid.UUID]*model.Stack
	clock        time.Time
	beforeCreate func(r *memStackRepo, s *model.Stack)
	creates      int
	finderCalls  int
}

func newMemStackRepo(dishes *memDishRepo) *memStackRepo {
	return &memStackRepo{
		dishes: dishes,
		stacks: make(map[uuid.UUID]*model.Stack),
		clock:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// insert stores s unguarded; used by tests to seed state and by interlopers.
func (r *memStackRepo) insert(s *model.Stack) *model.Stack {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.clock = r.clock.Add(time.Second)
	s.CreatedAt = r.clock
	cp := *s
	cp.Dish = nil
	r.stacks[s.ID] = &cp
	return s
}

func (r *memStackRepo) withDish(s *model.Stack) *model.Stack {
	cp := *s
	if d, ok := r.dishes.dishes[s.DishID]; ok {
		cp.Dish = d
	}
	return &cp
}

func (r *memStackRepo) overlapsOthers(s *model.Stack) bool {
	me := geometry.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
	for id, o := range r.stacks {
		if id == s.ID || o.ShelfID != s.ShelfID {
			continue
		}
		if geometry.Overlaps(me, geometry.Rect{X: o.X, Y: o.Y, Width: o.Width, Height: o.Height}) {
			return true
		}
	}
	return false
}

func (r *memStackRepo) sorted(filter func(*model.Stack) bool) []model.Stack {
	out := make([]model.Stack, 0, len(r.stacks))
	for _, s := range r.stacks {
		if filter(s) {
			out = append(out, *r.withDish(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ShelfID != out[j].ShelfID {
			return out[i].ShelfID.String() < out[j].ShelfID.String()
		}
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

func (r *memStackRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Stack, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stacks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withDish(s), nil
}

func (r *memStackRepo) ListByShelf(_ context.Context, shelfID uuid.UUID) ([]model.Stack, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(s *model.Stack) bool { return s.ShelfID == shelfID }), nil
}

func (r *memStackRepo) ListAll(_ context.Context) ([]model.Stack, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(*model.Stack) bool { return true }), nil
}

func (r *memStackRepo) FindFirstFreeSpot(_ context.Context, shelfID uuid.UUID, maxX, maxY, width, height int) (geometry.Point, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finderCalls++
	var occupied []geometry.Rect
	for _, s := range r.stacks {
		if s.ShelfID == shelfID {
			occupied = append(occupied, geometry.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height})
		}
	}
	p, ok := geometry.FindFirstFreeSpot(occupied, maxX, maxY, width, height)
	return p, ok, nil
}

func (r *memStackRepo) CreateGuarded(_ context.Context, s *model.Stack) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.beforeCreate != nil {
		r.beforeCreate(r, s)
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if r.overlapsOthers(s) {
		return &domain.CollisionError{ShelfID: s.ShelfID, X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
	}
	r.insert(s)
	return nil
}

func (r *memStackRepo) MoveGuarded(_ context.Context, s *model.Stack) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.stacks[s.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if r.overlapsOthers(s) {
		return &domain.CollisionError{ShelfID: s.ShelfID, X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
	}
	stored.ShelfID, stored.X, stored.Y = s.ShelfID, s.X, s.Y
	return nil
}

func (r *memStackRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Stack, error) {
	return r.FindByID(context.Background(), id)
}

func (r *memStackRepo) FindStackTargetTx(_ *gorm.DB, shelfID, dishID uuid.UUID, limit int) (*model.Stack, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *model.Stack
	for _, s := range r.stacks {
		if s.ShelfID != shelfID || s.DishID != dishID || s.Count >= limit {
			continue
		}
		if best == nil || s.CreatedAt.After(best.CreatedAt) {
			best = s
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withDish(best), nil
}

func (r *memStackRepo) UpdateCountTx(_ *gorm.DB, id uuid.UUID, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stacks[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Count = count
	return nil
}

func (r *memStackRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stacks[id]; !ok {
		return false, nil
	}
	delete(r.stacks, id)
	return true, nil
}

func (r *memStackRepo) DB() *gorm.DB { return nil }

func (r *memStackRepo) get(id uuid.UUID) (model.Stack, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stacks[id]
	if !ok {
		return model.Stack{}, false
	}
	return *s, true
}

var (
	_ repository.ShelfRepository = (*memShelfRepo)(nil)
	_ repository.DishRepository  = (*memDishRepo)(nil)
	_ repository.StackRepository = (*memStackRepo)(nil)
)

// ── Recording notifier / cache ───────────────────────────────────────────────

type recordingNotifier struct {
	calls [][]uuid.UUID
}

func (n *recordingNotifier) ShelvesChanged(_ context.Context, shelfIDs ...uuid.UUID) {
	n.calls = append(n.calls, shelfIDs)
}

func (n *recordingNotifier) touched() map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool)
	for _, c := range n.calls {
		for _, id := range c {
			out[id] = true
		}
	}
	return out
}
