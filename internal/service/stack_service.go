package service

import (
	"context"
	"fmt"

	"github.com/antontit/buffet/internal/domain"
	"github.com/antontit/buffet/internal/dto"
	"github.com/antontit/buffet/internal/metrics"
	"github.com/antontit/buffet/internal/model"
	"github.com/antontit/buffet/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StackService owns the counted-stack state machine: add one item, merge two
// stacks, take one item off. A stack lives while 1 <= count <= dish limit and
// is deleted instead of reaching zero.
type StackService interface {
	// AddOneTx must run on the transaction that locked target.
	AddOneTx(tx *gorm.DB, dish *model.Dish, target *model.Stack, shelfID uuid.UUID) (*model.Stack, error)
	Merge(ctx context.Context, req dto.MergeStacksRequest) (*dto.MergeStacksResponse, error)
	UnstackOne(ctx context.Context, stackID uuid.UUID) (*dto.UnstackResponse, error)
}

type stackService struct {
	repo     repository.StackRepository
	notifier ShelfChangeNotifier
}

func NewStackService(repo repository.StackRepository, notifier ShelfChangeNotifier) StackService {
	return &stackService{repo: repo, notifier: notifier}
}

// ── AddOneTx ──────────────────────────────────────────────────────────────────

func (s *stackService) AddOneTx(tx *gorm.DB, dish *model.Dish, target *model.Stack, shelfID uuid.UUID) (*model.Stack, error) {
	if target.Dish == nil {
		return nil, fmt.Errorf("stack %s loaded without its dish", target.ID)
	}
	if target.Dish.Type != dish.Type {
		return nil, domain.ValidationError("dish types do not match")
	}
	if target.ShelfID != shelfID {
		return nil, domain.ValidationError("target stack is on another shelf")
	}
	limit := min(dish.StackLimit, target.Dish.StackLimit)
	next := target.Count + 1
	if next > limit {
		return nil, domain.CapacityError(target.ID, limit)
	}
	if err := s.repo.UpdateCountTx(tx, target.ID, next); err != nil {
		return nil, notFound(err, "stack", target.ID)
	}
	target.Count = next
	return target, nil
}

// ── Merge ─────────────────────────────────────────────────────────────────────
// Moves as many items as fit from source into target. Target geometry never
// changes; a source emptied by the merge is deleted.

func (s *stackService) Merge(ctx context.Context, req dto.MergeStacksRequest) (resp *dto.MergeStacksResponse, err error) {
	defer func() { metrics.ObserveOp("merge", err) }()

	sourceID, err := parseID("source_stack_id", req.SourceStackID)
	if err != nil {
		return nil, err
	}
	targetID, err := parseID("target_stack_id", req.TargetStackID)
	if err != nil {
		return nil, err
	}
	if sourceID == targetID {
		return nil, domain.ValidationError("source and target must differ")
	}

	var shelfIDs []uuid.UUID
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		source, target, err := s.lockPair(tx, sourceID, targetID)
		if err != nil {
			return err
		}
		if source.Dish.Type != target.Dish.Type {
			return domain.ValidationError("dish types do not match")
		}
		limit := target.Dish.StackLimit
		if limit <= 1 {
			return domain.ValidationError("target dish is not stackable")
		}

		available := max(0, limit-target.Count)
		moved := min(available, source.Count)
		if moved == 0 {
			resp = mergeResult(target, source, 0)
			return nil
		}

		target.Count += moved
		source.Count -= moved
		if err := s.repo.UpdateCountTx(tx, target.ID, target.Count); err != nil {
			return notFound(err, "stack", target.ID)
		}
		if source.Count == 0 {
			if _, err := s.repo.DeleteTx(tx, source.ID); err != nil {
				return err
			}
			resp = mergeResult(target, nil, moved)
		} else {
			if err := s.repo.UpdateCountTx(tx, source.ID, source.Count); err != nil {
				return notFound(err, "stack", source.ID)
			}
			resp = mergeResult(target, source, moved)
		}
		shelfIDs = []uuid.UUID{target.ShelfID, source.ShelfID}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if len(shelfIDs) > 0 && s.notifier != nil {
		s.notifier.ShelvesChanged(ctx, shelfIDs...)
	}
	return resp, nil
}

// lockPair locks both stacks in id order so two opposite merges cannot deadlock.
func (s *stackService) lockPair(tx *gorm.DB, sourceID, targetID uuid.UUID) (source, target *model.Stack, err error) {
	first, second := sourceID, targetID
	if second.String() < first.String() {
		first, second = second, first
	}
	locked := make(map[uuid.UUID]*model.Stack, 2)
	for _, id := range []uuid.UUID{first, second} {
		st, err := s.repo.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return nil, nil, notFound(err, "stack", id)
		}
		if st.Dish == nil {
			return nil, nil, domain.NotFound("dish", st.DishID)
		}
		locked[id] = st
	}
	return locked[sourceID], locked[targetID], nil
}

func mergeResult(target, source *model.Stack, moved int) *dto.MergeStacksResponse {
	resp := &dto.MergeStacksResponse{
		TargetID:    target.ID.String(),
		TargetCount: target.Count,
		MovedCount:  moved,
	}
	if source != nil {
		id := source.ID.String()
		resp.SourceID = &id
		resp.SourceRemainingCount = source.Count
	}
	return resp
}

// ── UnstackOne ────────────────────────────────────────────────────────────────

func (s *stackService) UnstackOne(ctx context.Context, stackID uuid.UUID) (resp *dto.UnstackResponse, err error) {
	defer func() { metrics.ObserveOp("unstack", err) }()

	var shelfID uuid.UUID
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		st, err := s.repo.FindByIDForUpdateTx(tx, stackID)
		if err != nil {
			return notFound(err, "stack", stackID)
		}
		shelfID = st.ShelfID

		if st.Count <= 1 {
			if _, err := s.repo.DeleteTx(tx, st.ID); err != nil {
				return err
			}
			resp = &dto.UnstackResponse{StackID: st.ID.String(), RemainingCount: 0, Deleted: true}
			return nil
		}

		remaining := st.Count - 1
		if err := s.repo.UpdateCountTx(tx, st.ID, remaining); err != nil {
			return notFound(err, "stack", st.ID)
		}
		resp = &dto.UnstackResponse{StackID: st.ID.String(), RemainingCount: remaining}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.notifier != nil {
		s.notifier.ShelvesChanged(ctx, shelfID)
	}
	return resp, nil
}
