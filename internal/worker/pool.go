package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/antontit/buffet/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueLayout = "jobs:layout"

	jobRefreshLayout = "refresh_layout"
	maxAttempts      = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

type refreshPayload struct {
	ShelfID uuid.UUID `json:"shelf_id"`
}

// LayoutInvalidator drops cached layouts.
type LayoutInvalidator interface {
	Invalidate(ctx context.Context, shelfIDs ...uuid.UUID) error
}

// LayoutRefresher rebuilds and re-caches one shelf layout.
type LayoutRefresher interface {
	RefreshShelf(ctx context.Context, shelfID uuid.UUID) error
}

// Dispatcher reacts to committed shelf mutations: the stale layouts are
// dropped right away and a refresh job per shelf is pushed to Redis. The
// worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb   *redis.Client
	cache LayoutInvalidator
}

// NewDispatcher accepts a nil client or cache; the missing half is skipped.
func NewDispatcher(rdb *redis.Client, cache LayoutInvalidator) *Dispatcher {
	return &Dispatcher{rdb: rdb, cache: cache}
}

// ShelvesChanged never fails the caller; the mutation it reports is already
// committed and a stale cache entry expires on its own.
func (d *Dispatcher) ShelvesChanged(ctx context.Context, shelfIDs ...uuid.UUID) {
	ids := uniqueIDs(shelfIDs)
	if len(ids) == 0 {
		return
	}
	if d.cache != nil {
		if err := d.cache.Invalidate(ctx, ids...); err != nil {
			log.Error().Err(err).Int("shelves", len(ids)).Msg("layout invalidation failed; cached layouts bypassed until rebuilt")
		}
	}
	for _, id := range ids {
		if err := d.EnqueueLayoutRefresh(ctx, id); err != nil {
			log.Warn().Err(err).Str("shelf_id", id.String()).Msg("failed to enqueue layout refresh")
		}
	}
}

// EnqueueLayoutRefresh pushes a refresh job for shelfID to Redis.
func (d *Dispatcher) EnqueueLayoutRefresh(ctx context.Context, shelfID uuid.UUID) error {
	if d.rdb == nil {
		return nil
	}
	return enqueue(ctx, d.rdb, QueueLayout, jobRefreshLayout, refreshPayload{ShelfID: shelfID}, 0)
}

func enqueue(ctx context.Context, rdb *redis.Client, queue, jobType string, payload interface{}, attempts int) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data, Attempts: attempts})
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// StartWorkerPool launches numWorkers goroutines consuming the layout queue.
// Each goroutine blocks on BRPOP and sits idle between jobs.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, refresher LayoutRefresher, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, refresher, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, refresher LayoutRefresher, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop waits up to 5s, then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueLayout).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, refresher, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, refresher LayoutRefresher, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	shelfID, err := handleJob(ctx, refresher, job)
	if err == nil {
		if shelfID != uuid.Nil {
			releaseShelf(ctx, rdb, shelfID)
		}
		return
	}

	job.Attempts++
	if job.Attempts >= maxAttempts {
		parkShelf(ctx, rdb, DeadShelf{
			ShelfID:  shelfID,
			Reason:   err.Error(),
			Attempts: job.Attempts,
			FailedAt: time.Now().UTC(),
		})
		return
	}
	log.Warn().Err(err).Str("shelf_id", shelfID.String()).Int("attempt", job.Attempts).Msg("layout refresh failed, requeueing")
	if err := rdb.LPush(ctx, queue, mustMarshal(job)).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("failed to requeue job")
	}
}

// handleJob returns the shelf a refresh job was about, and a nil error for
// jobs that should not be retried.
func handleJob(ctx context.Context, refresher LayoutRefresher, job Job) (uuid.UUID, error) {
	switch job.Type {
	case jobRefreshLayout:
		var p refreshPayload
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			log.Error().Err(err).Msg("invalid refresh_layout payload")
			return uuid.Nil, nil
		}
		err := refresher.RefreshShelf(ctx, p.ShelfID)
		if errors.Is(err, domain.ErrNotFound) {
			// Shelf is gone; nothing to cache.
			return p.ShelfID, nil
		}
		return p.ShelfID, err
	default:
		log.Warn().Str("type", job.Type).Msg("unknown job type, dropping")
		return uuid.Nil, nil
	}
}

func mustMarshal(job Job) []byte {
	b, _ := json.Marshal(job)
	return b
}
