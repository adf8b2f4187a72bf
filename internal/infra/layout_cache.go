package infra

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const layoutKeyPrefix = "layout:shelf:"

// LayoutCache keeps rendered shelf layouts in Redis as JSON. Every call goes
// through the circuit breaker; failures degrade to a miss.
//
// A shelf whose invalidation failed may still have a stale entry in Redis, so
// it is read from the store until a fresh layout has been written for it.
type LayoutCache struct {
	rdb *redis.Client
	cb  *CircuitBreaker
	ttl time.Duration

	mu    sync.Mutex
	stale map[uuid.UUID]struct{}
}

func NewLayoutCache(rdb *redis.Client, cb *CircuitBreaker, ttl time.Duration) *LayoutCache {
	if cb == nil {
		cb = NewCircuitBreaker(DefaultCBConfig())
	}
	return &LayoutCache{rdb: rdb, cb: cb, ttl: ttl, stale: make(map[uuid.UUID]struct{})}
}

func layoutKey(shelfID uuid.UUID) string { return layoutKeyPrefix + shelfID.String() }

// Get decodes the cached layout of shelfID into dst and reports whether it did.
func (c *LayoutCache) Get(ctx context.Context, shelfID uuid.UUID, dst any) bool {
	if c.isStale(shelfID) {
		return false
	}
	var raw []byte
	err := c.cb.Execute(func() error {
		var err error
		raw, err = c.rdb.Get(ctx, layoutKey(shelfID)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	})
	if err != nil {
		c.logFailure(err, "get", shelfID)
		return false
	}
	if raw == nil {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Warn().Err(err).Str("shelf_id", shelfID.String()).Msg("layout cache: dropping undecodable entry")
		_ = c.Invalidate(ctx, shelfID)
		return false
	}
	return true
}

func (c *LayoutCache) Set(ctx context.Context, shelfID uuid.UUID, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("shelf_id", shelfID.String()).Msg("layout cache: marshal failed")
		return
	}
	err = c.cb.Execute(func() error {
		return c.rdb.Set(ctx, layoutKey(shelfID), raw, c.ttl).Err()
	})
	if err != nil {
		c.logFailure(err, "set", shelfID)
		return
	}
	c.mu.Lock()
	delete(c.stale, shelfID)
	c.mu.Unlock()
}

// Invalidate deletes the cached layouts of shelfIDs. On failure the shelves
// are marked stale and bypass the cache until Set succeeds for them.
func (c *LayoutCache) Invalidate(ctx context.Context, shelfIDs ...uuid.UUID) error {
	if len(shelfIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(shelfIDs))
	for _, id := range shelfIDs {
		keys = append(keys, layoutKey(id))
	}
	err := c.cb.Execute(func() error {
		return c.rdb.Del(ctx, keys...).Err()
	})
	if err != nil {
		c.mu.Lock()
		for _, id := range shelfIDs {
			c.stale[id] = struct{}{}
		}
		c.mu.Unlock()
	}
	return err
}

func (c *LayoutCache) isStale(shelfID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.stale[shelfID]
	return ok
}

// Breaker exposes the breaker state for the health endpoint.
func (c *LayoutCache) Breaker() *CircuitBreaker { return c.cb }

func (c *LayoutCache) logFailure(err error, op string, shelfID uuid.UUID) {
	if errors.Is(err, ErrCircuitOpen) {
		return
	}
	log.Warn().Err(err).Str("op", op).Str("shelf_id", shelfID.String()).Msg("layout cache unavailable")
}
