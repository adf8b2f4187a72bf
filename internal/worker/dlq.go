package worker

// Dead letters: a shelf whose layout refresh failed maxAttempts times is parked
// in a Redis hash keyed by shelf id, so repeated failures of one shelf collapse
// into a single entry. The shelf is still served correctly; its reads miss the
// cache until a later refresh succeeds and releases it.

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DeadShelvesKey = "dlq:layout:shelves"

// DeadShelf records why a shelf's layout could not be refreshed.
type DeadShelf struct {
	ShelfID  uuid.UUID `json:"shelf_id"`
	Reason   string    `json:"reason"`
	Attempts int       `json:"attempts"`
	FailedAt time.Time `json:"failed_at"`
}

func parkShelf(ctx context.Context, rdb *redis.Client, dead DeadShelf) {
	data, err := json.Marshal(dead)
	if err != nil {
		log.Error().Err(err).Str("shelf_id", dead.ShelfID.String()).Msg("dlq: failed to marshal entry")
		return
	}
	if err := rdb.HSet(ctx, DeadShelvesKey, dead.ShelfID.String(), data).Err(); err != nil {
		log.Error().Err(err).Str("shelf_id", dead.ShelfID.String()).Msg("dlq: failed to park shelf")
		return
	}
	log.Warn().
		Str("shelf_id", dead.ShelfID.String()).
		Str("reason", dead.Reason).
		Int("attempts", dead.Attempts).
		Msg("dlq: layout refresh abandoned")
}

// releaseShelf drops shelfID from the dead letters after a successful refresh.
func releaseShelf(ctx context.Context, rdb *redis.Client, shelfID uuid.UUID) {
	n, err := rdb.HDel(ctx, DeadShelvesKey, shelfID.String()).Result()
	if err != nil {
		log.Warn().Err(err).Str("shelf_id", shelfID.String()).Msg("dlq: failed to release shelf")
		return
	}
	if n > 0 {
		log.Info().Str("shelf_id", shelfID.String()).Msg("dlq: shelf layout recovered")
	}
}

// DeadShelves lists the parked shelves, oldest failure first. /health reports them.
func DeadShelves(ctx context.Context, rdb *redis.Client) ([]DeadShelf, error) {
	raw, err := rdb.HVals(ctx, DeadShelvesKey).Result()
	if err != nil {
		return nil, err
	}
	return decodeDeadShelves(raw), nil
}

func decodeDeadShelves(raw []string) []DeadShelf {
	out := make([]DeadShelf, 0, len(raw))
	for _, r := range raw {
		var d DeadShelf
		if err := json.Unmarshal([]byte(r), &d); err != nil {
			log.Warn().Err(err).Msg("dlq: skipping undecodable entry")
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FailedAt.Equal(out[j].FailedAt) {
			return out[i].FailedAt.Before(out[j].FailedAt)
		}
		return out[i].ShelfID.String() < out[j].ShelfID.String()
	})
	return out
}
