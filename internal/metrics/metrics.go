// Package metrics holds the Prometheus collectors for the placement engine.
// Collectors register on the default registry and are scraped at /metrics.
package metrics

import (
	"errors"

	"github.com/antontit/buffet/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "buffet"

var (
	// Collisions counts footprint writes rejected by the guard. source is
	// "guard" (in-transaction re-check) or "store" (exclusion constraint or
	// serialization failure reported by the database).
	Collisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collisions_total",
		Help:      "Footprint writes rejected because they overlap an existing stack.",
	}, []string{"source"})

	// PlacementRetries counts automatic placements that lost a race and rescanned.
	PlacementRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "placement_retries_total",
		Help:      "Automatic placements retried after a collision.",
	})

	// StackOps counts stack engine operations by outcome.
	StackOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stack_operations_total",
		Help:      "Placement and stack operations by kind and outcome.",
	}, []string{"op", "outcome"})
)

// ObserveOp records the outcome of a placement or stack operation.
func ObserveOp(op string, err error) {
	StackOps.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrCollision):
		return "collision"
	case errors.Is(err, domain.ErrCapacity):
		return "stack_full"
	case errors.Is(err, domain.ErrNoSpace):
		return "no_space"
	default:
		return "error"
	}
}
