package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/antontit/buffet/internal/infra"
	"github.com/antontit/buffet/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// The database decides the status; Redis only backs the layout cache, so a
// Redis outage is reported but does not fail the check.
func Health(db *gorm.DB, rdb *redis.Client, cacheCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		body := gin.H{"db": dbStatus}

		if rdb == nil {
			body["redis"] = "disabled"
		} else {
			redisStatus := "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			}
			body["redis"] = redisStatus
			if dead, err := worker.DeadShelves(ctx, rdb); err == nil {
				ids := make([]string, 0, len(dead))
				for _, d := range dead {
					ids = append(ids, d.ShelfID.String())
				}
				body["dead_letters"] = len(dead)
				body["dead_lettered_shelves"] = ids
			}
		}
		if cacheCB != nil {
			body["cache_breaker"] = cacheCB.State().String()
		}

		status := http.StatusOK
		if dbStatus != "connected" {
			status = http.StatusServiceUnavailable
		}
		body["ok"] = status == http.StatusOK

		c.JSON(status, body)
	}
}
