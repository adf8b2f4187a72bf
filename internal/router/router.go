package router

import (
	"time"

	"github.com/antontit/buffet/internal/config"
	"github.com/antontit/buffet/internal/handler"
	"github.com/antontit/buffet/internal/infra"
	"github.com/antontit/buffet/internal/middleware"
	"github.com/antontit/buffet/internal/repository"
	"github.com/antontit/buffet/internal/service"
	"github.com/antontit/buffet/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// App is the wired application: the HTTP engine plus the pieces main needs
// to run background work.
type App struct {
	Engine     *gin.Engine
	Layouts    service.LayoutService
	Dispatcher *worker.Dispatcher
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb may be nil; the layout cache and refresh queue are then disabled.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute))

	// ── Infrastructure ───────────────────────────────────────────────────────
	var (
		cache   *infra.LayoutCache
		cacheCB *infra.CircuitBreaker
	)
	if rdb != nil {
		cacheCB = infra.NewCircuitBreaker(infra.DefaultCBConfig())
		cache = infra.NewLayoutCache(rdb, cacheCB, cfg.LayoutCacheTTL)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	shelfRepo := repository.NewShelfRepository(db)
	dishRepo := repository.NewDishRepository(db)
	stackRepo := repository.NewStackRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	dispatcher := worker.NewDispatcher(rdb, invalidator(cache))
	stackSvc := service.NewStackService(stackRepo, dispatcher)
	placementSvc := service.NewPlacementService(shelfRepo, dishRepo, stackRepo, stackSvc, dispatcher)
	layoutSvc := service.NewLayoutService(shelfRepo, stackRepo, layoutCache(cache))

	// ── Handlers ─────────────────────────────────────────────────────────────
	stacksH := handler.NewStacksHandler(placementSvc, stackSvc)
	shelvesH := handler.NewShelvesHandler(layoutSvc)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(db, rdb, cacheCB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		shelves := v1.Group("/shelves")
		{
			shelves.GET("", shelvesH.List)
			shelves.GET("/:id", shelvesH.Get)
			shelves.POST("/:id/stacks", stacksH.Place)
			shelves.POST("/:id/stacks/stacked", stacksH.PlaceStacked)
		}

		stacks := v1.Group("/stacks")
		{
			stacks.POST("/merge", stacksH.Merge)
			stacks.POST("/:id/unstack", stacksH.Unstack)
			stacks.PATCH("/:id", stacksH.Move)
			stacks.DELETE("/:id", stacksH.Delete)
		}
	}

	// Swagger UI only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return &App{Engine: r, Layouts: layoutSvc, Dispatcher: dispatcher}
}

// A nil *LayoutCache stored in an interface is not a nil interface.
func invalidator(c *infra.LayoutCache) worker.LayoutInvalidator {
	if c == nil {
		return nil
	}
	return c
}

func layoutCache(c *infra.LayoutCache) service.LayoutCache {
	if c == nil {
		return nil
	}
	return c
}
