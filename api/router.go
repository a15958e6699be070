package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ar7340/CS2-Player-States/api/handler"
	"github.com/Ar7340/CS2-Player-States/api/middleware"
	"github.com/Ar7340/CS2-Player-States/config"
	"github.com/Ar7340/CS2-Player-States/orchestrator"
	"github.com/Ar7340/CS2-Player-States/store"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always
// work.
func NewRouter(st *store.Store, runner *orchestrator.Runner, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/health", handler.Health(st, startTime))

	v1 := r.Group("/api/v1")
	if cfg.Auth.Enabled {
		v1.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	v1.Use(middleware.RateLimit(cfg.RateLimit))

	// Queue
	v1.POST("/players", handler.Enqueue(st))
	v1.POST("/queue/reset", handler.QueueReset(st))

	// Stat records
	v1.GET("/stats/summary", handler.StatsSummary(st))
	v1.GET("/stats/:steam_id", handler.PlayerStats(st))

	// Run control
	v1.POST("/run/start", handler.RunStart(runner))
	v1.POST("/run/stop", handler.RunStop(runner))
	v1.GET("/run/status", handler.RunStatus(runner))

	// Execution log
	v1.GET("/logs", handler.Logs(st))
	v1.DELETE("/logs", handler.PruneLogs(st))

	return r
}
