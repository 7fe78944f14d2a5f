package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/glossarion/glossarion/internal/dbpool"
	"github.com/glossarion/glossarion/internal/middleware"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log         *logrus.Logger
	Pool        *dbpool.Pool
	Terms       TermRepository
	Categories  CategoryRepository
	Runner      ImportRunner
	Checkpoints CheckpointAdmin
	CORSOrigins []string
	Version     string
	ImportDir   string
}

// maxBodySize bounds request bodies. Import payloads are trigger documents,
// not data uploads.
const maxBodySize = 1 << 20 // 1 MB

// NewRouter builds the Gin engine with the full middleware chain and all
// API routes registered under /api.
func NewRouter(deps *RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	setupMiddleware(r, deps)
	registerRoutes(r.Group("/api"), deps)

	return r
}

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.Prometheus())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, log, deps.Version)
	terms := NewTermHandler(deps.Terms, log)
	categories := NewCategoryHandler(deps.Categories, log)
	imports := NewImportHandler(deps.Runner, deps.Checkpoints, log, deps.ImportDir)

	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// Catalog reads.
	api.GET("/terms", terms.List)
	api.GET("/terms/:slug", terms.Get)
	api.GET("/categories", categories.List)
	api.GET("/stats", terms.Stats)

	// Ingestion.
	api.POST("/imports", imports.Start)
	api.GET("/imports", imports.List)
	api.GET("/imports/:id", imports.Status)
	api.POST("/imports/:id/cancel", imports.Cancel)
	api.POST("/checkpoints/reset", imports.ResetCheckpoints)
}
