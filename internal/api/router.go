// Package api assembles the headlines HTTP server.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	infragin "github.com/jonesrussell/north-cloud/headlines/infrastructure/gin"
	infralogger "github.com/jonesrussell/north-cloud/headlines/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/headlines/internal/config"
	"github.com/jonesrussell/north-cloud/headlines/internal/handlers"
	"github.com/jonesrussell/north-cloud/headlines/internal/metrics"
)

// writeTimeoutSlack keeps the server write deadline beyond the fetch timeout
// so a slow ingestion still gets to write its error response.
const writeTimeoutSlack = 15 * time.Second

// Deps are the collaborators the HTTP surface needs. Nil pings skip the
// corresponding health check.
type Deps struct {
	Handler      *handlers.ArticleHandler
	Metrics      *metrics.Metrics
	DatabasePing func() error
	RedisPing    func() error
}

// NewServer builds the gin server with health checks, metrics and routes.
func NewServer(cfg *config.Config, deps Deps, log infralogger.Logger) *infragin.Server {
	builder := infragin.NewServerBuilder(cfg.Service.Name, cfg.Service.Port).
		WithLogger(log).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithCORSOrigins(cfg.Service.CORSOrigins).
		WithTimeouts(0, cfg.Fetch.Timeout+writeTimeoutSlack, 0).
		WithRoutes(func(router *gin.Engine) {
			RegisterRoutes(router, deps.Handler, deps.Metrics)
		})

	if deps.DatabasePing != nil {
		builder = builder.WithDatabaseHealthCheck(deps.DatabasePing)
	}
	if deps.RedisPing != nil {
		builder = builder.WithRedisHealthCheck(deps.RedisPing)
	}

	return builder.Build()
}

// RegisterRoutes mounts the article and note endpoints. m may be nil.
func RegisterRoutes(router *gin.Engine, h *handlers.ArticleHandler, m *metrics.Metrics) {
	if m != nil {
		router.Use(m.Middleware())
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	router.GET("/articles", h.List)
	router.GET("/articles/:id", h.GetByID)
	router.POST("/articles/:id", h.AttachNote)
	router.GET("/notes/:id", h.GetNote)

	v1 := router.Group("/api/v1")
	v1.GET("/articles", h.ListStored)
	v1.GET("/articles/:id", h.GetByID)
	v1.POST("/articles/:id/note", h.AttachNote)
}
