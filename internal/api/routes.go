package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/storefront-admin/internal/auth"
	"github.com/jonesrussell/storefront-admin/internal/logger"
	"github.com/jonesrussell/storefront-admin/internal/metrics"
	"github.com/jonesrussell/storefront-admin/internal/session"
)

// Version is reported by the health endpoint. Overridden at build time.
var Version = "dev"

// NewRouter assembles the gin engine: recovery first, then request IDs,
// logging, and metrics; /health and /metrics stay open while everything
// under /api/v1 sits behind admin auth.
func NewRouter(h *Handler, m *metrics.Metrics, log logger.Logger, codec *session.Codec, tokens *auth.TokenManager) *gin.Engine {
	engine := gin.New()

	engine.Use(RecoveryMiddleware(log))
	engine.Use(RequestIDMiddleware())
	engine.Use(LoggerMiddleware(log))
	engine.Use(m.Middleware())

	engine.GET("/health", h.Health)
	engine.GET("/health/live", h.HealthLive)
	engine.GET("/health/ready", h.HealthReady)
	engine.GET("/metrics", m.Handler())

	v1 := engine.Group("/api/v1")
	v1.Use(AdminAuth(h.cfg.Admin, codec, tokens, log))
	{
		v1.GET("/auth/session", h.Session)
		v1.POST("/auth/token", h.IssueToken)

		v1.GET("/connectivity/database", h.DatabaseConnectivity)
		v1.GET("/connectivity/images", h.ImagesConnectivity)
		v1.GET("/connectivity/search", h.SearchConnectivity)

		v1.POST("/cache/purge", h.Purge)
		v1.POST("/cache/purge-everything", h.PurgeEverything)
		v1.POST("/cache/replay", h.PurgeReplay)

		v1.PUT("/products", h.UpdateProduct)
		v1.PUT("/posts", h.UpdatePost)
	}

	return engine
}
