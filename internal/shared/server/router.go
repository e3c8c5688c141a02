package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"truthguard-backend/internal/media"
	"truthguard-backend/internal/scans"
	"truthguard-backend/internal/shared/config"
	"truthguard-backend/internal/shared/metrics"
	"truthguard-backend/internal/shared/server/middleware"
	"truthguard-backend/internal/shared/server/respond"
	"truthguard-backend/internal/stats"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config       config.Config
	ScanHandler  *scans.Handler
	MediaHandler *media.Handler
	StatsHandler *stats.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.SessionID(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"SUBMIT": {Rate: 2, Burst: 5},
				"UPLOAD": {Rate: 0.5, Burst: 3},
			},
			GroupFor: writeGroup,
		}),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())
	if deps.ScanHandler != nil {
		deps.ScanHandler.RegisterRoutes(api)
	}
	if deps.MediaHandler != nil {
		deps.MediaHandler.RegisterRoutes(api)
	}
	if deps.StatsHandler != nil {
		deps.StatsHandler.RegisterRoutes(api)
	}

	return r
}

// writeGroup buckets the mutating endpoints for per-session rate limiting.
// Read paths fall through unlimited so status polling is never throttled.
func writeGroup(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return ""
	}
	switch c.Request.URL.Path {
	case "/api/v1/scans":
		return "SUBMIT"
	case "/api/v1/media":
		return "UPLOAD"
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
