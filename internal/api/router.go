// Package api wires the HTTP routes of the config registry admin API. Namespace and audit
// routes live under /api/v1; /health and /version sit at the root. Prometheus metrics are
// served by cmd/server on a separate port, not through this router.
package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/config-registry/config-registry/internal/api/namespaces"
	"github.com/config-registry/config-registry/internal/config"
	"github.com/config-registry/config-registry/internal/middleware"
)

// Version is reported by GET /version. cmd/server overrides it at link time.
var Version = "0.1.0"

// BackgroundServices holds goroutines started by the router that must be stopped after
// the HTTP server has drained.
type BackgroundServices struct {
	rateLimiter *middleware.RateLimiter
}

// Shutdown stops the router's background goroutines
func (bg *BackgroundServices) Shutdown() {
	if bg.rateLimiter != nil {
		bg.rateLimiter.Stop()
	}
	slog.Info("background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB, svc namespaces.Service, audits namespaces.AuditReader) (*gin.Engine, *BackgroundServices) {
	router := gin.New()
	bg := &BackgroundServices{}

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig(cfg.Security.TLS.Enabled)))

	router.GET("/health", healthCheckHandler(db))
	router.GET("/version", versionHandler())

	v1 := router.Group("/api/v1")
	if cfg.Security.RateLimiting.Enabled {
		bg.rateLimiter = middleware.NewRateLimiter(cfg.Security.RateLimiting)
		v1.Use(middleware.RateLimitMiddleware(bg.rateLimiter))
	}

	namespaces.NewHandlers(svc).Register(v1)
	namespaces.NewAuditHandlers(audits).Register(v1)

	return router, bg
}

// healthCheckHandler reports whether the database answers a ping
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     Version,
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware emits one slog record per request. The output format follows the
// process-wide handler installed by telemetry.SetupLogger.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}

		slog.LogAttrs(
			c.Request.Context(),
			level,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", middleware.RequestID(c)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}
