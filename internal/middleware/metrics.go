// Package middleware provides the Gin middleware shared by every route of the config
// registry API. Middleware is registered in internal/api/router.go ahead of the handlers.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/config-registry/config-registry/internal/telemetry"
)

// noRoute labels requests that did not match a registered route
const noRoute = "<no-route>"

// MetricsMiddleware records http_requests_total and http_request_duration_seconds for every
// request. The path label is the matched route template (e.g. /api/v1/namespaces/:id), so
// raw ids never reach label values.
//
// Register after gin.Recovery() and RequestIDMiddleware so the final status is observed.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = noRoute
		}

		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
