package namespaces

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/config-registry/config-registry/internal/apperrors"
	"github.com/config-registry/config-registry/internal/middleware"
)

// statusFor maps a domain error kind onto an HTTP status
func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindInvalidArgument:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON error body. Client errors echo the domain message;
// anything else is logged and reported without detail.
func respondError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	status := statusFor(kind)

	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", middleware.RequestID(c),
			"error", err)

		body := gin.H{"error": "internal server error", "request_id": middleware.RequestID(c)}
		if kind != "" {
			body["kind"] = string(kind)
		}
		c.JSON(status, body)
		return
	}

	c.JSON(status, gin.H{
		"error":      err.Error(),
		"kind":       string(kind),
		"request_id": middleware.RequestID(c),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":      msg,
		"kind":       string(apperrors.KindInvalidArgument),
		"request_id": middleware.RequestID(c),
	})
}

func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":      msg,
		"kind":       string(apperrors.KindNotFound),
		"request_id": middleware.RequestID(c),
	})
}
