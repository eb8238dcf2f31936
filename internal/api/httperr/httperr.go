// Package httperr maps service-layer error kinds onto HTTP responses so every
// handler package renders failures the same way.
package httperr

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freelancehub/freelancehub/internal/services"
)

// statusFor translates an error kind into an HTTP status code. Expired gets
// 410 rather than 409 because the resource is gone for good, not contended.
func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindInvalid:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindConflict, services.KindInvalidState:
		return http.StatusConflict
	case services.KindExpired:
		return http.StatusGone
	}
	return http.StatusInternalServerError
}

// Respond writes the JSON error body for a failed service call. Service errors
// carry messages written for the caller and pass through verbatim; anything
// else is logged and collapsed into the fallback message so internals never
// leak into responses.
func Respond(c *gin.Context, err error, fallback string) {
	kind := services.KindOf(err)
	if kind == services.KindInternal {
		slog.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
		return
	}

	c.JSON(statusFor(kind), gin.H{"error": err.Error()})
}
