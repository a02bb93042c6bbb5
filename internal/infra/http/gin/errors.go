package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rigrent/internal/app/middleware"
	"rigrent/internal/domain/shared/errs"
)

const (
	reasonInvalidRequest  = "invalid_request"
	reasonUnauthenticated = "unauthenticated"
	reasonInternal        = "internal"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrValidation:
		return http.StatusBadRequest
	case errs.ErrForbidden:
		if errors.Is(err, middleware.ErrUnauthenticated) {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case errs.ErrNotFound:
		return http.StatusNotFound
	case errs.ErrConflict:
		return http.StatusConflict
	case errs.ErrUpstream:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError writes {error, reason}. Unclassified errors are logged and
// reported as a generic internal failure.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	reason := errs.ReasonOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		reason, message = reasonInternal, "internal error"
	}
	if reason == "" {
		reason = errs.KindName(err)
	}
	if logger != nil {
		fields := []any{"status", status, "reason", reason, "error", err, "path", c.FullPath(), "request_id", c.GetString("request_id")}
		if p, ok := currentPrincipal(c); ok {
			fields = append(fields, "user_id", p.ID)
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
		} else {
			logger.Debug("request rejected", fields...)
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message, "reason": reason})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": reasonInvalidRequest})
}
