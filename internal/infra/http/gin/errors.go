package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"hotelbook/internal/app/commands"
	"hotelbook/internal/app/queries"
	"hotelbook/internal/domain/shared/apperr"
)

// statusFor maps an error kind onto the HTTP status the API promises.
func statusFor(err error) int {
	if errors.Is(err, commands.ErrHandlerNotFound) || errors.Is(err, queries.ErrHandlerNotFound) {
		return http.StatusNotImplemented
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindSignatureMismatch:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindInsufficientFunds:
		return http.StatusPaymentRequired
	case apperr.KindDependency:
		return http.StatusServiceUnavailable
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	if logger != nil {
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed",
			"path", c.FullPath(),
			"status", status,
			"kind", apperr.KindOf(err),
			"error", err,
			"request_id", c.GetString("request_id"),
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
