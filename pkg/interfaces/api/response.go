package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vsinha/fulfillment/pkg/application/dto"
	"github.com/vsinha/fulfillment/pkg/application/services/session"
	"github.com/vsinha/fulfillment/pkg/domain/services/allocation"
)

func success(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{
		"message": message,
		"data":    data,
	})
}

func failure(c *gin.Context, status int, message string, err error) {
	resp := gin.H{"message": message}
	if err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(status, resp)
}

// writeError maps session and allocation errors to a status and body.
// Allocation rejections carry the typed ValidationError payload.
func writeError(c *gin.Context, err error) {
	if payload, ok := dto.NewValidationError(err); ok {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, allocation.ErrConservationMismatch) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"message": payload.Message, "error": payload})
		return
	}

	var submitErr *session.SubmitError
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		failure(c, http.StatusNotFound, "session not found", err)
	case errors.Is(err, session.ErrApprovedQuantityInvalid):
		failure(c, http.StatusUnprocessableEntity, "demand cannot be allocated", err)
	case errors.Is(err, session.ErrSubmitInFlight):
		failure(c, http.StatusConflict, "submission in flight", err)
	case errors.Is(err, session.ErrSessionClosed):
		failure(c, http.StatusConflict, "session closed", err)
	case errors.Is(err, session.ErrStaleSnapshot):
		failure(c, http.StatusConflict, "stock changed since session opened", err)
	case errors.As(err, &submitErr):
		failure(c, http.StatusBadGateway, "fulfillment submission failed", err)
	default:
		failure(c, http.StatusInternalServerError, "internal error", err)
	}
}
