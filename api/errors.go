package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/gin-gonic/gin"
)

// statusFor maps service errors onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrSuspended), errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal failures from clients.
func publicMessage(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := publicMessage(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		c.JSON(status, gin.H{"error": verr.Message, "field": verr.Field})
		return
	}
	var cerr *domain.ConflictError
	if errors.As(err, &cerr) {
		c.JSON(status, gin.H{"error": msg, "conflicts": cerr.BookingIDs})
		return
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
