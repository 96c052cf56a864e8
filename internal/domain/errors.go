package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrSuspended         = errors.New("account is suspended")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError describes a single rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError lists the bookings that block a requested window.
type ConflictError struct {
	BookingIDs []int64
}

func (e *ConflictError) Error() string {
	if len(e.BookingIDs) == 0 {
		return "requested time conflicts with an existing booking"
	}
	ids := make([]string, 0, len(e.BookingIDs))
	for _, id := range e.BookingIDs {
		ids = append(ids, fmt.Sprintf("#%d", id))
	}
	return "requested time conflicts with booking " + strings.Join(ids, ", ")
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
