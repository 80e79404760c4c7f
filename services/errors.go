package services

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors returned by the service layer. Handlers translate them to
// HTTP responses with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrValidation        = errors.New("validation failed")
	ErrAlreadyEnrolled   = errors.New("already enrolled in this course")
	ErrNotEnrolled       = errors.New("not enrolled in this course")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidCode       = errors.New("invalid code")
	ErrExpired           = errors.New("expired")
	ErrInactive          = errors.New("inactive")
	ErrLimitReached      = errors.New("usage limit reached")
	ErrInvalidSignature  = errors.New("invalid payment signature")
	ErrLocked            = errors.New("locked")
	ErrExternal          = errors.New("external service error")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("invalid email or password")
)

// ValidationError is a field level input problem
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

// Is lets errors.Is(err, ErrValidation) match
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// LockedError carries how long a lockout still holds
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("locked, try again in %d minutes", e.RemainingMinutes())
}

// Is lets errors.Is(err, ErrLocked) match
func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}

// RemainingMinutes rounds the remaining lock time up to whole minutes
func (e *LockedError) RemainingMinutes() int {
	minutes := int(e.Remaining / time.Minute)
	if e.Remaining%time.Minute > 0 {
		minutes++
	}
	return minutes
}

// AttemptsError is returned for a wrong verification code while attempts remain
type AttemptsError struct {
	Remaining int
}

func (e *AttemptsError) Error() string {
	return fmt.Sprintf("invalid code, %d attempts remaining", e.Remaining)
}

// Is lets errors.Is(err, ErrInvalidCode) match
func (e *AttemptsError) Is(target error) bool {
	return target == ErrInvalidCode
}
