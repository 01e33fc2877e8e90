package services

import (
	"fmt"

	"github.com/tableshare/tableshare/models"
)

// ValidationError covers malformed payloads and business-rule rejections
// (empty cart, quantity < 0, unknown option). Never retried automatically.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError names a missing target (menu item, cart line, order).
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// AuthError means the acting credential does not match the target scope.
// Terminal for the attempt; the caller must re-authenticate.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// SessionStateError is returned when a session is CLOSED or EXPIRED.
// Both states are terminal, so retrying the same call can never succeed.
type SessionStateError struct {
	Status string
}

func (e *SessionStateError) Error() string {
	return "session not active (" + e.Status + ")"
}

// ConflictError reports a stale expected version. It carries the current
// cart so the caller can re-render and retry without an extra fetch.
type ConflictError struct {
	ExpectedVersion uint64
	CurrentVersion  uint64
	Cart            *models.SharedCart
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict: expected %d, current %d",
		e.ExpectedVersion, e.CurrentVersion)
}
