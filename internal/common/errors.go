// Package common defines shared constants and sentinel errors used across
// the server and the CLI client. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors (missing or malformed input).
	ErrValidation = errors.New("validation error")

	// Account errors.
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Token errors. ErrInvalidToken covers malformed, badly signed and expired
	// session tokens alike.
	ErrInvalidToken          = errors.New("invalid token")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")

	// Collaborator errors.
	ErrNotification    = errors.New("notification delivery failed")
	ErrFeatureDisabled = errors.New("feature disabled")

	// Appointment status errors.
	ErrInvalidTransition = errors.New("invalid status transition")
)
