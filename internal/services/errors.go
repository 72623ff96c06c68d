package services

import "errors"

// Failure kinds surfaced to the HTTP layer. storage.ErrNotFound completes the set.
var (
	ErrValidation           = errors.New("validation failed")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrForbidden            = errors.New("not authorized")
	ErrConflict             = errors.New("email already in use")
	ErrInvalidResetToken    = errors.New("invalid or expired token")
	ErrDeliveryFailed       = errors.New("email could not be sent")
	ErrResetUnavailable     = errors.New("password reset email is not configured")
	ErrIdentityExchange     = errors.New("authentication failed")
	ErrAssistantUnavailable = errors.New("assistant is not configured")
	ErrAssistantFailed      = errors.New("assistant request failed")
)

// ValidationError describes rejected input. It matches ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Unwrap makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(msg string) error {
	return &ValidationError{Msg: msg}
}
