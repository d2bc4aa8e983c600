package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeLoginRequired    = "login_required"
	ErrCodeAlreadyLoggedIn  = "already_logged_in"
	ErrCodeNameTaken        = "name_taken"
	ErrCodeRoomExists       = "room_exists"
	ErrCodeRoomNotFound     = "room_not_found"
	ErrCodeNotInRoom        = "not_in_room"
	ErrCodeUnknownRecipient = "unknown_recipient"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeInternal         = "internal"
)

// Error classes, matched with errors.Is against a *CoreError.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrInternal   = errors.New("internal error")

	// ErrHubStopped is returned by queries issued after the hub exited.
	ErrHubStopped = errors.New("hub stopped")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// Unwrap maps the code onto its error class.
func (e *CoreError) Unwrap() error {
	switch e.Code {
	case ErrCodeNameTaken, ErrCodeRoomExists:
		return ErrConflict
	case ErrCodeRoomNotFound, ErrCodeNotInRoom, ErrCodeUnknownRecipient:
		return ErrNotFound
	case ErrCodeInternal:
		return ErrInternal
	default:
		return ErrValidation
	}
}

// NewError builds a CoreError for callers outside the hub.
func NewError(code, msg string) *CoreError {
	return coreError(code, msg)
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
