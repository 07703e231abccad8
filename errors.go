package chatrelay

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request or user input failed validation.
	ErrValidation = errors.New("validation error")

	// ErrProvider indicates a text or image generation provider failed.
	ErrProvider = errors.New("provider error")

	// ErrUnauthorized indicates the relay rejected the caller's credentials
	// (HTTP 401 or 403).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrBadResponse indicates the relay answered with a non-OK status.
	ErrBadResponse = errors.New("bad response from relay")

	// ErrConnect indicates the request never reached the relay.
	ErrConnect = errors.New("failed to connect to relay")

	// ErrRateLimited indicates the relay rejected the caller for exceeding
	// its request budget.
	ErrRateLimited = errors.New("rate limited")

	// ErrBusy indicates a submission is already outstanding.
	ErrBusy = errors.New("a response is still pending")

	// ErrSessionNotFound indicates the requested session is not in the registry.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTurnNotFound indicates a turn index outside the active session.
	ErrTurnNotFound = errors.New("turn not found")

	// ErrNotFound indicates a storage key has no value.
	ErrNotFound = errors.New("not found")
)

// StatusError carries the HTTP status of a failed relay call. It wraps one of
// ErrUnauthorized, ErrRateLimited or ErrBadResponse so callers can classify
// it with errors.Is.
type StatusError struct {
	Code    int
	Message string
	Err     error
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("relay: HTTP %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("relay: HTTP %d", e.Code)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}
