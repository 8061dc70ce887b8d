package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrBadRequest        = errors.New("bad request")
	ErrNotFound          = errors.New("not found")
	ErrExpired           = errors.New("expired")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUpstream          = errors.New("upstream failure")
)

// ValidationError carries a user-facing message for malformed input and
// matches ErrBadRequest under errors.Is.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrBadRequest }
