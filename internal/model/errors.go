package model

import "errors"

// Domain error taxonomy. Public operations return these for expected
// business conditions; handlers translate them to HTTP status codes.
var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrConcurrencyConflict is reserved for stores that add optimistic
	// locking; the built-in sqlite store serializes writers instead.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)
