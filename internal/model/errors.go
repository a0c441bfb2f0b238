package model

import "errors"

// Error kinds shared by the store, service and handler layers.  Callers wrap
// them with context using fmt.Errorf("...: %w", ErrX) and test with
// errors.Is; the HTTP layer maps each kind to one status code.
var (
	// ErrValidation signals missing or malformed input.
	ErrValidation = errors.New("validation error")
	// ErrNotFound signals that an id does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a duplicate unique field or a write that lost
	// every compare-and-swap attempt.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized signals bad credentials or a missing token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden signals an authenticated caller acting on a resource
	// owned by someone else.
	ErrForbidden = errors.New("forbidden")
	// ErrOutOfStock is returned when a cart increase hits zero stock.
	ErrOutOfStock = errors.New("out of stock")
	// ErrInsufficientStock is returned when an order line asks for more
	// units than the product has.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidOperation signals a cart transition that is not allowed
	// from the current reservation state.
	ErrInvalidOperation = errors.New("invalid operation")
)
