// Package repository defines the persistence contracts of the marketplace
// and their MongoDB, MySQL and in-memory implementations.  Errors returned
// from every implementation wrap the kinds in package model so that higher
// layers can branch with errors.Is regardless of the backing store.
package repository

import (
	"errors"
	"fmt"

	"github.com/iliyamo/ekharid/internal/model"
)

// ErrEmailExists is returned when registering an email that is already
// taken.  It matches model.ErrConflict.
var ErrEmailExists = fmt.Errorf("email already registered: %w", model.ErrConflict)

// ErrUsernameExists is returned when registering a username that is
// already taken.  It matches model.ErrConflict.
var ErrUsernameExists = fmt.Errorf("username already taken: %w", model.ErrConflict)

// ErrUserNotFound and ErrProductNotFound match model.ErrNotFound.  Stores
// also return them for malformed ids, which can never resolve.
var (
	ErrUserNotFound    = fmt.Errorf("user %w", model.ErrNotFound)
	ErrProductNotFound = fmt.Errorf("product %w", model.ErrNotFound)
)

// ErrStale is returned by SaveProduct when the stored version no longer
// matches the expected one.  It is internal to the compare-and-swap loop
// and should not reach handlers.
var ErrStale = errors.New("stale product version")
