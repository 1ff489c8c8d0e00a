/*
errors.go - Centralized error types for the shop core

PURPOSE:
  All sentinel errors in one place. Callers use errors.Is to classify;
  the HTTP layer maps classes to status codes.

ERROR CATEGORIES:
  1. Validation errors - malformed input (empty fields, bad price text)
  2. Not-found errors - missing item or account
  3. Denial errors - permission or cooldown rejections (internal only;
     Consume collapses these to a plain false so existence information
     never leaks to callers)

SEE ALSO:
  - catalog.go, authorize.go: Producers of these errors
  - api/handlers.go: Status-code mapping
*/
package shop

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmptyField is returned when a required identifier or text field is empty.
	ErrEmptyField = errors.New("required field is empty")

	// ErrDuplicateItem is returned when creating an item whose id already exists.
	ErrDuplicateItem = errors.New("item id already exists")

	// ErrItemNotFound is returned when no item exists for the given id.
	ErrItemNotFound = errors.New("item not found")

	// ErrAccountNotFound is returned when no account exists for the given id.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidPrice is returned when price text fails parsing, scale, or bounds.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrPermissionDenied is returned when the role matrix rejects a purchase.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrCooldownActive is returned when the bearer is inside its cooldown window.
	ErrCooldownActive = errors.New("purchase cooldown active")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// PriceError carries the offending text and the specific rule violated.
type PriceError struct {
	Text   string
	Reason string
}

func (e *PriceError) Error() string {
	return fmt.Sprintf("invalid price %q: %s", e.Text, e.Reason)
}

func (e *PriceError) Unwrap() error { return ErrInvalidPrice }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrAccountNotFound)
}

// IsValidation reports whether the error is due to invalid client input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyField) ||
		errors.Is(err, ErrDuplicateItem) ||
		errors.Is(err, ErrInvalidPrice)
}
