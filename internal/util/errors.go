// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
// Every error returned by a service wraps exactly one of these, so callers
// classify failures with errors.Is (or IsError) rather than by message.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input provided")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnauthorized      = errors.New("not authorized")
	ErrConflict          = errors.New("conflicting state")
)

// IsError reports whether err matches target anywhere in its chain.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
