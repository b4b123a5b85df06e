// Package errors provides common, reusable error values and helpers.
package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrClientNotFound         = errors.New("client not found")
	ErrClientAlreadyExists    = errors.New("client already exists")
	ErrBalanceNotFound        = errors.New("client balance not found")
	ErrTradeNotFound          = errors.New("trade not found")
	ErrPersistenceUnavailable = errors.New("persistent store unavailable")

	// Document / capability errors
	ErrCapabilityFailure = errors.New("external capability failure")
	ErrMissingDocument   = errors.New("required document missing")

	// Compliance errors
	ErrStatementMalformed = errors.New("bank statement malformed or missing balance column")
	ErrNoTradesForDay     = errors.New("no trades recorded for the requested day")

	// ID allocation errors
	ErrSequenceUnavailable = errors.New("client id sequence unavailable")
)

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapWith wraps an error with additional context and tags it with a
// sentinel, so callers can match the failure category with Is while the
// original cause stays in the chain.
func WrapWith(err, sentinel error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", message, sentinel, err)
}
