// Package errs defines error values shared across the client.
package errs

import (
	"errors"
	"fmt"
)

var (
	// Session errors
	ErrNotLoggedIn  = errors.New("not logged in")
	ErrSessionEmpty = errors.New("no persisted session")

	// Transport errors
	ErrUnreachable = errors.New("backend unreachable")

	// Handshake errors
	ErrFlowActive    = errors.New("authentication flow already active")
	ErrFlowCancelled = errors.New("authentication cancelled")

	// Entitlement errors
	ErrFreeSessionUsed = errors.New("free session already used")
)

// Wrapf wraps an error with context using fmt.Errorf.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
