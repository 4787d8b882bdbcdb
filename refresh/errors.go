package refresh

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionInvalidated is in the chain of every terminal
	// authentication failure. Callers should send the user back to login.
	ErrSessionInvalidated = errors.New("session invalidated")

	ErrNoRefreshToken  = errors.New("no refresh token available")
	ErrRefreshPanicked = errors.New("refresh panicked")

	// ErrSessionChanged means a login or logout replaced the credential
	// while the cycle was running. The cycle's result is discarded.
	ErrSessionChanged = errors.New("session changed during refresh")
)

// InvalidatedError is the single error value every waiter of a failed
// refresh cycle receives. It matches ErrSessionInvalidated and unwraps to
// the cause.
type InvalidatedError struct {
	Cause error
}

func (e *InvalidatedError) Error() string {
	return fmt.Sprintf("%s: %v", ErrSessionInvalidated, e.Cause)
}

func (e *InvalidatedError) Is(target error) bool {
	return target == ErrSessionInvalidated
}

func (e *InvalidatedError) Unwrap() error {
	return e.Cause
}
