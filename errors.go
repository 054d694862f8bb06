package autosave

import (
	"errors"
	"fmt"
)

// LoadError reports a failure from the load callback.
//
// Container.Load returns it and leaves the prior value (if any) unchanged.
type LoadError struct {
	Err error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("autosave: load: %v", e.Err)
}

// Unwrap exposes the underlying callback error.
func (e *LoadError) Unwrap() error { return e.Err }

// SaveError reports a failure from the save callback.
//
// Manual flushes return it from Flush so the caller can react.
// Timer-triggered flushes have no waiting caller: the error goes to the
// configured logger and OnError hook instead, and the state machine keeps
// scheduling future flushes as if the flush had completed. The failed
// snapshot is not retried; continued mutation naturally persists the latest
// state on a later flush.
type SaveError struct {
	// Trigger identifies what started the failed flush.
	Trigger Trigger
	Err     error
}

// Error implements the error interface.
func (e *SaveError) Error() string {
	return fmt.Sprintf("autosave: save (%s): %v", e.Trigger, e.Err)
}

// Unwrap exposes the underlying callback error.
func (e *SaveError) Unwrap() error { return e.Err }

// IsLoadError reports whether err is or wraps a *LoadError.
// Uses errors.As to handle wrapped errors.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// IsSaveError reports whether err is or wraps a *SaveError.
// Uses errors.As to handle wrapped errors.
func IsSaveError(err error) bool {
	var se *SaveError
	return errors.As(err, &se)
}
