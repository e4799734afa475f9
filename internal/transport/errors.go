package transport

import (
	"context"
	"errors"
	"fmt"
)

// ErrCancelled reports that the upload was aborted by the caller. It is
// distinct from failure: cancelled uploads must not surface as errors.
var ErrCancelled = errors.New("upload cancelled")

// ErrStalled reports that an attempt made no progress within the stall
// timeout. Stalls are treated as transient and retried.
var ErrStalled = errors.New("upload stalled: no progress within timeout")

// TransientError is a retriable transport failure: network errors,
// timeouts, and 5xx-class remote responses. The transport retries these
// internally; callers only see one after retries are exhausted.
type TransientError struct {
	Status int // HTTP status, 0 for network-level failures
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transient upload failure (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("transient upload failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError is a non-retriable transport failure: the remote rejected
// the payload or the authorization (4xx-class). Propagates immediately.
type FatalError struct {
	Status int
	Err    error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("upload rejected (status %d): %v", e.Status, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsTransient reports whether an error should be retried by the backoff
// policy.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsCancellation reports whether an error represents cooperative
// cancellation rather than failure.
func IsCancellation(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}
