package analytics

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUpstreamTimeout means the record store did not answer within the
	// query timeout.
	ErrUpstreamTimeout = errors.New("record store timed out")
	// ErrUpstreamFailure means the record store returned an error.
	ErrUpstreamFailure = errors.New("record store unavailable")
)

// UpstreamError wraps a failed record store call. A request that hits one
// returns no partial view.
type UpstreamError struct {
	Op   string
	Kind error
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is matches the kind sentinel; errors.Is reaches the cause through Unwrap.
func (e *UpstreamError) Is(target error) bool {
	return target == e.Kind
}

// Code is a stable machine-readable identifier for API payloads.
func (e *UpstreamError) Code() string {
	if e.Kind == ErrUpstreamTimeout {
		return "upstream_timeout"
	}
	return "upstream_failure"
}

// upstreamError classifies a store error. Cancellation by the caller is
// returned as is: nobody is waiting for the view any more.
func upstreamError(op string, parent context.Context, err error) error {
	if errors.Is(parent.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &UpstreamError{Op: op, Kind: ErrUpstreamTimeout, Err: err}
	}
	return &UpstreamError{Op: op, Kind: ErrUpstreamFailure, Err: err}
}
