package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrLevel1Failed     = errors.New("level 1 did not succeed")
	ErrLevel2Failed     = errors.New("level 2 did not succeed")
	ErrValidationURL    = errors.New("validation url is required in production")
	ErrBackendURL       = errors.New("backend url is required")
	ErrProtocolRejected = errors.New("backend rejected submission")
	ErrPollingCancelled = errors.New("polling cancelled")
)

// CircuitOpenError is raised by a breaker that is rejecting calls. It is
// a distinct signal consumed by fallback policy, never swallowed.
type CircuitOpenError struct {
	Service    string
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit open for service %s (retry after %s)", e.Service, e.RetryAfter)
}

// TransportError wraps an HTTP-layer failure: timeout, connection error,
// or a non-2xx status.
type TransportError struct {
	Service    string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s: request timed out", e.Service)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: unexpected status %d", e.Service, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %v", e.Service, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError reports whether the failure came back as a 5xx.
func (e *TransportError) ServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode <= 599
}
