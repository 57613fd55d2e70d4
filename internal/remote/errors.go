package remote

import (
	"errors"
	"fmt"
)

// Failure classes of a remote conversion. Every error returned by Client
// wraps exactly one of them.
var (
	// ErrUnavailable covers transport failures, timeouts, cancellation and an
	// open circuit breaker.
	ErrUnavailable = errors.New("conversion service unavailable")

	// ErrRejected means the service answered with a non-2xx status.
	ErrRejected = errors.New("conversion service rejected the request")

	// ErrMalformedResponse means a 2xx answer had an empty body or the wrong
	// media type.
	ErrMalformedResponse = errors.New("malformed conversion service response")
)

// StatusError carries the status and error message of a rejected request.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("conversion service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("conversion service returned status %d: %s", e.StatusCode, e.Message)
}

// Unwrap makes errors.Is(err, ErrRejected) hold for every StatusError.
func (e *StatusError) Unwrap() error {
	return ErrRejected
}
