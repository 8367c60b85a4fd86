package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy surfaced to callers. Every upstream failure maps to
// exactly one of these so the route layer can pick a status code
// without inspecting raw HTTP responses.
var (
	ErrUnauthorized        = errors.New("upstream rejected token")
	ErrRateLimited         = errors.New("upstream rate limited")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrTimeout             = errors.New("upstream call timed out")
	ErrInvalidRequest      = errors.New("upstream rejected request")
	ErrUnknown             = errors.New("upstream call failed")
)

// PartialAddError reports a chunked add-tracks call that failed after
// some chunks had already been committed upstream.
type PartialAddError struct {
	Committed int // chunks successfully applied before the failure
	Err       error
}

func (e *PartialAddError) Error() string {
	return fmt.Sprintf("add tracks failed after %d committed chunks: %v", e.Committed, e.Err)
}

func (e *PartialAddError) Unwrap() error { return e.Err }

// classifyStatus maps an upstream HTTP status to the error taxonomy.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status >= 500:
		return ErrUpstreamUnavailable
	case status >= 400:
		return ErrInvalidRequest
	default:
		return ErrUnknown
	}
}

// classifyErr maps a transport-level failure to the error taxonomy.
// Errors already classified pass through unchanged.
func classifyErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrUpstreamUnavailable),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrUnknown):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnknown, err)
	}
}

// retryable reports whether an error is worth another attempt: network
// failures, rate limits, 5xx responses and timeouts. Auth and request
// shape errors will not get better on retry.
func retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrUnknown)
}
