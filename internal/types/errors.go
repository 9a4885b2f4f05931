package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrMalformedPayload = errors.New("malformed payload: expected JSON")
	ErrInvalidURL       = errors.New("invalid URL")
	ErrEmptyResponse    = errors.New("empty response body")
)

// FetchError wraps transport-level failures (connection, timeout). It is
// distinct from StatusError: a FetchError means no usable HTTP response
// was received at all.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusError reports a non-success HTTP status. Callers interpret it per
// their own termination policy: the testimonial harvester retries a gated
// page with a token, the review API harvester aborts toward its fallback.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// DecodeError wraps failures to decode a payload that was expected to be
// well-formed JSON. Unwraps to ErrMalformedPayload so callers can match
// with errors.Is.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error for %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return ErrMalformedPayload }

// StorageError wraps errors from storage backends.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
