package domain

import "errors"

// ErrNotFound is returned when the requested resource does not exist: an
// unknown trip id at the HTTP layer, or a missing key in a blob store.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, malformed email).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// The fetch taxonomy is closed: every LoadTrips/LoadStops failure wraps exactly
// one of the three sentinels below, together with its underlying cause.
// None of them is retried.
var (
	// ErrInvalidURL reports a configuration defect. It is raised before any I/O.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrRequestFailed wraps a transport-level failure (connectivity, TLS,
	// cancelled context, truncated body).
	ErrRequestFailed = errors.New("request failed")

	// ErrDecodingFailed wraps a payload that does not match the expected shape.
	ErrDecodingFailed = errors.New("decoding failed")
)
