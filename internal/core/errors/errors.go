// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidURL indicates a missing or non-absolute URL.
	ErrInvalidURL = errors.New("invalid url")

	// ErrNotWallPost indicates a VK URL that does not address a single wall post.
	ErrNotWallPost = errors.New("not a vk wall post url")
)

// Upstream fetch errors.
var (
	// ErrHTTPStatusNotOK indicates an HTTP response with a non-2xx status code.
	ErrHTTPStatusNotOK = errors.New("HTTP status not OK")

	// ErrTooManyRedirects indicates too many HTTP redirects.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrExtractionFailed indicates every extraction strategy was exhausted.
	ErrExtractionFailed = errors.New("extraction failed")
)

// Response and parsing errors.
var (
	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")

	// ErrNoResults indicates no results were found.
	ErrNoResults = errors.New("no results")
)

// Access and storage errors.
var (
	// ErrUnauthorized indicates missing credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates credentials that do not grant access.
	ErrForbidden = errors.New("forbidden")

	// ErrStorageDisabled indicates that no database is configured.
	ErrStorageDisabled = errors.New("storage disabled")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
