// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
//
// Upstream scrape failures are additionally classified by Kind, which decides
// the user-facing message of an error card.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Upstream fetch errors.
var (
	// ErrAccessDenied indicates the upstream rejected the request (HTTP 403 or an anti-bot challenge).
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")

	// ErrUpstreamStatus indicates the upstream answered with an unexpected status code.
	ErrUpstreamStatus = errors.New("unexpected upstream status")

	// ErrTooManyRedirects indicates too many HTTP redirects.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// Response and parsing errors.
var (
	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")

	// ErrParse indicates an expected structure was absent from an upstream response.
	ErrParse = errors.New("parse failure")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidID indicates an invalid identifier.
	ErrInvalidID = errors.New("invalid id")

	// ErrUnknownSource indicates a source name that no previewer is registered for.
	ErrUnknownSource = errors.New("unknown source")
)

// Kind classifies a scrape failure.
type Kind int

const (
	// KindNotMatched means the input does not reference the platform. It is not a failure.
	KindNotMatched Kind = iota
	// KindRejected means the upstream refused the request (403, challenge page).
	KindRejected
	// KindNotFound means the content does not exist (404, empty result, "not found" markers).
	KindNotFound
	// KindUnavailable means a non-2xx status, network failure or timeout.
	KindUnavailable
	// KindParse means the expected structure was absent from the response.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindNotMatched:
		return "not_matched"
	case KindRejected:
		return "rejected"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// ScrapeError is a terminal failure of one scrape request.
// Message is shown to the user verbatim.
type ScrapeError struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Rejected returns a KindRejected error for the named platform.
func Rejected(platform string) *ScrapeError {
	return &ScrapeError{
		Kind:    KindRejected,
		Status:  http.StatusForbidden,
		Message: fmt.Sprintf("Access Denied (403). %s might be behind Cloudflare verification.", platform),
		Err:     ErrAccessDenied,
	}
}

// NotFound returns a KindNotFound error with the given user-facing message.
func NotFound(message string) *ScrapeError {
	return &ScrapeError{
		Kind:    KindNotFound,
		Status:  http.StatusNotFound,
		Message: message,
		Err:     ErrNotFound,
	}
}

// Unavailable returns a KindUnavailable error for a non-2xx status.
func Unavailable(status int) *ScrapeError {
	return &ScrapeError{
		Kind:    KindUnavailable,
		Status:  status,
		Message: fmt.Sprintf("Server returned status %d", status),
		Err:     ErrUpstreamStatus,
	}
}

// ParseFailure returns a KindParse error naming what could not be extracted.
func ParseFailure(what string) *ScrapeError {
	return &ScrapeError{
		Kind:    KindParse,
		Message: fmt.Sprintf("Could not extract %s.", what),
		Err:     ErrParse,
	}
}

// KindOf classifies any error. Errors that are not a ScrapeError are treated
// as network-level failures.
func KindOf(err error) Kind {
	if err == nil {
		return KindNotMatched
	}

	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Kind
	}

	switch {
	case errors.Is(err, ErrAccessDenied):
		return KindRejected
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrParse), errors.Is(err, ErrEmptyResponse):
		return KindParse
	default:
		return KindUnavailable
	}
}

// UserMessage returns the message to show for err, or fallback when err
// carries no user-facing text.
func UserMessage(err error, fallback string) string {
	var se *ScrapeError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}

	return fallback
}

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
