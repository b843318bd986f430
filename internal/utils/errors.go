// Package utils provides error and logging utilities shared across the
// extraction pipeline.
package utils

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind categorizes extraction failures for callers that need to branch
// on the failure class rather than the message.
type ErrorKind string

const (
	KindInvalidURL  ErrorKind = "INVALID_URL"
	KindFetchFailed ErrorKind = "FETCH_FAILED"
	KindParseFailed ErrorKind = "PARSE_FAILED"
	KindTimeout     ErrorKind = "TIMEOUT"
	KindRateLimit   ErrorKind = "RATE_LIMIT"
	KindBlocked     ErrorKind = "BLOCKED"
	KindNotFound    ErrorKind = "NOT_FOUND"
	KindServerError ErrorKind = "SERVER_ERROR"
	KindCacheError  ErrorKind = "CACHE_ERROR"
)

// ExtractionError is the typed error returned by every pipeline stage. URL is
// the originating input URL; StatusCode is set only for HTTP-level failures.
type ExtractionError struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	URL        string    `json:"url,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	Cause      error     `json:"-"`
	Retryable  bool      `json:"retryable"`
	Timestamp  time.Time `json:"timestamp"`
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// Is matches two extraction errors by kind so callers can use errors.Is with
// a bare kind sentinel.
func (e *ExtractionError) Is(target error) bool {
	if te, ok := target.(*ExtractionError); ok {
		return e.Kind == te.Kind
	}
	return false
}

// WithStatus attaches the HTTP status code that produced the error.
func (e *ExtractionError) WithStatus(code int) *ExtractionError {
	e.StatusCode = code
	return e
}

// WithCause attaches the underlying error.
func (e *ExtractionError) WithCause(cause error) *ExtractionError {
	e.Cause = cause
	return e
}

// WithRetryable marks whether the caller may retry the operation.
func (e *ExtractionError) WithRetryable(retryable bool) *ExtractionError {
	e.Retryable = retryable
	return e
}

// NewExtractionError creates a typed error for the given URL.
func NewExtractionError(kind ErrorKind, message, url string) *ExtractionError {
	return &ExtractionError{
		Kind:      kind,
		Message:   message,
		URL:       url,
		Retryable: defaultRetryable(kind),
		Timestamp: time.Now(),
	}
}

// KindOf extracts the error kind from any error in the chain. Errors outside
// the pipeline report an empty kind.
func KindOf(err error) ErrorKind {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// KindForStatus maps an HTTP response status to the error kind the pipeline
// reports for it.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == http.StatusForbidden || status == http.StatusUnavailableForLegalReasons:
		return KindBlocked
	case status == http.StatusNotFound || status == http.StatusGone:
		return KindNotFound
	case status >= 500:
		return KindServerError
	default:
		return KindFetchFailed
	}
}

// defaultRetryable encodes which failure classes are worth retrying. Invalid
// input and parse failures are deterministic; transient network and server
// conditions are not.
func defaultRetryable(kind ErrorKind) bool {
	switch kind {
	case KindTimeout, KindRateLimit, KindServerError, KindFetchFailed:
		return true
	default:
		return false
	}
}
