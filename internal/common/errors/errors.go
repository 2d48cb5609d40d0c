// Package errors provides the typed error taxonomy for the tool-dispatch gateway.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Error Codes
// ==========================

// ErrorCode identifies the failure kind reported back to the orchestrator.
type ErrorCode string

const (
	// ErrCodeValidationFailed: malformed caller input, detected before any I/O.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// ErrCodeStationResolutionFailed: unknown place name, no partial matching.
	ErrCodeStationResolutionFailed ErrorCode = "STATION_RESOLUTION_FAILED"

	// ErrCodeUpstreamError: transport or provider failure; Retryable tells
	// the branch retry loop whether another attempt can help.
	ErrCodeUpstreamError ErrorCode = "UPSTREAM_ERROR"

	// ErrCodeUpstreamDataInvalid: well-formed transport response whose payload
	// cannot be normalized. Data is the problem, not connectivity.
	ErrCodeUpstreamDataInvalid ErrorCode = "UPSTREAM_DATA_INVALID"

	// ErrCodeRateLimited: provider throttling, retryable with backoff.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// ==========================
// 2. ToolError
// ==========================

// ToolError is the structured error every gateway failure resolves to.
// No failure crashes the process; this is always a return value.
type ToolError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	Retryable  bool      `json:"retryable"`
	StatusCode int       `json:"statusCode,omitempty"` // upstream HTTP status, when known
	Timestamp  time.Time `json:"timestamp"`
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("ToolError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 3. Constructors
// ==========================

// NewValidationError creates a non-retryable caller-input error.
func NewValidationError(details string) *ToolError {
	return &ToolError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request argument validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResolutionError creates a non-retryable unknown-place-name error.
func NewResolutionError(name string) *ToolError {
	return &ToolError{
		Code:      ErrCodeStationResolutionFailed,
		Message:   "No station code known for place name",
		Details:   fmt.Sprintf("name: %q", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamError creates a transport/provider error. statusCode is 0 when
// the request never produced an HTTP response.
func NewUpstreamError(details string, statusCode int, retryable bool) *ToolError {
	return &ToolError{
		Code:       ErrCodeUpstreamError,
		Message:    "Upstream provider call failed",
		Details:    details,
		Retryable:  retryable,
		StatusCode: statusCode,
		Timestamp:  time.Now().UTC(),
	}
}

// NewUpstreamDataError creates a non-retryable unusable-payload error.
func NewUpstreamDataError(operation, details string) *ToolError {
	return &ToolError{
		Code:      ErrCodeUpstreamDataInvalid,
		Message:   "Upstream payload missing required data",
		Details:   fmt.Sprintf("operation: %s, %s", operation, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRateLimitError creates a retryable provider-throttling error.
func NewRateLimitError(details string) *ToolError {
	return &ToolError{
		Code:       ErrCodeRateLimited,
		Message:    "Upstream provider rate limit hit",
		Details:    details,
		Retryable:  true,
		StatusCode: 429,
		Timestamp:  time.Now().UTC(),
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// AsToolError unwraps err into a *ToolError if it carries one.
func AsToolError(err error) (*ToolError, bool) {
	var te *ToolError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// IsRetryable reports whether another attempt at the same call can succeed.
// Validation and resolution failures are never transient.
func IsRetryable(err error) bool {
	if te, ok := AsToolError(err); ok {
		return te.Retryable
	}
	return false
}

// Kind returns the error code, or UPSTREAM_ERROR for untyped errors that
// escaped classification.
func Kind(err error) ErrorCode {
	if te, ok := AsToolError(err); ok {
		return te.Code
	}
	return ErrCodeUpstreamError
}
