package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryability(t *testing.T) {
	assert.False(t, IsRetryable(NewValidationError("bad pnr")))
	assert.False(t, IsRetryable(NewResolutionError("Atlantis")))
	assert.False(t, IsRetryable(NewUpstreamDataError("get_pnr_status", "empty data field")))
	assert.True(t, IsRetryable(NewRateLimitError("quota")))
	assert.True(t, IsRetryable(NewUpstreamError("503", 503, true)))
	assert.False(t, IsRetryable(NewUpstreamError("404", 404, false)))
	assert.False(t, IsRetryable(fmt.Errorf("plain error")), "untyped errors are never retried")
}

func TestKindUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("branch NDLS->CNB: %w", NewRateLimitError("quota"))
	assert.Equal(t, ErrCodeRateLimited, Kind(wrapped))
	assert.True(t, IsRetryable(wrapped))

	te, ok := AsToolError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, 429, te.StatusCode)
}

func TestKindFallback(t *testing.T) {
	assert.Equal(t, ErrCodeUpstreamError, Kind(fmt.Errorf("boom")))
}

func TestErrorString(t *testing.T) {
	err := NewValidationError("pnr must be exactly 10 digits")
	assert.Contains(t, err.Error(), "VALIDATION_FAILED")
	assert.NotContains(t, err.Error(), "10 digits", "details stay out of the terse form")
}
