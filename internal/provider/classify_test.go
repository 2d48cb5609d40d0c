package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	toolerr "railway-gateway/internal/common/errors"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantCode      toolerr.ErrorCode
		wantRetryable bool
	}{
		{"throttled", 429, `{"message":"quota exceeded"}`, toolerr.ErrCodeRateLimited, true},
		{"throttle message without 429", 503, `{"message":"Rate limit exceeded for your plan"}`, toolerr.ErrCodeRateLimited, true},
		{"server error", 500, ``, toolerr.ErrCodeUpstreamError, true},
		{"bad gateway", 502, ``, toolerr.ErrCodeUpstreamError, true},
		{"not found", 404, `{"message":"no such train"}`, toolerr.ErrCodeUpstreamError, false},
		{"bad request", 400, ``, toolerr.ErrCodeUpstreamError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := classifyStatus(tt.status, []byte(tt.body))
			assert.Equal(t, tt.wantCode, te.Code)
			assert.Equal(t, tt.wantRetryable, te.Retryable)
		})
	}
}

func TestClassifyTransportError(t *testing.T) {
	bg := context.Background()

	te := classifyTransportError(bg, context.DeadlineExceeded)
	assert.True(t, te.Retryable, "a slow provider may answer next time")

	canceled, cancel := context.WithCancel(bg)
	cancel()
	te = classifyTransportError(canceled, canceled.Err())
	assert.False(t, te.Retryable, "the caller walked away; retrying is pointless")

	te = classifyTransportError(bg, errors.New("dial tcp: connection refused"))
	assert.True(t, te.Retryable)
	assert.Equal(t, toolerr.ErrCodeUpstreamError, te.Code)
}

func TestBackoffDelay_Bounds(t *testing.T) {
	initial := 250 * time.Millisecond
	max := 2 * time.Second

	for attempt := 0; attempt < 10; attempt++ {
		base := initial << uint(attempt)
		if base > max || base <= 0 {
			base = max
		}
		for i := 0; i < 50; i++ {
			d := backoffDelay(attempt, initial, max)
			require.GreaterOrEqual(t, d, base/2, "attempt %d under jitter floor", attempt)
			require.Less(t, d, base+base/2+time.Millisecond, "attempt %d over jitter ceiling", attempt)
		}
	}
}
