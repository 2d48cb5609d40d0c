package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	toolerr "railway-gateway/internal/common/errors"
)

// classifyTransportError maps a failed round trip (no HTTP response at all)
// into the taxonomy. Timeouts and connection failures are transient.
func classifyTransportError(ctx context.Context, err error) *toolerr.ToolError {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return toolerr.NewUpstreamError("request canceled", 0, false)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) ||
		strings.Contains(err.Error(), "Client.Timeout") {
		return toolerr.NewUpstreamError(fmt.Sprintf("timeout: %v", err), 0, true)
	}

	return toolerr.NewUpstreamError(fmt.Sprintf("connection failure: %v", err), 0, true)
}

// classifyStatus maps a non-2xx HTTP response into the taxonomy.
// 429 and rate-limit bodies are throttling; 5xx is transient; any other
// 4xx means the provider rejected the request and retrying cannot help.
func classifyStatus(status int, body []byte) *toolerr.ToolError {
	if status == http.StatusTooManyRequests || isRateLimitBody(body) {
		return toolerr.NewRateLimitError(fmt.Sprintf("status %d: %s", status, truncate(body, 200)))
	}
	if status >= 500 {
		return toolerr.NewUpstreamError(fmt.Sprintf("provider returned %d", status), status, true)
	}
	return toolerr.NewUpstreamError(fmt.Sprintf("provider returned %d: %s", status, truncate(body, 200)), status, false)
}

// isRateLimitBody detects provider-specific throttle messages that arrive
// without a 429 status.
func isRateLimitBody(body []byte) bool {
	var msg struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &msg); err != nil {
		return false
	}
	lower := strings.ToLower(msg.Message)
	return strings.Contains(lower, "rate limit") || strings.Contains(lower, "too many requests")
}

func truncate(b []byte, n int) string {
	s := string(b)
	if len(s) > n {
		return s[:n]
	}
	return s
}
