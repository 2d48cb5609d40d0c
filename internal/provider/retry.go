package provider

import (
	"math/rand"
	"time"
)

// backoffDelay returns the sleep before retry attempt n (0-based):
// exponential growth capped at max, with +/-50% jitter so fan-out siblings
// retrying against the same provider quota do not align.
func backoffDelay(attempt int, initial, max time.Duration) time.Duration {
	d := initial << uint(attempt)
	if d > max || d <= 0 {
		d = max
	}
	return d/2 + time.Duration(rand.Int63n(int64(d)))
}
