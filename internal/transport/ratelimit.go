package transport

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum spacing between consecutive outbound requests.
// It wraps rate.Limiter configured for one request per interval with no
// burst headroom, so consecutive Waits are spaced at least interval apart.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer with the given minimum inter-request interval.
// A zero or negative interval disables pacing entirely.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{}
	}
	return &Pacer{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Wait blocks until the next request is allowed. It never fails under normal
// operation; the only error path is context cancellation.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
