package crawler

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer throttles the crawl loop to one step per configured delay, so the
// crawler never hammers the remote API however fast the graph walks.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer with the given inter-step delay. A non-positive
// delay disables pacing.
func NewPacer(delay time.Duration) *Pacer {
	if delay <= 0 {
		return &Pacer{}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait blocks until the next step is allowed or ctx is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}
