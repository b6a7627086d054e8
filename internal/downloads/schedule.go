package downloads

import (
	"context"
	"sync"
	"time"
)

// rateGate spaces out request starts across all workers. Workers block in
// Wait until their reserved slot arrives; downloads already in flight are
// unaffected.
type rateGate struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

func newRateGate(interval time.Duration) *rateGate {
	return &rateGate{interval: interval}
}

// Wait blocks until this caller's start slot. Returns early with the context
// error on cancellation. A zero interval disables gating.
func (g *rateGate) Wait(ctx context.Context) error {
	if g.interval <= 0 {
		return ctx.Err()
	}

	g.mu.Lock()
	now := time.Now()
	if g.next.Before(now) {
		g.next = now
	}
	wait := g.next.Sub(now)
	g.next = g.next.Add(g.interval)
	g.mu.Unlock()

	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
