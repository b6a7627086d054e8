// Package times provides wait and stagger timers.
package times

import (
	"context"
	"math/rand/v2"
	"time"

	"vidarr/internal/domain/consts"
	"vidarr/internal/utils/logging"
)

// StartupWait sleeps a short random stagger before a batch begins, so
// scheduled runs do not hit the platform at predictable instants. Skipped
// entirely when skip is set.
func StartupWait(ctx context.Context, skip bool) error {
	if skip {
		logging.D(1, "Skipping pre-batch wait, requests may arrive at predictable intervals")
		return nil
	}

	stagger := RandomSecsDuration(consts.DefaultStartupStaggerSecs)
	if stagger <= 0 {
		return nil
	}

	logging.I("Waiting %v before starting batch (use --skip-wait to disable)", stagger.Round(time.Second))
	return Wait(ctx, stagger)
}

// Wait blocks for the given duration or until the context is cancelled.
func Wait(ctx context.Context, stagger time.Duration) error {
	if stagger <= 0 {
		return ctx.Err()
	}

	waitTimer := time.NewTimer(stagger)
	defer waitTimer.Stop()

	select {
	case <-waitTimer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RandomSecsDuration returns a random duration between 0 and s seconds.
func RandomSecsDuration(s int) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(rand.IntN(s+1)) * time.Second
}
