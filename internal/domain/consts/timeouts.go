package consts

import "time"

// Timing defaults
const (
	ProbeTimeout   = 10 * time.Second
	ExtractTimeout = 30 * time.Second

	DefaultRequestTimeout = 30 * time.Second
	DefaultRateInterval   = 500 * time.Millisecond

	// DefaultTokenFreshness is the window inside which a validated token is
	// returned without any network call.
	DefaultTokenFreshness = 30 * time.Minute

	// Extraction circuit breaker: after BreakerThreshold consecutive
	// extraction failures, further attempts are refused until
	// BreakerWindow has elapsed.
	BreakerThreshold = 3
	BreakerWindow    = 5 * time.Minute
)

// Retry defaults
const (
	DefaultMaxAttempts    = 3
	DefaultBackoffBase    = 1 * time.Second
	DefaultBackoffCeiling = 10 * time.Second

	DefaultConcurrency = 3

	// DefaultStartupStaggerSecs bounds the random pre-batch wait that keeps
	// scheduled runs off predictable instants.
	DefaultStartupStaggerSecs = 10
)
