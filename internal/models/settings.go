package models

import "time"

// DownloadSettings enumerates every recognized download option. Validated
// once at construction; zero values are filled with defaults by the
// validation package.
type DownloadSettings struct {
	BaseDir         string
	Concurrency     int
	RateInterval    time.Duration
	RequestTimeout  time.Duration
	MaxAttempts     int
	BackoffBase     time.Duration
	ForceRedownload bool

	// SkipVerify enables the fast path that trusts an existing on-disk
	// file at the target path without re-hashing it.
	SkipVerify bool

	// SkipWait disables the random pre-batch stagger.
	SkipWait bool
}

// TokenSettings configures the token lifecycle.
type TokenSettings struct {
	PageURL     string
	Freshness   time.Duration
	MaxAttempts int
	BackoffBase time.Duration
}
