// Package contracts defines the interfaces connecting Vidarr's subsystems.
package contracts

import (
	"context"

	"vidarr/internal/models"
)

// Ledger is the single source of truth for previously retrieved content,
// keyed by fingerprint.
type Ledger interface {
	Lookup(fingerprint string) (*models.DownloadRecord, error)
	Record(rec *models.DownloadRecord) error
	Verify(fingerprint string) error
	Stats() (models.LedgerStats, error)
	CleanupOrphans(verifyFiles bool) (models.CleanupReport, error)
}

// TokenSource hands out the current valid credential and accepts
// invalidation signals from workers that hit auth rejections.
type TokenSource interface {
	GetToken(ctx context.Context) (*models.TokenRecord, error)
	Invalidate(ctx context.Context) error
}

// TokenStore persists the current token record across runs.
type TokenStore interface {
	GetCurrent() (*models.TokenRecord, error)
	Save(rec *models.TokenRecord) error
	MarkValidated(state models.TokenState) error
	Invalidate() error
}

// Renderer is the external page-rendering collaborator: load a page, return
// the token embedded in it.
type Renderer interface {
	ExtractToken(ctx context.Context, pageURL string) (string, error)
}

// Prober makes the cheap authenticated API call used to confirm a token is
// still accepted without a full extraction.
type Prober interface {
	Probe(ctx context.Context, token string) error
}
