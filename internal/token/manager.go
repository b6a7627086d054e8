// Package token manages the authentication token lifecycle: cached reuse,
// cheap validation probes, and full page extraction as a last resort.
package token

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vidarr/internal/contracts"
	"vidarr/internal/domain/consts"
	"vidarr/internal/errs"
	"vidarr/internal/models"
	"vidarr/internal/utils/logging"
)

// Manager orchestrates token acquisition. Refreshes are serialized: when
// several workers discover a stale token at once, the first performs the
// probe/extraction and the rest wait on its result.
type Manager struct {
	store    contracts.TokenStore
	prober   contracts.Prober
	renderer contracts.Renderer
	settings models.TokenSettings

	mu sync.Mutex

	// Extraction circuit breaker state, guarded by mu.
	consecutiveFailures int
	lastFailureAt       time.Time
}

// NewManager returns a token manager wired to its collaborators.
func NewManager(store contracts.TokenStore, prober contracts.Prober, renderer contracts.Renderer, settings models.TokenSettings) *Manager {
	if settings.Freshness <= 0 {
		settings.Freshness = consts.DefaultTokenFreshness
	}
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = consts.DefaultMaxAttempts
	}
	if settings.BackoffBase <= 0 {
		settings.BackoffBase = consts.DefaultBackoffBase
	}
	if settings.PageURL == "" {
		settings.PageURL = consts.SiteBaseURL
	}

	return &Manager{
		store:    store,
		prober:   prober,
		renderer: renderer,
		settings: settings,
	}
}

// GetToken returns a valid token record.
//
// The common case is O(1): a stored record inside the freshness window with
// state valid returns immediately with no network call. A stale record gets
// one cheap probe; only when that fails does the expensive page extraction
// run, bounded by retries with exponential backoff.
func (m *Manager) GetToken(ctx context.Context) (*models.TokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	rec, err := m.store.GetCurrent()
	if err != nil {
		return nil, fmt.Errorf("failed to read token store: %w", err)
	}

	if rec.FreshWithin(m.settings.Freshness, now) {
		logging.D(2, "Using cached token (validated %s ago)", now.Sub(rec.LastValidatedAt).Round(time.Second))
		return rec, nil
	}

	// Stale but not known-invalid: a probe is orders of magnitude cheaper
	// than extraction, so always try it first.
	if rec != nil && rec.Value != "" && rec.State != models.TokenInvalid {
		if err := m.probe(ctx, rec.Value); err == nil {
			if err := m.store.MarkValidated(models.TokenValid); err != nil {
				return nil, err
			}
			rec.State = models.TokenValid
			rec.LastValidatedAt = now
			logging.D(1, "Stale token revalidated by probe")
			return rec, nil
		}
		logging.D(1, "Probe rejected stored token, falling through to extraction")
	}

	return m.extract(ctx)
}

// Invalidate flips the current token to invalid and clears its freshness so
// the next GetToken forces re-extraction.
func (m *Manager) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	logging.W("Token invalidated, next acquisition will re-extract")
	return m.store.Invalidate()
}

// probe runs the cheap validation call with its own timeout.
func (m *Manager) probe(ctx context.Context, tokenValue string) error {
	probeCtx, cancel := context.WithTimeout(ctx, consts.ProbeTimeout)
	defer cancel()

	return m.prober.Probe(probeCtx, tokenValue)
}

// extract performs the full page extraction with retries and backoff.
// Caller must hold mu.
func (m *Manager) extract(ctx context.Context) (*models.TokenRecord, error) {
	if err := m.breakerAllows(); err != nil {
		return nil, &errs.AuthExtractionError{Attempts: 0, Err: err}
	}

	var lastErr error
	for attempt := 1; attempt <= m.settings.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := backoffDelay(m.settings.BackoffBase, attempt-1)
			logging.I("Retrying token extraction in %v (attempt %d/%d)", delay, attempt, m.settings.MaxAttempts)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				m.recordFailure()
				return nil, &errs.AuthExtractionError{Attempts: attempt - 1, Err: ctx.Err()}
			}
		}

		rec, err := m.extractOnce(ctx)
		if err != nil {
			lastErr = err
			logging.W("Token extraction attempt %d/%d failed: %v", attempt, m.settings.MaxAttempts, err)
			continue
		}

		m.consecutiveFailures = 0
		return rec, nil
	}

	m.recordFailure()
	return nil, &errs.AuthExtractionError{Attempts: m.settings.MaxAttempts, Err: lastErr}
}

// extractOnce runs one render + persist + probe cycle.
func (m *Manager) extractOnce(ctx context.Context) (*models.TokenRecord, error) {
	extractCtx, cancel := context.WithTimeout(ctx, consts.ExtractTimeout)
	defer cancel()

	value, err := m.renderer.ExtractToken(extractCtx, m.settings.PageURL)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rec := &models.TokenRecord{
		Value:       value,
		ExtractedAt: now,
		State:       models.TokenUnknown,
	}

	// Persist before probing: a crash between the two leaves a usable
	// unknown-state token rather than nothing.
	if err := m.store.Save(rec); err != nil {
		return nil, err
	}

	if err := m.probe(ctx, value); err != nil {
		if markErr := m.store.MarkValidated(models.TokenInvalid); markErr != nil {
			logging.E("Failed to persist invalid state: %v", markErr)
		}
		return nil, fmt.Errorf("freshly extracted token rejected by probe: %w", err)
	}

	if err := m.store.MarkValidated(models.TokenValid); err != nil {
		return nil, err
	}

	rec.State = models.TokenValid
	rec.LastValidatedAt = time.Now()

	logging.S("Obtained fresh token via page extraction")
	return rec, nil
}

// breakerAllows refuses extraction after repeated consecutive failures
// until the breaker window elapses. Caller must hold mu.
func (m *Manager) breakerAllows() error {
	if m.consecutiveFailures < consts.BreakerThreshold {
		return nil
	}
	if time.Since(m.lastFailureAt) >= consts.BreakerWindow {
		m.consecutiveFailures = 0
		return nil
	}
	return errs.ErrBreakerOpen
}

// recordFailure advances the breaker. Caller must hold mu.
func (m *Manager) recordFailure() {
	m.consecutiveFailures++
	m.lastFailureAt = time.Now()
}

// backoffDelay returns base * 2^(n-1), capped at the ceiling.
func backoffDelay(base time.Duration, n int) time.Duration {
	delay := base
	for i := 1; i < n; i++ {
		delay *= 2
		if delay >= consts.DefaultBackoffCeiling {
			return consts.DefaultBackoffCeiling
		}
	}
	return delay
}
