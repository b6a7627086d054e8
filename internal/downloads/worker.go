package downloads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"vidarr/internal/domain/consts"
	"vidarr/internal/errs"
	"vidarr/internal/hashing"
	"vidarr/internal/models"
	"vidarr/internal/utils/logging"
)

// fetchWithRetries drives the retry loop for one task. Transport errors and
// 5xx/429 responses retry with exponential backoff; an auth rejection gets
// exactly one token invalidation and one same-attempt retry before counting
// as a failure.
func (m *Manager) fetchWithRetries(ctx context.Context, outcome models.DownloadOutcome, task models.DownloadTask, destPath string, gate *rateGate) models.DownloadOutcome {
	var (
		lastErr     error
		authRetried bool
	)

	for attempt := 1; attempt <= m.settings.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := backoffDelay(m.settings.BackoffBase, attempt-1)
			logging.D(1, "Retrying %s in %v (attempt %d/%d)", task.URL, delay, attempt, m.settings.MaxAttempts)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return failedOutcome(outcome, ctx.Err())
			}
		}

		fp, size, err := m.fetchOnce(ctx, task, destPath, gate)
		if err == nil {
			return m.finalize(outcome, task, destPath, fp, size)
		}
		lastErr = err

		if errors.Is(err, errs.ErrAuthRejected) && !authRetried {
			authRetried = true
			logging.W("Auth rejected for %s, invalidating token and retrying once", task.URL)
			if invErr := m.tokens.Invalidate(ctx); invErr != nil {
				logging.E("Token invalidation failed: %v", invErr)
			}
			attempt-- // auth retry does not consume a transport attempt
			continue
		}

		if !errs.Retryable(err) {
			break
		}
		logging.W("Fetch attempt %d/%d for %s failed: %v", attempt, m.settings.MaxAttempts, task.URL, err)
	}

	return failedOutcome(outcome, lastErr)
}

// fetchOnce performs a single rate-gated HTTP fetch, streaming the body to a
// temp file while hashing it. On success the temp file sits at destPath+".part"
// and the content fingerprint and byte count are returned.
func (m *Manager) fetchOnce(ctx context.Context, task models.DownloadTask, destPath string, gate *rateGate) (string, int64, error) {
	rec, err := m.tokens.GetToken(ctx)
	if err != nil {
		return "", 0, err
	}

	if err := gate.Wait(ctx); err != nil {
		return "", 0, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, m.settings.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, task.URL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("bad download URL %q: %w", task.URL, err)
	}
	req.Header.Set("User-Agent", consts.UserAgent)
	req.Header.Set("Referer", consts.SiteBaseURL+"/")
	if rec != nil && rec.Value != "" {
		req.Header.Set(consts.TokenHeader, rec.Value)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("fetch %s: %w", task.URL, err)
	}
	defer resp.Body.Close()

	if err := errs.ClassifyStatus(resp.StatusCode); err != nil {
		return "", 0, err
	}

	return m.streamToTemp(destPath, resp.Body)
}

// streamToTemp writes the body to a ".part" sibling of destPath, hashing
// while writing. Partial files are removed on any error.
func (m *Manager) streamToTemp(destPath string, body io.Reader) (string, int64, error) {
	tmpPath := destPath + ".part"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", 0, fmt.Errorf("%w: creating %s: %v", errs.ErrLocalIO, tmpPath, err)
	}

	digest := hashing.NewDigest()
	_, copyErr := io.Copy(io.MultiWriter(f, digest), body)

	if closeErr := f.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			logging.E("Failed to remove partial file %s: %v", tmpPath, rmErr)
		}
		return "", 0, fmt.Errorf("streaming to %s: %w", tmpPath, copyErr)
	}

	return digest.Fingerprint(), digest.Size(), nil
}

// finalize commits a completed fetch: coalesce against the ledger, or move
// the temp file into place and record it.
func (m *Manager) finalize(outcome models.DownloadOutcome, task models.DownloadTask, destPath, fingerprint string, size int64) models.DownloadOutcome {
	tmpPath := destPath + ".part"

	// Identical bytes already recorded under another path: drop our copy
	// and point at the canonical file.
	if !m.settings.ForceRedownload {
		existing, err := m.ledger.Lookup(fingerprint)
		if err != nil {
			logging.E("Ledger lookup during finalize failed: %v", err)
		} else if existing != nil && existing.LocalPath != destPath {
			if rmErr := os.Remove(tmpPath); rmErr != nil {
				logging.E("Failed to remove duplicate %s: %v", tmpPath, rmErr)
			}
			logging.I("Coalesced duplicate content %s -> %s", task.URL, existing.LocalPath)
			outcome.Status = models.OutcomeSkippedCached
			outcome.Fingerprint = fingerprint
			outcome.LocalPath = existing.LocalPath
			return outcome
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			logging.D(1, "Cleanup of %s after rename failure: %v", tmpPath, rmErr)
		}
		return failedOutcome(outcome, fmt.Errorf("%w: moving %s into place: %v", errs.ErrLocalIO, destPath, err))
	}

	rec := &models.DownloadRecord{
		Fingerprint: fingerprint,
		SourceURL:   task.URL,
		LocalPath:   destPath,
		SizeBytes:   size,
		MediaKind:   task.MediaKind,
		FetchedAt:   time.Now(),
	}

	if err := m.ledger.Record(rec); err != nil {
		var conflict *errs.ConflictError
		if errors.As(err, &conflict) {
			return failedOutcome(outcome, err)
		}
		logging.E("Ledger record failed for %s: %v", destPath, err)
		return failedOutcome(outcome, err)
	}

	// A concurrent worker may have won the insert with the same bytes at a
	// different path. Defer to the canonical entry it wrote.
	if winner, err := m.ledger.Lookup(fingerprint); err == nil && winner != nil && winner.LocalPath != destPath {
		if rmErr := os.Remove(destPath); rmErr != nil {
			logging.E("Failed to remove duplicate %s: %v", destPath, rmErr)
		}
		outcome.Status = models.OutcomeSkippedCached
		outcome.Fingerprint = fingerprint
		outcome.LocalPath = winner.LocalPath
		return outcome
	}

	logging.S("Downloaded %s (%d bytes) -> %s", task.URL, size, destPath)
	outcome.Status = models.OutcomeDownloaded
	outcome.Fingerprint = fingerprint
	outcome.LocalPath = destPath
	outcome.SizeBytes = size
	return outcome
}

// failedOutcome fills a terminal failure with its taxonomy kind.
func failedOutcome(outcome models.DownloadOutcome, err error) models.DownloadOutcome {
	outcome.Status = models.OutcomeFailed
	outcome.ErrorKind = errs.Kind(err)
	outcome.Err = err
	return outcome
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
