// Package downloads runs dedup-aware, rate-limited concurrent media fetches.
package downloads

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"vidarr/internal/contracts"
	"vidarr/internal/domain/consts"
	"vidarr/internal/errs"
	"vidarr/internal/models"
	"vidarr/internal/utils/logging"
)

// Manager is the top-level download orchestrator. It consults the ledger
// before fetching, pulls tokens from the token source, and bounds both
// concurrency and request issue rate.
type Manager struct {
	ledger   contracts.Ledger
	tokens   contracts.TokenSource
	client   *http.Client
	settings models.DownloadSettings
	tracker  *Tracker
}

// NewManager returns a download manager. Settings must already be
// validated and defaulted.
func NewManager(ledger contracts.Ledger, tokens contracts.TokenSource, settings models.DownloadSettings) (*Manager, error) {
	if ledger == nil {
		return nil, errors.New("ledger cannot be nil")
	}
	if tokens == nil {
		return nil, errors.New("token source cannot be nil")
	}
	if settings.Concurrency <= 0 {
		settings.Concurrency = consts.DefaultConcurrency
	}
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = consts.DefaultMaxAttempts
	}
	if settings.BackoffBase <= 0 {
		settings.BackoffBase = consts.DefaultBackoffBase
	}
	if settings.RequestTimeout <= 0 {
		settings.RequestTimeout = consts.DefaultRequestTimeout
	}

	if err := createMediaDirs(settings.BaseDir); err != nil {
		return nil, err
	}

	return &Manager{
		ledger:   ledger,
		tokens:   tokens,
		client:   &http.Client{},
		settings: settings,
		tracker:  NewTracker(),
	}, nil
}

// DownloadAll processes a batch of tasks with bounded concurrency. It never
// fails for individual items; every submitted task gets an outcome, in
// submission order. Only whole-batch setup problems return an error.
func (m *Manager) DownloadAll(ctx context.Context, tasks []models.DownloadTask) ([]models.DownloadOutcome, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	// A batch cannot start without any reachable token, unless individual
	// tasks would all be served from the ledger anyway. Cheapest check:
	// try once up front and fail fast on extraction errors.
	if _, err := m.tokens.GetToken(ctx); err != nil {
		var authErr *errs.AuthExtractionError
		if errors.As(err, &authErr) {
			return nil, fmt.Errorf("no reachable token for batch: %w", err)
		}
		return nil, fmt.Errorf("token acquisition failed before batch: %w", err)
	}

	start := time.Now()
	outcomes := make([]models.DownloadOutcome, len(tasks))

	gate := newRateGate(m.settings.RateInterval)
	jobs := make(chan int)

	m.tracker.Start()

	var wg sync.WaitGroup
	for w := 0; w < m.settings.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = m.runTask(ctx, idx, tasks[idx], gate)
				m.tracker.sendUpdate(outcomes[idx])
			}
		}()
	}

	// Dispatch until done or cancelled. Undispatched tasks get a
	// cancelled outcome below; in-flight ones finish or abort on ctx.
dispatch:
	for i := range tasks {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	for i := range outcomes {
		if outcomes[i].Status == "" {
			outcomes[i] = models.DownloadOutcome{
				Index:     i,
				Task:      tasks[i],
				Status:    models.OutcomeFailed,
				ErrorKind: errs.KindCancelled,
				Err:       ctx.Err(),
			}
			m.tracker.sendUpdate(outcomes[i])
		}
	}

	m.tracker.Stop()
	m.tracker.addElapsed(time.Since(start))

	stats := m.tracker.Stats()
	logging.I("Batch complete: %d downloaded, %d cached, %d on disk, %d failed (%.0f%% success, %d bytes)",
		stats.Downloaded, stats.SkippedCache, stats.SkippedDisk, stats.Failed,
		stats.SuccessRate()*100, stats.TotalBytes)

	return outcomes, nil
}

// Stats returns aggregate statistics accumulated across batches.
func (m *Manager) Stats() models.DownloadStats {
	return m.tracker.Stats()
}

// runTask resolves one task end to end: cache check, fetch with retries,
// hash, ledger write.
func (m *Manager) runTask(ctx context.Context, idx int, task models.DownloadTask, gate *rateGate) models.DownloadOutcome {
	outcome := models.DownloadOutcome{Index: idx, Task: task}

	// Known fingerprint already in the ledger: no network fetch at all.
	if !m.settings.ForceRedownload && task.ExpectedFingerprint != "" {
		rec, err := m.ledger.Lookup(task.ExpectedFingerprint)
		if err != nil {
			logging.E("Ledger lookup failed for %s: %v", task.ExpectedFingerprint, err)
		} else if rec != nil {
			outcome.Status = models.OutcomeSkippedCached
			outcome.Fingerprint = rec.Fingerprint
			outcome.LocalPath = rec.LocalPath
			return outcome
		}
	}

	destPath, err := m.filePath(task)
	if err != nil {
		outcome.Status = models.OutcomeFailed
		outcome.ErrorKind = errs.KindLocalIO
		outcome.Err = err
		return outcome
	}

	// Existing file at the target path: fast path when the caller opted
	// out of re-verification.
	if !m.settings.ForceRedownload && m.settings.SkipVerify {
		if info, statErr := os.Stat(destPath); statErr == nil && info.Size() > 0 {
			outcome.Status = models.OutcomeSkippedExists
			outcome.LocalPath = destPath
			return outcome
		}
	}

	return m.fetchWithRetries(ctx, outcome, task, destPath, gate)
}
