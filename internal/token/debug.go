package token

import (
	"context"
	"time"

	"vidarr/internal/models"
	"vidarr/internal/utils/logging"
)

// DebugReport captures the result of exercising every acquisition path,
// for diagnosing authentication problems.
type DebugReport struct {
	Timestamp time.Time

	HasStoredToken  bool
	StoredState     models.TokenState
	StoredAge       time.Duration
	LastValidatedAt time.Time

	ProbeOK  bool
	ProbeErr string

	ExtractionOK  bool
	ExtractionErr string

	Recommendations []string
}

// Debug exercises the probe and extraction paths against the live platform
// and reports what works. Intended for interactive troubleshooting, not for
// the hot path.
func (m *Manager) Debug(ctx context.Context) DebugReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := DebugReport{Timestamp: time.Now()}

	rec, err := m.store.GetCurrent()
	if err == nil && rec != nil {
		report.HasStoredToken = true
		report.StoredState = rec.State
		report.StoredAge = time.Since(rec.ExtractedAt)
		report.LastValidatedAt = rec.LastValidatedAt
	}

	logging.I("Testing validation probe...")
	if report.HasStoredToken && rec.Value != "" {
		if probeErr := m.probe(ctx, rec.Value); probeErr != nil {
			report.ProbeErr = probeErr.Error()
		} else {
			report.ProbeOK = true
		}
	} else {
		report.ProbeErr = "no stored token to probe"
	}

	logging.I("Testing page extraction...")
	if _, extractErr := m.extractOnce(ctx); extractErr != nil {
		report.ExtractionErr = extractErr.Error()
	} else {
		report.ExtractionOK = true
	}

	report.Recommendations = recommendations(report)
	return report
}

// Fix clears cached token state and retries acquisition from scratch.
// Returns the fresh record on success, nil when every path failed.
func (m *Manager) Fix(ctx context.Context) (*models.TokenRecord, error) {
	m.mu.Lock()

	logging.I("Clearing cached token state...")
	if err := m.store.Invalidate(); err != nil {
		logging.W("Failed to invalidate stored token: %v", err)
	}
	m.consecutiveFailures = 0

	m.mu.Unlock()

	rec, err := m.GetToken(ctx)
	if err != nil {
		logging.E("Token recovery failed: %v", err)
		return nil, err
	}

	logging.S("Token recovered successfully")
	return rec, nil
}

// recommendations maps failure combinations to actionable hints.
func recommendations(r DebugReport) []string {
	var recs []string

	if !r.ProbeOK && !r.ExtractionOK {
		recs = append(recs,
			"all acquisition methods failed, the platform API may have changed",
			"check that the platform site is reachable from this machine",
			"retry with a higher debug level for detailed request logs",
		)
		return recs
	}

	if !r.ProbeOK && r.HasStoredToken {
		recs = append(recs, "stored token rejected, run 'token fix' to force re-extraction")
	}

	if !r.ExtractionOK {
		recs = append(recs,
			"page extraction failed, the platform frontend layout may have changed",
			"check browser cookies for the platform domain",
		)
	}

	if r.HasStoredToken && r.StoredAge > 24*time.Hour {
		recs = append(recs, "stored token is over a day old, consider clearing it")
	}

	return recs
}
