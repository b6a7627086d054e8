package downloads

import (
	"sync"
	"time"

	"vidarr/internal/models"
	"vidarr/internal/utils/logging"
)

// Tracker drains per-task outcomes on a single goroutine and accumulates
// aggregate statistics, so workers never contend on the counters.
type Tracker struct {
	updates chan models.DownloadOutcome
	done    chan struct{}

	mu    sync.Mutex
	stats models.DownloadStats
}

// NewTracker returns an idle tracker; call Start before sending updates.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Start launches the drain goroutine for one batch.
func (t *Tracker) Start() {
	t.updates = make(chan models.DownloadOutcome, 64)
	t.done = make(chan struct{})

	go func() {
		defer close(t.done)
		for outcome := range t.updates {
			t.apply(outcome)
		}
	}()
}

// Stop closes the update stream and waits for the drain to finish.
func (t *Tracker) Stop() {
	if t.updates == nil {
		return
	}
	close(t.updates)
	<-t.done
	t.updates = nil
}

// Stats returns a snapshot of the accumulated statistics.
func (t *Tracker) Stats() models.DownloadStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

func (t *Tracker) sendUpdate(outcome models.DownloadOutcome) {
	if t.updates == nil {
		return
	}
	t.updates <- outcome
}

func (t *Tracker) addElapsed(d time.Duration) {
	t.mu.Lock()
	t.stats.Elapsed += d
	t.mu.Unlock()
}

func (t *Tracker) apply(outcome models.DownloadOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch outcome.Status {
	case models.OutcomeDownloaded:
		t.stats.Downloaded++
		t.stats.TotalBytes += outcome.SizeBytes
	case models.OutcomeSkippedCached:
		t.stats.SkippedCache++
		logging.D(1, "Skipped (ledger hit): %s", outcome.Task.URL)
	case models.OutcomeSkippedExists:
		t.stats.SkippedDisk++
		logging.D(1, "Skipped (on disk): %s", outcome.LocalPath)
	case models.OutcomeFailed:
		t.stats.Failed++
		logging.E("Task %d failed (%s): %v", outcome.Index, outcome.ErrorKind, outcome.Err)
	}
}
