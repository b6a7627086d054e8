// Package models holds the data structures shared across Vidarr.
package models

import "time"

// MediaKind distinguishes thumbnail and video downloads.
type MediaKind string

const (
	KindThumbnail MediaKind = "thumbnail"
	KindVideo     MediaKind = "video"
)

// DownloadRecord is one previously fetched media file, keyed by content
// fingerprint. At most one live record exists per fingerprint.
type DownloadRecord struct {
	Fingerprint string
	SourceURL   string
	LocalPath   string
	SizeBytes   int64
	MediaKind   MediaKind
	FetchedAt   time.Time
	Verified    bool
}

// DownloadTask is one requested fetch. Produced by the caller per media
// item, consumed exactly once by the download manager.
type DownloadTask struct {
	URL       string
	MediaKind MediaKind
	OwnerID   string
	Title     string

	// ExpectedFingerprint, when set, lets the manager skip the fetch
	// entirely if the ledger already holds the content.
	ExpectedFingerprint string
}

// OutcomeStatus is the terminal state of one download task.
type OutcomeStatus string

const (
	OutcomeDownloaded    OutcomeStatus = "downloaded"
	OutcomeSkippedCached OutcomeStatus = "skipped-cached"
	OutcomeSkippedExists OutcomeStatus = "skipped-exists"
	OutcomeFailed        OutcomeStatus = "failed"
)

// DownloadOutcome reports the result of one task. Outcomes map 1:1 back to
// the submitted task order via Index, regardless of completion order.
type DownloadOutcome struct {
	Index       int
	Task        DownloadTask
	Status      OutcomeStatus
	Fingerprint string
	LocalPath   string
	SizeBytes   int64
	ErrorKind   string
	Err         error
}

// DownloadStats aggregates results across download batches.
type DownloadStats struct {
	Downloaded   int
	SkippedCache int
	SkippedDisk  int
	Failed       int
	TotalBytes   int64
	Elapsed      time.Duration
}

// Total returns the number of completed task outcomes.
func (s DownloadStats) Total() int {
	return s.Downloaded + s.SkippedCache + s.SkippedDisk + s.Failed
}

// SuccessRate returns the fraction of non-failed outcomes, 0..1.
func (s DownloadStats) SuccessRate() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(total-s.Failed) / float64(total)
}

// LedgerStats summarizes ledger contents.
type LedgerStats struct {
	TotalEntries int
	TotalBytes   int64
	ByMediaKind  map[MediaKind]int
}

// CleanupReport summarizes a ledger maintenance pass.
type CleanupReport struct {
	Scanned  int
	Removed  int
	Verified int
	Failed   int
}
