package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vidarr/internal/database"
	"vidarr/internal/errs"
	"vidarr/internal/hashing"
	"vidarr/internal/models"
)

// testStore opens a throwaway sqlite database with the schema applied.
func testStore(t *testing.T) *LedgerStore {
	t.Helper()

	dbc, err := database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to init test database: %v", err)
	}
	t.Cleanup(func() {
		if err := dbc.DB.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	return GetLedgerStore(dbc.DB)
}

// writeTestFile writes content to a temp file and returns its path and
// fingerprint.
func writeTestFile(t *testing.T, dir, name, content string) (path, fingerprint string) {
	t.Helper()

	path = filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	fp, _, err := hashing.File(path)
	if err != nil {
		t.Fatal(err)
	}
	return path, fp
}

func testRecord(fingerprint, path string) *models.DownloadRecord {
	return &models.DownloadRecord{
		Fingerprint: fingerprint,
		SourceURL:   "https://example.com/media.mp4",
		LocalPath:   path,
		SizeBytes:   11,
		MediaKind:   models.KindVideo,
		FetchedAt:   time.Now(),
	}
}

// TestLedgerRecordAndLookup tests the basic write/read roundtrip.
func TestLedgerRecordAndLookup(t *testing.T) {
	t.Parallel()
	store := testStore(t)
	dir := t.TempDir()

	path, fp := writeTestFile(t, dir, "a.mp4", "hello world")

	if err := store.Record(testRecord(fp, path)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := store.Lookup(fp)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a record, got nil")
	}
	if got.LocalPath != path || got.MediaKind != models.KindVideo {
		t.Errorf("record mismatch: %+v", got)
	}
}

// TestLedgerLookupMissing tests that an unknown fingerprint returns nil, nil.
func TestLedgerLookupMissing(t *testing.T) {
	t.Parallel()
	store := testStore(t)

	got, err := store.Lookup("deadbeef")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown fingerprint, got %+v", got)
	}
}

// TestLedgerRecordIdempotent tests that re-recording the same path succeeds
// silently and keeps one entry.
func TestLedgerRecordIdempotent(t *testing.T) {
	t.Parallel()
	store := testStore(t)
	dir := t.TempDir()

	path, fp := writeTestFile(t, dir, "a.mp4", "hello world")

	for i := 0; i < 3; i++ {
		if err := store.Record(testRecord(fp, path)); err != nil {
			t.Fatalf("Record %d failed: %v", i, err)
		}
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalEntries != 1 {
		t.Errorf("expected 1 entry after repeat records, got %d", stats.TotalEntries)
	}
}

// TestLedgerCoalesceIdenticalContent tests that the same bytes from a second
// path coalesce into the first record.
func TestLedgerCoalesceIdenticalContent(t *testing.T) {
	t.Parallel()
	store := testStore(t)
	dir := t.TempDir()

	pathA, fp := writeTestFile(t, dir, "a.mp4", "hello world")
	pathB, _ := writeTestFile(t, dir, "b.mp4", "hello world")

	if err := store.Record(testRecord(fp, pathA)); err != nil {
		t.Fatalf("first Record failed: %v", err)
	}
	if err := store.Record(testRecord(fp, pathB)); err != nil {
		t.Fatalf("coalescing Record failed: %v", err)
	}

	got, err := store.Lookup(fp)
	if err != nil {
		t.Fatal(err)
	}
	if got.LocalPath != pathA {
		t.Errorf("expected first-written path %q to win, got %q", pathA, got.LocalPath)
	}
}

// TestLedgerConflictingContent tests that a fingerprint collision against
// differing on-disk bytes surfaces a ConflictError.
func TestLedgerConflictingContent(t *testing.T) {
	t.Parallel()
	store := testStore(t)
	dir := t.TempDir()

	pathA, fp := writeTestFile(t, dir, "a.mp4", "hello world")

	if err := store.Record(testRecord(fp, pathA)); err != nil {
		t.Fatalf("first Record failed: %v", err)
	}

	// Corrupt the stored file so it no longer hashes to the fingerprint.
	if err := os.WriteFile(pathA, []byte("tampered"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := store.Record(testRecord(fp, filepath.Join(dir, "b.mp4")))
	var conflict *errs.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.ExistingPath != pathA {
		t.Errorf("conflict should name the existing path, got %+v", conflict)
	}
}

// TestLedgerVerify tests the verification pass: match, mismatch, missing.
func TestLedgerVerify(t *testing.T) {
	t.Parallel()
	store := testStore(t)
	dir := t.TempDir()

	path, fp := writeTestFile(t, dir, "a.mp4", "hello world")
	if err := store.Record(testRecord(fp, path)); err != nil {
		t.Fatal(err)
	}

	if err := store.Verify(fp); err != nil {
		t.Fatalf("Verify of intact file failed: %v", err)
	}
	got, _ := store.Lookup(fp)
	if !got.Verified {
		t.Error("expected verified flag set after successful Verify")
	}

	// Tamper: verify must fail and downgrade.
	if err := os.WriteFile(path, []byte("tampered"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := store.Verify(fp); err == nil {
		t.Error("expected error verifying tampered file")
	}
	got, _ = store.Lookup(fp)
	if got.Verified {
		t.Error("expected verified flag cleared after mismatch")
	}

	// Remove: verify must surface MissingFileError without deleting the row.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	err := store.Verify(fp)
	var missing *errs.MissingFileError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFileError, got %v", err)
	}
	if got, _ := store.Lookup(fp); got == nil {
		t.Error("missing file must downgrade, not delete, the record")
	}
}

// TestLedgerStats tests per-kind aggregation.
func TestLedgerStats(t *testing.T) {
	t.Parallel()
	store := testStore(t)
	dir := t.TempDir()

	pathA, fpA := writeTestFile(t, dir, "a.mp4", "video payload")
	pathB, fpB := writeTestFile(t, dir, "b.jpg", "thumb payload")

	recA := testRecord(fpA, pathA)
	recA.SizeBytes = 13
	recB := testRecord(fpB, pathB)
	recB.MediaKind = models.KindThumbnail
	recB.SizeBytes = 13

	if err := store.Record(recA); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(recB); err != nil {
		t.Fatal(err)
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalEntries != 2 || stats.TotalBytes != 26 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if stats.ByMediaKind[models.KindVideo] != 1 || stats.ByMediaKind[models.KindThumbnail] != 1 {
		t.Errorf("unexpected kind split: %+v", stats.ByMediaKind)
	}
}

// TestLedgerCleanupOrphans tests removal of records whose files are gone.
func TestLedgerCleanupOrphans(t *testing.T) {
	t.Parallel()
	store := testStore(t)
	dir := t.TempDir()

	pathA, fpA := writeTestFile(t, dir, "keep.mp4", "kept payload")
	pathB, fpB := writeTestFile(t, dir, "gone.mp4", "doomed payload")

	if err := store.Record(testRecord(fpA, pathA)); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(testRecord(fpB, pathB)); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(pathB); err != nil {
		t.Fatal(err)
	}

	report, err := store.CleanupOrphans(true)
	if err != nil {
		t.Fatalf("CleanupOrphans failed: %v", err)
	}
	if report.Scanned != 2 || report.Removed != 1 || report.Verified != 1 {
		t.Errorf("unexpected report: %+v", report)
	}

	if got, _ := store.Lookup(fpB); got != nil {
		t.Error("orphaned record should be removed")
	}
	if got, _ := store.Lookup(fpA); got == nil {
		t.Error("surviving record should remain")
	}
}
