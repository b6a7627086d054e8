// Package repo provides sqlite-backed stores for the download ledger and token cache.
package repo

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"

	"vidarr/internal/domain/consts"
	"vidarr/internal/errs"
	"vidarr/internal/hashing"
	"vidarr/internal/models"
	"vidarr/internal/utils/logging"

	"github.com/Masterminds/squirrel"
)

// LedgerStore holds a pointer to the sql.DB.
//
// Writes are serialized through the store mutex so concurrent workers
// discovering the same fingerprint cannot create duplicate records.
type LedgerStore struct {
	DB *sql.DB
	mu sync.Mutex
}

// GetLedgerStore returns a ledger store instance with injected database.
func GetLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{
		DB: db,
	}
}

// GetDB returns the database.
func (ls *LedgerStore) GetDB() *sql.DB {
	return ls.DB
}

// Lookup returns the record for a fingerprint, or nil when absent.
func (ls *LedgerStore) Lookup(fingerprint string) (*models.DownloadRecord, error) {
	query := squirrel.
		Select(
			consts.QLedgerFingerprint,
			consts.QLedgerSourceURL,
			consts.QLedgerLocalPath,
			consts.QLedgerSizeBytes,
			consts.QLedgerMediaKind,
			consts.QLedgerFetchedAt,
			consts.QLedgerVerified,
		).
		From(consts.DBLedger).
		Where(squirrel.Eq{consts.QLedgerFingerprint: fingerprint}).
		RunWith(ls.DB)

	var rec models.DownloadRecord
	err := query.QueryRow().Scan(
		&rec.Fingerprint,
		&rec.SourceURL,
		&rec.LocalPath,
		&rec.SizeBytes,
		&rec.MediaKind,
		&rec.FetchedAt,
		&rec.Verified,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to query ledger for fingerprint %s: %w", fingerprint, err)
	}

	return &rec, nil
}

// Record writes a new download record. Identical content arriving from a
// second URL or path coalesces into the first-written record (no-op skip);
// a fingerprint collision against differing on-disk bytes surfaces a
// ConflictError.
func (ls *LedgerStore) Record(rec *models.DownloadRecord) (err error) {
	if rec == nil || rec.Fingerprint == "" {
		return errors.New("ledger record must have a fingerprint")
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	existing, err := ls.Lookup(rec.Fingerprint)
	if err != nil {
		return err
	}

	if existing != nil {
		return ls.coalesce(existing, rec)
	}

	tx, err := ls.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.E("Panic rollback failed for fingerprint %s: %v", rec.Fingerprint, rbErr)
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.E("Rollback failed for fingerprint %s (original error: %v): %v", rec.Fingerprint, err, rbErr)
			}
		}
	}()

	// ON CONFLICT DO NOTHING keeps the first write under a race; the loser
	// re-reads and coalesces below.
	insertQuery := fmt.Sprintf(
		"INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?) "+
			"ON CONFLICT(%s) DO NOTHING",
		consts.DBLedger,
		consts.QLedgerFingerprint,
		consts.QLedgerSourceURL,
		consts.QLedgerLocalPath,
		consts.QLedgerSizeBytes,
		consts.QLedgerMediaKind,
		consts.QLedgerFetchedAt,
		consts.QLedgerVerified,
		consts.QLedgerFingerprint,
	)

	result, err := tx.Exec(
		insertQuery,
		rec.Fingerprint,
		rec.SourceURL,
		rec.LocalPath,
		rec.SizeBytes,
		rec.MediaKind,
		rec.FetchedAt,
		rec.Verified,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger record for fingerprint %s: %w", rec.Fingerprint, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger record for fingerprint %s: %w", rec.Fingerprint, err)
	}

	if rows, rowsErr := result.RowsAffected(); rowsErr == nil && rows == 0 {
		// Lost the insert race. Treat the winner's entry as ours.
		winner, lookupErr := ls.Lookup(rec.Fingerprint)
		if lookupErr != nil {
			return lookupErr
		}
		if winner != nil {
			return ls.coalesce(winner, rec)
		}
	}

	logging.D(2, "Recorded fingerprint %s (%s, %d bytes) at %q", rec.Fingerprint, rec.MediaKind, rec.SizeBytes, rec.LocalPath)
	return nil
}

// coalesce resolves a repeat write against an existing record. The existing
// record always wins; the second write succeeds silently when the content
// is demonstrably identical.
func (ls *LedgerStore) coalesce(existing, incoming *models.DownloadRecord) error {
	if existing.LocalPath == incoming.LocalPath {
		return nil
	}

	// Different path, same fingerprint: confirm the stored file still
	// hashes to the shared fingerprint before treating this as a no-op.
	fp, _, err := hashing.File(existing.LocalPath)
	if err != nil || fp != existing.Fingerprint {
		return &errs.ConflictError{
			Fingerprint:  existing.Fingerprint,
			ExistingPath: existing.LocalPath,
			NewPath:      incoming.LocalPath,
		}
	}

	logging.D(1, "Coalesced duplicate content %s from %q into existing record at %q",
		existing.Fingerprint, incoming.SourceURL, existing.LocalPath)
	return nil
}

// Verify re-hashes the on-disk file for a fingerprint and updates the
// verified flag. A missing file downgrades the record but does not delete it.
func (ls *LedgerStore) Verify(fingerprint string) error {
	rec, err := ls.Lookup(fingerprint)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no ledger record for fingerprint %s", fingerprint)
	}

	if _, statErr := os.Stat(rec.LocalPath); statErr != nil {
		if setErr := ls.setVerified(fingerprint, false); setErr != nil {
			logging.E("Failed to downgrade verification for %s: %v", fingerprint, setErr)
		}
		return &errs.MissingFileError{Fingerprint: fingerprint, LocalPath: rec.LocalPath}
	}

	fp, _, err := hashing.File(rec.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to re-hash %q: %w", rec.LocalPath, err)
	}

	if fp != fingerprint {
		if setErr := ls.setVerified(fingerprint, false); setErr != nil {
			logging.E("Failed to downgrade verification for %s: %v", fingerprint, setErr)
		}
		return fmt.Errorf("content at %q no longer matches fingerprint %s", rec.LocalPath, fingerprint)
	}

	return ls.setVerified(fingerprint, true)
}

// Stats returns totals for the whole ledger.
func (ls *LedgerStore) Stats() (models.LedgerStats, error) {
	stats := models.LedgerStats{
		ByMediaKind: make(map[models.MediaKind]int),
	}

	query := squirrel.
		Select(consts.QLedgerMediaKind, "COUNT(*)", "COALESCE(SUM("+consts.QLedgerSizeBytes+"), 0)").
		From(consts.DBLedger).
		GroupBy(consts.QLedgerMediaKind).
		RunWith(ls.DB)

	rows, err := query.Query()
	if err != nil {
		return stats, fmt.Errorf("failed to query ledger stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind  models.MediaKind
			count int
			bytes int64
		)
		if err := rows.Scan(&kind, &count, &bytes); err != nil {
			return stats, fmt.Errorf("failed to scan ledger stats row: %w", err)
		}
		stats.ByMediaKind[kind] = count
		stats.TotalEntries += count
		stats.TotalBytes += bytes
	}

	return stats, rows.Err()
}

// CleanupOrphans removes records whose local file no longer exists. With
// verifyFiles set, surviving records are re-hashed and their verified flag
// refreshed.
func (ls *LedgerStore) CleanupOrphans(verifyFiles bool) (models.CleanupReport, error) {
	var report models.CleanupReport

	query := squirrel.
		Select(consts.QLedgerFingerprint, consts.QLedgerLocalPath).
		From(consts.DBLedger).
		RunWith(ls.DB)

	rows, err := query.Query()
	if err != nil {
		return report, fmt.Errorf("failed to list ledger records: %w", err)
	}

	type entry struct {
		fingerprint string
		localPath   string
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.fingerprint, &e.localPath); err != nil {
			rows.Close()
			return report, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return report, err
	}
	rows.Close()

	for _, e := range entries {
		report.Scanned++

		if _, statErr := os.Stat(e.localPath); statErr != nil {
			if err := ls.remove(e.fingerprint); err != nil {
				logging.E("Failed to remove orphaned record %s: %v", e.fingerprint, err)
				report.Failed++
				continue
			}
			logging.D(1, "Removed orphaned ledger record %s (file %q missing)", e.fingerprint, e.localPath)
			report.Removed++
			continue
		}

		if verifyFiles {
			if err := ls.Verify(e.fingerprint); err != nil {
				logging.W("Verification failed for %s: %v", e.fingerprint, err)
				report.Failed++
				continue
			}
			report.Verified++
		}
	}

	return report, nil
}

// ******************************** Private ********************************

// setVerified flips the verified flag for a fingerprint.
func (ls *LedgerStore) setVerified(fingerprint string, verified bool) error {
	query := squirrel.
		Update(consts.DBLedger).
		Set(consts.QLedgerVerified, verified).
		Where(squirrel.Eq{consts.QLedgerFingerprint: fingerprint}).
		RunWith(ls.DB)

	if _, err := query.Exec(); err != nil {
		return fmt.Errorf("failed to update verified flag for %s: %w", fingerprint, err)
	}
	return nil
}

// remove deletes a ledger record. Only cleanup calls this.
func (ls *LedgerStore) remove(fingerprint string) error {
	query := squirrel.
		Delete(consts.DBLedger).
		Where(squirrel.Eq{consts.QLedgerFingerprint: fingerprint}).
		RunWith(ls.DB)

	if _, err := query.Exec(); err != nil {
		return fmt.Errorf("failed to delete ledger record %s: %w", fingerprint, err)
	}
	return nil
}
