package database

import (
	"database/sql"
	"fmt"
)

// initLedgerTable initializes the content-addressed download ledger.
func initLedgerTable(tx *sql.Tx) error {
	query := `
    CREATE TABLE IF NOT EXISTS ledger (
        fingerprint TEXT PRIMARY KEY,
        source_url TEXT NOT NULL,
        local_path TEXT NOT NULL,
        size_bytes INTEGER NOT NULL DEFAULT 0,
        media_kind TEXT NOT NULL CHECK(media_kind IN ('thumbnail', 'video')),
        fetched_at TIMESTAMP NOT NULL,
        verified INTEGER NOT NULL DEFAULT 0
    );
    CREATE INDEX IF NOT EXISTS idx_ledger_media_kind ON ledger(media_kind);
    CREATE INDEX IF NOT EXISTS idx_ledger_local_path ON ledger(local_path);
    `
	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to create ledger table: %w", err)
	}
	return nil
}

// initTokensTable initializes the single-row token cache.
func initTokensTable(tx *sql.Tx) error {
	query := `
    CREATE TABLE IF NOT EXISTS tokens (
        id INTEGER PRIMARY KEY CHECK(id = 1),
        value TEXT NOT NULL,
        extracted_at TIMESTAMP NOT NULL,
        last_validated_at TIMESTAMP,
        state TEXT NOT NULL CHECK(state IN ('unknown', 'valid', 'invalid')),
        updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );
    `
	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to create tokens table: %w", err)
	}
	return nil
}
