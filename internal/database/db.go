// Package database opens the sqlite store and bootstraps its schema.
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type DBControl struct {
	DB *sql.DB
}

// InitDB returns a new DB control instance.
//
// Opens (or creates) the database file and ensures tables exist.
func InitDB(dbFilePath string) (dbc *DBControl, err error) {
	var dc DBControl

	dc.DB, err = sql.Open("sqlite3", dbFilePath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database at path %q: %v", dbFilePath, err)
	}

	if err := dc.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %v", err)
	}
	return &dc, nil
}

// initTables initializes the SQL tables.
func (dc *DBControl) initTables() error {
	tx, err := dc.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := initLedgerTable(tx); err != nil {
		return err
	}

	if err := initTokensTable(tx); err != nil {
		return err
	}

	return tx.Commit()
}
