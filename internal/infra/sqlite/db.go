// Package sqlite holds the local audit journal: an append-only log of every
// completed ledger mutation, kept beside the JSON data file. The journal is
// supplemental — the JSON file stays the source of truth for balances.
package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the journal database handle.
type DB struct {
	db *sql.DB
}

// Open creates/opens the journal database under dir and applies migrations.
func Open(dir string) (*DB, error) {
	path := filepath.Join(dir, "journal.db")
	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	// modernc sqlite is not safe for concurrent writers on one connection
	// pool by default; the journal is low-traffic, one connection is plenty.
	handle.SetMaxOpenConns(1)

	db := &DB{db: handle}
	if err := db.migrate(); err != nil {
		handle.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying handle.
func (db *DB) Close() error { return db.db.Close() }

// migrations returns the schema statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS audit_log (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			ts            TEXT NOT NULL,
			member_id     TEXT NOT NULL,
			action        TEXT NOT NULL,
			amount        TEXT NOT NULL DEFAULT '0.00',
			points_change TEXT NOT NULL DEFAULT '0.00',
			balance_after TEXT NOT NULL DEFAULT '0.00',
			created_at    TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_member ON audit_log(member_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_log(ts)`,
	}
}

func (db *DB) migrate() error {
	for _, stmt := range migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate journal db: %w", err)
		}
	}
	return nil
}
