// Package db stores the history of non-allow decisions in SQLite.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// DB wraps the history database.
type DB struct {
	*sql.DB
	path string
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS decisions (
		id            TEXT PRIMARY KEY,
		command       TEXT NOT NULL,
		kind          TEXT NOT NULL,
		rule          TEXT NOT NULL DEFAULT '',
		pattern       TEXT NOT NULL DEFAULT '',
		reason        TEXT NOT NULL DEFAULT '',
		policy_source TEXT NOT NULL DEFAULT '',
		managed       INTEGER NOT NULL DEFAULT 0,
		session_id    TEXT NOT NULL DEFAULT '',
		cwd           TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_decisions_created_at ON decisions(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_decisions_kind ON decisions(kind)`,
}

// Open opens (creating if needed) the database at path, applies the schema
// and refuses a database written by a different schema version.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	// Concurrent hook processes share the file.
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{DB: sqlDB, path: path}
	if err := db.ApplyMigrations(context.Background()); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := db.ValidateSchema(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string { return db.path }

// ApplyMigrations creates missing tables and records the schema version.
func (db *DB) ApplyMigrations(ctx context.Context) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO schema_version (version)
		SELECT ? WHERE NOT EXISTS (SELECT 1 FROM schema_version)
	`, SchemaVersion)
	if err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	return tx.Commit()
}

// GetSchemaVersion returns the recorded schema version.
func (db *DB) GetSchemaVersion() (int, error) {
	var version int
	if err := db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version); err != nil {
		return 0, fmt.Errorf("getting schema version: %w", err)
	}
	return version, nil
}

// ValidateSchema checks that the database matches SchemaVersion.
func (db *DB) ValidateSchema() error {
	version, err := db.GetSchemaVersion()
	if err != nil {
		return err
	}
	if version != SchemaVersion {
		return fmt.Errorf("schema version mismatch: database has %d, want %d", version, SchemaVersion)
	}
	return nil
}
