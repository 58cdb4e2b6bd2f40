// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// Pure-Go SQLite driver, registers the "sqlite" driver name.
	_ "modernc.org/sqlite"
)

// sqliteSchema is applied on open. The table mirrors storage.keyvalue in Postgres.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS keyvalue (
	key       TEXT PRIMARY KEY,
	value     TEXT NOT NULL,
	updatedat TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteStore implements [Store] in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file at path and ensures the schema.
func OpenSQLite(context context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite_storage_mkdir_failed: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite_storage_open_failed: %w", err)
	}

	// SQLite serialises writers; a single connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite_storage_pragma_failed: %w", err)
	}

	if _, err := db.ExecContext(context, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite_storage_schema_failed: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Get implements [Store].
func (repository *SQLiteStore) Get(context context.Context, key string) (string, bool, error) {
	var value string
	err := repository.db.QueryRowContext(context, `SELECT value FROM keyvalue WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("sqlite_storage_get_failed: %w", err)
	}
	return value, true, nil
}

// Set implements [Store].
func (repository *SQLiteStore) Set(context context.Context, key, value string) error {
	const query = `
		INSERT INTO keyvalue (key, value, updatedat) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedat = CURRENT_TIMESTAMP`

	if _, err := repository.db.ExecContext(context, query, key, value); err != nil {
		return fmt.Errorf("sqlite_storage_set_failed: %w", err)
	}
	return nil
}

// Remove implements [Store].
func (repository *SQLiteStore) Remove(context context.Context, key string) error {
	if _, err := repository.db.ExecContext(context, `DELETE FROM keyvalue WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite_storage_remove_failed: %w", err)
	}
	return nil
}

// Ping verifies the database file is still reachable.
func (repository *SQLiteStore) Ping(context context.Context) error {
	if err := repository.db.PingContext(context); err != nil {
		return fmt.Errorf("sqlite: ping failed: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (repository *SQLiteStore) Close() error {
	return repository.db.Close()
}
