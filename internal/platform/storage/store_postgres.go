// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/localmart/internal/platform/dberr"
)

// PostgresStore implements [Store] using the storage.keyvalue table.
//
// The table is created by the migrations in data/migrations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL implementation of [Store].
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
Get retrieves a single entry by key.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - string: Stored value
  - bool: Whether the row exists
  - error: Database errors
*/
func (repository *PostgresStore) Get(context context.Context, key string) (string, bool, error) {
	const query = `
		SELECT value
		FROM storage.keyvalue
		WHERE key = $1`

	var value string
	err := repository.pool.QueryRow(context, query, key).Scan(&value)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, dberr.Wrap(fmt.Errorf("postgres_storage_get_failed: %w", err), "get")
	}

	return value, true, nil
}

/*
Set upserts an entry and bumps its updatedat timestamp.

Parameters:
  - context: context.Context
  - key: string
  - value: string

Returns:
  - error: Persistence failures
*/
func (repository *PostgresStore) Set(context context.Context, key, value string) error {
	const query = `
		INSERT INTO storage.keyvalue (key, value, updatedat)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updatedat = NOW()`

	if _, err := repository.pool.Exec(context, query, key, value); err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_storage_set_failed: %w", err), "set")
	}

	return nil
}

/*
Remove physically deletes the row for key.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - error: Persistence failures
*/
func (repository *PostgresStore) Remove(context context.Context, key string) error {
	const query = `DELETE FROM storage.keyvalue WHERE key = $1`

	if _, err := repository.pool.Exec(context, query, key); err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_storage_remove_failed: %w", err), "remove")
	}

	return nil
}
