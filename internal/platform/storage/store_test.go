// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/localmart/internal/platform/migration"
	"github.com/taibuivan/localmart/internal/platform/postgres"
	"github.com/taibuivan/localmart/internal/platform/storage"
)

// exerciseStore runs the shared Get/Set/Remove contract against any backend.
func exerciseStore(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()

	// 1. Missing keys are not errors
	value, found, err := store.Get(ctx, "RSEmail")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, value)

	// 2. Set then Get
	require.NoError(t, store.Set(ctx, "RSEmail", "buyer@example.com"))
	value, found, err = store.Get(ctx, "RSEmail")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "buyer@example.com", value)

	// 3. Overwrite replaces silently
	require.NoError(t, store.Set(ctx, "RSEmail", "seller@example.com"))
	value, _, err = store.Get(ctx, "RSEmail")
	require.NoError(t, err)
	assert.Equal(t, "seller@example.com", value)

	// 4. Remove, twice
	require.NoError(t, store.Remove(ctx, "RSEmail"))
	require.NoError(t, store.Remove(ctx, "RSEmail"))
	_, found, err = store.Get(ctx, "RSEmail")
	require.NoError(t, err)
	assert.False(t, found)
}

/*
TestMemoryStore verifies the in-process backend.
*/
func TestMemoryStore(t *testing.T) {
	exerciseStore(t, storage.NewMemoryStore())
}

/*
TestSQLiteStore verifies the single-file backend and that data survives a reopen.
*/
func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "local", "storage.db")

	store, err := storage.OpenSQLite(ctx, path)
	require.NoError(t, err)
	exerciseStore(t, store)

	require.NoError(t, store.Set(ctx, "recentlyViewed", `[{"id":"p-1"}]`))
	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Close())

	reopened, err := storage.OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	value, found, err := reopened.Get(ctx, "recentlyViewed")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"p-1"}]`, value)
}

/*
TestScoped verifies that two scopes over one backend never see each other's keys.
*/
func TestScoped(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryStore()

	tabA := storage.Scoped(backend, "tab:a")
	tabB := storage.Scoped(backend, "tab:b")

	exerciseStore(t, tabA)

	require.NoError(t, tabA.Set(ctx, "RSEmail", "a@example.com"))
	require.NoError(t, tabB.Set(ctx, "RSEmail", "b@example.com"))

	value, _, err := tabA.Get(ctx, "RSEmail")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", value)

	value, _, err = tabB.Get(ctx, "RSEmail")
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", value)

	assert.Equal(t, 2, backend.Len())
}

/*
TestRedisStore runs the contract against a live Redis when TEST_REDIS_URL is set.
*/
func TestRedisStore(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	options, err := redis.ParseURL(redisURL)
	require.NoError(t, err)
	client := redis.NewClient(options)
	defer client.Close()

	exerciseStore(t, storage.Scoped(storage.NewRedisStore(client, time.Minute), "test:"+t.Name()))
}

/*
TestPostgresStore runs the contract against a live database when TEST_DATABASE_URL is set.
*/
func TestPostgresStore(t *testing.T) {
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, migration.RunUp(databaseURL, "../../../data/migrations", logger))

	pool, err := postgres.NewPool(context.Background(), databaseURL, logger)
	require.NoError(t, err)
	defer pool.Close()

	exerciseStore(t, storage.Scoped(storage.NewPostgresStore(pool), "test:"+t.Name()))
}
