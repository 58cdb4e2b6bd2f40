// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package recent_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/localmart/internal/platform/ctxutil"
	"github.com/taibuivan/localmart/internal/platform/storage"
	"github.com/taibuivan/localmart/internal/recent"
)

// steppingClock advances one second per call so every upsert gets a distinct stamp.
type steppingClock struct {
	current time.Time
}

func (clock *steppingClock) Now() time.Time {
	clock.current = clock.current.Add(time.Second)
	return clock.current
}

func product(id string) recent.Entry {
	return recent.Entry{ID: id, Title: "Product " + id, Price: 9.5, Seller: "Corner Shop", IsAvailable: true}
}

func ids(entries []recent.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.ID)
	}
	return out
}

func newCache() (*recent.Cache, *storage.MemoryStore, *steppingClock) {
	store := storage.NewMemoryStore()
	clock := &steppingClock{current: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
	return recent.NewCache(store, clock.Now), store, clock
}

/*
TestUpsert_Dedup verifies re-viewing moves the entry to the front with a fresh
timestamp without growing the list.
*/
func TestUpsert_Dedup(t *testing.T) {
	ctx := context.Background()
	cache, _, _ := newCache()

	for _, id := range []string{"a", "b", "c"} {
		_, err := cache.Upsert(ctx, product(id))
		require.NoError(t, err)
	}
	before := cache.Read(ctx)
	require.Equal(t, []string{"c", "b", "a"}, ids(before))
	firstViewOfA := before[2].ViewedAt

	entries, err := cache.Upsert(ctx, product("a"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c", "b"}, ids(entries))
	assert.Len(t, entries, 3)
	assert.True(t, entries[0].ViewedAt.After(firstViewOfA))
	assert.Equal(t, ids(entries), ids(cache.Read(ctx)))
}

/*
TestUpsert_Cap verifies the 21st distinct entry evicts the oldest one.
*/
func TestUpsert_Cap(t *testing.T) {
	ctx := context.Background()
	cache, _, _ := newCache()

	for i := 1; i <= recent.MaxEntries; i++ {
		_, err := cache.Upsert(ctx, product(fmt.Sprintf("p%02d", i)))
		require.NoError(t, err)
	}
	full := cache.Read(ctx)
	require.Len(t, full, recent.MaxEntries)
	assert.Equal(t, "p01", full[recent.MaxEntries-1].ID)

	entries, err := cache.Upsert(ctx, product("p21"))
	require.NoError(t, err)

	assert.Len(t, entries, recent.MaxEntries)
	assert.Equal(t, "p21", entries[0].ID)
	assert.Equal(t, "p02", entries[recent.MaxEntries-1].ID)
	assert.NotContains(t, ids(entries), "p01")
}

func TestUpsert_StampsViewedAt(t *testing.T) {
	cache, _, clock := newCache()

	stale := product("a")
	stale.ViewedAt = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)

	entries, err := cache.Upsert(context.Background(), stale)
	require.NoError(t, err)
	assert.Equal(t, clock.current, entries[0].ViewedAt)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	cache, _, _ := newCache()
	for _, id := range []string{"a", "b"} {
		_, err := cache.Upsert(ctx, product(id))
		require.NoError(t, err)
	}

	entries, err := cache.Remove(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(entries))

	entries, err = cache.Remove(ctx, "b")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

/*
TestClear verifies the persisted record is deleted, not replaced by "[]".
*/
func TestClear(t *testing.T) {
	ctx := context.Background()
	cache, store, _ := newCache()
	_, err := cache.Upsert(ctx, product("a"))
	require.NoError(t, err)

	require.NoError(t, cache.Clear(ctx))

	_, found, err := store.Get(ctx, "recentlyViewed")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, cache.Read(ctx))
}

/*
TestRead_Malformed verifies corrupt storage reads as empty and is logged.
*/
func TestRead_Malformed(t *testing.T) {
	for name, raw := range map[string]string{
		"not_json":    "{oops",
		"wrong_shape": `{"id":"a"}`,
		"null":        "null",
	} {
		t.Run(name, func(t *testing.T) {
			var logs bytes.Buffer
			ctx := ctxutil.WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&logs, nil)))

			store := storage.NewMemoryStore()
			require.NoError(t, store.Set(ctx, "recentlyViewed", raw))

			entries := recent.NewCache(store, nil).Read(ctx)
			assert.NotNil(t, entries)
			assert.Empty(t, entries)

			if name != "null" {
				assert.Contains(t, logs.String(), "recent_malformed_ignored")
			}
		})
	}
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("backend down")
}
func (brokenStore) Set(context.Context, string, string) error { return errors.New("backend down") }
func (brokenStore) Remove(context.Context, string) error      { return errors.New("backend down") }

func TestBrokenStore(t *testing.T) {
	cache := recent.NewCache(brokenStore{}, nil)

	assert.Empty(t, cache.Read(context.Background()))

	_, err := cache.Upsert(context.Background(), product("a"))
	assert.Error(t, err)
	assert.Error(t, cache.Clear(context.Background()))
}

// flakyStore fails the next failReads Get calls and otherwise delegates.
type flakyStore struct {
	*storage.MemoryStore
	failReads int
}

func (store *flakyStore) Get(ctx context.Context, key string) (string, bool, error) {
	if store.failReads > 0 {
		store.failReads--
		return "", false, errors.New("read timeout")
	}
	return store.MemoryStore.Get(ctx, key)
}

/*
TestTransientReadFailure verifies a failed read never lets Upsert or Remove
overwrite the persisted history.
*/
func TestTransientReadFailure(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{MemoryStore: storage.NewMemoryStore()}
	clock := &steppingClock{current: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
	cache := recent.NewCache(store, clock.Now)

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		_, err := cache.Upsert(ctx, product(id))
		require.NoError(t, err)
	}

	store.failReads = 1
	entries, err := cache.Upsert(ctx, product("new"))
	assert.Error(t, err)
	assert.Nil(t, entries)

	store.failReads = 1
	entries, err = cache.Remove(ctx, "c")
	assert.Error(t, err)
	assert.Nil(t, entries)

	assert.Equal(t, []string{"e", "d", "c", "b", "a"}, ids(cache.Read(ctx)))

	store.failReads = 1
	assert.Empty(t, cache.Read(ctx))
}

/*
TestFormatAge covers every band and the singular forms.
*/
func TestFormatAge(t *testing.T) {
	now := time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"45_seconds", 45 * time.Second, "Just now"},
		{"future", -time.Minute, "Just now"},
		{"1_minute", time.Minute, "1 minute ago"},
		{"3_minutes", 3 * time.Minute, "3 minutes ago"},
		{"59_minutes", 59*time.Minute + 59*time.Second, "59 minutes ago"},
		{"1_hour", time.Hour, "1 hour ago"},
		{"5_hours", 5*time.Hour + 20*time.Minute, "5 hours ago"},
		{"1_day", 24 * time.Hour, "1 day ago"},
		{"2_days", 48 * time.Hour, "2 days ago"},
		{"6_days", 6*24*time.Hour + 23*time.Hour, "6 days ago"},
		{"10_days", 10 * 24 * time.Hour, "Oct 8, 2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recent.FormatAge(now.Add(-tt.ago), now))
		})
	}
}
