// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package recent keeps the device's recently-viewed products.

The list lives in local storage under "recentlyViewed" as a JSON array: most
recently viewed first, unique by product ID, at most [MaxEntries] long. It is
independent of any login session.

Corrupt or unreadable storage is never an error for readers: it reads as an empty
list and is logged.
*/
package recent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/localmart/internal/platform/constants"
	"github.com/taibuivan/localmart/internal/platform/ctxutil"
	"github.com/taibuivan/localmart/internal/platform/storage"
	"github.com/taibuivan/localmart/pkg/slice"
)

// MaxEntries caps the list.
const MaxEntries = 20

// Entry is a product the user has viewed.
type Entry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Price       float64   `json:"price"`
	Image       string    `json:"image"`
	Distance    string    `json:"distance"`
	Seller      string    `json:"seller"`
	ViewedAt    time.Time `json:"viewedAt"`
	IsAvailable bool      `json:"isAvailable"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Cache reads and writes the list in one device's local storage.
type Cache struct {
	store storage.Store
	now   func() time.Time
}

// NewCache binds a [Cache] to local storage. A nil now means [time.Now].
func NewCache(store storage.Store, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{store: store, now: now}
}

/*
Read returns the persisted list.

An absent key, a backend failure or malformed JSON all yield an empty list; the
last two are logged.
*/
func (cache *Cache) Read(ctx context.Context) []Entry {
	entries, err := cache.load(ctx)
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "recent_read_failed", slog.String("error", err.Error()))
		return []Entry{}
	}
	return entries
}

// load returns the persisted list. Only backend failures are errors; an absent
// key or malformed JSON reads as empty, so mutations never overwrite a list the
// backend failed to return.
func (cache *Cache) load(ctx context.Context) ([]Entry, error) {
	raw, found, err := cache.store.Get(ctx, constants.LocalKeyRecentlyViewed)
	if err != nil {
		return nil, err
	}
	if !found {
		return []Entry{}, nil
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "recent_malformed_ignored",
			slog.String("error", err.Error()),
			slog.Int("bytes", len(raw)),
		)
		return []Entry{}, nil
	}

	if entries == nil {
		return []Entry{}, nil
	}
	return entries, nil
}

/*
Upsert records a view of entry.

Any entry with the same ID is removed, the new one is prepended with ViewedAt set
to now, and the list is truncated to [MaxEntries].

Returns:
  - []Entry: The updated list
  - error: Storage failures, including a failed read (nothing is written then)
*/
func (cache *Cache) Upsert(ctx context.Context, entry Entry) ([]Entry, error) {
	current, err := cache.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("recent_read_failed: %w", err)
	}

	entry.ViewedAt = cache.now()

	others := slice.Filter(current, func(existing Entry) bool {
		return existing.ID != entry.ID
	})

	entries := append([]Entry{entry}, others...)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}

	if err := cache.write(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Remove deletes the entry with id and returns the updated list.
func (cache *Cache) Remove(ctx context.Context, id string) ([]Entry, error) {
	current, err := cache.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("recent_read_failed: %w", err)
	}

	entries := slice.Filter(current, func(existing Entry) bool {
		return existing.ID != id
	})
	if entries == nil {
		entries = []Entry{}
	}

	if err := cache.write(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Clear deletes the persisted record itself, not just its contents.
func (cache *Cache) Clear(ctx context.Context) error {
	if err := cache.store.Remove(ctx, constants.LocalKeyRecentlyViewed); err != nil {
		return fmt.Errorf("recent_clear_failed: %w", err)
	}
	return nil
}

func (cache *Cache) write(ctx context.Context, entries []Entry) error {
	encoded, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("recent_encode_failed: %w", err)
	}

	if err := cache.store.Set(ctx, constants.LocalKeyRecentlyViewed, string(encoded)); err != nil {
		return fmt.Errorf("recent_write_failed: %w", err)
	}
	return nil
}
