// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/localmart/internal/platform/navigate"
)

// Page is a mounted OTP page: its flow and the navigation it has requested.
type Page struct {
	Flow       *Flow
	Navigation *navigate.Recorder
}

type registryEntry struct {
	page     *Page
	lastSeen time.Time
}

// Registry keeps at most one [Page] per tab.
//
// Pages are closed when replaced, removed, or idle for longer than the TTL, so no
// countdown outlives its tab.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewRegistry creates an empty [Registry] whose pages expire after ttl of inactivity.
func NewRegistry(ttl time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries: make(map[string]*registryEntry),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// WithClock replaces the time source used for idle tracking.
func (registry *Registry) WithClock(now func() time.Time) *Registry {
	registry.now = now
	return registry
}

// Put mounts page for tabID, closing the page it replaces.
func (registry *Registry) Put(tabID string, page *Page) {
	registry.mu.Lock()
	previous := registry.entries[tabID]
	registry.entries[tabID] = &registryEntry{page: page, lastSeen: registry.now()}
	registry.mu.Unlock()

	if previous != nil && previous.page != page {
		previous.page.Flow.Close()
	}
}

// Get returns the page of tabID and marks it as used.
func (registry *Registry) Get(tabID string) (*Page, bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	entry, ok := registry.entries[tabID]
	if !ok {
		return nil, false
	}
	entry.lastSeen = registry.now()
	return entry.page, true
}

// Remove unmounts the page of tabID. Removing an absent page is a no-op.
func (registry *Registry) Remove(tabID string) {
	registry.mu.Lock()
	entry, ok := registry.entries[tabID]
	delete(registry.entries, tabID)
	registry.mu.Unlock()

	if ok {
		entry.page.Flow.Close()
	}
}

// Len reports the number of mounted pages.
func (registry *Registry) Len() int {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return len(registry.entries)
}

// Sweep closes and removes every page idle for longer than the TTL.
//
// Returns the number of pages removed.
func (registry *Registry) Sweep() int {
	cutoff := registry.now().Add(-registry.ttl)

	registry.mu.Lock()
	var expired []*Page
	for tabID, entry := range registry.entries {
		if entry.lastSeen.Before(cutoff) {
			expired = append(expired, entry.page)
			delete(registry.entries, tabID)
		}
	}
	registry.mu.Unlock()

	for _, page := range expired {
		page.Flow.Close()
	}
	return len(expired)
}

// Run sweeps every interval until ctx is cancelled, then closes every page.
func (registry *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			registry.Close()
			return
		case <-ticker.C:
			if removed := registry.Sweep(); removed > 0 {
				registry.logger.DebugContext(ctx, "otp_registry_swept", slog.Int("removed", removed))
			}
		}
	}
}

// Close removes and closes every page.
func (registry *Registry) Close() {
	registry.mu.Lock()
	entries := registry.entries
	registry.entries = make(map[string]*registryEntry)
	registry.mu.Unlock()

	for _, entry := range entries {
		entry.page.Flow.Close()
	}
}
