// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package storage defines the key-value port that stands in for browser storage.

Session storage (one view per tab) and local storage (one view per device) are both
expressed as a [Store]. Business logic only ever sees the port, so any backend can be
swapped in without touching the session, OTP, vendor or recently-viewed packages.

Backends:

  - MemoryStore: process-local map. Default for development and tests.
  - RedisStore: volatile, TTL-refreshed entries. Natural fit for tab sessions.
  - PostgresStore: durable rows in storage.keyvalue.
  - SQLiteStore: durable single-file store for single-node deployments.

Values are opaque strings. Callers own their encoding (plain string or JSON blob).
*/
package storage

import (
	"context"
	"strings"
)

// # Port

// Store is the minimal get/set/remove contract every backend satisfies.
type Store interface {

	/*
		Get returns the value stored under key.

		Returns:
		  - string: Stored value (empty when absent)
		  - bool: Whether the key exists
		  - error: Backend failures only; a missing key is not an error
	*/
	Get(context context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(context context.Context, key, value string) error

	// Remove deletes key. Removing an absent key succeeds.
	Remove(context context.Context, key string) error
}

// # Scoping

// scopeSeparator joins a scope and a key. Scopes never contain it.
const scopeSeparator = ":"

type scopedStore struct {
	inner  Store
	prefix string
}

// Scoped returns a view of store where every key is prefixed by scope.
//
// One Redis database or one keyvalue table therefore serves every tab and device
// without their keys colliding.
func Scoped(store Store, scope string) Store {
	scope = strings.ReplaceAll(scope, scopeSeparator, "_")
	return &scopedStore{inner: store, prefix: scope + scopeSeparator}
}

func (store *scopedStore) Get(context context.Context, key string) (string, bool, error) {
	return store.inner.Get(context, store.prefix+key)
}

func (store *scopedStore) Set(context context.Context, key, value string) error {
	return store.inner.Set(context, store.prefix+key, value)
}

func (store *scopedStore) Remove(context context.Context, key string) error {
	return store.inner.Remove(context, store.prefix+key)
}
