// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"fmt"

	"github.com/taibuivan/localmart/internal/platform/constants"
	"github.com/taibuivan/localmart/internal/platform/storage"
)

// TokenStore persists the session token (an email) in tab storage under RSEmail.
//
// At most one token exists per tab; [TokenStore.Set] replaces it silently.
type TokenStore struct {
	store storage.Store
}

// NewTokenStore binds a [TokenStore] to a tab's session storage.
func NewTokenStore(store storage.Store) *TokenStore {
	return &TokenStore{store: store}
}

// Get returns the persisted token. An empty stored value counts as absent.
func (tokens *TokenStore) Get(ctx context.Context) (string, bool, error) {
	value, found, err := tokens.store.Get(ctx, constants.SessionKeyEmail)
	if err != nil {
		return "", false, fmt.Errorf("session_token_read_failed: %w", err)
	}
	if !found || value == "" {
		return "", false, nil
	}
	return value, true, nil
}

// Set persists email as the tab's token.
func (tokens *TokenStore) Set(ctx context.Context, email string) error {
	if err := tokens.store.Set(ctx, constants.SessionKeyEmail, email); err != nil {
		return fmt.Errorf("session_token_write_failed: %w", err)
	}
	return nil
}

// Clear removes the token.
func (tokens *TokenStore) Clear(ctx context.Context) error {
	if err := tokens.store.Remove(ctx, constants.SessionKeyEmail); err != nil {
		return fmt.Errorf("session_token_clear_failed: %w", err)
	}
	return nil
}
