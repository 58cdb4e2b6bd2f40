// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package tab manages the client scopes that stand in for browser storage.

A tab owns a session storage (the RSEmail token lives there) and belongs to a
device, which owns a local storage (vendor session and recently-viewed list).
Both are views over shared backends, selected by the verified tab token.
*/
package tab

import (
	"github.com/taibuivan/localmart/internal/platform/constants"
	"github.com/taibuivan/localmart/internal/platform/sec"
	"github.com/taibuivan/localmart/internal/platform/storage"
)

// Scopes hands out per-tab and per-device storage views.
type Scopes struct {
	session storage.Store
	local   storage.Store
}

// NewScopes binds the session backend (tab lifetime) and the local backend
// (device lifetime).
func NewScopes(session, local storage.Store) *Scopes {
	return &Scopes{
		session: storage.Scoped(session, constants.ScopeTab),
		local:   storage.Scoped(local, constants.ScopeDevice),
	}
}

// Session returns the session storage of the tab named by claims.
func (scopes *Scopes) Session(claims *sec.TabClaims) storage.Store {
	return storage.Scoped(scopes.session, claims.TabID)
}

// Local returns the local storage of the device named by claims.
func (scopes *Scopes) Local(claims *sec.TabClaims) storage.Store {
	return storage.Scoped(scopes.local, claims.DeviceID)
}
