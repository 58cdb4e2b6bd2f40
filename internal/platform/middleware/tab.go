// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/localmart/internal/platform/apperr"
	"github.com/taibuivan/localmart/internal/platform/constants"
	"github.com/taibuivan/localmart/internal/platform/ctxutil"
	"github.com/taibuivan/localmart/internal/platform/respond"
	"github.com/taibuivan/localmart/internal/platform/sec"
)

// TabVerifier defines the interface needed to verify tab tokens in middleware.
//
// Defining it here decouples the middleware from [sec.TabTokenService] so tests
// can inject a stub.
type TabVerifier interface {
	VerifyTabToken(tokenString string) (*sec.TabClaims, error)
}

// RequireTab extracts and verifies the tab token from the Authorization header.
//
// # Flow
//  1. Require 'Authorization: Bearer <tab token>'.
//  2. Verify it via [TabVerifier].
//  3. Inject [*sec.TabClaims] and a tab-aware logger into the request context.
func RequireTab(verifier TabVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Presence ───────────────────────────────────────────────────
			if authHeader == "" {
				respond.Error(writer, request, apperr.Unauthorized("Tab token required"))
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyTabToken(parts[1])
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired tab token"))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithTab(request.Context(), claims)
			ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With(
				slog.String("tab_id", claims.TabID),
				slog.String("device_id", claims.DeviceID),
			))

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}
