// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire gateway.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Storage Keys: The browser-storage key names the site has always used.
  - Headers & Fields: Wire names shared by middleware and handlers.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "localmart-gateway"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout must outlast a remote call plus its HTTP fallback attempt.
	DefaultWriteTimeout = 30 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 25 * time.Second

	// StorageStatementTimeout bounds a single key-value statement.
	StorageStatementTimeout = 5 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 20.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 40

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Storage Keys

const (
	// SessionKeyEmail holds the customer session token in tab (session) storage.
	SessionKeyEmail = "RSEmail"

	// LocalKeyVendorAuth holds the vendor profile JSON blob in device (local) storage.
	LocalKeyVendorAuth = "vendorAuth"

	// LocalKeyVendorLoggedIn holds the "true"/"false" vendor flag in local storage.
	LocalKeyVendorLoggedIn = "isVendorLoggedIn"

	// LocalKeyRecentlyViewed holds the recently-viewed JSON array in local storage.
	LocalKeyRecentlyViewed = "recentlyViewed"
)

// # OTP Pages

// OTPSweepInterval is how often idle OTP pages are closed.
const OTPSweepInterval = time.Minute

// # Storage Scopes

const (
	// ScopeTab namespaces session storage; keys become "tab:<tab id>:<key>".
	ScopeTab = "tab"

	// ScopeDevice namespaces local storage; keys become "device:<device id>:<key>".
	ScopeDevice = "device"

	// RedisPrefixStorage namespaces every key the Redis backend writes.
	RedisPrefixStorage = "localmart:storage:"
)

// # Tab Tokens

const (
	// TabTokenIssuer is the standard 'iss' claim in tab tokens.
	TabTokenIssuer = "localmart-gateway"

	// TabTokenKeyInfo is the HKDF info string used to derive the signing key.
	TabTokenKeyInfo = "localmart tab token v1"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"
	HeaderRetryAfter    = "Retry-After"
)

// # JSON Field Identifiers

const (
	FieldStatus = "status"
	FieldChecks = "checks"
)
