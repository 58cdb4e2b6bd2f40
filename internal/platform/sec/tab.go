// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides the cryptographic primitives of the gateway.
//
// # Architecture
//
// Browser storage used to be scoped implicitly by the browser: one session storage
// per tab, one local storage per origin. The gateway reproduces that scoping with
// signed tab tokens. A token names a tab (session storage) and a device (local
// storage); because it is signed, a client cannot read another tab's RSEmail by
// guessing its ID.
package sec

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// signingKeyLength is the HMAC-SHA256 key size in bytes.
const signingKeyLength = 32

// TabClaims represents the payload embedded inside a tab token.
type TabClaims struct {
	jwt.RegisteredClaims

	// Abbreviated to keep the token small; it travels on every request.
	TabID    string `json:"tid"`
	DeviceID string `json:"did"`
}

// TabTokenService issues and verifies HS256 tab tokens.
type TabTokenService struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

// NewTabTokenService derives the signing key from secret with HKDF-SHA256.
//
// Deriving instead of using SESSION_SECRET directly keeps the raw secret out of
// any HMAC computation and lets future token kinds use separate keys.
func NewTabTokenService(secret, issuer, info string) (*TabTokenService, error) {
	if secret == "" {
		return nil, errors.New("sec: empty session secret")
	}

	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	key := make([]byte, signingKeyLength)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("sec: failed to derive signing key: %w", err)
	}

	return &TabTokenService{signingKey: key, issuer: issuer, now: time.Now}, nil
}

// WithClock replaces the time source. Tests use it to produce expired tokens.
func (service *TabTokenService) WithClock(now func() time.Time) *TabTokenService {
	service.now = now
	return service
}

// Issue creates a signed token for the given tab and device.
func (service *TabTokenService) Issue(tabID, deviceID string, timeToLive time.Duration) (string, error) {
	currentTime := service.now()
	claims := TabClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tabID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		TabID:    tabID,
		DeviceID: deviceID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.signingKey)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign tab token: %w", err)
	}

	return signedToken, nil
}

// VerifyTabToken checks the signature, issuer and expiry of a tab token.
func (service *TabTokenService) VerifyTabToken(tokenString string) (*TabClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TabClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.signingKey, nil
	},
		jwt.WithIssuer(service.issuer),
		jwt.WithTimeFunc(service.now),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		return nil, fmt.Errorf("sec: invalid tab token: %w", err)
	}

	claims, ok := token.Claims.(*TabClaims)
	if !ok || !token.Valid || claims.TabID == "" || claims.DeviceID == "" {
		return nil, errors.New("sec: invalid tab token claims")
	}

	return claims, nil
}

// RecoverDeviceID returns the device ID of a token whose signature is valid,
// even when it has expired.
//
// A browser keeps its local storage across tab closes, so a new tab presenting its
// previous (possibly stale) token stays on the same device scope.
func (service *TabTokenService) RecoverDeviceID(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TabClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.signingKey, nil
	}, jwt.WithoutClaimsValidation())

	if err != nil {
		return "", fmt.Errorf("sec: invalid tab token: %w", err)
	}

	claims, ok := token.Claims.(*TabClaims)
	if !ok || claims.Issuer != service.issuer || claims.DeviceID == "" {
		return "", errors.New("sec: invalid tab token claims")
	}

	return claims.DeviceID, nil
}
