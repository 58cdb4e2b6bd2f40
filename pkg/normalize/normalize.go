// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package normalize canonicalizes identity strings before they are used as keys.
//
// # Usage
//
// The session token is an email address used verbatim as a lookup key, so
// "Buyer@Example.com", "buyer@example.com " and a copy-pasted address carrying a
// zero-width space must all resolve to the same token.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Email converts an arbitrary email-like string into its canonical key form.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFKC (full-width "ｂｕｙｅｒ" → "buyer").
// 2. Removes invisible format characters (zero-width spaces, BOMs).
// 3. Trims surrounding whitespace.
// 4. Converts to lowercase.
func Email(s string) string {
	t := transform.Chain(norm.NFKC, transform.RemoveFunc(isFormat))
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}

	return strings.ToLower(strings.TrimSpace(result))
}

// isFormat reports whether r is a Unicode format character (category Cf).
func isFormat(r rune) bool {
	return unicode.Is(unicode.Cf, r)
}
