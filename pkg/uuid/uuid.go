// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides time-ordered unique identifiers for tabs and devices.

It wraps the standard UUID library to generate Version 7 values: sortable by
creation time, which keeps Redis key scans and keyvalue rows roughly in issue order.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
func New() string {

	// Create a new version 7 UUID (time-sortable)
	id, err := uuid.NewV7()

	// entropy failure is an unrecoverable system-level error
	if err != nil {
		panic("uuidv7: failed to generate UUID: " + err.Error())
	}

	return id.String()
}

// Valid reports whether s parses as a UUID. Client-supplied device IDs are
// only reused when they do.
func Valid(s string) bool {
	return uuid.Validate(s) == nil
}
