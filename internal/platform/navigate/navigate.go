// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package navigate models full-page navigation as an explicit side effect.

Session and OTP logic decide *where* the storefront must go (landing page after
logout, login page after verification, signup page when no identity is known).
They express that through a [Navigator]; the HTTP layer collects the target with a
[Recorder] and returns it to the client as the "redirect" field of the envelope.
*/
package navigate

import "sync"

// Navigator receives navigation requests.
type Navigator interface {
	Navigate(path string)
}

// Recorder is a [Navigator] that remembers the most recent target.
//
// # Concurrency
//
// Safe for concurrent use; an OTP countdown and a request handler may share one.
type Recorder struct {
	mu   sync.Mutex
	last string
}

// NewRecorder returns an empty [Recorder].
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Navigate records path, replacing any earlier target.
func (recorder *Recorder) Navigate(path string) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.last = path
}

// Last returns the most recent target without consuming it.
func (recorder *Recorder) Last() string {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	return recorder.last
}

// Take returns the most recent target and resets the recorder.
func (recorder *Recorder) Take() string {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	path := recorder.last
	recorder.last = ""
	return path
}

// Discard is a [Navigator] that ignores every request.
var Discard Navigator = discard{}

type discard struct{}

func (discard) Navigate(string) {}
