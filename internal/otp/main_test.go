// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp_test

import (
	"testing"

	"go.uber.org/goleak"
)

// Every countdown and sweeper goroutine must be gone once its page is closed.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
