// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package otp drives the email-verification page: code entry, verification and
resend with a cooldown.

# State Machine

	Idle ──verify(6 digits)──► Submitting ──► Verified  (token cleared, go to login)
	                               │
	                               └────────► Rejected  (message shown, retry allowed)

	Abandoned: opened without any identity; the page goes to signup and every
	later operation is a no-op.

Independently, a resend cooldown counts down from 60 to 0 after each successful
resend. Resend is only actionable when no resend is in flight and the cooldown is 0.

# Remote Contract

The verification service is not fully reliable, so acceptance is either an explicit
"success" status or a bare HTTP 200, and rejection messages fall back in tiers:
server message, then transport classification, then generic text.
*/
package otp

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/localmart/internal/directory"
	"github.com/taibuivan/localmart/internal/platform/apperr"
	"github.com/taibuivan/localmart/internal/platform/ctxutil"
	"github.com/taibuivan/localmart/internal/platform/navigate"
	"github.com/taibuivan/localmart/internal/platform/validate"
	"github.com/taibuivan/localmart/internal/session"
	"github.com/taibuivan/localmart/pkg/normalize"
)

// ResendCooldownSeconds is the wait between two resend requests.
const ResendCooldownSeconds = 60

// # User-facing Messages

const (
	MessageEnterCode    = "Please enter the 6-digit code"
	MessageUnreachable  = "Unable to reach the verification server. Check your connection and try again."
	MessageTransport    = "Verification request failed. Please try again."
	MessageInvalidCode  = "Invalid or expired verification code"
	MessageResendFailed = "Failed to resend code. Please try again."

	NoticeVerified = "Email verified successfully. Please log in."
	NoticeResent   = "A new verification code has been sent to your email"
)

// FieldCode is the field name used in validation details.
const FieldCode = "otp"

// Phase is the verification state of a [Flow].
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseVerified   Phase = "verified"
	PhaseRejected   Phase = "rejected"
	PhaseAbandoned  Phase = "abandoned"
)

// Verifier is the remote auth service. [directory.Client] satisfies it.
type Verifier interface {
	VerifyEmail(ctx context.Context, email, otp string) error
	ResendOTP(ctx context.Context, email string) error
}

// Dependencies wires a [Flow] to its collaborators.
type Dependencies struct {
	Verifier Verifier
	// Tokens is the tab's RSEmail: a fallback identity, cleared once verified.
	Tokens    *session.TokenStore
	Navigator navigate.Navigator
	// NewTicker drives the cooldown; nil means [NewRealTicker].
	NewTicker  TickerFactory
	LoginPath  string
	SignupPath string
}

// Snapshot is the page state as the client renders it.
type Snapshot struct {
	Email                 string `json:"email"`
	Code                  string `json:"code"`
	Phase                 Phase  `json:"phase"`
	ResendCooldownSeconds int    `json:"resendCooldownSeconds"`
	AttemptInFlight       bool   `json:"attemptInFlight"`
	IsResending           bool   `json:"isResending"`
	Error                 string `json:"error,omitempty"`
	Notice                string `json:"notice,omitempty"`
}

// Flow is one OTP page.
//
// # Concurrency
//
// Safe for concurrent use. The lock is never held across a remote call; the
// in-flight flags reject duplicate submissions instead.
type Flow struct {
	deps Dependencies

	mu        sync.Mutex
	email     string
	code      string
	phase     Phase
	cooldown  int
	verifying bool
	resending bool
	message   string
	notice    string
	closed    bool

	countdown *countdown
	workers   sync.WaitGroup
}

type countdown struct {
	stop chan struct{}
}

/*
Open mounts a page for email.

The identity comes from email (the URL parameter) when set, otherwise from the
tab's session token. With neither, the flow is [PhaseAbandoned] and the navigator
receives the signup path.

Returns:
  - *Flow: Never nil
*/
func Open(ctx context.Context, deps Dependencies, email string) *Flow {
	if deps.NewTicker == nil {
		deps.NewTicker = NewRealTicker
	}
	if deps.Navigator == nil {
		deps.Navigator = navigate.Discard
	}

	flow := &Flow{deps: deps, phase: PhaseIdle}

	identity := normalize.Email(email)
	if identity == "" && deps.Tokens != nil {
		token, found, err := deps.Tokens.Get(ctx)
		if err != nil {
			ctxutil.GetLogger(ctx).WarnContext(ctx, "otp_token_unreadable", slog.String("error", err.Error()))
		}
		if found {
			identity = token
		}
	}

	if identity == "" {
		flow.phase = PhaseAbandoned
		deps.Navigator.Navigate(deps.SignupPath)
		return flow
	}

	flow.email = identity
	return flow
}

// Snapshot returns the current page state.
func (flow *Flow) Snapshot() Snapshot {
	flow.mu.Lock()
	defer flow.mu.Unlock()

	return Snapshot{
		Email:                 flow.email,
		Code:                  flow.code,
		Phase:                 flow.phase,
		ResendCooldownSeconds: flow.cooldown,
		AttemptInFlight:       flow.verifying,
		IsResending:           flow.resending,
		Error:                 flow.message,
		Notice:                flow.notice,
	}
}

// SetCode records user input, keeping digits only and at most six of them.
func (flow *Flow) SetCode(raw string) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' && digits.Len() < validate.OTPLength {
			digits.WriteRune(r)
		}
	}

	flow.mu.Lock()
	defer flow.mu.Unlock()

	if !flow.actionable() {
		return
	}
	flow.code = digits.String()
}

/*
Verify submits the entered code.

A code shorter than six digits never reaches the network: only the message changes.
A verify while another is in flight, or on an abandoned, closed or verified page,
is a no-op.

Returns:
  - error: VALIDATION_ERROR, UNPROCESSABLE (rejected) or SERVICE_UNAVAILABLE
*/
func (flow *Flow) Verify(ctx context.Context) error {
	flow.mu.Lock()

	if !flow.actionable() || flow.verifying {
		flow.mu.Unlock()
		return nil
	}

	if len(flow.code) != validate.OTPLength {
		flow.message = MessageEnterCode
		flow.mu.Unlock()
		return validate.RequiredError(FieldCode, MessageEnterCode)
	}

	flow.phase = PhaseSubmitting
	flow.verifying = true
	flow.message = ""
	flow.notice = ""
	email, code := flow.email, flow.code
	flow.mu.Unlock()

	err := flow.deps.Verifier.VerifyEmail(ctx, email, code)

	flow.mu.Lock()
	flow.verifying = false

	if err != nil {
		appErr := rejection(err)
		flow.phase = PhaseRejected
		flow.message = appErr.Message
		flow.mu.Unlock()

		ctxutil.GetLogger(ctx).InfoContext(ctx, "otp_verify_rejected",
			slog.String("code", appErr.Code),
			slog.String("error", err.Error()),
		)
		return appErr
	}

	flow.phase = PhaseVerified
	flow.notice = NoticeVerified
	flow.mu.Unlock()

	if flow.deps.Tokens != nil {
		if err := flow.deps.Tokens.Clear(ctx); err != nil {
			ctxutil.GetLogger(ctx).ErrorContext(ctx, "otp_token_clear_failed", slog.String("error", err.Error()))
		}
	}

	flow.stopCountdown()
	flow.deps.Navigator.Navigate(flow.deps.LoginPath)
	return nil
}

/*
Resend asks for a fresh code.

It is a no-op while a resend is in flight or the cooldown is running. On success
the cooldown restarts at 60 and the entered code is cleared; on failure the
cooldown stays at 0 so the user can retry at once.

Returns:
  - error: SERVICE_UNAVAILABLE or BAD_GATEWAY on failure, nil otherwise
*/
func (flow *Flow) Resend(ctx context.Context) error {
	flow.mu.Lock()

	if !flow.actionable() || flow.resending || flow.cooldown > 0 {
		flow.mu.Unlock()
		return nil
	}

	flow.resending = true
	flow.notice = ""
	email := flow.email
	flow.mu.Unlock()

	err := flow.deps.Verifier.ResendOTP(ctx, email)

	flow.mu.Lock()
	defer flow.mu.Unlock()
	flow.resending = false

	if err != nil {
		flow.message = MessageResendFailed
		ctxutil.GetLogger(ctx).InfoContext(ctx, "otp_resend_failed", slog.String("error", err.Error()))

		if _, isTransport := directory.AsTransport(err); isTransport {
			return apperr.ServiceUnavailable(MessageResendFailed).WithCause(err)
		}
		return apperr.BadGateway(MessageResendFailed, err)
	}

	if flow.closed {
		return nil
	}

	flow.code = ""
	flow.message = ""
	flow.notice = NoticeResent
	flow.cooldown = ResendCooldownSeconds
	flow.startCountdownLocked()
	return nil
}

// Close unmounts the page: the countdown stops and later operations are no-ops.
// It waits for the countdown goroutine to exit and is idempotent.
func (flow *Flow) Close() {
	flow.mu.Lock()
	flow.closed = true
	flow.mu.Unlock()

	flow.stopCountdown()
	flow.workers.Wait()
}

// Closed reports whether [Flow.Close] has been called.
func (flow *Flow) Closed() bool {
	flow.mu.Lock()
	defer flow.mu.Unlock()
	return flow.closed
}

// actionable requires flow.mu.
func (flow *Flow) actionable() bool {
	return !flow.closed && flow.phase != PhaseAbandoned && flow.phase != PhaseVerified
}

// # Countdown

// startCountdownLocked requires flow.mu and flow.cooldown > 0.
//
// A previous countdown, if any, has already reached zero and is exiting on its own.
func (flow *Flow) startCountdownLocked() {
	current := &countdown{stop: make(chan struct{})}
	flow.countdown = current
	ticker := flow.deps.NewTicker(time.Second)

	flow.workers.Add(1)
	go flow.runCountdown(ticker, current.stop)
}

func (flow *Flow) runCountdown(ticker Ticker, stop <-chan struct{}) {
	defer flow.workers.Done()
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			flow.mu.Lock()
			if flow.cooldown > 0 {
				flow.cooldown--
			}
			remaining := flow.cooldown
			flow.mu.Unlock()

			if remaining == 0 {
				return
			}
		}
	}
}

func (flow *Flow) stopCountdown() {
	flow.mu.Lock()
	defer flow.mu.Unlock()

	if flow.countdown != nil {
		close(flow.countdown.stop)
		flow.countdown = nil
	}
}

// # Error Tiers

// rejection maps a verification failure to its user-facing error.
//
// Priority: server-supplied message, then transport class, then generic text.
func rejection(err error) *apperr.AppError {
	if remoteErr, ok := directory.AsRemote(err); ok {
		if remoteErr.Message != "" {
			return apperr.Unprocessable(remoteErr.Message).WithCause(err)
		}
		return apperr.Unprocessable(MessageInvalidCode).WithCause(err)
	}

	if transportErr, ok := directory.AsTransport(err); ok {
		switch transportErr.Kind {
		case directory.TransportUnreachable, directory.TransportTLS, directory.TransportTimeout:
			return apperr.ServiceUnavailable(MessageUnreachable).WithCause(err)
		default:
			return apperr.ServiceUnavailable(MessageTransport).WithCause(err)
		}
	}

	if errors.Is(err, context.Canceled) {
		return apperr.ServiceUnavailable(MessageTransport).WithCause(err)
	}

	return apperr.Unprocessable(MessageInvalidCode).WithCause(err)
}
