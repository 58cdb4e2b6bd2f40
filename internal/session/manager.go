// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session implements the customer authentication session of a tab.

It bridges the opaque session token (an email kept in tab storage under RSEmail)
and the directory profile it resolves to, and exposes the result as a single
[State].

# Lifecycle

  - [Manager.Initialize] rehydrates from the persisted token, or settles logged out.
  - [Manager.Login] persists a token and resolves it.
  - [Manager.SignIn] checks a password first, then logs in.
  - [Manager.Logout] clears everything and navigates to the landing page.

A failed resolution always degrades to logged out: there is no partially
populated user.

# Concurrency

Every method is safe for concurrent use. The state lock is never held across a
remote call, so a rehydration and a login can overlap; whichever settles last
owns the final state.
*/
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/taibuivan/localmart/internal/directory"
	"github.com/taibuivan/localmart/internal/platform/apperr"
	"github.com/taibuivan/localmart/internal/platform/ctxutil"
	"github.com/taibuivan/localmart/internal/platform/navigate"
	"github.com/taibuivan/localmart/internal/platform/validate"
	"github.com/taibuivan/localmart/pkg/normalize"
)

// # User-facing Messages

const (
	MessageLookupFailed       = "Failed to fetch user data"
	MessageNoAccount          = "No account found for this email"
	MessageUnreachable        = "Unable to reach the account service. Please try again."
	MessageInvalidCredentials = "Invalid email or password"
)

// # Field Identifiers

const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

// errNoMatch marks a successful lookup that returned zero records.
var errNoMatch = errors.New("session_lookup_no_match")

// # Contracts & Types

// Directory is the slice of the remote directory the session needs.
type Directory interface {
	LookupUsers(ctx context.Context, email string) ([]directory.UserRecord, error)
	Login(ctx context.Context, email, password string) error
}

// State is the session as consumers see it.
//
// While IsLoading is true, IsLoggedIn and User must not be trusted yet.
type State struct {
	IsLoggedIn bool                  `json:"isLoggedIn"`
	User       *directory.UserRecord `json:"user"`
	IsLoading  bool                  `json:"isLoading"`
	Error      string                `json:"error"`
}

// Manager owns the session of one tab.
type Manager struct {
	tokens      *TokenStore
	directory   Directory
	navigator   navigate.Navigator
	landingPath string

	mu    sync.Mutex
	state State
}

/*
NewManager constructs a [Manager] in the loading state.

Parameters:
  - tokens: *TokenStore (the tab's RSEmail)
  - directory: Directory
  - navigator: navigate.Navigator (receives the landing path on logout)
  - landingPath: string

Returns:
  - *Manager: IsLoading is true until the first [Manager.Initialize] settles
*/
func NewManager(tokens *TokenStore, directory Directory, navigator navigate.Navigator, landingPath string) *Manager {
	if navigator == nil {
		navigator = navigate.Discard
	}
	return &Manager{
		tokens:      tokens,
		directory:   directory,
		navigator:   navigator,
		landingPath: landingPath,
		state:       State{IsLoading: true},
	}
}

// State returns a snapshot; the caller may keep it.
func (manager *Manager) State() State {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	snapshot := manager.state
	if snapshot.User != nil {
		user := *snapshot.User
		snapshot.User = &user
	}
	return snapshot
}

// # Lifecycle

/*
Initialize rehydrates the session from the persisted token.

Without a token the session settles logged out and no remote call is made. An
unreadable token store is treated the same way. Errors are absorbed into [State].
*/
func (manager *Manager) Initialize(ctx context.Context) {
	token, found, err := manager.tokens.Get(ctx)
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "session_token_unreadable", slog.String("error", err.Error()))
		found = false
	}

	if !found {
		manager.commit(State{})
		return
	}

	_ = manager.FetchUserData(ctx, token)
}

/*
FetchUserData resolves identity through the directory.

Success requires status "success" and at least one record; the first record wins.
On success the user is stored and the token persisted. On any failure the user is
cleared, the token removed and a message recorded.

Returns:
  - error: *apperr.AppError describing the failure, or nil
*/
func (manager *Manager) FetchUserData(ctx context.Context, identity string) error {
	identity = normalize.Email(identity)
	manager.markLoading()

	users, err := manager.directory.LookupUsers(ctx, identity)
	if err == nil && len(users) == 0 {
		err = errNoMatch
	}
	if err != nil {
		return manager.fail(ctx, err)
	}

	user := users[0]
	if err := manager.tokens.Set(ctx, identity); err != nil {
		return manager.fail(ctx, err)
	}

	manager.commit(State{IsLoggedIn: true, User: &user})
	return nil
}

/*
Login persists identity as the tab's token and resolves it.

Returns:
  - error: VALIDATION_ERROR for a malformed email (state untouched), otherwise
    the result of [Manager.FetchUserData]
*/
func (manager *Manager) Login(ctx context.Context, identity string) error {
	identity = normalize.Email(identity)

	validator := &validate.Validator{}
	validator.Required(FieldEmail, identity).Email(FieldEmail, identity)
	if err := validator.Err(); err != nil {
		return err
	}

	if err := manager.tokens.Set(ctx, identity); err != nil {
		return manager.fail(ctx, err)
	}

	return manager.FetchUserData(ctx, identity)
}

/*
SignIn checks the password against login.php, then performs [Manager.Login].

A rejected password surfaces a generic message and does not touch the token.

Returns:
  - error: VALIDATION_ERROR, UNAUTHORIZED, SERVICE_UNAVAILABLE or nil
*/
func (manager *Manager) SignIn(ctx context.Context, email, password string) error {
	email = normalize.Email(email)

	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).
		Email(FieldEmail, email).
		Required(FieldPassword, password)
	if err := validator.Err(); err != nil {
		return err
	}

	if err := manager.directory.Login(ctx, email, password); err != nil {
		var appErr *apperr.AppError
		if _, isTransport := directory.AsTransport(err); isTransport {
			appErr = apperr.ServiceUnavailable(MessageUnreachable).WithCause(err)
		} else {
			appErr = apperr.Unauthorized(MessageInvalidCredentials).WithCause(err)
		}

		ctxutil.GetLogger(ctx).InfoContext(ctx, "session_sign_in_rejected", slog.String("error", err.Error()))
		manager.recordError(appErr.Message)
		return appErr
	}

	return manager.Login(ctx, email)
}

// Logout clears the token and the user, then navigates to the landing page.
//
// It never fails: a storage error is logged and the in-memory state is cleared anyway.
func (manager *Manager) Logout(ctx context.Context) {
	if err := manager.tokens.Clear(ctx); err != nil {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "session_logout_clear_failed", slog.String("error", err.Error()))
	}

	manager.commit(State{})
	manager.navigator.Navigate(manager.landingPath)
}

// # Internal State Transitions

func (manager *Manager) commit(state State) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.state = state
}

func (manager *Manager) markLoading() {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.state.IsLoading = true
}

func (manager *Manager) recordError(message string) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.state.Error = message
	manager.state.IsLoading = false
}

// fail degrades the session to logged out and returns the client-facing error.
func (manager *Manager) fail(ctx context.Context, cause error) error {
	appErr := failure(cause)

	if err := manager.tokens.Clear(ctx); err != nil {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "session_token_clear_failed", slog.String("error", err.Error()))
	}

	ctxutil.GetLogger(ctx).WarnContext(ctx, "session_fetch_failed",
		slog.String("code", appErr.Code),
		slog.String("error", cause.Error()),
	)

	manager.commit(State{Error: appErr.Message})
	return appErr
}

// failure picks the message tier: transport, then server message, then generic.
func failure(cause error) *apperr.AppError {
	if _, ok := directory.AsTransport(cause); ok {
		return apperr.ServiceUnavailable(MessageUnreachable).WithCause(cause)
	}

	if errors.Is(cause, errNoMatch) {
		return apperr.Unauthorized(MessageNoAccount).WithCause(cause)
	}

	if remoteErr, ok := directory.AsRemote(cause); ok {
		message := remoteErr.Message
		if message == "" {
			message = MessageLookupFailed
		}
		return apperr.Unauthorized(message).WithCause(cause)
	}

	return apperr.Internal(cause)
}
