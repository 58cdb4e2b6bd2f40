// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/localmart/internal/platform/navigate"
	requestutil "github.com/taibuivan/localmart/internal/platform/request"
	"github.com/taibuivan/localmart/internal/platform/respond"
	"github.com/taibuivan/localmart/internal/platform/sec"
	"github.com/taibuivan/localmart/internal/platform/storage"
)

// SessionScopes resolves a tab's session storage. [tab.Scopes] satisfies it.
type SessionScopes interface {
	Session(claims *sec.TabClaims) storage.Store
}

// Handler exposes the tab session over HTTP.
//
// A [Manager] is built per request over the tab's storage, mirroring a page load
// that boots the session provider.
type Handler struct {
	scopes      SessionScopes
	directory   Directory
	landingPath string
}

// NewHandler constructs a [Handler].
func NewHandler(scopes SessionScopes, directory Directory, landingPath string) *Handler {
	return &Handler{scopes: scopes, directory: directory, landingPath: landingPath}
}

// Routes returns the session endpoints. Every route requires a tab token.
//
// # Endpoints
//   - GET  /       : Rehydrates and returns the session state.
//   - POST /login  : Signs in with email and password.
//   - POST /logout : Clears the session; redirects to the landing page.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.current)
	router.Post("/login", handler.login)
	router.Post("/logout", handler.logout)
	return router
}

func (handler *Handler) manager(request *http.Request, navigator navigate.Navigator) (*Manager, error) {
	claims, err := requestutil.RequiredTab(request)
	if err != nil {
		return nil, err
	}
	tokens := NewTokenStore(handler.scopes.Session(claims))
	return NewManager(tokens, handler.directory, navigator, handler.landingPath), nil
}

// # Request Payloads

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

/*
current rehydrates the tab session.

GET /api/v1/session

Description: Failures are part of the state (isLoggedIn=false, error set), so
this endpoint answers 200 whenever the tab is valid.

Response:
  - 200: State
  - 401: Missing tab token
*/
func (handler *Handler) current(writer http.ResponseWriter, request *http.Request) {
	manager, err := handler.manager(request, nil)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	manager.Initialize(request.Context())
	respond.OK(writer, manager.State())
}

/*
login signs the tab in.

POST /api/v1/session/login

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: State (logged in)
  - 400: Validation failure
  - 401: Invalid credentials or no directory record
  - 503: Account service unreachable
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	manager, err := handler.manager(request, nil)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := manager.SignIn(request.Context(), input.Email, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, manager.State())
}

/*
logout clears the tab session.

POST /api/v1/session/logout

Response:
  - 200: State (logged out) with redirect to the landing page
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	recorder := navigate.NewRecorder()
	manager, err := handler.manager(request, recorder)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	manager.Logout(request.Context())
	respond.OKRedirect(writer, manager.State(), recorder.Take())
}
