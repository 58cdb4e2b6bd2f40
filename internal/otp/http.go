// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/localmart/internal/platform/apperr"
	"github.com/taibuivan/localmart/internal/platform/navigate"
	requestutil "github.com/taibuivan/localmart/internal/platform/request"
	"github.com/taibuivan/localmart/internal/platform/respond"
	"github.com/taibuivan/localmart/internal/platform/validate"
	"github.com/taibuivan/localmart/internal/session"
)

// HandlerConfig holds the navigation targets and the countdown clock.
type HandlerConfig struct {
	LoginPath  string
	SignupPath string
	NewTicker  TickerFactory
}

// Handler exposes the OTP page of each tab.
type Handler struct {
	registry *Registry
	scopes   session.SessionScopes
	verifier Verifier
	config   HandlerConfig
}

// NewHandler constructs a [Handler] over a shared [Registry].
func NewHandler(registry *Registry, scopes session.SessionScopes, verifier Verifier, config HandlerConfig) *Handler {
	return &Handler{registry: registry, scopes: scopes, verifier: verifier, config: config}
}

// Routes returns the OTP endpoints. Every route requires a tab token.
//
// # Endpoints
//   - POST   /       : Mounts the page (optional email).
//   - GET    /       : Current page state.
//   - PUT    /code   : Updates the entered code.
//   - POST   /verify : Submits the code.
//   - POST   /resend : Requests a new code.
//   - DELETE /       : Unmounts the page.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", handler.open)
	router.Get("/", handler.snapshot)
	router.Delete("/", handler.close)
	router.Put("/code", handler.setCode)
	router.Post("/verify", handler.verify)
	router.Post("/resend", handler.resend)
	return router
}

// # Request Payloads

type openRequest struct {
	Email string `json:"email"`
}

type codeRequest struct {
	Code string `json:"code"`
}

/*
open mounts the OTP page for the tab, replacing any page already mounted.

POST /api/v1/otp

Description: Identity comes from the body email, else the tab's session token.
Without either the page is abandoned and the response redirects to signup.

Response:
  - 201: Snapshot
  - 200: Snapshot (abandoned) with redirect to signup
  - 400: Malformed email
*/
func (handler *Handler) open(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredTab(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input openRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if input.Email != "" {
		validator := &validate.Validator{}
		validator.Email(session.FieldEmail, input.Email)
		if err := validator.Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	recorder := navigate.NewRecorder()
	flow := Open(request.Context(), Dependencies{
		Verifier:   handler.verifier,
		Tokens:     session.NewTokenStore(handler.scopes.Session(claims)),
		Navigator:  recorder,
		NewTicker:  handler.config.NewTicker,
		LoginPath:  handler.config.LoginPath,
		SignupPath: handler.config.SignupPath,
	}, input.Email)

	snapshot := flow.Snapshot()
	if snapshot.Phase == PhaseAbandoned {
		handler.registry.Remove(claims.TabID)
		respond.OKRedirect(writer, snapshot, recorder.Take())
		return
	}

	handler.registry.Put(claims.TabID, &Page{Flow: flow, Navigation: recorder})
	respond.Created(writer, snapshot)
}

// page resolves the tab's mounted page.
func (handler *Handler) page(request *http.Request) (string, *Page, error) {
	claims, err := requestutil.RequiredTab(request)
	if err != nil {
		return "", nil, err
	}

	page, ok := handler.registry.Get(claims.TabID)
	if !ok {
		return "", nil, apperr.NotFound("OTP flow")
	}
	return claims.TabID, page, nil
}

/*
snapshot returns the page state.

GET /api/v1/otp

Response:
  - 200: Snapshot
  - 404: No page mounted
*/
func (handler *Handler) snapshot(writer http.ResponseWriter, request *http.Request) {
	_, page, err := handler.page(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, page.Flow.Snapshot())
}

/*
setCode records the entered code (digits only, at most six).

PUT /api/v1/otp/code
*/
func (handler *Handler) setCode(writer http.ResponseWriter, request *http.Request) {
	_, page, err := handler.page(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input codeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	page.Flow.SetCode(input.Code)
	respond.OK(writer, page.Flow.Snapshot())
}

/*
verify submits the entered code.

POST /api/v1/otp/verify

Description: On success the page is unmounted and the response redirects to
login.

Response:
  - 200: Snapshot (verified) with redirect
  - 400: Code is not 6 digits
  - 422: Code rejected
  - 503: Verification server unreachable
*/
func (handler *Handler) verify(writer http.ResponseWriter, request *http.Request) {
	tabID, page, err := handler.page(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := page.Flow.Verify(request.Context()); err != nil {
		respond.Error(writer, request, err)
		return
	}

	snapshot := page.Flow.Snapshot()
	redirect := page.Navigation.Take()
	if snapshot.Phase == PhaseVerified {
		handler.registry.Remove(tabID)
	}

	respond.OKRedirect(writer, snapshot, redirect)
}

/*
resend requests a fresh code.

POST /api/v1/otp/resend

Description: While the cooldown runs this is a no-op; the snapshot shows the
remaining seconds.

Response:
  - 200: Snapshot
  - 502/503: Resend failed (cooldown stays at 0)
*/
func (handler *Handler) resend(writer http.ResponseWriter, request *http.Request) {
	_, page, err := handler.page(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := page.Flow.Resend(request.Context()); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, page.Flow.Snapshot())
}

/*
close unmounts the page and stops its countdown.

DELETE /api/v1/otp

Response:
  - 204: Always, even when nothing was mounted
*/
func (handler *Handler) close(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredTab(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.registry.Remove(claims.TabID)
	respond.NoContent(writer)
}
