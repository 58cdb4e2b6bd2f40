// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tab

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/localmart/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/localmart/internal/platform/request"
	"github.com/taibuivan/localmart/internal/platform/respond"
	"github.com/taibuivan/localmart/pkg/uuid"
)

// TokenIssuer signs tab tokens. [sec.TabTokenService] satisfies it.
type TokenIssuer interface {
	Issue(tabID, deviceID string, timeToLive time.Duration) (string, error)
	RecoverDeviceID(tokenString string) (string, error)
}

// Handler opens new tabs.
type Handler struct {
	issuer     TokenIssuer
	timeToLive time.Duration
}

// NewHandler constructs a [Handler]; every token it issues lives for timeToLive.
func NewHandler(issuer TokenIssuer, timeToLive time.Duration) *Handler {
	return &Handler{issuer: issuer, timeToLive: timeToLive}
}

// Routes returns the tab endpoints. They are public: this is where a token is obtained.
//
// # Endpoints
//   - POST / : Opens a tab, reusing the device of a previous token when valid.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", handler.open)
	return router
}

// # Payloads

type openRequest struct {
	PreviousToken string `json:"previous_token"`
}

// Opened is the response of a successful tab open.
type Opened struct {
	Token     string `json:"token"`
	TabID     string `json:"tab_id"`
	DeviceID  string `json:"device_id"`
	ExpiresIn int    `json:"expires_in"`
}

/*
open issues a token for a brand new tab.

POST /api/v1/tabs

Description: A tab always gets a fresh ID (fresh session storage). The device ID
is carried over from previous_token when its signature verifies, even if it has
expired, so local storage survives tab restarts.

Request:
  - Body: openRequest (optional)

Response:
  - 201: Opened
  - 400: ErrInvalidJSON
*/
func (handler *Handler) open(writer http.ResponseWriter, request *http.Request) {
	var input openRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	deviceID := ""
	if input.PreviousToken != "" {
		recovered, err := handler.issuer.RecoverDeviceID(input.PreviousToken)
		if err != nil {
			ctxutil.GetLogger(request.Context()).DebugContext(request.Context(), "tab_previous_token_ignored",
				slog.String("error", err.Error()),
			)
		} else if uuid.Valid(recovered) {
			deviceID = recovered
		}
	}
	if deviceID == "" {
		deviceID = uuid.New()
	}

	tabID := uuid.New()
	token, err := handler.issuer.Issue(tabID, deviceID, handler.timeToLive)
	if err != nil {
		respond.Error(writer, request, fmt.Errorf("tab_issue_failed: %w", err))
		return
	}

	ctxutil.GetLogger(request.Context()).InfoContext(request.Context(), "tab_opened",
		slog.String("tab_id", tabID),
		slog.String("device_id", deviceID),
	)

	respond.Created(writer, Opened{
		Token:     token,
		TabID:     tabID,
		DeviceID:  deviceID,
		ExpiresIn: int(handler.timeToLive.Seconds()),
	})
}
