// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package recovery

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/localmart/internal/platform/request"
	"github.com/taibuivan/localmart/internal/platform/respond"
)

// Handler exposes password recovery.
type Handler struct {
	service   *Service
	loginPath string
}

// NewHandler constructs a [Handler]; a successful reset redirects to loginPath.
func NewHandler(service *Service, loginPath string) *Handler {
	return &Handler{service: service, loginPath: loginPath}
}

// Routes returns the recovery endpoints.
//
// # Endpoints
//   - POST /forgot : Mails a reset code.
//   - POST /reset  : Sets a new password.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/forgot", handler.forgot)
	router.Post("/reset", handler.reset)
	return router
}

// # Payloads

type forgotRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Email           string `json:"email"`
	OTP             string `json:"otp"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Result acknowledges a recovery step.
type Result struct {
	Message string `json:"message"`
}

/*
forgot mails a reset code.

POST /api/v1/password/forgot

Response:
  - 200: Result
  - 400: Invalid email
  - 422: Rejected by the directory
  - 503: Directory unreachable
*/
func (handler *Handler) forgot(writer http.ResponseWriter, request *http.Request) {
	var input forgotRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.RequestReset(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, Result{Message: NoticeCodeSent})
}

/*
reset sets a new password.

POST /api/v1/password/reset

Response:
  - 200: Result with redirect to login
  - 400: Validation failure (code, strength, confirmation)
  - 422: Rejected by the directory
  - 503: Directory unreachable
*/
func (handler *Handler) reset(writer http.ResponseWriter, request *http.Request) {
	var input resetRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := handler.service.ResetPassword(request.Context(), ResetInput{
		Email:           input.Email,
		OTP:             input.OTP,
		Password:        input.Password,
		ConfirmPassword: input.ConfirmPassword,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OKRedirect(writer, Result{Message: NoticePasswordReset}, handler.loginPath)
}
