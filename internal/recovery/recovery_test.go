// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package recovery_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/localmart/internal/directory"
	"github.com/taibuivan/localmart/internal/platform/apperr"
	"github.com/taibuivan/localmart/internal/recovery"
)

// backend is a scripted PHP directory.
type backend struct {
	server   *httptest.Server
	calls    atomic.Int32
	status   atomic.Int32
	response atomic.Value
}

func newBackend(t *testing.T) (*backend, *recovery.Service) {
	t.Helper()
	b := &backend{}
	b.status.Store(http.StatusOK)
	b.response.Store("")

	b.server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		b.calls.Add(1)
		writer.WriteHeader(int(b.status.Load()))
		_, _ = io.WriteString(writer, b.response.Load().(string))
	}))
	t.Cleanup(b.server.Close)

	client, err := directory.NewClient(directory.Config{
		DirectoryBaseURL: b.server.URL,
		AuthBaseURL:      b.server.URL,
		Timeout:          2 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	return b, recovery.NewService(client)
}

func code(err error) string {
	if appErr := apperr.As(err); appErr != nil {
		return appErr.Code
	}
	return ""
}

/*
TestRequestReset covers local validation, 2xx acceptance and message tiers.
*/
func TestRequestReset(t *testing.T) {
	t.Run("invalid_email_never_calls", func(t *testing.T) {
		b, service := newBackend(t)
		assert.Equal(t, "VALIDATION_ERROR", code(service.RequestReset(context.Background(), "nope")))
		assert.Zero(t, b.calls.Load())
	})

	t.Run("any_2xx_is_success", func(t *testing.T) {
		b, service := newBackend(t)
		b.status.Store(http.StatusCreated)
		assert.NoError(t, service.RequestReset(context.Background(), "Buyer@Example.com"))
	})

	t.Run("server_message_surfaces", func(t *testing.T) {
		b, service := newBackend(t)
		b.status.Store(http.StatusNotFound)
		b.response.Store(`{"message":"Email not registered"}`)

		err := service.RequestReset(context.Background(), "ghost@example.com")
		assert.Equal(t, "UNPROCESSABLE", code(err))
		assert.Equal(t, "Email not registered", err.Error())
	})

	t.Run("generic_message_fallback", func(t *testing.T) {
		b, service := newBackend(t)
		b.status.Store(http.StatusInternalServerError)

		err := service.RequestReset(context.Background(), "buyer@example.com")
		assert.Equal(t, recovery.MessageSendFailed, err.Error())
	})

	t.Run("unreachable", func(t *testing.T) {
		b, service := newBackend(t)
		b.server.Close()

		err := service.RequestReset(context.Background(), "buyer@example.com")
		assert.Equal(t, "SERVICE_UNAVAILABLE", code(err))
	})
}

/*
TestResetPassword covers the validation rules and the HTTP-200-only contract.
*/
func TestResetPassword(t *testing.T) {
	valid := recovery.ResetInput{
		Email:           "buyer@example.com",
		OTP:             "123456",
		Password:        "newpass123",
		ConfirmPassword: "newpass123",
	}

	invalid := map[string]func(*recovery.ResetInput){
		"short_code":      func(in *recovery.ResetInput) { in.OTP = "123" },
		"letters_in_code": func(in *recovery.ResetInput) { in.OTP = "12a456" },
		"weak_password":   func(in *recovery.ResetInput) { in.Password, in.ConfirmPassword = "short", "short" },
		"no_digit":        func(in *recovery.ResetInput) { in.Password, in.ConfirmPassword = "onlyletters", "onlyletters" },
		"mismatch":        func(in *recovery.ResetInput) { in.ConfirmPassword = "different123" },
		"bad_email":       func(in *recovery.ResetInput) { in.Email = "x" },
	}

	for name, mutate := range invalid {
		t.Run(name, func(t *testing.T) {
			b, service := newBackend(t)
			input := valid
			mutate(&input)

			assert.Equal(t, "VALIDATION_ERROR", code(service.ResetPassword(context.Background(), input)))
			assert.Zero(t, b.calls.Load())
		})
	}

	t.Run("http_200_succeeds", func(t *testing.T) {
		_, service := newBackend(t)
		assert.NoError(t, service.ResetPassword(context.Background(), valid))
	})

	t.Run("other_2xx_fails", func(t *testing.T) {
		b, service := newBackend(t)
		b.status.Store(http.StatusAccepted)

		err := service.ResetPassword(context.Background(), valid)
		assert.Equal(t, recovery.MessageResetFailed, err.Error())
	})
}

func TestHandler_Reset(t *testing.T) {
	_, service := newBackend(t)
	routes := recovery.NewHandler(service, "/login").Routes()

	body := `{"email":"buyer@example.com","otp":"123456","password":"newpass123","confirm_password":"newpass123"}`
	request := httptest.NewRequest(http.MethodPost, "/reset", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	routes.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var envelope struct {
		Data     recovery.Result `json:"data"`
		Redirect string          `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	assert.Equal(t, recovery.NoticePasswordReset, envelope.Data.Message)
	assert.Equal(t, "/login", envelope.Redirect)
}

func TestHandler_ForgotValidation(t *testing.T) {
	_, service := newBackend(t)
	routes := recovery.NewHandler(service, "/login").Routes()

	request := httptest.NewRequest(http.MethodPost, "/forgot", strings.NewReader(`{"email":""}`))
	recorder := httptest.NewRecorder()
	routes.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
