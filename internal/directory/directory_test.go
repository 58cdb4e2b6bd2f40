// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package directory_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newClient points both base URLs at server.
func newClient(t *testing.T, server *httptest.Server) *directory.Client {
	t.Helper()
	client, err := directory.NewClient(directory.Config{
		DirectoryBaseURL: server.URL + "/api",
		AuthBaseURL:      server.URL + "/api/auth",
		Timeout:          2 * time.Second,
	}, discardLogger())
	require.NoError(t, err)
	return client
}

func writeJSON(writer http.ResponseWriter, status int, body string) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_, _ = io.WriteString(writer, body)
}

/*
TestLookupUsers covers the users.php contract: success with records, success
with none, and a failure status.
*/
func TestLookupUsers(t *testing.T) {
	t.Run("success_decodes_every_field", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodGet, request.Method)
			assert.Equal(t, "/api/users.php", request.URL.Path)
			assert.Equal(t, "buyer@example.com", request.URL.Query().Get("email"))
			writeJSON(writer, http.StatusOK, `{"status":"success","users":[{
				"account_id": 42, "full_name": "Bea Buyer", "email": "buyer@example.com",
				"role": "customer", "phone": "555-0100", "business_name": "",
				"address": "1 Main St", "country": "US", "state": "CA", "zip": 94016
			}]}`)
		}))
		defer server.Close()

		users, err := newClient(t, server).LookupUsers(context.Background(), "buyer@example.com")
		require.NoError(t, err)
		require.Len(t, users, 1)

		user := users[0]
		assert.Equal(t, directory.FlexString("42"), user.AccountID)
		assert.Equal(t, int64(42), user.AccountID.Int())
		assert.Equal(t, "Bea Buyer", user.FullName)
		assert.Equal(t, "buyer@example.com", user.Email)
		assert.Equal(t, "customer", user.Role)
		assert.Equal(t, directory.FlexString("555-0100"), user.Phone)
		assert.Equal(t, "1 Main St", user.Address)
		assert.Equal(t, "US", user.Country)
		assert.Equal(t, "CA", user.State)
		assert.Equal(t, directory.FlexString("94016"), user.Zip)
	})

	t.Run("success_without_records", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writeJSON(writer, http.StatusOK, `{"status":"success","users":[]}`)
		}))
		defer server.Close()

		users, err := newClient(t, server).LookupUsers(context.Background(), "nobody@example.com")
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("failure_status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writeJSON(writer, http.StatusOK, `{"status":"error","message":"User not found"}`)
		}))
		defer server.Close()

		_, err := newClient(t, server).LookupUsers(context.Background(), "x@example.com")
		require.Error(t, err)
		assert.ErrorIs(t, err, directory.ErrRejected)

		remoteErr, ok := directory.AsRemote(err)
		require.True(t, ok)
		assert.Equal(t, "User not found", remoteErr.Message)
	})

	t.Run("malformed_body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writeJSON(writer, http.StatusOK, `<html>oops</html>`)
		}))
		defer server.Close()

		_, err := newClient(t, server).LookupUsers(context.Background(), "x@example.com")
		assert.ErrorIs(t, err, directory.ErrRejected)
	})
}

/*
TestLogin verifies that only status "success" authenticates.
*/
func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		assert.NoError(t, json.NewDecoder(request.Body).Decode(&body))
		assert.Equal(t, "/api/login.php", request.URL.Path)

		if body.Password == "correct-horse-1" {
			writeJSON(writer, http.StatusOK, `{"status":"success"}`)
			return
		}
		writeJSON(writer, http.StatusOK, `{"status":"error","message":"bad credentials"}`)
	}))
	defer server.Close()

	client := newClient(t, server)

	assert.NoError(t, client.Login(context.Background(), "buyer@example.com", "correct-horse-1"))
	assert.ErrorIs(t, client.Login(context.Background(), "buyer@example.com", "wrong"), directory.ErrRejected)
}

/*
TestForgotPassword verifies that any 2xx is accepted and failures keep the
server message.
*/
func TestForgotPassword(t *testing.T) {
	var status atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/api/forgotpassword.php", request.URL.Path)
		code := int(status.Load())
		if code >= 300 {
			writeJSON(writer, code, `{"message":"Email not registered"}`)
			return
		}
		writer.WriteHeader(code)
	}))
	defer server.Close()

	client := newClient(t, server)

	status.Store(http.StatusAccepted)
	assert.NoError(t, client.ForgotPassword(context.Background(), "buyer@example.com"))

	status.Store(http.StatusNotFound)
	err := client.ForgotPassword(context.Background(), "ghost@example.com")
	remoteErr, ok := directory.AsRemote(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, remoteErr.StatusCode)
	assert.Equal(t, "Email not registered", remoteErr.Message)
}

/*
TestResetPassword verifies that only HTTP 200 counts as success.
*/
func TestResetPassword(t *testing.T) {
	var status atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(request.Body).Decode(&body))
		assert.Equal(t, "123456", body["otp"])
		writer.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	client := newClient(t, server)

	status.Store(http.StatusOK)
	assert.NoError(t, client.ResetPassword(context.Background(), "buyer@example.com", "newpass123", "123456"))

	status.Store(http.StatusCreated)
	assert.ErrorIs(t, client.ResetPassword(context.Background(), "buyer@example.com", "newpass123", "123456"), directory.ErrRejected)
}

/*
TestVerifyEmail_AcceptanceRules exercises the dual success check.
*/
func TestVerifyEmail_AcceptanceRules(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		accepted bool
		message  string
	}{
		{"status_success", http.StatusCreated, `{"status":"success"}`, true, ""},
		{"bare_200", http.StatusOK, ``, true, ""},
		{"200_with_other_status", http.StatusOK, `{"status":"pending"}`, true, ""},
		{"explicit_error", http.StatusBadRequest, `{"status":"error","message":"OTP expired"}`, false, "OTP expired"},
		{"non_200_without_marker", http.StatusInternalServerError, `oops`, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, "/api/auth/verify-email", request.URL.Path)
				writer.WriteHeader(tt.status)
				_, _ = io.WriteString(writer, tt.body)
			}))
			defer server.Close()

			err := newClient(t, server).VerifyEmail(context.Background(), "buyer@example.com", "123456")
			if tt.accepted {
				assert.NoError(t, err)
				return
			}

			remoteErr, ok := directory.AsRemote(err)
			require.True(t, ok)
			assert.Equal(t, tt.message, remoteErr.Message)
		})
	}
}

/*
TestVerifyEmail_InsecureFallback drives the two-attempt transport strategy
against a plain-HTTP server addressed as https.
*/
func TestVerifyEmail_InsecureFallback(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(writer, http.StatusOK, `{"status":"success"}`)
	}))
	defer server.Close()

	httpsBase := "https://" + strings.TrimPrefix(server.URL, "http://")

	t.Run("enabled_retries_once_over_http", func(t *testing.T) {
		calls.Store(0)
		var logs bytes.Buffer

		client, err := directory.NewClient(directory.Config{
			DirectoryBaseURL:      httpsBase,
			AuthBaseURL:           httpsBase + "/api/auth",
			Timeout:               2 * time.Second,
			AllowInsecureFallback: true,
		}, slog.New(slog.NewJSONHandler(&logs, nil)))
		require.NoError(t, err)

		require.NoError(t, client.VerifyEmail(context.Background(), "buyer@example.com", "123456"))
		assert.Equal(t, int32(1), calls.Load())
		assert.Contains(t, logs.String(), "directory_insecure_fallback")
		assert.NotContains(t, logs.String(), "buyer@example.com")
	})

	t.Run("disabled_surfaces_transport_error", func(t *testing.T) {
		calls.Store(0)

		client, err := directory.NewClient(directory.Config{
			DirectoryBaseURL: httpsBase,
			AuthBaseURL:      httpsBase + "/api/auth",
			Timeout:          2 * time.Second,
		}, discardLogger())
		require.NoError(t, err)

		err = client.VerifyEmail(context.Background(), "buyer@example.com", "123456")
		_, ok := directory.AsTransport(err)
		assert.True(t, ok)
		assert.Zero(t, calls.Load())
	})

	t.Run("other_operations_never_downgrade", func(t *testing.T) {
		calls.Store(0)

		client, err := directory.NewClient(directory.Config{
			DirectoryBaseURL:      httpsBase,
			AuthBaseURL:           httpsBase + "/api/auth",
			Timeout:               2 * time.Second,
			AllowInsecureFallback: true,
		}, discardLogger())
		require.NoError(t, err)

		_, ok := directory.AsTransport(client.ResendOTP(context.Background(), "buyer@example.com"))
		assert.True(t, ok)
		assert.Zero(t, calls.Load())
	})
}

/*
TestTransportClassification verifies that a refused connection is reported as
unreachable.
*/
func TestTransportClassification(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client := newClient(t, server)
	server.Close()

	err := client.ResendOTP(context.Background(), "buyer@example.com")

	transportErr, ok := directory.AsTransport(err)
	require.True(t, ok)
	assert.Equal(t, directory.TransportUnreachable, transportErr.Kind)
	assert.False(t, errors.Is(err, directory.ErrRejected))
}

func TestTransportClassification_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client, err := directory.NewClient(directory.Config{
		DirectoryBaseURL: server.URL,
		AuthBaseURL:      server.URL,
		Timeout:          50 * time.Millisecond,
	}, discardLogger())
	require.NoError(t, err)

	transportErr, ok := directory.AsTransport(client.ResendOTP(context.Background(), "buyer@example.com"))
	require.True(t, ok)
	assert.Equal(t, directory.TransportTimeout, transportErr.Kind)
}

func TestResendOTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/api/auth/resend-otp", request.URL.Path)
		writeJSON(writer, http.StatusOK, `{"status":"success"}`)
	}))
	defer server.Close()

	assert.NoError(t, newClient(t, server).ResendOTP(context.Background(), "buyer@example.com"))
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	_, err := directory.NewClient(directory.Config{DirectoryBaseURL: "ftp://x", AuthBaseURL: "https://auth"}, nil)
	assert.Error(t, err)

	_, err = directory.NewClient(directory.Config{DirectoryBaseURL: "https://dir", AuthBaseURL: "/relative"}, nil)
	assert.Error(t, err)
}

func TestFlexString(t *testing.T) {
	var record directory.UserRecord
	require.NoError(t, json.Unmarshal([]byte(`{"account_id":"A-7","zip":null,"phone":5550100}`), &record))

	assert.Equal(t, directory.FlexString("A-7"), record.AccountID)
	assert.Zero(t, record.AccountID.Int())
	assert.Empty(t, record.Zip)
	assert.Equal(t, directory.FlexString("5550100"), record.Phone)
}
