// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package directory is the HTTP client for the third-party marketplace backends.

Two opaque services sit behind it:

  - The PHP directory (users.php, login.php, forgotpassword.php, reset-password.php).
  - The Node auth service (verify-email, resend-otp).

# Contracts

Neither backend has a fully reliable contract, so every call keeps the raw HTTP
status next to the decoded body and callers decide what "success" means for their
operation. Failures come back as one of two types:

  - [*TransportError]: no HTTP response was received (classified by [TransportKind]).
  - [*RemoteError]: a response was received and it reports failure.
*/
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// statusSuccess is the "status" value both backends use for acceptance.
const statusSuccess = "success"

// maxResponseBytes caps response bodies read from the backends.
const maxResponseBytes = 1 << 20

// # Configuration

// Config locates the remote backends.
type Config struct {
	// DirectoryBaseURL is the PHP directory root, e.g. "https://api.example.com/api".
	DirectoryBaseURL string
	// AuthBaseURL is the Node auth service root, e.g. "https://auth.example.com/api/auth".
	AuthBaseURL string
	// Timeout bounds each HTTP attempt.
	Timeout time.Duration
	// AllowInsecureFallback retries verify-email over plain HTTP when HTTPS fails
	// at the transport level.
	AllowInsecureFallback bool
}

// # Client

// Client calls the remote backends.
//
// # Concurrency
//
// Safe for concurrent use.
type Client struct {
	httpClient            *http.Client
	directoryBase         *url.URL
	authBase              *url.URL
	allowInsecureFallback bool
	logger                *slog.Logger
}

/*
NewClient validates the configured base URLs and builds a [Client].

Parameters:
  - config: Config
  - logger: *slog.Logger

Returns:
  - *Client
  - error: If a base URL is missing or not absolute
*/
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	directoryBase, err := parseBase(config.DirectoryBaseURL)
	if err != nil {
		return nil, fmt.Errorf("directory_base_url_invalid: %w", err)
	}

	authBase, err := parseBase(config.AuthBaseURL)
	if err != nil {
		return nil, fmt.Errorf("auth_base_url_invalid: %w", err)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient:            &http.Client{Timeout: timeout},
		directoryBase:         directoryBase,
		authBase:              authBase,
		allowInsecureFallback: config.AllowInsecureFallback,
		logger:                logger,
	}, nil
}

func parseBase(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("missing host in %q", raw)
	}
	return parsed, nil
}

// # Wire Types

// reply is the decoded outcome of one HTTP exchange.
type reply struct {
	StatusCode int
	Status     string
	Message    string
	Users      []UserRecord
}

// envelope is the loose JSON shape both backends answer with.
type envelope struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Users   []UserRecord `json:"users"`
}

func (r *reply) succeeded() bool {
	return r.Status == statusSuccess
}

func (r *reply) is2xx() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *reply) reject(operation string) *RemoteError {
	return &RemoteError{
		Operation:  operation,
		StatusCode: r.StatusCode,
		Status:     r.Status,
		Message:    r.Message,
	}
}

// # Exchange

/*
exchange performs one HTTP request and decodes the JSON envelope leniently.

A body that is not JSON (or is empty) is not an error: the reply keeps its status
code and carries empty fields, because some endpoints answer a bare 200.

Returns:
  - *reply
  - error: [*TransportError] when no response was received
*/
func (client *Client) exchange(ctx context.Context, operation, method string, target *url.URL, body interface{}) (*reply, error) {
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("directory_%s_encode_failed: %w", operation, err)
		}
		payload = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, target.String(), payload)
	if err != nil {
		return nil, fmt.Errorf("directory_%s_request_failed: %w", operation, err)
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, &TransportError{
			Operation: operation,
			URL:       redact(target),
			Kind:      classify(err),
			Err:       err,
		}
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{
			Operation: operation,
			URL:       redact(target),
			Kind:      classify(err),
			Err:       err,
		}
	}

	result := &reply{StatusCode: response.StatusCode}

	var decoded envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			client.logger.DebugContext(ctx, "directory_body_not_json",
				slog.String("operation", operation),
				slog.Int("status_code", response.StatusCode),
			)
		} else {
			result.Status = decoded.Status
			result.Message = decoded.Message
			result.Users = decoded.Users
		}
	}

	client.logger.DebugContext(ctx, "directory_call",
		slog.String("operation", operation),
		slog.String("url", redact(target)),
		slog.Int("status_code", response.StatusCode),
		slog.String("status", result.Status),
		slog.Duration("duration", time.Since(start)),
	)

	return result, nil
}

// redact strips the query string so emails never reach the logs.
func redact(target *url.URL) string {
	clean := *target
	clean.RawQuery = ""
	return clean.String()
}

func (client *Client) directoryURL(path string) *url.URL {
	return client.directoryBase.JoinPath(path)
}

func (client *Client) authURL(path string) *url.URL {
	return client.authBase.JoinPath(path)
}
