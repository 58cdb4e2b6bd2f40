// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package directory

import (
	"context"
	"log/slog"
	"net/http"
)

// # Directory (PHP)

/*
LookupUsers resolves an identity into directory records.

GET users.php?email=<email>

Returns:
  - []UserRecord: Matching records, possibly empty
  - error: [*RemoteError] unless the body reports status "success"
*/
func (client *Client) LookupUsers(ctx context.Context, email string) ([]UserRecord, error) {
	target := client.directoryURL("users.php")
	query := target.Query()
	query.Set("email", email)
	target.RawQuery = query.Encode()

	result, err := client.exchange(ctx, "lookup_users", http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	if !result.succeeded() {
		return nil, result.reject("lookup_users")
	}

	return result.Users, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

/*
Login checks a password against the directory.

POST login.php {email, password}

Returns:
  - error: nil only for status "success"
*/
func (client *Client) Login(ctx context.Context, email, password string) error {
	result, err := client.exchange(ctx, "login", http.MethodPost, client.directoryURL("login.php"),
		credentials{Email: email, Password: password})
	if err != nil {
		return err
	}

	if !result.succeeded() {
		return result.reject("login")
	}
	return nil
}

type emailOnly struct {
	Email string `json:"email"`
}

/*
ForgotPassword asks the directory to mail a reset code.

POST forgotpassword.php {email}

Returns:
  - error: nil for any 2xx status
*/
func (client *Client) ForgotPassword(ctx context.Context, email string) error {
	result, err := client.exchange(ctx, "forgot_password", http.MethodPost, client.directoryURL("forgotpassword.php"),
		emailOnly{Email: email})
	if err != nil {
		return err
	}

	if !result.is2xx() {
		return result.reject("forgot_password")
	}
	return nil
}

type resetPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

/*
ResetPassword sets a new password using an emailed code.

POST reset-password.php {email, password, otp}

Returns:
  - error: nil only for HTTP 200
*/
func (client *Client) ResetPassword(ctx context.Context, email, password, otp string) error {
	result, err := client.exchange(ctx, "reset_password", http.MethodPost, client.directoryURL("reset-password.php"),
		resetPayload{Email: email, Password: password, OTP: otp})
	if err != nil {
		return err
	}

	if result.StatusCode != http.StatusOK {
		return result.reject("reset_password")
	}
	return nil
}

// # Auth Service (Node)

type verifyPayload struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

/*
VerifyEmail submits a one-time code.

POST verify-email {email, otp}

Acceptance is status "success" OR a bare HTTP 200: the service has answered both
ways in production.

# Transport Strategy

Two attempts at most. The first uses the configured base URL. If it fails at the
transport level (no HTTP response), the base URL is https and the insecure fallback
is enabled, the request is repeated once over plain http and a warning is logged.
A response of any status on the first attempt is final.

Returns:
  - error: [*TransportError], [*RemoteError] or nil
*/
func (client *Client) VerifyEmail(ctx context.Context, email, otp string) error {
	target := client.authURL("verify-email")
	payload := verifyPayload{Email: email, OTP: otp}

	result, err := client.exchange(ctx, "verify_email", http.MethodPost, target, payload)

	if transportErr, ok := AsTransport(err); ok && client.allowInsecureFallback && target.Scheme == "https" {
		downgraded := *target
		downgraded.Scheme = "http"

		client.logger.WarnContext(ctx, "directory_insecure_fallback",
			slog.String("operation", "verify_email"),
			slog.String("kind", string(transportErr.Kind)),
			slog.String("from", redact(target)),
			slog.String("to", redact(&downgraded)),
			slog.String("error", transportErr.Err.Error()),
		)

		result, err = client.exchange(ctx, "verify_email", http.MethodPost, &downgraded, payload)
	}

	if err != nil {
		return err
	}

	if result.succeeded() || result.StatusCode == http.StatusOK {
		return nil
	}
	return result.reject("verify_email")
}

/*
ResendOTP asks the auth service to mail a fresh code.

POST resend-otp {email}

Returns:
  - error: nil only for status "success"
*/
func (client *Client) ResendOTP(ctx context.Context, email string) error {
	result, err := client.exchange(ctx, "resend_otp", http.MethodPost, client.authURL("resend-otp"),
		emailOnly{Email: email})
	if err != nil {
		return err
	}

	if !result.succeeded() {
		return result.reject("resend_otp")
	}
	return nil
}
