// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for the gateway.

It provides a rich error type that bridges low-level storage and remote-call errors
and the short, human-readable messages the storefront shows.

Taxonomy:

  - Validation: caught locally before any network call (VALIDATION_ERROR).
  - Transport: the remote backend could not be reached (SERVICE_UNAVAILABLE).
  - Application: the remote backend answered with a failure (UNAUTHORIZED,
    UNPROCESSABLE, BAD_GATEWAY).

Every error that leaves the service layer should be an [AppError] so the HTTP layer
can render a consistent envelope.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the canonical error type for the gateway API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "UNAUTHORIZED", "RATE_LIMITED").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

func newError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("OTP flow") // Returns "OTP flow not found"
func NotFound(resource string) *AppError {
	return newError(http.StatusNotFound, "NOT_FOUND", resource+" not found")
}

// Unauthorized creates a 401 [AppError]. Rejected credentials and missing tab
// tokens both use it.
func Unauthorized(msg string) *AppError {
	return newError(http.StatusUnauthorized, "UNAUTHORIZED", msg)
}

// Forbidden creates a 403 [AppError] for an identity that lacks the required role.
func Forbidden(msg string) *AppError {
	return newError(http.StatusForbidden, "FORBIDDEN", msg)
}

// ValidationError creates a 400 [AppError] with optional field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	validation := newError(http.StatusBadRequest, "VALIDATION_ERROR", msg)
	validation.Details = details
	return validation
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return newError(http.StatusTooManyRequests, "RATE_LIMITED",
		fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds))
}

// Unprocessable creates a 422 [AppError]: the directory understood the request
// and refused it (e.g. an expired reset code).
func Unprocessable(msg string) *AppError {
	return newError(http.StatusUnprocessableEntity, "UNPROCESSABLE", msg)
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return newError(http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred").WithCause(cause)
}

// ServiceUnavailable creates a 503 [AppError] for unreachable dependencies.
func ServiceUnavailable(msg string) *AppError {
	return newError(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", msg)
}

// BadGateway creates a 502 [AppError] for a remote backend that answered with
// something the gateway could not interpret.
func BadGateway(msg string, cause error) *AppError {
	return newError(http.StatusBadGateway, "BAD_GATEWAY", msg).WithCause(cause)
}

// WithCause attaches a server-side cause to e and returns it.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// # Helpers

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError
	}
	return nil
}

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	return As(err) != nil
}
