// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package recovery implements the forgot-password and reset-password steps.

Input is validated locally (email format, 6-digit code, password strength and
confirmation) before anything reaches the directory.
*/
package recovery

import (
	"context"

	"github.com/taibuivan/localmart/internal/directory"
	"github.com/taibuivan/localmart/internal/platform/apperr"
	"github.com/taibuivan/localmart/internal/platform/validate"
	"github.com/taibuivan/localmart/pkg/normalize"
)

// # User-facing Messages

const (
	MessageSendFailed  = "Unable to send reset code"
	MessageResetFailed = "Failed to reset password. The code may be invalid or expired."
	MessageUnreachable = "Unable to reach the account service. Please try again."

	NoticeCodeSent      = "A reset code has been sent to your email"
	NoticePasswordReset = "Your password has been reset. Please log in."
)

// # Field Identifiers

const (
	FieldEmail           = "email"
	FieldOTP             = "otp"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
)

// Directory is the slice of the remote directory recovery needs.
type Directory interface {
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, password, otp string) error
}

// Service runs the recovery steps.
type Service struct {
	directory Directory
}

// NewService constructs a [Service].
func NewService(directory Directory) *Service {
	return &Service{directory: directory}
}

/*
RequestReset asks the directory to mail a reset code.

Returns:
  - error: VALIDATION_ERROR, SERVICE_UNAVAILABLE, or UNPROCESSABLE carrying the
    server message (else a generic one)
*/
func (service *Service) RequestReset(ctx context.Context, email string) error {
	email = normalize.Email(email)

	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).Email(FieldEmail, email)
	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.directory.ForgotPassword(ctx, email); err != nil {
		return failure(err, MessageSendFailed)
	}
	return nil
}

// ResetInput holds a password reset submission.
type ResetInput struct {
	Email           string
	OTP             string
	Password        string
	ConfirmPassword string
}

/*
ResetPassword sets a new password with an emailed code.

Returns:
  - error: VALIDATION_ERROR, SERVICE_UNAVAILABLE, UNPROCESSABLE or nil
*/
func (service *Service) ResetPassword(ctx context.Context, input ResetInput) error {
	input.Email = normalize.Email(input.Email)

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		OTP(FieldOTP, input.OTP).
		Password(FieldPassword, input.Password).
		Match(FieldConfirmPassword, input.Password, input.ConfirmPassword)
	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.directory.ResetPassword(ctx, input.Email, input.Password, input.OTP); err != nil {
		return failure(err, MessageResetFailed)
	}
	return nil
}

// failure prefers the server message, then the transport class, then fallback.
func failure(err error, fallback string) *apperr.AppError {
	if remoteErr, ok := directory.AsRemote(err); ok && remoteErr.Message != "" {
		return apperr.Unprocessable(remoteErr.Message).WithCause(err)
	}
	if _, ok := directory.AsTransport(err); ok {
		return apperr.ServiceUnavailable(MessageUnreachable).WithCause(err)
	}
	return apperr.Unprocessable(fallback).WithCause(err)
}
