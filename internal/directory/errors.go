// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package directory

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// # Application Errors

// ErrRejected matches every [RemoteError] via [errors.Is].
var ErrRejected = errors.New("directory: request rejected")

// RemoteError is a well-formed response that reports failure.
type RemoteError struct {
	// Operation names the remote call (e.g. "verify_email").
	Operation string
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// Status is the body's "status" field, if any.
	Status string
	// Message is the body's "message" field, if any. It is safe to show to users.
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("directory_%s_rejected: http %d status %q", e.Operation, e.StatusCode, e.Status)
}

// Is reports whether target is [ErrRejected].
func (e *RemoteError) Is(target error) bool {
	return target == ErrRejected
}

// # Transport Errors

// TransportKind classifies why no HTTP response was received.
type TransportKind string

const (
	// Connection refused, DNS failure, no route.
	TransportUnreachable TransportKind = "unreachable"

	// Certificate or handshake failure.
	TransportTLS TransportKind = "tls"

	// Deadline exceeded before a response arrived.
	TransportTimeout TransportKind = "timeout"

	// Anything else.
	TransportOther TransportKind = "other"
)

// TransportError means the remote backend produced no HTTP response at all.
type TransportError struct {
	Operation string
	URL       string
	Kind      TransportKind
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("directory_%s_transport_%s: %v", e.Operation, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AsTransport extracts a [*TransportError] from err's chain.
func AsTransport(err error) (*TransportError, bool) {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr, true
	}
	return nil, false
}

// AsRemote extracts a [*RemoteError] from err's chain.
func AsRemote(err error) (*RemoteError, bool) {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr, true
	}
	return nil, false
}

// classify maps an [http.Client.Do] error to a [TransportKind].
func classify(err error) TransportKind {
	var (
		netErr      net.Error
		dnsErr      *net.DNSError
		opErr       *net.OpError
		unknownAuth x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidCert x509.CertificateInvalidError
		verifyErr   *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return TransportTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return TransportTimeout
	case errors.As(err, &verifyErr),
		errors.As(err, &unknownAuth),
		errors.As(err, &hostnameErr),
		errors.As(err, &invalidCert),
		errors.As(err, &recordErr):
		return TransportTLS
	case errors.As(err, &dnsErr),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH):
		return TransportUnreachable
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return TransportUnreachable
	default:
		return TransportOther
	}
}
