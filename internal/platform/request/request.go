// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/localmart/internal/platform/apperr"
	"github.com/taibuivan/localmart/internal/platform/ctxutil"
	"github.com/taibuivan/localmart/internal/platform/sec"
	"github.com/taibuivan/localmart/internal/platform/validate"
)

// maxBodyBytes caps request bodies; the largest payload is a recently-viewed entry.
const maxBodyBytes = 64 << 10

/*
DecodeJSON reads the request body and decodes it into the target structure.

An empty body decodes to the zero value so optional payloads (e.g. opening an
OTP page without an email) need no special casing.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if request.Body == nil {
		return nil
	}

	decoder := json.NewDecoder(io.LimitReader(request.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
RequiredTab returns the verified tab scope of the request.

Returns:
  - *sec.TabClaims: Tab and device identifiers
  - error: apperr.Unauthorized if the request carries no tab scope
*/
func RequiredTab(request *http.Request) (*sec.TabClaims, error) {
	claims := ctxutil.GetTab(request.Context())
	if claims == nil {
		return nil, apperr.Unauthorized("Tab token required")
	}
	return claims, nil
}
