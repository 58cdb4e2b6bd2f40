// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/localmart/internal/platform/constants"
	"github.com/taibuivan/localmart/internal/platform/respond"
)

// readinessTimeout bounds each dependency ping.
const readinessTimeout = 2 * time.Second

// Check is one dependency the /ready endpoint pings.
type Check struct {
	// Name appears in the readiness report (e.g. "redis", "sqlite").
	Name string

	// Ping returns nil when the dependency is reachable.
	Ping func(ctx context.Context) error
}

type healthHandler struct {
	checks []Check
	logger *slog.Logger
}

// NewHealthHandlers creates the /health and /ready http.HandlerFuncs.
//
// Only the storage backends actually configured are passed in; an all-memory
// gateway reports ready with an empty check list.
func NewHealthHandlers(checks []Check, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{checks: checks, logger: logger}
	return handler.liveness, handler.readiness
}

// liveness handles GET /health (Liveness probe).
func (handler *healthHandler) liveness(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{constants.FieldStatus: "ok"})
}

type checkResult struct {
	Name  string `json:"name"`
	IsOK  bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// readiness handles GET /ready (Readiness probe).
//
// Backends are pinged concurrently so one slow dependency costs at most
// readinessTimeout, not the sum of all of them.
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	results := make([]checkResult, len(handler.checks))

	var group errgroup.Group
	for index, check := range handler.checks {
		group.Go(func() error {
			ctx, cancel := context.WithTimeout(request.Context(), readinessTimeout)
			defer cancel()

			results[index] = checkResult{Name: check.Name, IsOK: true}
			if err := check.Ping(ctx); err != nil {
				results[index].IsOK = false
				results[index].Error = err.Error()
				handler.logger.Error("readiness_check_failed", slog.String("dependency", check.Name), slog.Any("error", err))
			}
			return nil
		})
	}
	_ = group.Wait()

	isSystemReady := true
	for _, result := range results {
		isSystemReady = isSystemReady && result.IsOK
	}

	payload := map[string]any{constants.FieldStatus: "ready", constants.FieldChecks: results}
	if !isSystemReady {
		payload[constants.FieldStatus] = "degraded"
		respond.JSON(writer, http.StatusServiceUnavailable, respond.SuccessEnvelope{Data: payload})
		return
	}

	respond.OK(writer, payload)
}
