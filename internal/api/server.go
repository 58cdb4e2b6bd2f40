// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - Only this package and cmd/api are allowed to import net/http server primitives.
  - Everything under /api/v1 except tab issuance requires a tab token, so every
    handler can resolve its tab's session storage and its device's local storage.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/localmart/internal/otp"
	"github.com/taibuivan/localmart/internal/platform/config"
	"github.com/taibuivan/localmart/internal/platform/constants"
	"github.com/taibuivan/localmart/internal/platform/middleware"
	"github.com/taibuivan/localmart/internal/recent"
	"github.com/taibuivan/localmart/internal/recovery"
	"github.com/taibuivan/localmart/internal/session"
	"github.com/taibuivan/localmart/internal/tab"
	"github.com/taibuivan/localmart/internal/vendor"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler.
	Readiness http.HandlerFunc

	// Tabs issues tab tokens.
	Tabs *tab.Handler

	// Session serves the customer session of the calling tab.
	Session *session.Handler

	// OTP drives the email verification page.
	OTP *otp.Handler

	// Password handles forgot and reset.
	Password *recovery.Handler

	// Recent serves the device's recently-viewed list.
	Recent *recent.Handler

	// Vendor serves the device's vendor session.
	Vendor *vendor.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TabVerifier, h Handlers) *Server {
	router := newRouter(context, cfg, log, verifier, h)

	return &Server{
		router: router,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

func newRouter(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TabVerifier, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// # Middleware Chain
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context, constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/tabs", h.Tabs.Routes())

		api.Group(func(scoped chi.Router) {
			scoped.Use(middleware.RequireTab(verifier))

			scoped.Mount("/session", h.Session.Routes())
			scoped.Mount("/otp", h.OTP.Routes())
			scoped.Mount("/password", h.Password.Routes())
			scoped.Mount("/recently-viewed", h.Recent.Routes())
			scoped.Mount("/vendor", h.Vendor.Routes())
		})
	})

	return r
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
