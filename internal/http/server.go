// Package http provides a minimal local status surface for the sovereign
// security core: health, readiness, and Prometheus metrics. This module's
// primary interface is the cmd/sovereign CLI (SPEC_FULL.md §6); there is no
// multi-client REST API, so this package carries none of the
// authentication, rate-limiting, or per-route authorization middleware a
// networked service would need.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/clenoble/sovereign-sub001/internal/httputil"
	"github.com/clenoble/sovereign-sub001/internal/metrics"
)

// Server is the local health/ready/metrics HTTP surface.
type Server struct {
	server *http.Server
	logger *slog.Logger
	locked func() bool
}

// NewServer creates a new status Server bound to addr. locked reports
// whether the identity is currently locked, for the readiness check.
func NewServer(addr string, logger *slog.Logger, metricsProvider *metrics.Provider, locked func() bool) *Server {
	s := &Server{logger: logger, locked: locked}

	mux := http.NewServeMux()
	mux.Handle("/health", HealthHandler())
	mux.HandleFunc("/ready", s.readinessHandler)
	if metricsProvider != nil {
		mux.Handle("/metrics", metricsProvider.Handler())
	}

	handler := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
	)(mux)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// GetHandler returns the underlying http.Handler, for testing.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// readinessHandler reports not-ready while the identity is locked: every
// other status endpoint is safe to serve unauthenticated, but a locked
// identity has no KeyDatabase/SessionLog for a caller to act on yet.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if s.locked != nil && s.locked() {
		httputil.MakeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "locked"})
		return
	}
	httputil.MakeJSONResponse(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Start starts the status server and blocks until it stops or errors.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting status server", slog.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("start status server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the status server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down status server")
	return s.server.Shutdown(ctx)
}
