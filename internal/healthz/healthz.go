// Package healthz serves the HTTP liveness and metrics sidecar.
//
// The MCP transport runs over stdio, so orchestrated deployments need a
// separate listener for probes and Prometheus scrapes. Every response
// from /healthz is 200: process liveness is independent of database
// availability, which is reported inside the payload instead.
package healthz

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rh-ai-quickstart/inventory-mcp/internal/inventory"
)

// Server is the HTTP sidecar.
type Server struct {
	addr     string
	router   *chi.Mux
	reporter *inventory.HealthReporter
	log      *slog.Logger
}

// New creates the sidecar with /healthz and /metrics routes.
func New(addr string, reporter *inventory.HealthReporter, reg *prometheus.Registry, log *slog.Logger) *Server {
	s := &Server{
		addr:     addr,
		router:   chi.NewRouter(),
		reporter: reporter,
		log:      log,
	}

	s.router.Use(chimiddleware.Recoverer)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(s.reporter.Check())
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("health sidecar listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
