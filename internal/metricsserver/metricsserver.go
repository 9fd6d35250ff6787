// Package metricsserver exposes a Prometheus registry's metrics over
// GET /metrics on a background HTTP listener.
package metricsserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crewctl/pkg/logx"
)

var log = logx.NewLogger("metricsserver")

// Server serves GET /metrics for a Prometheus gatherer, per
// SPEC_FULL.md §6's metrics endpoint expansion.
type Server struct {
	httpServer *http.Server
}

// New builds a Server bound to addr, serving gatherer's families.
func New(addr string, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start begins serving in a background goroutine and returns immediately.
// Bind failures are logged; they do not abort the orchestrator, matching
// the metrics endpoint's status as purely observational.
func (s *Server) Start() {
	go func() {
		log.Info("serving metrics on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped: %v", err)
		}
	}()
}

// Shutdown gracefully stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
