package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/cold-temp-correction/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ViewSource composes airport views against the latest observations.
type ViewSource interface {
	Views() []domain.AirportView
	View(identifier string) (domain.AirportView, bool)
}

// TableSource computes band tables for arbitrary inputs.
type TableSource interface {
	Table(publishedFt, elevationFt, obstacleClearanceFt int) (domain.BandTable, error)
}

// Server exposes health, readiness, metrics, and the read API.
type Server struct {
	httpServer *http.Server
	views      ViewSource
	tables     TableSource
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /api/v1 routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, views ViewSource, tables TableSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		views:  views,
		tables: tables,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/airports", s.handleAirports)
	mux.HandleFunc("GET /api/v1/airports/{icao}", s.handleAirport)
	mux.HandleFunc("GET /api/v1/table", s.handleTable)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
