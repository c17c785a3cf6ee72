// Package api exposes airport lookups and gateway health over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/airport-gateway/internal/core/domain"
	"github.com/vietddude/airport-gateway/internal/infra/aviation/provider"
	"github.com/vietddude/airport-gateway/internal/infra/aviation/resilience"
)

// Lookuper serves airport records for raw codes.
type Lookuper interface {
	Get(ctx context.Context, raw string) (domain.Airport, error)
}

// HealthSource reports one provider's state.
type HealthSource interface {
	Health() provider.StrategyHealth
}

// Status is the aggregate gateway health reported by /health.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
)

// DetailedHealth is the body of /health/detailed.
type DetailedHealth struct {
	Status    Status                    `json:"status"`
	Providers []provider.StrategyHealth `json:"providers"`
}

// Server provides the lookup API plus health and metrics endpoints.
type Server struct {
	lookup    Lookuper
	providers []HealthSource
	router    chi.Router
	server    *http.Server
}

// NewServer creates a server listening on port.
func NewServer(lookup Lookuper, providers []HealthSource, port int) *Server {
	s := &Server{
		lookup:    lookup,
		providers: providers,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/v1/airports/{icao}", s.handleAirport)
	r.Get("/health", s.handleHealth)
	r.Get("/health/detailed", s.handleDetailed)
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleAirport(w http.ResponseWriter, r *http.Request) {
	rec, err := s.lookup.Get(r.Context(), chi.URLParam(r, "icao"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, _ := s.collect()
	writeJSON(w, http.StatusOK, map[string]Status{"status": status})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	status, report := s.collect()
	writeJSON(w, http.StatusOK, DetailedHealth{Status: status, Providers: report})
}

// collect reports degraded as soon as any breaker has left CLOSED.
func (s *Server) collect() (Status, []provider.StrategyHealth) {
	status := StatusHealthy
	report := make([]provider.StrategyHealth, 0, len(s.providers))
	for _, p := range s.providers {
		h := p.Health()
		if h.Breaker.State != resilience.StateClosed {
			status = StatusDegraded
		}
		report = append(report, h)
	}
	return status, report
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("Failed to write response", "error", err)
	}
}
