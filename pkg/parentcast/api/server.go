// Package api exposes the parentcast service over HTTP.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/parentcast/parentcast/pkg/parentcast"
	"github.com/parentcast/parentcast/pkg/parentcast/summary"
)

// Server bundles the HTTP handlers with their dependencies.
type Server struct {
	service    parentcast.Service
	summarizer *summary.Client
	auth       *Auth
	health     HealthFlags
	logger     *slog.Logger
}

// HealthFlags are the readiness booleans reported by /api/health.
type HealthFlags struct {
	Database bool `json:"database"`
	Storage  bool `json:"storage"`
	Auth     bool `json:"auth"`
	Summary  bool `json:"summary"`
}

// NewServer creates the HTTP server.
func NewServer(service parentcast.Service, summarizer *summary.Client, auth *Auth, health HealthFlags, logger *slog.Logger) *Server {
	return &Server{
		service:    service,
		summarizer: summarizer,
		auth:       auth,
		health:     health,
		logger:     logger,
	}
}

// Routes returns the full route tree.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.GetHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)

			r.Mount("/casts", s.castRoutes())
			r.Mount("/entries", s.entryRoutes())
			r.Get("/rules", s.ListRules)
			r.Get("/trash", s.ListTrash)
			r.Post("/today", s.CreateTodayEntry)
			r.Post("/ai/summary", s.GenerateSummary)
		})
	})

	return r
}

// GetHealth reports readiness for the required configuration.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	ok := s.health.Database && s.health.Storage && s.health.Auth
	render.JSON(w, r, map[string]interface{}{
		"ok":       ok,
		"database": s.health.Database,
		"storage":  s.health.Storage,
		"auth":     s.health.Auth,
		"summary":  s.health.Summary,
	})
}

// renderError maps service errors onto HTTP responses.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, parentcast.ErrEntryNotFound),
		errors.Is(err, parentcast.ErrCastNotFound),
		errors.Is(err, parentcast.ErrRuleNotFound):
		status = http.StatusNotFound
	case errors.Is(err, parentcast.ErrValidationFailed):
		status = http.StatusBadRequest
	case errors.Is(err, parentcast.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, parentcast.ErrSummaryUnavailable):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}

	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": err.Error()})
}
