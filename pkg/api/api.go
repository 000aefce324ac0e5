// Package api exposes the orchestrator over HTTP for CLIs, chat bots, and
// dashboards. Handlers translate orchestrator errors to status codes; all
// decision logic stays in the orchestrator.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/SHARAN-RH/netops/pkg/db"
	"github.com/SHARAN-RH/netops/pkg/logger"
	"github.com/SHARAN-RH/netops/pkg/orchestrator"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200

	requestTimeout = 15 * time.Minute
)

// Server holds the HTTP layer's dependencies.
type Server struct {
	orch   orchestrator.Service
	store  db.Service
	logger logger.Logger
}

// NewServer builds the HTTP layer over an orchestrator and its store.
func NewServer(orch orchestrator.Service, store db.Service, log logger.Logger) *Server {
	return &Server{orch: orch, store: store, logger: log}
}

// Router assembles the route tree. Upgrade executions can legitimately run
// for minutes, so the request timeout is generous.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/devices/{deviceID}", func(r chi.Router) {
			r.Get("/", s.handleGetDevice)
			r.Post("/analyze", s.handleAnalyze)
			r.Post("/upgrade", s.handleUpgrade)
			r.Get("/upgrades", s.handleListUpgrades)
			r.Get("/audit", s.handleListAudit)
		})

		r.Post("/upgrades/{upgradeID}/rollback", s.handleRollback)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
