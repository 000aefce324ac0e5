package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/SHARAN-RH/netops/pkg/db"
	"github.com/SHARAN-RH/netops/pkg/orchestrator"
)

var errMissingDeviceID = errors.New("missing device id in URL path")

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	if deviceID == "" {
		s.writeError(w, http.StatusBadRequest, errMissingDeviceID)
		return
	}

	device, err := s.store.GetDevice(r.Context(), deviceID)
	if err != nil {
		s.writeStoreError(w, deviceID, err)
		return
	}

	s.writeJSON(w, http.StatusOK, device)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	if deviceID == "" {
		s.writeError(w, http.StatusBadRequest, errMissingDeviceID)
		return
	}

	verdict, err := s.orch.Analyze(r.Context(), deviceID)
	if err != nil {
		s.writeStoreError(w, deviceID, err)
		return
	}

	s.writeJSON(w, http.StatusOK, verdict)
}

// upgradeRequestBody is the optional POST body for upgrade calls.
type upgradeRequestBody struct {
	DryRun bool `json:"dry_run"`
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	if deviceID == "" {
		s.writeError(w, http.StatusBadRequest, errMissingDeviceID)
		return
	}

	var body upgradeRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.orch.Execute(r.Context(), deviceID, body.DryRun)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrDeviceNotFound):
			s.writeError(w, http.StatusNotFound, err)
		case errors.Is(err, db.ErrUpgradeInFlight):
			s.writeError(w, http.StatusConflict, err)
		default:
			s.logger.Error().Err(err).Str("device_id", deviceID).Msg("Execute failed")
			s.writeError(w, http.StatusInternalServerError, err)
		}

		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	upgradeID := chi.URLParam(r, "upgradeID")

	result, err := s.orch.Rollback(r.Context(), upgradeID)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrUpgradeNotFound):
			s.writeError(w, http.StatusNotFound, err)
		case errors.Is(err, orchestrator.ErrRollbackNotAllowed):
			s.writeError(w, http.StatusConflict, err)
		default:
			s.logger.Error().Err(err).Str("upgrade_id", upgradeID).Msg("Rollback failed")
			s.writeError(w, http.StatusInternalServerError, err)
		}

		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListUpgrades(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")

	upgrades, err := s.store.ListRecentUpgrades(r.Context(), deviceID, listLimit(r))
	if err != nil {
		s.writeStoreError(w, deviceID, err)
		return
	}

	s.writeJSON(w, http.StatusOK, upgrades)
}

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")

	events, err := s.store.ListAuditEvents(r.Context(), deviceID, listLimit(r))
	if err != nil {
		s.writeStoreError(w, deviceID, err)
		return
	}

	s.writeJSON(w, http.StatusOK, events)
}

func (s *Server) writeStoreError(w http.ResponseWriter, deviceID string, err error) {
	if errors.Is(err, db.ErrDeviceNotFound) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	s.logger.Error().Err(err).Str("device_id", deviceID).Msg("Request failed")
	s.writeError(w, http.StatusInternalServerError, err)
}

func listLimit(r *http.Request) int {
	limit := defaultListLimit

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	return limit
}
