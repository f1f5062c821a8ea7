package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is the response for GET /health
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// handleHealth is a liveness probe; it answers even while the catalog
// is still loading.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// SystemStatusResponse is the response for GET /api/system/status
type SystemStatusResponse struct {
	Status            string `json:"status"`
	UptimeSeconds     int64  `json:"uptime_seconds"`
	CatalogReady      bool   `json:"catalog_ready"`
	Securities        int    `json:"securities"`
	CatalogGeneration uint64 `json:"catalog_generation"`
	DatabaseOK        bool   `json:"database_ok"`
}

// handleSystemStatus reports readiness of the catalog and database
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	resp := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}

	if snap, err := s.catalog.Snapshot(); err == nil {
		resp.CatalogReady = true
		resp.Securities = snap.Len()
		resp.CatalogGeneration = snap.Generation()
	} else {
		resp.Status = "starting"
	}

	if s.db != nil {
		if err := s.db.Conn().PingContext(r.Context()); err == nil {
			resp.DatabaseOK = true
		} else {
			resp.Status = "degraded"
			s.log.Warn().Err(err).Msg("Database ping failed")
		}
	}

	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}
