package discovery

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/stock-discovery/internal/modules/catalog"
)

// Handlers provides HTTP handlers for discovery endpoints
type Handlers struct {
	pipeline *Pipeline
	catalog  *catalog.Catalog
	log      zerolog.Logger
}

// NewHandlers creates a new discovery handlers instance
func NewHandlers(pipeline *Pipeline, cat *catalog.Catalog, log zerolog.Logger) *Handlers {
	return &Handlers{
		pipeline: pipeline,
		catalog:  cat,
		log:      log.With().Str("module", "discovery_handlers").Logger(),
	}
}

// RegisterRoutes registers all discovery routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/discovery", func(r chi.Router) {
		r.Post("/", h.Discover)
		r.Post("/export", h.ExportCSV)
		r.Get("/status", h.Status)
	})
}

// DiscoverRequest is the request body for POST /discovery
type DiscoverRequest struct {
	Keywords []string `json:"keywords"`
	Options  Options  `json:"options"`
}

// Discover runs a discovery session
func (h *Handlers) Discover(w http.ResponseWriter, r *http.Request) {
	var req DiscoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	session, err := h.pipeline.Discover(r.Context(), req.Keywords, req.Options)
	if err != nil {
		h.respondPipelineError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, session)
}

// ExportCSV runs a discovery session and streams it as CSV
func (h *Handlers) ExportCSV(w http.ResponseWriter, r *http.Request) {
	var req DiscoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	session, err := h.pipeline.Discover(r.Context(), req.Keywords, req.Options)
	if err != nil {
		h.respondPipelineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="discovery.csv"`)
	if err := WriteCSV(w, session); err != nil {
		h.log.Error().Err(err).Msg("Failed to write CSV export")
	}
}

// StatusResponse reports catalog readiness for the discovery surface
type StatusResponse struct {
	Ready             bool   `json:"ready"`
	Securities        int    `json:"securities"`
	CatalogGeneration uint64 `json:"catalog_generation"`
}

// Status reports whether discovery is ready to serve
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{}
	if snap, err := h.catalog.Snapshot(); err == nil {
		resp.Ready = true
		resp.Securities = snap.Len()
		resp.CatalogGeneration = snap.Generation()
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) respondPipelineError(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	var unavailableErr *CatalogUnavailableError
	switch {
	case errors.As(err, &validationErr):
		h.respondError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &unavailableErr):
		h.respondError(w, http.StatusServiceUnavailable, unavailableErr.Error())
	default:
		h.log.Error().Err(err).Msg("Discovery failed")
		h.respondError(w, http.StatusInternalServerError, "discovery failed")
	}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
