package catalog

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers provides HTTP handlers for catalog endpoints
type Handlers struct {
	catalog *Catalog
	log     zerolog.Logger
}

// NewHandlers creates a new catalog handlers instance
func NewHandlers(cat *Catalog, log zerolog.Logger) *Handlers {
	return &Handlers{
		catalog: cat,
		log:     log.With().Str("module", "catalog_handlers").Logger(),
	}
}

// RegisterRoutes registers all catalog routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/securities", func(r chi.Router) {
		r.Get("/", h.ListSecurities)
		r.Get("/{market}/{symbol}", h.GetSecurity)
	})
}

// ListSecurities returns all securities in catalog order, optionally
// filtered by market.
func (h *Handlers) ListSecurities(w http.ResponseWriter, r *http.Request) {
	snap, err := h.catalog.Snapshot()
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "catalog not ready")
		return
	}

	market := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("market")))
	all := snap.All()
	out := make([]Security, 0, len(all))
	for _, sec := range all {
		if market != "" && sec.Market != market {
			continue
		}
		out = append(out, sec)
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"securities": out,
		"count":      len(out),
		"generation": snap.Generation(),
	})
}

// GetSecurity returns a single security by market and symbol
func (h *Handlers) GetSecurity(w http.ResponseWriter, r *http.Request) {
	snap, err := h.catalog.Snapshot()
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "catalog not ready")
		return
	}

	market := chi.URLParam(r, "market")
	symbol := chi.URLParam(r, "symbol")
	sec, ok := snap.LookupIn(market, symbol)
	if !ok {
		h.respondError(w, http.StatusNotFound, "security not found")
		return
	}
	h.respondJSON(w, http.StatusOK, sec)
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
