package portfolio

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleGetActive returns the valued open positions
// GET /api/trades/active
func (h *Handler) HandleGetActive(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetSummary()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build portfolio summary")
		h.writeError(w, http.StatusInternalServerError, "Failed to build portfolio summary")
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// HandleGetHistory returns closed positions with derived metrics
// GET /api/history?ticker=X
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.GetHistory(r.URL.Query().Get("ticker"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load history")
		h.writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	h.writeJSON(w, http.StatusOK, views)
}

// HandleGetStatistics returns aggregate realized statistics
// GET /api/statistics
func (h *Handler) HandleGetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStatistics()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute statistics")
		h.writeError(w, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
