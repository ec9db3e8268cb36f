package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// refreshTimeout bounds one full background refresh sweep.
const refreshTimeout = 10 * time.Minute

// Handler handles analysis HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new analysis handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analysis").Logger(),
	}
}

// HandleList returns all stored assessments
// GET /api/analysis
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	analyses, err := h.service.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list analyses")
		h.writeError(w, http.StatusInternalServerError, "Failed to list analyses")
		return
	}

	h.writeJSON(w, http.StatusOK, analyses)
}

// HandleGet returns the stored assessment for one instrument
// GET /api/analysis/{ticker}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	analysis, err := h.service.Get(ticker)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to get analysis")
		h.writeError(w, http.StatusInternalServerError, "Failed to get analysis")
		return
	}
	if analysis == nil {
		h.writeError(w, http.StatusNotFound, "No analysis for instrument")
		return
	}

	h.writeJSON(w, http.StatusOK, analysis)
}

// HandleRefresh starts a background refresh of all held instruments
// and returns immediately. Model calls take tens of seconds each, so
// the sweep must not block the request.
// POST /api/analysis/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		h.service.RefreshAll(ctx)
	}()

	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh started"})
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
