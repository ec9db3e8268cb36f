package securities

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles securities HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new securities handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "securities").Logger(),
	}
}

// HandleListMappings returns all identity mappings
// GET /api/securities
func (h *Handler) HandleListMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.service.ListMappings()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list mappings")
		h.writeError(w, http.StatusInternalServerError, "Failed to list mappings")
		return
	}

	h.writeJSON(w, http.StatusOK, mappings)
}

// HandleSetMapping records a display-name to ticker mapping
// PUT /api/securities
func (h *Handler) HandleSetMapping(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Ticker  string `json:"ticker"`
		Replace bool   `json:"replace"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.SetMapping(req.Name, req.Ticker, req.Replace); err != nil {
		h.log.Error().Err(err).Str("name", req.Name).Msg("Failed to set mapping")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleSearch looks up instruments by free-text query
// GET /api/securities/search?q=X
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "Missing query parameter q")
		return
	}

	results, err := h.service.Search(query)
	if err != nil {
		h.log.Error().Err(err).Str("query", query).Msg("Symbol search failed")
		h.writeError(w, http.StatusBadGateway, "Symbol search failed")
		return
	}

	h.writeJSON(w, http.StatusOK, results)
}

// HandleGetInfo returns the extended quote with indicators
// GET /api/securities/{ticker}/info
func (h *Handler) HandleGetInfo(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	info, err := h.service.GetInfo(ticker)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to get instrument info")
		h.writeError(w, http.StatusBadGateway, "Failed to get instrument info")
		return
	}

	h.writeJSON(w, http.StatusOK, info)
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
