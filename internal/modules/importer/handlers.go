package importer

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Handler handles statement import HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new importer handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "importer").Logger(),
	}
}

// HandleImport ingests a statement CSV from the request body
// POST /api/import
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	result, err := h.service.Import(r.Body)
	if err != nil {
		h.log.Error().Err(err).Msg("Statement import failed")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
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
