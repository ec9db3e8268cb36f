package dividends

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/scermak/theportfolio/internal/modules/ledger"
)

// Handler handles dividend HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new dividend handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "dividends").Logger(),
	}
}

// HandleList returns dividend payments, or aggregated income totals
// when a view is requested.
// GET /api/dividends?ticker=X
// GET /api/dividends?view=year|instrument
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	switch view := r.URL.Query().Get("view"); view {
	case "":
		dividends, err := h.service.List(r.URL.Query().Get("ticker"))
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to list dividends")
			h.writeError(w, http.StatusInternalServerError, "Failed to list dividends")
			return
		}
		h.writeJSON(w, http.StatusOK, dividends)
	case "year":
		summaries, err := h.service.SummaryByYear()
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to build year summary")
			h.writeError(w, http.StatusInternalServerError, "Failed to build year summary")
			return
		}
		h.writeJSON(w, http.StatusOK, summaries)
	case "instrument":
		summaries, err := h.service.SummaryByTicker()
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to build instrument summary")
			h.writeError(w, http.StatusInternalServerError, "Failed to build instrument summary")
			return
		}
		h.writeJSON(w, http.StatusOK, summaries)
	default:
		h.writeError(w, http.StatusBadRequest, "Unknown view, expected year or instrument")
	}
}

// HandleRecord records a dividend payment
// POST /api/dividends
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string  `json:"name"`
		Amount      float64 `json:"amount"`
		Currency    string  `json:"currency"`
		PaymentDate string  `json:"payment_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	paymentDate, err := time.Parse(ledger.DateFormat, req.PaymentDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid payment_date, expected YYYY-MM-DD")
		return
	}

	dividend, err := h.service.Record(req.Name, req.Amount, req.Currency, paymentDate)
	if err != nil {
		h.log.Error().Err(err).Str("name", req.Name).Msg("Failed to record dividend")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, dividend)
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
