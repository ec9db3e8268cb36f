package accounting

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/scermak/theportfolio/internal/modules/ledger"
)

// Resolver maps a user-facing identifier to a ticker.
type Resolver interface {
	Resolve(identifier string) (string, error)
}

// Handler handles trade HTTP requests
type Handler struct {
	engine   *Engine
	resolver Resolver
	log      zerolog.Logger
}

// NewHandler creates a new trade handler
func NewHandler(engine *Engine, resolver Resolver, log zerolog.Logger) *Handler {
	return &Handler{
		engine:   engine,
		resolver: resolver,
		log:      log.With().Str("handler", "trades").Logger(),
	}
}

// HandleRecordTrade records a new lot
// POST /api/trades
func (h *Handler) HandleRecordTrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string  `json:"name"`
		Ticker   string  `json:"ticker"`
		Quantity float64 `json:"quantity"`
		Invest   float64 `json:"invest"`
		Date     string  `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	date, err := time.Parse(ledger.DateFormat, req.Date)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	ticker, err := h.resolveInstrument(req.Name, req.Ticker)
	if err != nil {
		h.log.Error().Err(err).Str("name", req.Name).Msg("Failed to resolve instrument")
		h.writeError(w, http.StatusInternalServerError, "Failed to resolve instrument")
		return
	}

	if err := h.engine.RecordTrade(ticker, req.Quantity, req.Invest, date); err != nil {
		if errors.Is(err, ErrInvalidTrade) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to record trade")
		h.writeError(w, http.StatusInternalServerError, "Failed to record trade")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{"status": "ok", "ticker": ticker})
}

// HandleRecordSale closes the whole remaining position of an instrument
// POST /api/trades/sell
func (h *Handler) HandleRecordSale(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string  `json:"name"`
		Proceeds float64 `json:"proceeds"`
		Date     string  `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	date, err := time.Parse(ledger.DateFormat, req.Date)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	ticker, err := h.resolver.Resolve(req.Name)
	if err != nil {
		h.log.Error().Err(err).Str("name", req.Name).Msg("Failed to resolve instrument")
		h.writeError(w, http.StatusInternalServerError, "Failed to resolve instrument")
		return
	}

	if err := h.engine.RecordSale(ticker, req.Proceeds, date); err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to record sale")
		h.writeError(w, http.StatusInternalServerError, "Failed to record sale")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "ticker": ticker})
}

// resolveInstrument picks the ticker for a trade request. An explicit
// ticker wins; otherwise the name resolves through the identity mapping.
func (h *Handler) resolveInstrument(name, ticker string) (string, error) {
	if t := strings.TrimSpace(ticker); t != "" {
		return strings.ToUpper(t), nil
	}
	return h.resolver.Resolve(name)
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
