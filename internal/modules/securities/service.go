// Package securities manages instrument identities: the display-name
// to ticker mapping, symbol search and per-instrument market info.
package securities

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/scermak/theportfolio/internal/clients/yahoo"
	"github.com/scermak/theportfolio/internal/modules/ledger"
	"github.com/scermak/theportfolio/pkg/formulas"
)

// MarketData is the slice of the market client this module needs.
type MarketData interface {
	GetQuote(symbol string, extended bool) (*yahoo.Quote, error)
	Search(query string) ([]yahoo.SearchResult, error)
	GetDailyHistory(symbol, period string) ([]yahoo.HistoricalPrice, error)
}

// InstrumentInfo combines the extended quote with indicators derived
// from one year of daily closes.
type InstrumentInfo struct {
	Quote       yahoo.Quote `json:"quote"`
	DisplayName *string     `json:"display_name,omitempty"`

	SMA50       *float64 `json:"sma_50,omitempty"`
	SMA200      *float64 `json:"sma_200,omitempty"`
	RSI14       *float64 `json:"rsi_14,omitempty"`
	Volatility  *float64 `json:"volatility,omitempty"`
	MaxDrawdown *float64 `json:"max_drawdown,omitempty"`
}

// Service resolves identities and assembles instrument info.
type Service struct {
	tickers *ledger.TickerRepository
	market  MarketData
	log     zerolog.Logger
}

// NewService creates a new securities service
func NewService(tickers *ledger.TickerRepository, market MarketData, log zerolog.Logger) *Service {
	return &Service{
		tickers: tickers,
		market:  market,
		log:     log.With().Str("service", "securities").Logger(),
	}
}

// SetMapping records a display-name to ticker mapping. Without replace
// an existing mapping on either side leaves the store unchanged.
func (s *Service) SetMapping(displayName, ticker string, replace bool) error {
	displayName = strings.TrimSpace(displayName)
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if displayName == "" || ticker == "" {
		return fmt.Errorf("display name and ticker must be nonempty")
	}

	return s.tickers.Set(displayName, ticker, replace)
}

// ListMappings returns all known identity mappings.
func (s *Service) ListMappings() ([]ledger.Mapping, error) {
	return s.tickers.List()
}

// Resolve finds the ticker for an identifier: a known display name
// resolves through the mapping, anything else is taken as a ticker.
func (s *Service) Resolve(identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)

	ticker, err := s.tickers.ResolveTicker(identifier)
	if err != nil {
		return "", fmt.Errorf("failed to resolve identifier: %w", err)
	}
	if ticker != nil {
		return *ticker, nil
	}

	return strings.ToUpper(identifier), nil
}

// Search forwards a free-text query to the market data provider.
func (s *Service) Search(query string) ([]yahoo.SearchResult, error) {
	return s.market.Search(query)
}

// GetInfo returns the extended quote plus indicators computed over a
// year of daily closes. Indicator fields stay nil when the history is
// unavailable or too short.
func (s *Service) GetInfo(ticker string) (*InstrumentInfo, error) {
	quote, err := s.market.GetQuote(ticker, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	info := &InstrumentInfo{Quote: *quote}

	if name, err := s.tickers.ResolveName(quote.Symbol); err != nil {
		s.log.Warn().Err(err).Str("ticker", quote.Symbol).Msg("Failed to resolve display name")
	} else {
		info.DisplayName = name
	}

	history, err := s.market.GetDailyHistory(quote.Symbol, "1y")
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", quote.Symbol).Msg("No price history, skipping indicators")
		return info, nil
	}

	closes := make([]float64, 0, len(history))
	for _, p := range history {
		closes = append(closes, p.Close)
	}

	info.SMA50 = formulas.CalculateSMA(closes, 50)
	info.SMA200 = formulas.CalculateSMA(closes, 200)
	info.RSI14 = formulas.CalculateRSI(closes, 14)
	info.MaxDrawdown = formulas.CalculateMaxDrawdown(closes)

	if len(closes) >= 2 {
		vol := formulas.AnnualizedVolatility(formulas.CalculateReturns(closes))
		info.Volatility = &vol
	}

	return info, nil
}
