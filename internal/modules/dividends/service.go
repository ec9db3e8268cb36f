package dividends

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RateSource converts one unit of a currency into the base currency.
type RateSource interface {
	GetRate(currency string) (float64, error)
}

// Resolver maps a user-facing identifier to a ticker.
type Resolver interface {
	Resolve(identifier string) (string, error)
}

// Service records dividend payments in the base currency.
type Service struct {
	repo     *Repository
	rates    RateSource
	resolver Resolver
	log      zerolog.Logger
}

// NewService creates a new dividend service
func NewService(repo *Repository, rates RateSource, resolver Resolver, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		rates:    rates,
		resolver: resolver,
		log:      log.With().Str("service", "dividends").Logger(),
	}
}

// Record converts the payout into the base currency and stores it.
// The identifier may be a display name or a ticker.
func (s *Service) Record(identifier string, amount float64, currency string, paymentDate time.Time) (*Dividend, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("dividend amount must be positive")
	}

	ticker, err := s.resolver.Resolve(identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve identifier: %w", err)
	}

	rate, err := s.rates.GetRate(currency)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s rate: %w", currency, err)
	}

	dividend := Dividend{
		Ticker:      ticker,
		Amount:      amount,
		Currency:    currency,
		AmountBase:  amount * rate,
		PaymentDate: paymentDate,
	}
	if err := s.repo.Add(dividend); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("ticker", ticker).
		Float64("amount", amount).
		Str("currency", currency).
		Float64("amount_base", dividend.AmountBase).
		Msg("Dividend recorded")

	return &dividend, nil
}

// List returns dividends, optionally filtered by ticker.
func (s *Service) List(ticker string) ([]Dividend, error) {
	return s.repo.List(ticker)
}

// SummaryByYear totals income per calendar year.
func (s *Service) SummaryByYear() ([]YearSummary, error) {
	return s.repo.SummaryByYear()
}

// SummaryByTicker totals income per instrument.
func (s *Service) SummaryByTicker() ([]TickerSummary, error) {
	return s.repo.SummaryByTicker()
}
