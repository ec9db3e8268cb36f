// Package portfolio aggregates the ledger into portfolio level views:
// open positions valued at market, realized history and statistics.
package portfolio

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/scermak/theportfolio/internal/clients/yahoo"
	"github.com/scermak/theportfolio/internal/modules/accounting"
	"github.com/scermak/theportfolio/internal/modules/ledger"
)

// PriceOracle supplies current market quotes. Satisfied by the Yahoo
// client; tests substitute a fixed-price fake.
type PriceOracle interface {
	GetQuote(symbol string, extended bool) (*yahoo.Quote, error)
}

// Service builds the aggregated portfolio views.
type Service struct {
	lots    *ledger.LotRepository
	history *ledger.HistoryRepository
	tickers *ledger.TickerRepository
	oracle  PriceOracle
	log     zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(
	lots *ledger.LotRepository,
	history *ledger.HistoryRepository,
	tickers *ledger.TickerRepository,
	oracle PriceOracle,
	log zerolog.Logger,
) *Service {
	return &Service{
		lots:    lots,
		history: history,
		tickers: tickers,
		oracle:  oracle,
		log:     log.With().Str("service", "portfolio").Logger(),
	}
}

// GetSummary values every open position at the current market price
// and totals the portfolio. Instruments without a quote stay in the
// position list but are excluded from the market-value totals.
func (s *Service) GetSummary() (Summary, error) {
	lots, err := s.lots.ListActiveAll()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load active lots: %w", err)
	}

	byTicker := make(map[string][]ledger.Lot)
	for _, lot := range lots {
		byTicker[lot.Ticker] = append(byTicker[lot.Ticker], lot)
	}

	summary := Summary{Positions: make([]OpenPosition, 0, len(byTicker))}
	for ticker, tickerLots := range byTicker {
		pos := OpenPosition{Ticker: ticker, Lots: len(tickerLots)}
		for _, lot := range tickerLots {
			pos.Quantity += lot.Quantity
			pos.Invested += lot.Invest
		}

		name, err := s.tickers.ResolveName(ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to resolve display name")
		} else {
			pos.DisplayName = name
		}

		quote, err := s.oracle.GetQuote(ticker, false)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("No quote, position left unvalued")
			summary.Unpriced = append(summary.Unpriced, ticker)
		} else {
			pos.Priced = true
			pos.CurrentPrice = quote.Price
			pos.Currency = quote.Currency

			value := pos.Quantity * quote.Price
			if quote.BaseRate != nil {
				value *= *quote.BaseRate
			}
			pos.CurrentValue = value
			pos.Profit = value - pos.Invested
			if pos.Invested != 0 {
				pos.ProfitPercent = pos.Profit / pos.Invested * 100
			}

			summary.TotalValue += pos.CurrentValue
			summary.TotalProfit += pos.Profit
		}

		summary.TotalInvested += pos.Invested
		summary.Positions = append(summary.Positions, pos)
	}

	sort.Slice(summary.Positions, func(i, j int) bool {
		return summary.Positions[i].CurrentValue > summary.Positions[j].CurrentValue
	})
	sort.Strings(summary.Unpriced)

	pricedInvested := summary.TotalInvested
	for _, ticker := range summary.Unpriced {
		pricedInvested -= byTickerInvested(byTicker[ticker])
	}
	if pricedInvested != 0 {
		summary.ProfitPercent = summary.TotalProfit / pricedInvested * 100
	}

	return summary, nil
}

func byTickerInvested(lots []ledger.Lot) float64 {
	total := 0.0
	for _, lot := range lots {
		total += lot.Invest
	}
	return total
}

// GetHistory returns closed positions with derived metrics, most
// recent exit first. ticker filters to one instrument when nonempty.
func (s *Service) GetHistory(ticker string) ([]ClosedPositionView, error) {
	var (
		positions []ledger.ClosedPosition
		err       error
	)
	if ticker != "" {
		positions, err = s.history.List(ticker)
	} else {
		positions, err = s.history.ListAll()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	views := make([]ClosedPositionView, 0, len(positions))
	for _, p := range positions {
		view := ClosedPositionView{
			ID:                p.ID,
			Ticker:            p.Ticker,
			StartDate:         p.StartDate.Format(ledger.DateFormat),
			EndDate:           p.EndDate.Format(ledger.DateFormat),
			SumBuy:            p.SumBuy,
			SumSell:           p.SumSell,
			Profit:            accounting.Profit(p),
			ProfitPercent:     accounting.ProfitPercent(p),
			DaysHeld:          accounting.DaysHeld(p),
			AnnualizedPercent: accounting.AnnualizedPercent(p),
		}
		if name, err := s.tickers.ResolveName(p.Ticker); err != nil {
			s.log.Warn().Err(err).Str("ticker", p.Ticker).Msg("Failed to resolve display name")
		} else {
			view.DisplayName = name
		}
		views = append(views, view)
	}

	return views, nil
}

// GetStatistics aggregates the full realized history. The annualized
// figure treats the history as one position held for the capital
// weighted average holding period.
func (s *Service) GetStatistics() (Statistics, error) {
	positions, err := s.history.ListAll()
	if err != nil {
		return Statistics{}, fmt.Errorf("failed to load history: %w", err)
	}

	stats := Statistics{Positions: len(positions)}
	if len(positions) == 0 {
		return stats, nil
	}

	profitPercents := make([]float64, 0, len(positions))
	weightedDays := 0.0
	for _, p := range positions {
		stats.TotalBuy += p.SumBuy
		stats.TotalSell += p.SumSell
		if accounting.Profit(p) >= 0 {
			stats.Wins++
		} else {
			stats.Losses++
		}
		profitPercents = append(profitPercents, accounting.ProfitPercent(p))
		weightedDays += float64(accounting.DaysHeld(p)) * p.SumBuy
	}

	stats.Profit = stats.TotalSell - stats.TotalBuy
	if stats.TotalBuy != 0 {
		stats.ProfitPercent = stats.Profit / stats.TotalBuy * 100
		weightedDays /= stats.TotalBuy
	}

	stats.MeanProfitPercent = stat.Mean(profitPercents, nil)
	if len(profitPercents) > 1 {
		stats.StdDevProfitPercent = stat.StdDev(profitPercents, nil)
	}

	if weightedDays >= 1 && stats.ProfitPercent > -100 {
		daily := math.Pow(1+stats.ProfitPercent/100, 1/weightedDays) - 1
		stats.AnnualizedPercent = (math.Pow(1+daily, 365) - 1) * 100
	}

	return stats, nil
}
