package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/scermak/theportfolio/internal/clients/yahoo"
	"github.com/scermak/theportfolio/internal/modules/ledger"
)

// QuoteRefreshJob drops the quote cache and prefetches fresh prices
// for every instrument with active lots, so portfolio views served
// between runs hit warm cache entries.
type QuoteRefreshJob struct {
	lots   *ledger.LotRepository
	client *yahoo.Client
	log    zerolog.Logger
}

// NewQuoteRefreshJob creates a new quote refresh job
func NewQuoteRefreshJob(lots *ledger.LotRepository, client *yahoo.Client, log zerolog.Logger) *QuoteRefreshJob {
	return &QuoteRefreshJob{
		lots:   lots,
		client: client,
		log:    log.With().Str("job", "quote_refresh").Logger(),
	}
}

// Name returns the job name
func (j *QuoteRefreshJob) Name() string {
	return "quote_refresh"
}

// Run refreshes quotes for all held instruments. Individual fetch
// failures are logged and skipped; delisted or obscure instruments
// must not fail the whole job.
func (j *QuoteRefreshJob) Run() error {
	tickers, err := j.lots.ActiveTickers()
	if err != nil {
		return fmt.Errorf("failed to list instruments: %w", err)
	}
	if len(tickers) == 0 {
		return nil
	}

	j.client.InvalidateCache()

	refreshed := 0
	for _, ticker := range tickers {
		if _, err := j.client.GetQuote(ticker, false); err != nil {
			j.log.Warn().Err(err).Str("ticker", ticker).Msg("Quote refresh failed")
			continue
		}
		refreshed++
	}

	j.log.Info().
		Int("refreshed", refreshed).
		Int("total", len(tickers)).
		Msg("Quote refresh finished")

	return nil
}
