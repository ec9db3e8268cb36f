package securities

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scermak/theportfolio/internal/clients/yahoo"
	"github.com/scermak/theportfolio/internal/database"
	"github.com/scermak/theportfolio/internal/modules/ledger"
)

type fakeMarket struct {
	quotes  map[string]yahoo.Quote
	history map[string][]yahoo.HistoricalPrice
}

func (f *fakeMarket) GetQuote(symbol string, extended bool) (*yahoo.Quote, error) {
	q, ok := f.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("no quote data returned for symbol %s", symbol)
	}
	return &q, nil
}

func (f *fakeMarket) Search(query string) ([]yahoo.SearchResult, error) {
	return []yahoo.SearchResult{{Symbol: "AAPL", ShortName: "Apple Inc.", Exchange: "NMS", QuoteType: "EQUITY"}}, nil
}

func (f *fakeMarket) GetDailyHistory(symbol, period string) ([]yahoo.HistoricalPrice, error) {
	h, ok := f.history[symbol]
	if !ok {
		return nil, fmt.Errorf("no history for %s", symbol)
	}
	return h, nil
}

func newService(t *testing.T, market MarketData) *Service {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	tickers := ledger.NewTickerRepository(db.Conn(), zerolog.Nop())
	return NewService(tickers, market, zerolog.Nop())
}

func TestSetMappingValidation(t *testing.T) {
	s := newService(t, &fakeMarket{})

	assert.Error(t, s.SetMapping("", "AAPL", false))
	assert.Error(t, s.SetMapping("Apple", "", false))
	assert.NoError(t, s.SetMapping("Apple", "aapl", false))

	mappings, err := s.ListMappings()
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, "AAPL", mappings[0].Ticker)
}

func TestResolve(t *testing.T) {
	s := newService(t, &fakeMarket{})
	require.NoError(t, s.SetMapping("Apple Inc.", "AAPL", false))

	tests := []struct {
		name       string
		identifier string
		want       string
	}{
		{name: "mapped display name", identifier: "Apple Inc.", want: "AAPL"},
		{name: "unmapped falls through as ticker", identifier: "msft", want: "MSFT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Resolve(tt.identifier)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetInfoComputesIndicators(t *testing.T) {
	history := make([]yahoo.HistoricalPrice, 250)
	for i := range history {
		history[i] = yahoo.HistoricalPrice{Close: 100 + float64(i)*0.1}
	}

	market := &fakeMarket{
		quotes:  map[string]yahoo.Quote{"AAPL": {Symbol: "AAPL", Price: 125, Currency: "EUR"}},
		history: map[string][]yahoo.HistoricalPrice{"AAPL": history},
	}
	s := newService(t, market)

	info, err := s.GetInfo("AAPL")
	require.NoError(t, err)

	assert.Equal(t, 125.0, info.Quote.Price)
	require.NotNil(t, info.SMA50)
	require.NotNil(t, info.SMA200)
	assert.Greater(t, *info.SMA50, *info.SMA200) // rising series
	assert.NotNil(t, info.RSI14)
	assert.NotNil(t, info.Volatility)
	assert.NotNil(t, info.MaxDrawdown)
}

func TestGetInfoWithoutHistory(t *testing.T) {
	market := &fakeMarket{
		quotes: map[string]yahoo.Quote{"AAPL": {Symbol: "AAPL", Price: 125, Currency: "EUR"}},
	}
	s := newService(t, market)

	info, err := s.GetInfo("AAPL")
	require.NoError(t, err)

	assert.Equal(t, 125.0, info.Quote.Price)
	assert.Nil(t, info.SMA50)
	assert.Nil(t, info.RSI14)
}
