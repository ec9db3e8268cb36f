package portfolio

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scermak/theportfolio/internal/clients/yahoo"
	"github.com/scermak/theportfolio/internal/database"
	"github.com/scermak/theportfolio/internal/modules/ledger"
)

// fakeOracle serves fixed quotes; symbols outside the map fail.
type fakeOracle struct {
	quotes map[string]yahoo.Quote
}

func (f *fakeOracle) GetQuote(symbol string, extended bool) (*yahoo.Quote, error) {
	q, ok := f.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("no quote data returned for symbol %s", symbol)
	}
	return &q, nil
}

type fixture struct {
	service *Service
	lots    *ledger.LotRepository
	history *ledger.HistoryRepository
	tickers *ledger.TickerRepository
}

func newFixture(t *testing.T, oracle PriceOracle) *fixture {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	lots := ledger.NewLotRepository(db.Conn(), zerolog.Nop())
	history := ledger.NewHistoryRepository(db.Conn(), zerolog.Nop())
	tickers := ledger.NewTickerRepository(db.Conn(), zerolog.Nop())

	return &fixture{
		service: NewService(lots, history, tickers, oracle, zerolog.Nop()),
		lots:    lots,
		history: history,
		tickers: tickers,
	}
}

func date(s string) time.Time {
	d, err := time.Parse(ledger.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestGetSummaryValuesPositions(t *testing.T) {
	oracle := &fakeOracle{quotes: map[string]yahoo.Quote{
		"AAPL": {Symbol: "AAPL", Price: 150, Currency: "EUR"},
	}}
	f := newFixture(t, oracle)

	require.NoError(t, f.lots.Add("AAPL", 10, 1000, date("2024-01-02")))
	require.NoError(t, f.lots.Add("AAPL", 5, 600, date("2024-02-01")))
	require.NoError(t, f.tickers.Set("Apple Inc.", "AAPL", false))

	summary, err := f.service.GetSummary()
	require.NoError(t, err)
	require.Len(t, summary.Positions, 1)

	pos := summary.Positions[0]
	assert.Equal(t, "AAPL", pos.Ticker)
	require.NotNil(t, pos.DisplayName)
	assert.Equal(t, "Apple Inc.", *pos.DisplayName)
	assert.Equal(t, 15.0, pos.Quantity)
	assert.Equal(t, 1600.0, pos.Invested)
	assert.Equal(t, 2, pos.Lots)
	assert.True(t, pos.Priced)
	assert.Equal(t, 2250.0, pos.CurrentValue)
	assert.Equal(t, 650.0, pos.Profit)
	assert.InDelta(t, 40.625, pos.ProfitPercent, 1e-9)

	assert.Equal(t, 1600.0, summary.TotalInvested)
	assert.Equal(t, 2250.0, summary.TotalValue)
	assert.Equal(t, 650.0, summary.TotalProfit)
	assert.Empty(t, summary.Unpriced)
}

func TestGetSummaryConvertsCurrency(t *testing.T) {
	rate := 0.92
	oracle := &fakeOracle{quotes: map[string]yahoo.Quote{
		"AAPL": {Symbol: "AAPL", Price: 100, Currency: "USD", BaseRate: &rate},
	}}
	f := newFixture(t, oracle)

	require.NoError(t, f.lots.Add("AAPL", 10, 900, date("2024-01-02")))

	summary, err := f.service.GetSummary()
	require.NoError(t, err)
	require.Len(t, summary.Positions, 1)

	assert.InDelta(t, 920.0, summary.Positions[0].CurrentValue, 1e-9)
	assert.InDelta(t, 20.0, summary.Positions[0].Profit, 1e-9)
}

func TestGetSummaryExcludesUnpricedFromTotals(t *testing.T) {
	oracle := &fakeOracle{quotes: map[string]yahoo.Quote{
		"AAPL": {Symbol: "AAPL", Price: 150, Currency: "EUR"},
	}}
	f := newFixture(t, oracle)

	require.NoError(t, f.lots.Add("AAPL", 10, 1000, date("2024-01-02")))
	require.NoError(t, f.lots.Add("OBSCURE", 100, 500, date("2024-01-02")))

	summary, err := f.service.GetSummary()
	require.NoError(t, err)
	require.Len(t, summary.Positions, 2)

	// Invested totals cover everything, market totals only the priced.
	assert.Equal(t, 1500.0, summary.TotalInvested)
	assert.Equal(t, 1500.0, summary.TotalValue)
	assert.Equal(t, 500.0, summary.TotalProfit)
	assert.InDelta(t, 50.0, summary.ProfitPercent, 1e-9)
	assert.Equal(t, []string{"OBSCURE"}, summary.Unpriced)
}

func TestGetHistoryDerivesMetrics(t *testing.T) {
	f := newFixture(t, &fakeOracle{})

	require.NoError(t, f.history.Add(ledger.ClosedPosition{
		Ticker:    "AAPL",
		StartDate: date("2024-01-01"),
		EndDate:   date("2024-07-01"),
		SumBuy:    1000,
		SumSell:   1100,
	}))

	views, err := f.service.GetHistory("")
	require.NoError(t, err)
	require.Len(t, views, 1)

	v := views[0]
	assert.Equal(t, "2024-01-01", v.StartDate)
	assert.Equal(t, "2024-07-01", v.EndDate)
	assert.Equal(t, 100.0, v.Profit)
	assert.InDelta(t, 10.0, v.ProfitPercent, 1e-9)
	assert.Equal(t, 182, v.DaysHeld)
	assert.Greater(t, v.AnnualizedPercent, 10.0)
}

func TestGetHistoryFiltersByTicker(t *testing.T) {
	f := newFixture(t, &fakeOracle{})

	require.NoError(t, f.history.Add(ledger.ClosedPosition{
		Ticker: "AAPL", StartDate: date("2024-01-01"), EndDate: date("2024-02-01"), SumBuy: 1000, SumSell: 1100,
	}))
	require.NoError(t, f.history.Add(ledger.ClosedPosition{
		Ticker: "MSFT", StartDate: date("2024-01-01"), EndDate: date("2024-02-01"), SumBuy: 500, SumSell: 450,
	}))

	views, err := f.service.GetHistory("MSFT")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "MSFT", views[0].Ticker)
}

func TestGetStatistics(t *testing.T) {
	f := newFixture(t, &fakeOracle{})

	require.NoError(t, f.history.Add(ledger.ClosedPosition{
		Ticker: "AAPL", StartDate: date("2024-01-01"), EndDate: date("2024-07-01"), SumBuy: 1000, SumSell: 1100,
	}))
	require.NoError(t, f.history.Add(ledger.ClosedPosition{
		Ticker: "MSFT", StartDate: date("2024-01-01"), EndDate: date("2024-04-01"), SumBuy: 500, SumSell: 450,
	}))

	stats, err := f.service.GetStatistics()
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Positions)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 1500.0, stats.TotalBuy)
	assert.Equal(t, 1550.0, stats.TotalSell)
	assert.Equal(t, 50.0, stats.Profit)
	assert.InDelta(t, 3.333, stats.ProfitPercent, 0.01)
	assert.InDelta(t, 0.0, stats.MeanProfitPercent, 1e-9) // +10% and -10% average out
	assert.Greater(t, stats.StdDevProfitPercent, 0.0)
	assert.Greater(t, stats.AnnualizedPercent, stats.ProfitPercent)
}

func TestGetStatisticsEmptyHistory(t *testing.T) {
	f := newFixture(t, &fakeOracle{})

	stats, err := f.service.GetStatistics()
	require.NoError(t, err)
	assert.Zero(t, stats.Positions)
	assert.Zero(t, stats.Profit)
	assert.Zero(t, stats.AnnualizedPercent)
}

func TestGetSummaryLogsNameResolutionFailures(t *testing.T) {
	db, err := database.NewInMemory()
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	lots := ledger.NewLotRepository(db.Conn(), zerolog.Nop())
	history := ledger.NewHistoryRepository(db.Conn(), zerolog.Nop())
	tickers := ledger.NewTickerRepository(db.Conn(), zerolog.Nop())

	var logs bytes.Buffer
	oracle := &fakeOracle{quotes: map[string]yahoo.Quote{
		"AAPL": {Symbol: "AAPL", Price: 150, Currency: "EUR"},
	}}
	service := NewService(lots, history, tickers, oracle, zerolog.New(&logs))

	require.NoError(t, lots.Add("AAPL", 10, 1000, date("2024-01-02")))

	// A broken mapping store must not break valuation.
	_, err = db.Conn().Exec("DROP TABLE ticker_map")
	require.NoError(t, err)

	summary, err := service.GetSummary()
	require.NoError(t, err)
	require.Len(t, summary.Positions, 1)
	assert.Nil(t, summary.Positions[0].DisplayName)
	assert.Contains(t, logs.String(), "Failed to resolve display name")
}
