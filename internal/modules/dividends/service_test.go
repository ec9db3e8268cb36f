package dividends

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scermak/theportfolio/internal/database"
	"github.com/scermak/theportfolio/internal/modules/ledger"
)

type fakeRates struct {
	rates map[string]float64
}

func (f *fakeRates) GetRate(currency string) (float64, error) {
	if rate, ok := f.rates[strings.ToUpper(currency)]; ok {
		return rate, nil
	}
	return 1, nil
}

type passthroughResolver struct{}

func (passthroughResolver) Resolve(identifier string) (string, error) {
	return strings.ToUpper(strings.TrimSpace(identifier)), nil
}

func newService(t *testing.T, rates RateSource) *Service {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db.Conn(), zerolog.Nop())
	return NewService(repo, rates, passthroughResolver{}, zerolog.Nop())
}

func date(s string) time.Time {
	d, err := time.Parse(ledger.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRecordConvertsToBaseCurrency(t *testing.T) {
	s := newService(t, &fakeRates{rates: map[string]float64{"USD": 0.92}})

	dividend, err := s.Record("aapl", 100, "USD", date("2024-03-15"))
	require.NoError(t, err)

	assert.Equal(t, "AAPL", dividend.Ticker)
	assert.InDelta(t, 92.0, dividend.AmountBase, 1e-9)

	stored, err := s.List("AAPL")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.InDelta(t, 92.0, stored[0].AmountBase, 1e-9)
	assert.Equal(t, date("2024-03-15"), stored[0].PaymentDate)
}

func TestRecordRejectsNonPositiveAmount(t *testing.T) {
	s := newService(t, &fakeRates{})

	_, err := s.Record("AAPL", 0, "EUR", date("2024-03-15"))
	assert.Error(t, err)
	_, err = s.Record("AAPL", -5, "EUR", date("2024-03-15"))
	assert.Error(t, err)
}

func TestRecordIsIdempotent(t *testing.T) {
	s := newService(t, &fakeRates{rates: map[string]float64{"USD": 0.92}})

	_, err := s.Record("AAPL", 100, "USD", date("2024-03-15"))
	require.NoError(t, err)
	_, err = s.Record("AAPL", 100, "USD", date("2024-03-15"))
	require.NoError(t, err)

	// The same payout posted twice is stored once.
	stored, err := s.List("AAPL")
	require.NoError(t, err)
	require.Len(t, stored, 1)

	years, err := s.SummaryByYear()
	require.NoError(t, err)
	require.Len(t, years, 1)
	assert.InDelta(t, 92.0, years[0].Total, 1e-9)

	// A different amount on the same day is a distinct payment.
	_, err = s.Record("AAPL", 25, "USD", date("2024-03-15"))
	require.NoError(t, err)
	stored, err = s.List("AAPL")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestSummaries(t *testing.T) {
	s := newService(t, &fakeRates{})

	_, err := s.Record("AAPL", 50, "EUR", date("2023-06-01"))
	require.NoError(t, err)
	_, err = s.Record("AAPL", 60, "EUR", date("2024-06-01"))
	require.NoError(t, err)
	_, err = s.Record("MSFT", 10, "EUR", date("2024-09-01"))
	require.NoError(t, err)

	years, err := s.SummaryByYear()
	require.NoError(t, err)
	require.Len(t, years, 2)
	assert.Equal(t, 2024, years[0].Year)
	assert.InDelta(t, 70.0, years[0].Total, 1e-9)
	assert.Equal(t, 2023, years[1].Year)
	assert.InDelta(t, 50.0, years[1].Total, 1e-9)

	tickers, err := s.SummaryByTicker()
	require.NoError(t, err)
	require.Len(t, tickers, 2)
	assert.Equal(t, "AAPL", tickers[0].Ticker)
	assert.Equal(t, 2, tickers[0].Count)
	assert.InDelta(t, 110.0, tickers[0].Total, 1e-9)
}
