package ledger

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scermak/theportfolio/internal/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	return db.Conn()
}

func date(s string) time.Time {
	d, err := time.Parse(DateFormat, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLotRepositoryAddIsIdempotent(t *testing.T) {
	repo := NewLotRepository(newTestDB(t), zerolog.Nop())

	require.NoError(t, repo.Add("AAPL", 10, 1000, date("2024-01-02")))
	require.NoError(t, repo.Add("AAPL", 10, 1000, date("2024-01-02")))

	lots, err := repo.ListActive("AAPL")
	require.NoError(t, err)
	assert.Len(t, lots, 1)
	assert.Equal(t, 10.0, lots[0].Quantity)
	assert.Equal(t, 1000.0, lots[0].Invest)
	assert.True(t, lots[0].IsActive)
}

func TestLotRepositoryDistinctLotsOnSameDate(t *testing.T) {
	repo := NewLotRepository(newTestDB(t), zerolog.Nop())

	// Different quantity on the same date is a separate lot, not a duplicate.
	require.NoError(t, repo.Add("AAPL", 10, 1000, date("2024-01-02")))
	require.NoError(t, repo.Add("AAPL", 5, 500, date("2024-01-02")))

	lots, err := repo.ListActive("AAPL")
	require.NoError(t, err)
	assert.Len(t, lots, 2)
}

func TestLotRepositoryListActiveOrdersByDateThenInsertion(t *testing.T) {
	repo := NewLotRepository(newTestDB(t), zerolog.Nop())

	require.NoError(t, repo.Add("SAP.DE", 3, 300, date("2024-03-01")))
	require.NoError(t, repo.Add("SAP.DE", 1, 100, date("2024-01-01")))
	require.NoError(t, repo.Add("SAP.DE", 2, 200, date("2024-01-01")))

	lots, err := repo.ListActive("SAP.DE")
	require.NoError(t, err)
	require.Len(t, lots, 3)

	// Oldest date first; equal dates keep insertion order.
	assert.Equal(t, 1.0, lots[0].Quantity)
	assert.Equal(t, 2.0, lots[1].Quantity)
	assert.Equal(t, 3.0, lots[2].Quantity)
}

func TestLotRepositoryDeactivate(t *testing.T) {
	repo := NewLotRepository(newTestDB(t), zerolog.Nop())

	require.NoError(t, repo.Add("AAPL", 10, 1000, date("2024-01-02")))
	require.NoError(t, repo.Add("MSFT", 5, 500, date("2024-01-03")))

	lots, err := repo.ListActive("AAPL")
	require.NoError(t, err)
	require.Len(t, lots, 1)

	require.NoError(t, repo.Deactivate([]int64{lots[0].ID}))

	lots, err = repo.ListActive("AAPL")
	require.NoError(t, err)
	assert.Empty(t, lots)

	// Other instruments untouched.
	lots, err = repo.ListActive("MSFT")
	require.NoError(t, err)
	assert.Len(t, lots, 1)
}

func TestLotRepositoryNormalizesTicker(t *testing.T) {
	repo := NewLotRepository(newTestDB(t), zerolog.Nop())

	require.NoError(t, repo.Add(" aapl ", 10, 1000, date("2024-01-02")))

	lots, err := repo.ListActive("AAPL")
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, "AAPL", lots[0].Ticker)
}

func TestHistoryRepositoryAppendAndList(t *testing.T) {
	repo := NewHistoryRepository(newTestDB(t), zerolog.Nop())

	require.NoError(t, repo.Add(ClosedPosition{
		Ticker:    "AAPL",
		StartDate: date("2024-01-02"),
		EndDate:   date("2024-02-02"),
		SumBuy:    1000,
		SumSell:   1200,
	}))
	require.NoError(t, repo.Add(ClosedPosition{
		Ticker:    "AAPL",
		StartDate: date("2024-03-01"),
		EndDate:   date("2024-04-01"),
		SumBuy:    500,
		SumSell:   450,
	}))

	positions, err := repo.List("AAPL")
	require.NoError(t, err)
	require.Len(t, positions, 2)

	// Most recent exit first.
	assert.Equal(t, 450.0, positions[0].SumSell)
	assert.Equal(t, 1200.0, positions[1].SumSell)

	all, err := repo.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTickerRepositoryReplaceSemantics(t *testing.T) {
	tests := []struct {
		name    string
		replace bool
		want    string
	}{
		{name: "no replace keeps first mapping", replace: false, want: "ACM"},
		{name: "replace repoints the name", replace: true, want: "ACM2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewTickerRepository(newTestDB(t), zerolog.Nop())

			require.NoError(t, repo.Set("Acme", "ACM", false))
			require.NoError(t, repo.Set("Acme", "ACM2", tt.replace))

			ticker, err := repo.ResolveTicker("Acme")
			require.NoError(t, err)
			require.NotNil(t, ticker)
			assert.Equal(t, tt.want, *ticker)
		})
	}
}

func TestTickerRepositoryResolveBothDirections(t *testing.T) {
	repo := NewTickerRepository(newTestDB(t), zerolog.Nop())

	require.NoError(t, repo.Set("Apple Inc.", "AAPL", false))

	ticker, err := repo.ResolveTicker("Apple Inc.")
	require.NoError(t, err)
	require.NotNil(t, ticker)
	assert.Equal(t, "AAPL", *ticker)

	name, err := repo.ResolveName("AAPL")
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Equal(t, "Apple Inc.", *name)

	missing, err := repo.ResolveTicker("Unknown Corp")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTickerRepositoryReplaceFreesTakenTicker(t *testing.T) {
	repo := NewTickerRepository(newTestDB(t), zerolog.Nop())

	require.NoError(t, repo.Set("Acme", "ACM", false))

	// Without replace, a second name cannot claim a taken ticker.
	require.NoError(t, repo.Set("Acme Holdings", "ACM", false))
	name, err := repo.ResolveName("ACM")
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Equal(t, "Acme", *name)

	// With replace, the ticker moves to the new name.
	require.NoError(t, repo.Set("Acme Holdings", "ACM", true))
	name, err = repo.ResolveName("ACM")
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Equal(t, "Acme Holdings", *name)
}
