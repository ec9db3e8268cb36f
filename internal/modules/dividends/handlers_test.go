package dividends

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleListViews(t *testing.T) {
	s := newService(t, &fakeRates{rates: map[string]float64{"USD": 0.9}})
	handler := NewHandler(s, zerolog.Nop())

	_, err := s.Record("AAPL", 100, "USD", date("2023-03-15"))
	require.NoError(t, err)
	_, err = s.Record("AAPL", 110, "USD", date("2024-03-15"))
	require.NoError(t, err)
	_, err = s.Record("MSFT", 50, "USD", date("2024-06-10"))
	require.NoError(t, err)

	get := func(target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", target, nil)
		rec := httptest.NewRecorder()
		handler.HandleList(rec, req)
		return rec
	}

	t.Run("plain list", func(t *testing.T) {
		rec := get("/api/dividends")
		require.Equal(t, http.StatusOK, rec.Code)

		var payments []Dividend
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payments))
		assert.Len(t, payments, 3)
	})

	t.Run("year view", func(t *testing.T) {
		rec := get("/api/dividends?view=year")
		require.Equal(t, http.StatusOK, rec.Code)

		var summaries []YearSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
		require.Len(t, summaries, 2)
	})

	t.Run("instrument view", func(t *testing.T) {
		rec := get("/api/dividends?view=instrument")
		require.Equal(t, http.StatusOK, rec.Code)

		var summaries []TickerSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
		require.Len(t, summaries, 2)
	})

	t.Run("unknown view", func(t *testing.T) {
		rec := get("/api/dividends?view=month")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
