package yahoo

import (
	"bytes"
	"io"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTransport serves a canned body for every request.
type stubTransport struct {
	body string
}

func (t *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader([]byte(t.body))),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func newTestClient(body string) *Client {
	c := NewClient("EUR", zerolog.Nop())
	c.client = &http.Client{Transport: &stubTransport{body: body}}
	return c
}

func TestGetDailyHistorySkipsRaggedArrays(t *testing.T) {
	// Four timestamps but only two complete OHLC rows; Yahoo pads the
	// rest with nulls which decode to shorter slices.
	body := `{
		"chart": {
			"result": [{
				"timestamp": [1700000000, 1700086400, 1700172800, 1700259200],
				"indicators": {
					"quote": [{
						"open":   [10.0, 11.0],
						"high":   [10.5, 11.5],
						"low":    [9.5, 10.5],
						"close":  [10.2, 11.2, 12.2, 13.2],
						"volume": [1000, 2000]
					}]
				}
			}],
			"error": null
		}
	}`

	client := newTestClient(body)

	prices, err := client.GetDailyHistory("AAPL", "1mo")
	require.NoError(t, err)

	require.Len(t, prices, 2)
	assert.Equal(t, 10.2, prices[0].Close)
	assert.Equal(t, 11.0, prices[1].Open)
	assert.Equal(t, 11.5, prices[1].High)
	assert.Equal(t, int64(2000), prices[1].Volume)
}

func TestGetDailyHistorySkipsZeroCloses(t *testing.T) {
	body := `{
		"chart": {
			"result": [{
				"timestamp": [1700000000, 1700086400],
				"indicators": {
					"quote": [{
						"open":   [10.0, 11.0],
						"high":   [10.5, 11.5],
						"low":    [9.5, 10.5],
						"close":  [0, 11.2],
						"volume": [1000, 2000]
					}]
				}
			}],
			"error": null
		}
	}`

	client := newTestClient(body)

	prices, err := client.GetDailyHistory("AAPL", "1mo")
	require.NoError(t, err)

	require.Len(t, prices, 1)
	assert.Equal(t, 11.2, prices[0].Close)
}
