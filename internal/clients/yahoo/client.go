// Package yahoo is a thin client for the public Yahoo Finance query
// endpoints: quotes, FX rates, symbol search and daily price history.
package yahoo

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// cacheTTL bounds how stale a served quote may be. Prices move slowly
// enough for portfolio valuation, and Yahoo rate-limits aggressively.
const cacheTTL = 5 * time.Minute

// Client is a Yahoo Finance API client with an in-process quote cache.
type Client struct {
	client       *http.Client
	baseCurrency string

	mu    sync.Mutex
	cache map[string]cacheEntry

	log zerolog.Logger
}

type cacheEntry struct {
	quote   Quote
	fetched time.Time
}

// NewClient creates a new Yahoo Finance client. baseCurrency is the
// ISO code all portfolio values are reported in, e.g. "EUR".
func NewClient(baseCurrency string, log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseCurrency: strings.ToUpper(baseCurrency),
		cache:        make(map[string]cacheEntry),
		log:          log.With().Str("client", "yahoo").Logger(),
	}
}

// yahooQuoteResponse represents the response from the quote API
type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []map[string]interface{} `json:"result"`
		Error  interface{}              `json:"error"`
	} `json:"quoteResponse"`
}

// GetQuote fetches the current market price for a symbol. When the
// quote currency differs from the base currency the returned quote
// carries the conversion rate. extended additionally populates the
// change/market-cap/52-week fields.
//
// Results are cached; within the TTL repeated calls for the same
// symbol do not hit the network.
func (c *Client) GetQuote(symbol string, extended bool) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	cacheKey := symbol
	if extended {
		cacheKey = symbol + "+ext"
	}

	c.mu.Lock()
	if entry, ok := c.cache[cacheKey]; ok && time.Since(entry.fetched) < cacheTTL {
		quote := entry.quote
		c.mu.Unlock()
		return &quote, nil
	}
	c.mu.Unlock()

	info, err := c.getQuoteInfo(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote info: %w", err)
	}

	price := getFloat64(info, "regularMarketPrice")
	if price == nil || *price <= 0 {
		return nil, fmt.Errorf("no valid price for symbol %s", symbol)
	}

	quote := &Quote{
		Symbol:   symbol,
		Price:    *price,
		Currency: strings.ToUpper(getString(info, "currency", c.baseCurrency)),
	}

	if quote.Currency != c.baseCurrency {
		rate, err := c.GetRate(quote.Currency)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s rate: %w", quote.Currency, err)
		}
		quote.BaseRate = &rate
	}

	if extended {
		quote.ChangePercent = getFloat64(info, "regularMarketChangePercent")
		quote.MarketCap = getInt64(info, "marketCap")
		quote.High52 = getFloat64(info, "fiftyTwoWeekHigh")
		quote.Low52 = getFloat64(info, "fiftyTwoWeekLow")
		quote.LongName = getStringPtr(info, "longName")
		quote.Exchange = getStringPtr(info, "fullExchangeName")
	}

	c.mu.Lock()
	c.cache[cacheKey] = cacheEntry{quote: *quote, fetched: time.Now()}
	c.mu.Unlock()

	c.log.Debug().
		Str("symbol", symbol).
		Float64("price", quote.Price).
		Str("currency", quote.Currency).
		Msg("Fetched quote")

	return quote, nil
}

// GetRate returns the conversion rate from one unit of currency into
// the base currency, rounded to four decimals. Yahoo only serves the
// base->foreign pair directly, so the inverse is taken.
func (c *Client) GetRate(currency string) (float64, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == c.baseCurrency {
		return 1, nil
	}

	pair := c.baseCurrency + currency + "=X"

	c.mu.Lock()
	if entry, ok := c.cache[pair]; ok && time.Since(entry.fetched) < cacheTTL {
		rate := entry.quote.Price
		c.mu.Unlock()
		return rate, nil
	}
	c.mu.Unlock()

	info, err := c.getQuoteInfo(pair)
	if err != nil {
		return 0, fmt.Errorf("failed to get FX pair %s: %w", pair, err)
	}

	price := getFloat64(info, "regularMarketPrice")
	if price == nil || *price <= 0 {
		return 0, fmt.Errorf("no valid rate for pair %s", pair)
	}

	rate := math.Round(1 / *price * 10000) / 10000

	c.mu.Lock()
	c.cache[pair] = cacheEntry{quote: Quote{Symbol: pair, Price: rate}, fetched: time.Now()}
	c.mu.Unlock()

	return rate, nil
}

// Search looks up symbols matching a free-text query (name, ticker or
// ISIN) and returns the candidate instruments.
func (c *Client) Search(query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("quotesCount", "10")
	params.Add("newsCount", "0")

	body, err := c.get("https://query1.finance.yahoo.com/v1/finance/search?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to search symbols: %w", err)
	}

	var result struct {
		Quotes []struct {
			Symbol    string `json:"symbol"`
			ShortName string `json:"shortname"`
			LongName  string `json:"longname"`
			Exchange  string `json:"exchange"`
			QuoteType string `json:"quoteType"`
		} `json:"quotes"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	results := make([]SearchResult, 0, len(result.Quotes))
	for _, q := range result.Quotes {
		if q.Symbol == "" {
			continue
		}
		name := q.ShortName
		if name == "" {
			name = q.LongName
		}
		results = append(results, SearchResult{
			Symbol:    q.Symbol,
			ShortName: name,
			Exchange:  q.Exchange,
			QuoteType: q.QuoteType,
		})
	}

	c.log.Debug().Str("query", query).Int("count", len(results)).Msg("Symbol search finished")

	return results, nil
}

// GetDailyHistory fetches daily closing prices for a symbol over a
// Yahoo range string (1mo, 3mo, 6mo, 1y, 2y, 5y, max).
func (c *Client) GetDailyHistory(symbol, period string) ([]HistoricalPrice, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("range", period)

	body, err := c.get("https://query1.finance.yahoo.com/v8/finance/chart/" + url.QueryEscape(symbol) + "?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}

	var result struct {
		Chart struct {
			Result []struct {
				Timestamp  []int64 `json:"timestamp"`
				Indicators struct {
					Quote []struct {
						Open   []float64 `json:"open"`
						High   []float64 `json:"high"`
						Low    []float64 `json:"low"`
						Close  []float64 `json:"close"`
						Volume []int64   `json:"volume"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"result"`
			Error interface{} `json:"error"`
		} `json:"chart"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse chart response: %w", err)
	}
	if result.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error: %v", result.Chart.Error)
	}
	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No historical data returned")
		return []HistoricalPrice{}, nil
	}

	chartData := result.Chart.Result[0]
	quote := chartData.Indicators.Quote[0]

	var prices []HistoricalPrice
	for i := range chartData.Timestamp {
		// Yahoo occasionally returns ragged arrays with nulls.
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			continue
		}
		if quote.Close[i] == 0 {
			continue
		}

		volume := int64(0)
		if i < len(quote.Volume) {
			volume = quote.Volume[i]
		}

		prices = append(prices, HistoricalPrice{
			Date:   time.Unix(chartData.Timestamp[i], 0),
			Open:   quote.Open[i],
			High:   quote.High[i],
			Low:    quote.Low[i],
			Close:  quote.Close[i],
			Volume: volume,
		})
	}

	c.log.Debug().
		Str("symbol", symbol).
		Str("period", period).
		Int("count", len(prices)).
		Msg("Fetched daily history")

	return prices, nil
}

// InvalidateCache drops all cached quotes, forcing fresh fetches.
func (c *Client) InvalidateCache() {
	c.mu.Lock()
	c.cache = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// getQuoteInfo fetches quote information for one symbol.
func (c *Client) getQuoteInfo(symbol string) (map[string]interface{}, error) {
	params := url.Values{}
	params.Add("symbols", symbol)
	params.Add("fields", "symbol,regularMarketPrice,currency,regularMarketChangePercent,"+
		"marketCap,fiftyTwoWeekHigh,fiftyTwoWeekLow,longName,shortName,fullExchangeName,quoteType")

	body, err := c.get("https://query1.finance.yahoo.com/v7/finance/quote?" + params.Encode())
	if err != nil {
		return nil, err
	}

	var result yahooQuoteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("quote API error: %v", result.QuoteResponse.Error)
	}
	if len(result.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("no quote data returned for symbol %s", symbol)
	}

	return result.QuoteResponse.Result[0], nil
}

func (c *Client) get(reqURL string) ([]byte, error) {
	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Yahoo rejects requests without a browser user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

// Helper functions to safely extract values from map

func getFloat64(m map[string]interface{}, key string) *float64 {
	if val, ok := m[key]; ok && val != nil {
		switch v := val.(type) {
		case float64:
			return &v
		case int:
			f := float64(v)
			return &f
		case int64:
			f := float64(v)
			return &f
		}
	}
	return nil
}

func getInt64(m map[string]interface{}, key string) *int64 {
	if val, ok := m[key]; ok && val != nil {
		switch v := val.(type) {
		case float64:
			i := int64(v)
			return &i
		case int:
			i := int64(v)
			return &i
		case int64:
			return &v
		}
	}
	return nil
}

func getString(m map[string]interface{}, key string, defaultVal string) string {
	if val, ok := m[key]; ok && val != nil {
		if s, ok := val.(string); ok && s != "" {
			return s
		}
	}
	return defaultVal
}

func getStringPtr(m map[string]interface{}, key string) *string {
	if val, ok := m[key]; ok && val != nil {
		if s, ok := val.(string); ok && s != "" {
			return &s
		}
	}
	return nil
}
