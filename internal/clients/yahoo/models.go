package yahoo

import "time"

// Quote is a point-in-time market price for one instrument.
type Quote struct {
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`

	// BaseRate converts one unit of Currency into the base currency.
	// Nil when the quote is already denominated in the base currency.
	BaseRate *float64 `json:"base_rate,omitempty"`

	// Extended fields, only populated when requested.
	ChangePercent *float64 `json:"change_percent,omitempty"`
	MarketCap     *int64   `json:"market_cap,omitempty"`
	High52        *float64 `json:"high_52,omitempty"`
	Low52         *float64 `json:"low_52,omitempty"`
	LongName      *string  `json:"long_name,omitempty"`
	Exchange      *string  `json:"exchange,omitempty"`
}

// SearchResult is a single candidate returned by the symbol search.
type SearchResult struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"short_name"`
	Exchange  string `json:"exchange"`
	QuoteType string `json:"quote_type"`
}

// HistoricalPrice is a single daily OHLCV data point.
type HistoricalPrice struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}
