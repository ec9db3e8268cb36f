package dividends

import "time"

// Dividend is one received dividend payment. AmountBase is the payout
// converted into the base currency at the rate of the recording day.
type Dividend struct {
	ID          int64     `json:"id"`
	Ticker      string    `json:"ticker"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	AmountBase  float64   `json:"amount_base"`
	PaymentDate time.Time `json:"payment_date"`
}

// YearSummary totals dividend income per calendar year.
type YearSummary struct {
	Year  int     `json:"year"`
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// TickerSummary totals dividend income per instrument.
type TickerSummary struct {
	Ticker string  `json:"ticker"`
	Count  int     `json:"count"`
	Total  float64 `json:"total"`
}
