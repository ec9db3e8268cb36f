package portfolio

// OpenPosition is one instrument's aggregated active lots, valued at
// the current market price when one is available.
type OpenPosition struct {
	Ticker      string  `json:"ticker"`
	DisplayName *string `json:"display_name,omitempty"`
	Quantity    float64 `json:"quantity"`
	Invested    float64 `json:"invested"`
	Lots        int     `json:"lots"`

	// Valuation fields, zero and Priced=false when no quote exists.
	Priced        bool    `json:"priced"`
	CurrentPrice  float64 `json:"current_price,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	CurrentValue  float64 `json:"current_value,omitempty"`
	Profit        float64 `json:"profit,omitempty"`
	ProfitPercent float64 `json:"profit_percent,omitempty"`
}

// Summary is the whole-portfolio view over all open positions.
type Summary struct {
	Positions []OpenPosition `json:"positions"`

	TotalInvested float64 `json:"total_invested"`

	// TotalValue and TotalProfit only cover priced positions; an
	// instrument without a quote cannot contribute a market value.
	TotalValue    float64  `json:"total_value"`
	TotalProfit   float64  `json:"total_profit"`
	ProfitPercent float64  `json:"profit_percent"`
	Unpriced      []string `json:"unpriced,omitempty"`
}

// ClosedPositionView is a history row with its derived metrics.
type ClosedPositionView struct {
	ID                int64   `json:"id"`
	Ticker            string  `json:"ticker"`
	DisplayName       *string `json:"display_name,omitempty"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	SumBuy            float64 `json:"sum_buy"`
	SumSell           float64 `json:"sum_sell"`
	Profit            float64 `json:"profit"`
	ProfitPercent     float64 `json:"profit_percent"`
	DaysHeld          int     `json:"days_held"`
	AnnualizedPercent float64 `json:"annualized_percent"`
}

// Statistics aggregates the realized trading history.
type Statistics struct {
	Positions int     `json:"positions"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	TotalBuy  float64 `json:"total_buy"`
	TotalSell float64 `json:"total_sell"`
	Profit    float64 `json:"profit"`

	// ProfitPercent relates total profit to total cost basis.
	ProfitPercent float64 `json:"profit_percent"`

	// Distribution of per-position profit percentages.
	MeanProfitPercent   float64 `json:"mean_profit_percent"`
	StdDevProfitPercent float64 `json:"stddev_profit_percent"`

	// AnnualizedPercent compounds the capital-weighted daily return
	// over a year, using days weighted by cost basis.
	AnnualizedPercent float64 `json:"annualized_percent"`
}
