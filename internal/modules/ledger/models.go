// Package ledger is the durable store for lots, closed positions and
// the display-name/ticker mapping. It is the only writer of those
// tables; the accounting engine drives every mutation.
package ledger

import "time"

// DateFormat is how trade dates are stored; they carry no time component.
const DateFormat = "2006-01-02"

// Lot is one recorded buy or sell event for an instrument.
//
// Quantity and Invest always share the same sign: positive for shares
// acquired, negative for shares disposed (the signed convention used by
// statement import). A lot is never edited once stored; a sale only
// flips IsActive to false.
type Lot struct {
	ID        int64     `json:"id"`
	Ticker    string    `json:"ticker"`
	Quantity  float64   `json:"quantity"`
	Invest    float64   `json:"invest"`
	TradeDate time.Time `json:"trade_date"`
	IsActive  bool      `json:"is_active"`
}

// ClosedPosition is one fully exited round-trip for an instrument.
// Rows are append-only and immutable.
type ClosedPosition struct {
	ID        int64     `json:"id"`
	Ticker    string    `json:"ticker"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	SumBuy    float64   `json:"sum_buy"`
	SumSell   float64   `json:"sum_sell"`
}

// Mapping binds a user-facing display name to a ticker symbol.
type Mapping struct {
	DisplayName string `json:"display_name"`
	Ticker      string `json:"ticker"`
}
