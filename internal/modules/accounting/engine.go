// Package accounting implements the lot accounting engine: recording
// trades, closing positions and matching signed lots oldest-first.
package accounting

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/scermak/theportfolio/internal/database"
	"github.com/scermak/theportfolio/internal/modules/ledger"
)

// ErrInvalidTrade rejects a trade whose quantity/invest pair is zero or
// mixes signs. Such a lot would corrupt the FIFO walk.
var ErrInvalidTrade = errors.New("quantity and invest must be nonzero and share the same sign")

// closureTolerance treats a series as flat when the running quantity
// drops below it. Broker statements carry floating-point noise, so an
// exact-zero test would leave micro-residual positions open forever.
const closureTolerance = 0.0001

// Engine mutates the ledger. One mutex serializes all mutations; the
// ledger is single-writer and a reconciliation both reads and
// deactivates lots, so interleaving would corrupt the walk.
type Engine struct {
	db      *database.DB
	lots    *ledger.LotRepository
	history *ledger.HistoryRepository

	mu  sync.Mutex
	log zerolog.Logger
}

// NewEngine creates a new accounting engine
func NewEngine(db *database.DB, lots *ledger.LotRepository, history *ledger.HistoryRepository, log zerolog.Logger) *Engine {
	return &Engine{
		db:      db,
		lots:    lots,
		history: history,
		log:     log.With().Str("service", "accounting").Logger(),
	}
}

// RecordTrade adds a new active lot. A buy never closes anything.
//
// Both sign conventions pass through here: manual entry uses positive
// quantity/invest, statement import records sells as a lot with both
// values negative and later calls ReconcileClosedSeries.
func (e *Engine) RecordTrade(ticker string, quantity, invest float64, date time.Time) error {
	if quantity == 0 || invest == 0 || quantity*invest < 0 {
		return ErrInvalidTrade
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.lots.Add(ticker, quantity, invest, date)
}

// RecordSale closes the entire remaining position of a ticker in one
// aggregate sale. proceeds is the total realized for the whole
// remaining quantity, not a per-share price.
//
// Selling a ticker with no active lots is a defined no-op: it just
// signals "no position held".
func (e *Engine) RecordSale(ticker string, proceeds float64, date time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	lots, err := e.lots.ListActive(ticker)
	if err != nil {
		return fmt.Errorf("failed to load active lots: %w", err)
	}
	if len(lots) == 0 {
		e.log.Debug().Str("ticker", ticker).Msg("Sale without active lots ignored")
		return nil
	}

	totalInvest := 0.0
	startDate := lots[0].TradeDate
	ids := make([]int64, 0, len(lots))
	for _, lot := range lots {
		totalInvest += lot.Invest
		if lot.TradeDate.Before(startDate) {
			startDate = lot.TradeDate
		}
		ids = append(ids, lot.ID)
	}

	position := ledger.ClosedPosition{
		Ticker:    lots[0].Ticker,
		StartDate: startDate,
		EndDate:   date,
		SumBuy:    totalInvest,
		SumSell:   proceeds,
	}

	if err := e.closeSeries(position, ids); err != nil {
		return err
	}

	e.log.Info().
		Str("ticker", position.Ticker).
		Float64("sum_buy", position.SumBuy).
		Float64("sum_sell", position.SumSell).
		Int("lots", len(ids)).
		Msg("Position sold")

	return nil
}

// ReconcileClosedSeries walks every instrument's active lots oldest
// first and moves each series that returned to flat into the history.
// It runs once after a statement batch was imported, where each
// transaction is its own signed lot and partial closures are common.
//
// Same-date lots keep insertion order; ties are not otherwise
// disambiguated. Returns the number of closed positions written.
func (e *Engine) ReconcileClosedSeries() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tickers, err := e.lots.ActiveTickers()
	if err != nil {
		return 0, fmt.Errorf("failed to list instruments: %w", err)
	}

	closed := 0
	for _, ticker := range tickers {
		n, err := e.reconcileTicker(ticker)
		if err != nil {
			return closed, fmt.Errorf("failed to reconcile %s: %w", ticker, err)
		}
		closed += n
	}

	if closed > 0 {
		e.log.Info().Int("closed_positions", closed).Msg("Reconciliation finished")
	}

	return closed, nil
}

func (e *Engine) reconcileTicker(ticker string) (int, error) {
	lots, err := e.lots.ListActive(ticker)
	if err != nil {
		return 0, fmt.Errorf("failed to load active lots: %w", err)
	}

	var (
		runningQuantity float64
		spent           float64
		earned          float64
		seriesStart     *time.Time
		seriesIDs       []int64
		closed          int
	)

	for _, lot := range lots {
		if seriesStart == nil {
			start := lot.TradeDate
			seriesStart = &start
		}
		seriesIDs = append(seriesIDs, lot.ID)

		runningQuantity += lot.Quantity
		if lot.Quantity > 0 {
			spent += lot.Invest
		} else {
			earned += -lot.Invest
		}

		if math.Abs(runningQuantity) >= closureTolerance {
			continue
		}

		// Series returned to flat: one full round-trip.
		position := ledger.ClosedPosition{
			Ticker:    lot.Ticker,
			StartDate: *seriesStart,
			EndDate:   lot.TradeDate,
			SumBuy:    spent,
			SumSell:   earned,
		}
		if err := e.closeSeries(position, seriesIDs); err != nil {
			return closed, err
		}
		closed++

		runningQuantity = 0
		spent = 0
		earned = 0
		seriesStart = nil
		seriesIDs = nil
	}

	// Lots of an unfinished series stay active.
	return closed, nil
}

// closeSeries durably writes the closed position and only then
// deactivates the consumed lots, in one transaction. A crash can leave
// a deactivation pending but never an orphaned closure.
func (e *Engine) closeSeries(position ledger.ClosedPosition, lotIDs []int64) error {
	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin closure transaction: %w", err)
	}

	if err := e.history.AddTx(tx, position); err != nil {
		tx.Rollback()
		return err
	}
	if err := e.lots.DeactivateTx(tx, lotIDs); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit closure: %w", err)
	}

	return nil
}
