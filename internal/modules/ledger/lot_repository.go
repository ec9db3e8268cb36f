package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// execer is satisfied by both *sql.DB-backed wrappers and *sql.Tx, so
// deactivation can run inside the engine's closure transaction.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// LotRepository handles the active_trades table.
type LotRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewLotRepository creates a new lot repository
func NewLotRepository(db *sql.DB, log zerolog.Logger) *LotRepository {
	return &LotRepository{
		db:  db,
		log: log.With().Str("repo", "lots").Logger(),
	}
}

// Add inserts a new active lot. The insert is idempotent: if a lot with
// an identical (ticker, quantity, invest, trade_date) tuple already
// exists, the call is a silent no-op. That protects against the same
// account statement being imported twice.
func (r *LotRepository) Add(ticker string, quantity, invest float64, tradeDate time.Time) error {
	ticker = normalizeTicker(ticker)
	date := tradeDate.Format(DateFormat)

	var exists int
	err := r.db.QueryRow(
		`SELECT 1 FROM active_trades
		 WHERE ticker = ? AND quantity = ? AND invest = ? AND trade_date = ?
		 LIMIT 1`,
		ticker, quantity, invest, date,
	).Scan(&exists)
	if err == nil {
		r.log.Debug().
			Str("ticker", ticker).
			Float64("quantity", quantity).
			Str("date", date).
			Msg("Duplicate lot ignored")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check for duplicate lot: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO active_trades (ticker, quantity, invest, trade_date, is_active, created_at)
		 VALUES (?, ?, ?, ?, 1, ?)`,
		ticker, quantity, invest, date, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to add lot: %w", err)
	}

	r.log.Info().
		Str("ticker", ticker).
		Float64("quantity", quantity).
		Float64("invest", invest).
		Str("date", date).
		Msg("Lot added")

	return nil
}

// ListActive returns all active lots for one ticker, oldest first.
// Same-date lots keep insertion order via the autoincrement id.
func (r *LotRepository) ListActive(ticker string) ([]Lot, error) {
	rows, err := r.db.Query(
		`SELECT lot_id, ticker, quantity, invest, trade_date, is_active
		 FROM active_trades
		 WHERE ticker = ? AND is_active = 1
		 ORDER BY trade_date ASC, lot_id ASC`,
		normalizeTicker(ticker),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active lots: %w", err)
	}
	defer rows.Close()

	return scanLots(rows)
}

// ListActiveAll returns every active lot grouped by nothing, ordered by
// ticker then date then insertion order.
func (r *LotRepository) ListActiveAll() ([]Lot, error) {
	rows, err := r.db.Query(
		`SELECT lot_id, ticker, quantity, invest, trade_date, is_active
		 FROM active_trades
		 WHERE is_active = 1
		 ORDER BY ticker ASC, trade_date ASC, lot_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active lots: %w", err)
	}
	defer rows.Close()

	return scanLots(rows)
}

// ActiveTickers returns the distinct tickers that still hold active lots.
func (r *LotRepository) ActiveTickers() ([]string, error) {
	rows, err := r.db.Query(
		`SELECT DISTINCT ticker FROM active_trades WHERE is_active = 1 ORDER BY ticker ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickers: %w", err)
	}

	return tickers, nil
}

// Deactivate flips is_active to false for the given lots.
func (r *LotRepository) Deactivate(ids []int64) error {
	return r.deactivate(r.db, ids)
}

// DeactivateTx is Deactivate inside a caller-owned transaction.
func (r *LotRepository) DeactivateTx(tx *sql.Tx, ids []int64) error {
	return r.deactivate(tx, ids)
}

func (r *LotRepository) deactivate(ex execer, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	_, err := ex.Exec(
		fmt.Sprintf("UPDATE active_trades SET is_active = 0 WHERE lot_id IN (%s)", placeholders),
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate lots: %w", err)
	}

	return nil
}

func scanLots(rows *sql.Rows) ([]Lot, error) {
	var lots []Lot
	for rows.Next() {
		var (
			lot      Lot
			date     string
			isActive int
		)
		if err := rows.Scan(&lot.ID, &lot.Ticker, &lot.Quantity, &lot.Invest, &date, &isActive); err != nil {
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}

		parsed, err := time.Parse(DateFormat, date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse trade date %q: %w", date, err)
		}
		lot.TradeDate = parsed
		lot.IsActive = isActive != 0

		lots = append(lots, lot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lots: %w", err)
	}

	return lots, nil
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
