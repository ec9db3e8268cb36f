package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// HistoryRepository handles the append-only trade_history table.
type HistoryRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, log zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// Add appends one closed position.
func (r *HistoryRepository) Add(p ClosedPosition) error {
	return r.add(r.db, p)
}

// AddTx is Add inside a caller-owned transaction. The engine writes the
// closed position before deactivating the consumed lots so a crash can
// never leave an orphaned closure.
func (r *HistoryRepository) AddTx(tx *sql.Tx, p ClosedPosition) error {
	return r.add(tx, p)
}

func (r *HistoryRepository) add(ex execer, p ClosedPosition) error {
	_, err := ex.Exec(
		`INSERT INTO trade_history (ticker, start_date, end_date, sum_buy, sum_sell, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		normalizeTicker(p.Ticker),
		p.StartDate.Format(DateFormat),
		p.EndDate.Format(DateFormat),
		p.SumBuy,
		p.SumSell,
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to add closed position: %w", err)
	}

	r.log.Info().
		Str("ticker", p.Ticker).
		Str("start", p.StartDate.Format(DateFormat)).
		Str("end", p.EndDate.Format(DateFormat)).
		Float64("sum_buy", p.SumBuy).
		Float64("sum_sell", p.SumSell).
		Msg("Closed position recorded")

	return nil
}

// List returns closed positions for one ticker, most recent exit first.
func (r *HistoryRepository) List(ticker string) ([]ClosedPosition, error) {
	return r.list(
		`SELECT position_id, ticker, start_date, end_date, sum_buy, sum_sell
		 FROM trade_history
		 WHERE ticker = ?
		 ORDER BY end_date DESC, position_id DESC`,
		normalizeTicker(ticker),
	)
}

// ListAll returns every closed position, most recent exit first.
func (r *HistoryRepository) ListAll() ([]ClosedPosition, error) {
	return r.list(
		`SELECT position_id, ticker, start_date, end_date, sum_buy, sum_sell
		 FROM trade_history
		 ORDER BY end_date DESC, position_id DESC`,
	)
}

func (r *HistoryRepository) list(query string, args ...interface{}) ([]ClosedPosition, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list closed positions: %w", err)
	}
	defer rows.Close()

	var positions []ClosedPosition
	for rows.Next() {
		var (
			p          ClosedPosition
			start, end string
		)
		if err := rows.Scan(&p.ID, &p.Ticker, &start, &end, &p.SumBuy, &p.SumSell); err != nil {
			return nil, fmt.Errorf("failed to scan closed position: %w", err)
		}

		if p.StartDate, err = time.Parse(DateFormat, start); err != nil {
			return nil, fmt.Errorf("failed to parse start date %q: %w", start, err)
		}
		if p.EndDate, err = time.Parse(DateFormat, end); err != nil {
			return nil, fmt.Errorf("failed to parse end date %q: %w", end, err)
		}

		positions = append(positions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating closed positions: %w", err)
	}

	return positions, nil
}
