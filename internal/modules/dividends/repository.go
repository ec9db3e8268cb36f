// Package dividends tracks received dividend payments and their
// income summaries.
package dividends

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/scermak/theportfolio/internal/modules/ledger"
)

// Repository handles dividend_history table operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new dividend repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "dividends").Logger(),
	}
}

// Add records a dividend payment. The insert is idempotent: an
// identical (ticker, amount, currency, payment_date) tuple is a silent
// no-op, so re-posting the same payout cannot double-count income.
func (r *Repository) Add(d Dividend) error {
	ticker := strings.ToUpper(strings.TrimSpace(d.Ticker))
	currency := strings.ToUpper(d.Currency)
	date := d.PaymentDate.Format(ledger.DateFormat)

	var exists int
	err := r.db.QueryRow(`
		SELECT 1 FROM dividend_history
		WHERE ticker = ? AND amount = ? AND currency = ? AND payment_date = ?
		LIMIT 1`,
		ticker, d.Amount, currency, date,
	).Scan(&exists)
	if err == nil {
		r.log.Debug().
			Str("ticker", ticker).
			Float64("amount", d.Amount).
			Str("date", date).
			Msg("Duplicate dividend ignored")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check for duplicate dividend: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO dividend_history (ticker, amount, currency, amount_base, payment_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ticker, d.Amount, currency, d.AmountBase, date,
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert dividend: %w", err)
	}

	return nil
}

// List returns dividends newest first, optionally filtered by ticker.
func (r *Repository) List(ticker string) ([]Dividend, error) {
	query := `
		SELECT dividend_id, ticker, amount, currency, amount_base, payment_date
		FROM dividend_history`
	args := []interface{}{}
	if ticker != "" {
		query += " WHERE ticker = ?"
		args = append(args, strings.ToUpper(strings.TrimSpace(ticker)))
	}
	query += " ORDER BY payment_date DESC, dividend_id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividends: %w", err)
	}
	defer rows.Close()

	var dividends []Dividend
	for rows.Next() {
		var (
			d       Dividend
			dateStr string
		)
		if err := rows.Scan(&d.ID, &d.Ticker, &d.Amount, &d.Currency, &d.AmountBase, &dateStr); err != nil {
			return nil, fmt.Errorf("failed to scan dividend: %w", err)
		}
		d.PaymentDate, err = parseDate(dateStr)
		if err != nil {
			return nil, err
		}
		dividends = append(dividends, d)
	}

	return dividends, rows.Err()
}

// SummaryByYear totals base-currency income per calendar year, most
// recent year first.
func (r *Repository) SummaryByYear() ([]YearSummary, error) {
	rows, err := r.db.Query(`
		SELECT CAST(strftime('%Y', payment_date) AS INTEGER) AS year,
		       COUNT(*),
		       SUM(amount_base)
		FROM dividend_history
		GROUP BY year
		ORDER BY year DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query year summary: %w", err)
	}
	defer rows.Close()

	var summaries []YearSummary
	for rows.Next() {
		var s YearSummary
		if err := rows.Scan(&s.Year, &s.Count, &s.Total); err != nil {
			return nil, fmt.Errorf("failed to scan year summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// SummaryByTicker totals base-currency income per instrument, largest
// total first.
func (r *Repository) SummaryByTicker() ([]TickerSummary, error) {
	rows, err := r.db.Query(`
		SELECT ticker, COUNT(*), SUM(amount_base)
		FROM dividend_history
		GROUP BY ticker
		ORDER BY SUM(amount_base) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticker summary: %w", err)
	}
	defer rows.Close()

	var summaries []TickerSummary
	for rows.Next() {
		var s TickerSummary
		if err := rows.Scan(&s.Ticker, &s.Count, &s.Total); err != nil {
			return nil, fmt.Errorf("failed to scan ticker summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(ledger.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse payment date %q: %w", s, err)
	}
	return t, nil
}
