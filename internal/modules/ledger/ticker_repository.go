package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// TickerRepository handles the display-name/ticker mapping.
type TickerRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTickerRepository creates a new ticker mapping repository
func NewTickerRepository(db *sql.DB, log zerolog.Logger) *TickerRepository {
	return &TickerRepository{
		db:  db,
		log: log.With().Str("repo", "tickers").Logger(),
	}
}

// Set creates the display-name/ticker mapping.
//
// With replace false the call is a silent no-op when either side is
// already mapped (statement import re-registers names on every run).
// With replace true, stale mappings on both sides are dropped first so
// a display name can be repointed to a new ticker.
func (r *TickerRepository) Set(displayName, ticker string, replace bool) error {
	displayName = strings.TrimSpace(displayName)
	ticker = normalizeTicker(ticker)
	if displayName == "" || ticker == "" {
		return fmt.Errorf("display name and ticker must not be empty")
	}

	if !replace {
		taken, err := r.exists(displayName, ticker)
		if err != nil {
			return err
		}
		if taken {
			return nil
		}
	} else {
		_, err := r.db.Exec(
			`DELETE FROM ticker_map WHERE display_name = ? OR ticker = ?`,
			displayName, ticker,
		)
		if err != nil {
			return fmt.Errorf("failed to drop stale mapping: %w", err)
		}
	}

	_, err := r.db.Exec(
		`INSERT INTO ticker_map (display_name, ticker) VALUES (?, ?)`,
		displayName, ticker,
	)
	if err != nil {
		return fmt.Errorf("failed to set ticker mapping: %w", err)
	}

	r.log.Info().
		Str("name", displayName).
		Str("ticker", ticker).
		Bool("replace", replace).
		Msg("Ticker mapping set")

	return nil
}

func (r *TickerRepository) exists(displayName, ticker string) (bool, error) {
	var one int
	err := r.db.QueryRow(
		`SELECT 1 FROM ticker_map WHERE display_name = ? OR ticker = ? LIMIT 1`,
		displayName, ticker,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check ticker mapping: %w", err)
	}
	return true, nil
}

// ResolveTicker returns the ticker for a display name, or nil if the
// name has no mapping.
func (r *TickerRepository) ResolveTicker(displayName string) (*string, error) {
	var ticker string
	err := r.db.QueryRow(
		`SELECT ticker FROM ticker_map WHERE display_name = ?`,
		strings.TrimSpace(displayName),
	).Scan(&ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ticker: %w", err)
	}
	return &ticker, nil
}

// ResolveName returns the display name for a ticker, or nil if the
// ticker has no mapping.
func (r *TickerRepository) ResolveName(ticker string) (*string, error) {
	var name string
	err := r.db.QueryRow(
		`SELECT display_name FROM ticker_map WHERE ticker = ?`,
		normalizeTicker(ticker),
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve display name: %w", err)
	}
	return &name, nil
}

// List returns every mapping ordered by display name.
func (r *TickerRepository) List() ([]Mapping, error) {
	rows, err := r.db.Query(
		`SELECT display_name, ticker FROM ticker_map ORDER BY display_name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticker mappings: %w", err)
	}
	defer rows.Close()

	var mappings []Mapping
	for rows.Next() {
		var m Mapping
		if err := rows.Scan(&m.DisplayName, &m.Ticker); err != nil {
			return nil, fmt.Errorf("failed to scan ticker mapping: %w", err)
		}
		mappings = append(mappings, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ticker mappings: %w", err)
	}

	return mappings, nil
}
