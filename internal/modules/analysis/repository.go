// Package analysis produces and stores AI chance/risk assessments for
// held instruments.
package analysis

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles stock_analysis table operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new analysis repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "analysis").Logger(),
	}
}

// Upsert stores the assessment, replacing any previous one for the
// same ticker.
func (r *Repository) Upsert(a Analysis) error {
	_, err := r.db.Exec(`
		INSERT INTO stock_analysis (ticker, chance, chance_explanation, risk, risk_explanation, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker) DO UPDATE SET
			chance = excluded.chance,
			chance_explanation = excluded.chance_explanation,
			risk = excluded.risk,
			risk_explanation = excluded.risk_explanation,
			updated_at = excluded.updated_at`,
		a.Ticker, a.Chance, a.ChanceExplanation, a.Risk, a.RiskExplanation,
		a.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert analysis: %w", err)
	}

	return nil
}

// Get returns the stored assessment for a ticker, nil when absent.
func (r *Repository) Get(ticker string) (*Analysis, error) {
	row := r.db.QueryRow(`
		SELECT ticker, chance, chance_explanation, risk, risk_explanation, updated_at
		FROM stock_analysis WHERE ticker = ?`, ticker)

	a, err := scanAnalysis(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	return a, nil
}

// List returns all stored assessments ordered by ticker.
func (r *Repository) List() ([]Analysis, error) {
	rows, err := r.db.Query(`
		SELECT ticker, chance, chance_explanation, risk, risk_explanation, updated_at
		FROM stock_analysis ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, *a)
	}

	return analyses, rows.Err()
}

// Delete removes the assessment for a ticker.
func (r *Repository) Delete(ticker string) error {
	if _, err := r.db.Exec(`DELETE FROM stock_analysis WHERE ticker = ?`, ticker); err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAnalysis(s scanner) (*Analysis, error) {
	var (
		a         Analysis
		updatedAt string
	)
	if err := s.Scan(&a.Ticker, &a.Chance, &a.ChanceExplanation, &a.Risk, &a.RiskExplanation, &updatedAt); err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at %q: %w", updatedAt, err)
	}
	a.UpdatedAt = t

	return &a, nil
}
