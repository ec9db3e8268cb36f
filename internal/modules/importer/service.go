// Package importer ingests broker statement batches: one CSV row per
// transaction, signed quantity and amount, sells reconciled against
// buys after the whole batch is in.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/scermak/theportfolio/internal/modules/accounting"
	"github.com/scermak/theportfolio/internal/modules/ledger"
)

// Result summarizes one import run.
type Result struct {
	Imported        int      `json:"imported"`
	Skipped         int      `json:"skipped"`
	ClosedPositions int      `json:"closed_positions"`
	Errors          []string `json:"errors,omitempty"`
}

// Resolver maps a user-facing identifier to a ticker.
type Resolver interface {
	Resolve(identifier string) (string, error)
	SetMapping(displayName, ticker string, replace bool) error
}

// Service reads statement CSVs into the ledger.
type Service struct {
	engine   *accounting.Engine
	resolver Resolver
	log      zerolog.Logger
}

// NewService creates a new importer service
func NewService(engine *accounting.Engine, resolver Resolver, log zerolog.Logger) *Service {
	return &Service{
		engine:   engine,
		resolver: resolver,
		log:      log.With().Str("service", "importer").Logger(),
	}
}

// Import reads a statement CSV with the columns
//
//	date,name,ticker,quantity,amount
//
// and records every row as a signed lot. Name/ticker pairs are stored
// as identity mappings without replacing existing ones. After the full
// batch one reconciliation pass moves completed round-trips into the
// history. Bad rows are skipped and reported, they do not abort the
// batch.
func (s *Service) Import(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var result Result
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("failed to read CSV: %w", err)
		}
		line++

		if line == 1 && isHeader(record) {
			continue
		}

		if err := s.importRow(record); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		result.Imported++
	}

	closed, err := s.engine.ReconcileClosedSeries()
	if err != nil {
		return result, fmt.Errorf("failed to reconcile after import: %w", err)
	}
	result.ClosedPositions = closed

	s.log.Info().
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("closed_positions", closed).
		Msg("Statement import finished")

	return result, nil
}

func (s *Service) importRow(record []string) error {
	if len(record) < 5 {
		return fmt.Errorf("expected 5 columns, got %d", len(record))
	}

	date, err := time.Parse(ledger.DateFormat, strings.TrimSpace(record[0]))
	if err != nil {
		return fmt.Errorf("invalid date %q", record[0])
	}

	name := strings.TrimSpace(record[1])
	ticker := strings.ToUpper(strings.TrimSpace(record[2]))

	quantity, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	if err != nil {
		return fmt.Errorf("invalid quantity %q", record[3])
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(record[4]), 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", record[4])
	}

	switch {
	case ticker == "" && name == "":
		return fmt.Errorf("row has neither name nor ticker")
	case ticker == "":
		ticker, err = s.resolver.Resolve(name)
		if err != nil {
			return fmt.Errorf("failed to resolve %q: %w", name, err)
		}
	case name != "":
		// First mapping wins; a statement must not silently repoint
		// an identity that was set up earlier.
		if err := s.resolver.SetMapping(name, ticker, false); err != nil {
			return fmt.Errorf("failed to store mapping: %w", err)
		}
	}

	return s.engine.RecordTrade(ticker, quantity, amount, date)
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "date")
}
