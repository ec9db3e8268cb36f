// Package database owns the sqlite connection and the schema.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	path string
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Use WAL mode for better concurrency
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	return &DB{
		conn: conn,
		path: dbPath,
	}, nil
}

// NewInMemory opens a private in-memory database, used by tests.
func NewInMemory() (*DB, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	// A single connection keeps every query on the same in-memory store.
	conn.SetMaxOpenConns(1)

	return &DB{conn: conn, path: ":memory:"}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Begin starts a new transaction
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// Exec executes a query without returning rows
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

// Migrate creates the schema if it does not exist yet.
//
// Lots live in active_trades; a lot is never deleted, only flipped to
// is_active = 0 once a sale consumed it. trade_history rows are
// append-only. ticker_map binds user-facing display names to ticker
// symbols, unique on both sides.
func (db *DB) Migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS active_trades (
			lot_id INTEGER PRIMARY KEY AUTOINCREMENT,
			ticker TEXT NOT NULL,
			quantity REAL NOT NULL,
			invest REAL NOT NULL,
			trade_date TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_active_trades_ticker
			ON active_trades(ticker, is_active)`,
		`CREATE TABLE IF NOT EXISTS trade_history (
			position_id INTEGER PRIMARY KEY AUTOINCREMENT,
			ticker TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			sum_buy REAL NOT NULL,
			sum_sell REAL NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trade_history_ticker
			ON trade_history(ticker)`,
		`CREATE TABLE IF NOT EXISTS ticker_map (
			display_name TEXT PRIMARY KEY,
			ticker TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS dividend_history (
			dividend_id INTEGER PRIMARY KEY AUTOINCREMENT,
			ticker TEXT NOT NULL,
			amount REAL NOT NULL,
			currency TEXT NOT NULL,
			amount_base REAL NOT NULL,
			payment_date TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS stock_analysis (
			ticker TEXT PRIMARY KEY,
			chance INTEGER,
			chance_explanation TEXT,
			risk INTEGER,
			risk_explanation TEXT,
			updated_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}
