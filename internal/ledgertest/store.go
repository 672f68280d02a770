// Package ledgertest runs an in-process double of the remote ledger
// service for integration tests: real HTTP, real persistence, the same
// boundary contract the production service exposes (bearer auth, paged
// lists, verbatim detail messages, authoritative stock validation).
package ledgertest

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store is the fake ledger's SQLite backing.
// Tests normally use an in-memory database (one per test).
type Store struct {
	db *sql.DB
}

// OpenStore creates or opens the database at path. Use ":memory:" for an
// isolated per-test instance.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect ledger db: %w", err)
	}

	// Single writer avoids SQLITE_BUSY and keeps the double deterministic.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the handle for fixture loading and test assertions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// StockOf returns the current stock of one material.
func (s *Store) StockOf(materialID int64) (qty float64, unit string, err error) {
	err = s.db.QueryRow(
		"SELECT stock, unit FROM materials WHERE id = ?", materialID,
	).Scan(&qty, &unit)
	if err == sql.ErrNoRows {
		return 0, "", fmt.Errorf("material %d not found", materialID)
	}
	return qty, unit, err
}

// AdjustStock moves one material's stock by delta (negative for sales).
func (s *Store) AdjustStock(materialID int64, delta float64) error {
	res, err := s.db.Exec(
		"UPDATE materials SET stock = stock + ? WHERE id = ?", delta, materialID,
	)
	if err != nil {
		return fmt.Errorf("adjust stock of material %d: %w", materialID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("material %d not found", materialID)
	}
	return nil
}
