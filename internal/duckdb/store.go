// Package duckdb persists lookup tables in DuckDB for per-position queries.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"
)

// Store manages a DuckDB connection holding lookup rows.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path, logger: zap.NewNop()}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// SetLogger sets the logger for write statistics.
func (s *Store) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ensureSchema creates tables if they don't exist. The tables carry no unique
// keys: rows of a sequence are deleted and re-inserted in one transaction, and
// DuckDB checks unique keys against rows deleted earlier in that transaction.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS lookup_rows (
		name VARCHAR NOT NULL,
		start_position INTEGER NOT NULL CHECK (start_position >= 1),
		atg_position INTEGER,
		transcript_position VARCHAR,
		grch37_position BIGINT,
		grch38_position BIGINT,
		allele VARCHAR,
		exon_annotation VARCHAR,
		cds_annotation VARCHAR
	)`); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS table_sources (
		name VARCHAR NOT NULL,
		path VARCHAR NOT NULL,
		size BIGINT,
		modtime VARCHAR
	)`)
	return err
}
