// Package sqlite records completed review runs so a re-triggered workflow
// can skip a head commit it already reviewed.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

// Store implements the review.Store interface using SQLite.
type Store struct {
	db *sql.DB
}

var _ review.Store = (*Store)(nil)

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for an in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- One row per completed review run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		repository TEXT NOT NULL,
		pull_number INTEGER NOT NULL,
		head_sha TEXT NOT NULL,
		model TEXT NOT NULL,
		cost REAL DEFAULT 0.0,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_lookup ON runs(repository, pull_number, head_sha);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SeenReview reports whether the head commit of a pull request has already
// been reviewed.
func (s *Store) SeenReview(ctx context.Context, repository string, number int, headSHA string) (bool, error) {
	query := `SELECT COUNT(1) FROM runs WHERE repository = ? AND pull_number = ? AND head_sha = ?`

	var count int
	if err := s.db.QueryRowContext(ctx, query, repository, number, headSHA).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to query runs: %w", err)
	}
	return count > 0, nil
}

// RecordReview stores a completed review run.
func (s *Store) RecordReview(ctx context.Context, rec review.RunRecord) error {
	query := `
		INSERT INTO runs (repository, pull_number, head_sha, model, cost, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.Repository,
		rec.Number,
		rec.HeadSHA,
		rec.Model,
		rec.Cost,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record review: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
