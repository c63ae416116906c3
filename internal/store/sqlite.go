package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amishk599/boardsync/internal/model"
)

// RunRecord is a stored run summary.
type RunRecord struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Stats      model.ProcessingStats
	Error      string // empty on success
}

// SQLiteStore is the publish ledger: which source records were already
// published, and a history of runs. It never holds board entity IDs.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the ledger tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS published_jobs (
			uniq_id      TEXT PRIMARY KEY,
			board_job_id INTEGER NOT NULL,
			title        TEXT NOT NULL,
			company      TEXT NOT NULL,
			run_id       TEXT NOT NULL,
			published_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			total       INTEGER NOT NULL,
			created     INTEGER NOT NULL,
			skipped     INTEGER NOT NULL,
			failed      INTEGER NOT NULL,
			error       TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating ledger tables: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// HasPublished returns true if the source record was published before.
func (s *SQLiteStore) HasPublished(uniqID string) (bool, error) {
	var exists int
	err := s.db.QueryRow("SELECT 1 FROM published_jobs WHERE uniq_id = ?", uniqID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking published status for %s: %w", uniqID, err)
	}
	return true, nil
}

// RecordPublished adds a ledger entry. Re-recording the same uniq_id is a no-op.
func (s *SQLiteStore) RecordPublished(rec model.PublishedJob) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO published_jobs (uniq_id, board_job_id, title, company, run_id, published_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.UniqID, rec.BoardJobID, rec.Title, rec.Company, rec.RunID, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("recording published job %s: %w", rec.UniqID, err)
	}
	return nil
}

// RecordRun stores a finished run. A run ID recorded twice keeps the latest.
func (s *SQLiteStore) RecordRun(sum model.RunSummary) error {
	var errText string
	if sum.Err != nil {
		errText = sum.Err.Error()
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO runs (run_id, started_at, finished_at, total, created, skipped, failed, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.RunID, sum.StartedAt.Unix(), sum.FinishedAt.Unix(),
		sum.Stats.Total, sum.Stats.Created, sum.Stats.Skipped, sum.Stats.Failed, errText,
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", sum.RunID, err)
	}
	return nil
}

// RecentRuns returns up to limit runs, most recent first.
func (s *SQLiteStore) RecentRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, started_at, finished_at, total, created, skipped, failed, error
		 FROM runs ORDER BY started_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			r               RunRecord
			started, finish int64
		)
		if err := rows.Scan(&r.RunID, &started, &finish,
			&r.Stats.Total, &r.Stats.Created, &r.Stats.Skipped, &r.Stats.Failed, &r.Error); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = time.Unix(started, 0)
		r.FinishedAt = time.Unix(finish, 0)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// PublishedCount returns the number of ledger entries.
func (s *SQLiteStore) PublishedCount() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM published_jobs").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting published jobs: %w", err)
	}
	return count, nil
}

// Cleanup deletes ledger entries older than the given duration. Jobs that
// expired on the board can then be published again.
func (s *SQLiteStore) Cleanup(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan).Unix()
	_, err := s.db.Exec("DELETE FROM published_jobs WHERE published_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("cleaning up ledger entries older than %v: %w", olderThan, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
