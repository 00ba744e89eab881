// Package store archives scored quiz attempts in sqlite. The archive is
// write-only from the agent; session state is never restored from it.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pavelanni/conceptbridge/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id TEXT NOT NULL,
		generation INTEGER NOT NULL,
		started_by TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL,
		total INTEGER NOT NULL,
		fallback INTEGER NOT NULL DEFAULT 0,
		scored_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_video ON attempts(video_id);

	CREATE TABLE IF NOT EXISTS archive_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordAttempt stores a scored quiz and returns its ID.
func (s *Store) RecordAttempt(a model.Attempt) (int64, error) {
	if a.ScoredAt.IsZero() {
		a.ScoredAt = time.Now()
	}
	res, err := s.db.Exec(
		`INSERT INTO attempts (video_id, generation, started_by, score, total, fallback, scored_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.VideoID, int64(a.Generation), string(a.StartedBy), a.Score, a.Total, a.Fallback, a.ScoredAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert attempt: %w", err)
	}
	return res.LastInsertId()
}

// ListAttempts returns archived attempts, oldest first. An empty videoID
// lists all of them.
func (s *Store) ListAttempts(videoID string) ([]model.Attempt, error) {
	query := `SELECT id, video_id, generation, started_by, score, total, fallback, scored_at
		FROM attempts`
	var args []any
	if videoID != "" {
		query += ` WHERE video_id = ?`
		args = append(args, videoID)
	}
	query += ` ORDER BY scored_at, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		var gen int64
		var cause string
		if err := rows.Scan(&a.ID, &a.VideoID, &gen, &cause, &a.Score, &a.Total, &a.Fallback, &a.ScoredAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Generation = uint64(gen)
		a.StartedBy = model.StartCause(cause)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// ExportAttempts builds the export document for videoID, or for all videos
// when it is empty.
func (s *Store) ExportAttempts(videoID string, now time.Time) (model.AttemptExport, error) {
	attempts, err := s.ListAttempts(videoID)
	if err != nil {
		return model.AttemptExport{}, err
	}
	meta, err := s.AllMetadata()
	if err != nil {
		return model.AttemptExport{}, fmt.Errorf("read metadata: %w", err)
	}
	exp := model.NewAttemptExport(attempts, now)
	if len(meta) > 0 {
		exp.Metadata = meta
	}
	return exp, nil
}
