// Package history persists transcriptions to a local SQLite database and
// serves the newest-N query the "history" command needs.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Entry is one row of the transcriptions table.
type Entry struct {
	ID             int64
	Timestamp      string
	Text           string
	AudioDuration  float64
	ProcessingTime float64
	AppContext     string
	AppID          string
	WindowTitle    string
	Agent          string
	WorkingDir     string
	Backend        string
}

// Store is the interface the daemon core depends on, so a failed-to-open
// database degrades to NullStore without the core needing to know.
type Store interface {
	Insert(e Entry) error
	Recent(limit int) ([]Entry, error)
	Close() error
}

// SQLiteStore is the on-disk implementation, backed by a pure-Go SQLite
// driver so the daemon carries no cgo dependency.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates the parent directory if needed, opens (or creates) the
// database at path, enables WAL journaling for concurrent readers, and
// ensures the schema exists.
func Open(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("history: create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: enable WAL: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS transcriptions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%f','now')),
			text TEXT NOT NULL,
			audio_duration REAL,
			processing_time REAL,
			app_context TEXT,
			app_id TEXT,
			window_title TEXT,
			agent TEXT,
			working_dir TEXT,
			backend TEXT
		);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("history: create schema: %w", err)
	}
	return nil
}

// Insert appends one row. Empty-string fields are stored as SQL NULL so
// "absent" and "empty" remain distinguishable on read.
func (s *SQLiteStore) Insert(e Entry) error {
	_, err := s.db.Exec(
		`INSERT INTO transcriptions
			(text, audio_duration, processing_time, app_context, app_id, window_title, agent, working_dir, backend)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Text, e.AudioDuration, e.ProcessingTime,
		nullable(e.AppContext), nullable(e.AppID), nullable(e.WindowTitle),
		nullable(e.Agent), nullable(e.WorkingDir), nullable(e.Backend),
	)
	if err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// Recent returns up to limit rows, newest-first by id.
func (s *SQLiteStore) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, timestamp, text, audio_duration, processing_time,
			app_context, app_id, window_title, agent, working_dir, backend
		 FROM transcriptions ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var appContext, appID, windowTitle, agent, workingDir, backend sql.NullString
		var audioDuration, processingTime sql.NullFloat64

		if err := rows.Scan(
			&e.ID, &e.Timestamp, &e.Text, &audioDuration, &processingTime,
			&appContext, &appID, &windowTitle, &agent, &workingDir, &backend,
		); err != nil {
			return nil, fmt.Errorf("history: scan row: %w", err)
		}

		e.AudioDuration = audioDuration.Float64
		e.ProcessingTime = processingTime.Float64
		e.AppContext = appContext.String
		e.AppID = appID.String
		e.WindowTitle = windowTitle.String
		e.Agent = agent.String
		e.WorkingDir = workingDir.String
		e.Backend = backend.String

		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// NullStore satisfies Store with no-ops, used when the on-disk database
// fails to open so the rest of the daemon keeps working.
type NullStore struct{}

func (NullStore) Insert(Entry) error         { return nil }
func (NullStore) Recent(int) ([]Entry, error) { return nil, nil }
func (NullStore) Close() error               { return nil }
