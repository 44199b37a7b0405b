// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records which PDFs a pipeline has already rewritten, so a
// re-run of optimize or ocr can skip files that have not changed since.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Ledger is a SQLite-backed processing history.
type Ledger struct {
	db *sql.DB
}

// Entry is one processed file as stored in the ledger.
type Entry struct {
	Pipeline    string
	Path        string
	Size        int64
	ModTime     time.Time
	ProcessedAt time.Time
}

// Open opens or creates the ledger database at path, creating parent
// directories as needed.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	_, err := l.db.Exec(`CREATE TABLE IF NOT EXISTS processed (
		pipeline TEXT NOT NULL,
		path TEXT NOT NULL,
		size INTEGER NOT NULL,
		mod_time TEXT NOT NULL,
		processed_at TEXT NOT NULL,
		PRIMARY KEY (pipeline, path)
	)`)
	return err
}

// Unchanged reports whether path was processed by pipeline and still has
// the size and modification time recorded after that run.
func (l *Ledger) Unchanged(ctx context.Context, pipeline, path string, info os.FileInfo) (bool, error) {
	var size int64
	var modTime string
	err := l.db.QueryRowContext(ctx,
		`SELECT size, mod_time FROM processed WHERE pipeline = ? AND path = ?`,
		pipeline, path,
	).Scan(&size, &modTime)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("querying ledger for %s: %w", path, err)
	}
	return size == info.Size() && modTime == formatTime(info.ModTime()), nil
}

// Record stores the post-processing size and modification time of path.
func (l *Ledger) Record(ctx context.Context, pipeline, path string, info os.FileInfo) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO processed (pipeline, path, size, mod_time, processed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(pipeline, path) DO UPDATE SET
			size = excluded.size,
			mod_time = excluded.mod_time,
			processed_at = excluded.processed_at`,
		pipeline, path, info.Size(), formatTime(info.ModTime()), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("recording %s in ledger: %w", path, err)
	}
	return nil
}

// Entries returns every row recorded for pipeline, ordered by path.
func (l *Ledger) Entries(ctx context.Context, pipeline string) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT pipeline, path, size, mod_time, processed_at FROM processed
		WHERE pipeline = ? ORDER BY path`, pipeline)
	if err != nil {
		return nil, fmt.Errorf("listing ledger: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var modTime, processedAt string
		if err := rows.Scan(&e.Pipeline, &e.Path, &e.Size, &modTime, &processedAt); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		e.ModTime, _ = time.Parse(time.RFC3339Nano, modTime)
		e.ProcessedAt, _ = time.Parse(time.RFC3339Nano, processedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
