// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest keeps a local SQLite ledger of every file the download
// stage has fetched, so repeated sessions can be audited and pruned without
// walking the cache directory.
package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one recorded download.
type Entry struct {
	Target       string
	ObsID        string
	Filename     string
	LocalPath    string
	Source       string
	DownloadedAt time.Time
}

// Store manages the download-manifest SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the manifest database at path, creating the schema
// if it does not exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating manifest directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening manifest database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating manifest schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS downloads (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			target TEXT NOT NULL,
			obs_id TEXT,
			filename TEXT NOT NULL,
			local_path TEXT NOT NULL UNIQUE,
			source TEXT NOT NULL,
			downloaded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_downloads_target ON downloads(target)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record upserts one download. Re-downloading the same local path refreshes
// the existing row instead of duplicating it.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.DownloadedAt.IsZero() {
		e.DownloadedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO downloads (target, obs_id, filename, local_path, source, downloaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(local_path) DO UPDATE SET
			target=excluded.target, obs_id=excluded.obs_id,
			filename=excluded.filename, source=excluded.source,
			downloaded_at=excluded.downloaded_at`,
		e.Target, e.ObsID, e.Filename, e.LocalPath, e.Source,
		e.DownloadedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording download: %w", err)
	}
	return nil
}

// List returns the recorded downloads for a target, newest first. An empty
// target returns every entry.
func (s *Store) List(ctx context.Context, target string) ([]Entry, error) {
	query := `SELECT target, obs_id, filename, local_path, source, downloaded_at
		 FROM downloads`
	args := []any{}
	if target != "" {
		query += ` WHERE target = ?`
		args = append(args, target)
	}
	query += ` ORDER BY downloaded_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying manifest: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var downloadedAt string
		if err := rows.Scan(&e.Target, &e.ObsID, &e.Filename, &e.LocalPath, &e.Source, &downloadedAt); err != nil {
			return nil, fmt.Errorf("scanning manifest row: %w", err)
		}
		e.DownloadedAt, _ = time.Parse(time.RFC3339Nano, downloadedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating manifest rows: %w", err)
	}
	return entries, nil
}

// Count returns the number of recorded downloads.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM downloads`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting manifest rows: %w", err)
	}
	return n, nil
}
