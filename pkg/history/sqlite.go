// Package history keeps a local record of what was viewed. Only references
// are persisted (a file path or a run coordinate), never fetched payloads.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// View is one recorded viewing.
type View struct {
	ID        int64
	Kind      string // "file" or "run"
	Reference string // file path, or owner/repo/runID
	ItemCount int
	ViewedAt  time.Time
}

// ViewKind values for View.Kind.
const (
	KindFile = "file"
	KindRun  = "run"
)

// SQLiteStore records views in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and migrates) a view-history database.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate creates the necessary tables if they don't exist.
func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS views (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		reference TEXT NOT NULL,
		item_count INTEGER NOT NULL DEFAULT 0,
		viewed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_views_viewed_at ON views(viewed_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record stores one viewing.
func (s *SQLiteStore) Record(ctx context.Context, kind, reference string, itemCount int) error {
	if reference == "" {
		return fmt.Errorf("cannot record empty reference")
	}

	query := `INSERT INTO views (kind, reference, item_count) VALUES (?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query, kind, reference, itemCount)
	if err != nil {
		return fmt.Errorf("failed to insert view: %w", err)
	}

	return nil
}

// Recent returns the most recent views, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]View, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, kind, reference, item_count, viewed_at
		FROM views ORDER BY viewed_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query views: %w", err)
	}
	defer rows.Close()

	var views []View
	for rows.Next() {
		var v View
		if err := rows.Scan(&v.ID, &v.Kind, &v.Reference, &v.ItemCount, &v.ViewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan view: %w", err)
		}
		views = append(views, v)
	}

	return views, rows.Err()
}

// Clear removes all recorded views.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM views`)
	if err != nil {
		return fmt.Errorf("failed to clear views: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
