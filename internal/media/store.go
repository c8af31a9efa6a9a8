// Package media downloads remote audio (YouTube and anything else
// yt-dlp can reach) into a local cache directory with a SQLite index,
// and serves cached files back to the API layer.
package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound indicates the requested cache entry does not exist.
var ErrNotFound = errors.New("media: cache entry not found")

// Entry is one cached download.
type Entry struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Path      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Store manages the download cache index backed by SQLite.
type Store struct {
	db  *sql.DB
	dir string
}

// OpenStore initializes or connects to the cache index under dir.
func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, "cache.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, dir: dir}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS downloads (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL DEFAULT '',
	path       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init cache schema: %w", err)
	}
	return nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// Put records a completed download.
func (s *Store) Put(ctx context.Context, entry Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO downloads (id, url, title, path, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET title = excluded.title, path = excluded.path`,
		entry.ID, entry.URL, entry.Title, entry.Path, entry.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("record download: %w", err)
	}
	return nil
}

// Get looks up a cache entry by ID.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT id, url, title, path, created_at FROM downloads WHERE id = ?`, id))
}

// GetByURL looks up a cache entry by source URL.
func (s *Store) GetByURL(ctx context.Context, url string) (*Entry, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT id, url, title, path, created_at FROM downloads WHERE url = ?`, url))
}

// List returns all cache entries, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, title, path, created_at FROM downloads ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.URL, &entry.Title, &entry.Path, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan download row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Delete removes a cache entry and its file.
func (s *Store) Delete(ctx context.Context, id string) error {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM downloads WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete download: %w", err)
	}
	if err := os.Remove(entry.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cached file: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) scanOne(row *sql.Row) (*Entry, error) {
	var entry Entry
	err := row.Scan(&entry.ID, &entry.URL, &entry.Title, &entry.Path, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan download row: %w", err)
	}
	return &entry, nil
}
