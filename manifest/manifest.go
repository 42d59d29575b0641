// Package manifest records which source documents a run has fully
// processed so that later runs can skip them.
//
// A document counts as completed only while its size, modification time
// and SHA-256 content hash all match the recorded values. Any change to the
// file makes it eligible for processing again.
package manifest

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS completed (
	path         TEXT PRIMARY KEY,
	size         INTEGER NOT NULL,
	mod_time     INTEGER NOT NULL,
	content_hash TEXT NOT NULL,
	completed_at TEXT NOT NULL
);`

// Entry is one row of the completed table.
type Entry struct {
	Path        string
	Size        int64
	ModTime     time.Time
	ContentHash string
	CompletedAt time.Time
}

// Manifest wraps the SQLite completion database. It is safe for concurrent
// use.
type Manifest struct {
	db *sql.DB
}

// Open opens (or creates) the manifest database at path.
func Open(path string) (*Manifest, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating manifest directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}

	// One connection serializes writers from concurrent workers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging manifest: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring manifest: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating manifest schema: %w", err)
	}

	return &Manifest{db: db}, nil
}

// Close closes the database.
func (m *Manifest) Close() error {
	return m.db.Close()
}

// Get returns the recorded entry for path, or nil when there is none.
func (m *Manifest) Get(ctx context.Context, path string) (*Entry, error) {
	var (
		e         Entry
		modTime   int64
		completed string
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT path, size, mod_time, content_hash, completed_at
		FROM completed WHERE path = ?
	`, path).Scan(&e.Path, &e.Size, &modTime, &e.ContentHash, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest entry: %w", err)
	}

	e.ModTime = time.Unix(0, modTime)
	e.CompletedAt, err = time.Parse(time.RFC3339Nano, completed)
	if err != nil {
		return nil, fmt.Errorf("parsing completed_at %q: %w", completed, err)
	}
	return &e, nil
}

// Completed reports whether path was recorded and has not changed since.
// The content hash is computed only when size and modification time match.
func (m *Manifest) Completed(ctx context.Context, path string) (bool, error) {
	entry, err := m.Get(ctx, path)
	if err != nil || entry == nil {
		return false, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.Size() != entry.Size || !info.ModTime().Equal(entry.ModTime) {
		return false, nil
	}

	hash, err := FileHash(path)
	if err != nil {
		return false, err
	}
	return hash == entry.ContentHash, nil
}

// Record marks path as completed with its current size, modification time
// and content hash, replacing any earlier entry.
func (m *Manifest) Record(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hash, err := FileHash(path)
	if err != nil {
		return err
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO completed (path, size, mod_time, content_hash, completed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mod_time = excluded.mod_time,
			content_hash = excluded.content_hash,
			completed_at = excluded.completed_at
	`, path, info.Size(), info.ModTime().UnixNano(), hash, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("recording %s: %w", path, err)
	}
	return nil
}

// Forget removes the entry for path, if any.
func (m *Manifest) Forget(ctx context.Context, path string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM completed WHERE path = ?`, path); err != nil {
		return fmt.Errorf("forgetting %s: %w", path, err)
	}
	return nil
}

// Count returns the number of recorded entries.
func (m *Manifest) Count(ctx context.Context) (int, error) {
	var n int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM completed`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting manifest entries: %w", err)
	}
	return n, nil
}

// FileHash computes the SHA-256 hash of a file's content.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
