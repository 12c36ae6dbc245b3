package sitegen

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrImageNotFound is returned when no optimized image is recorded for a hash.
var ErrImageNotFound = errors.New("sitegen: image not found")

// Store wraps a SQLite database that remembers optimized images and past
// builds between runs.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL with a busy timeout lets the preview server's rebuilds and the CLI
	// share the database.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS images (
    hash TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    filename TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    processed_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS builds (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    posts INTEGER NOT NULL,
    pages INTEGER NOT NULL,
    images INTEGER NOT NULL,
    status TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT ''
);
`)
	return err
}

// GetImage returns the optimized image recorded for a source content hash.
func (s *Store) GetImage(hash string) (Image, error) {
	img := Image{Hash: hash}
	var processedAt string
	err := s.db.QueryRow(`SELECT source, filename, width, height, size, processed_at FROM images WHERE hash = ?`, hash).
		Scan(&img.Source, &img.Filename, &img.Width, &img.Height, &img.Size, &processedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Image{}, ErrImageNotFound
	}
	if err != nil {
		return Image{}, err
	}
	img.ProcessedAt, _ = time.Parse(time.RFC3339, processedAt)
	return img, nil
}

// SaveImage upserts an optimized image record.
func (s *Store) SaveImage(img Image) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO images (hash, source, filename, width, height, size, processed_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		img.Hash, img.Source, img.Filename, img.Width, img.Height, img.Size, img.ProcessedAt.UTC().Format(time.RFC3339))
	return err
}

// ListImages returns all recorded images, most recently processed first.
func (s *Store) ListImages() ([]Image, error) {
	rows, err := s.db.Query(`SELECT hash, source, filename, width, height, size, processed_at FROM images ORDER BY processed_at DESC, filename`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		var processedAt string
		if err := rows.Scan(&img.Hash, &img.Source, &img.Filename, &img.Width, &img.Height, &img.Size, &processedAt); err != nil {
			return nil, err
		}
		img.ProcessedAt, _ = time.Parse(time.RFC3339, processedAt)
		images = append(images, img)
	}
	return images, rows.Err()
}

// DeleteImage removes an image record by hash.
func (s *Store) DeleteImage(hash string) error {
	_, err := s.db.Exec(`DELETE FROM images WHERE hash = ?`, hash)
	return err
}

// RecordBuild stores the outcome of a build.
func (s *Store) RecordBuild(b Build) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO builds (id, started_at, finished_at, posts, pages, images, status, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.StartedAt.UTC().Format(time.RFC3339Nano), b.FinishedAt.UTC().Format(time.RFC3339Nano),
		b.Posts, b.Pages, b.Images, b.Status, b.Error)
	if err != nil {
		return fmt.Errorf("sitegen: record build: %w", err)
	}
	return nil
}

// ListBuilds returns up to limit recorded builds, newest first.
func (s *Store) ListBuilds(limit int) ([]Build, error) {
	rows, err := s.db.Query(`SELECT id, started_at, finished_at, posts, pages, images, status, error FROM builds ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		var b Build
		var started, finished string
		if err := rows.Scan(&b.ID, &started, &finished, &b.Posts, &b.Pages, &b.Images, &b.Status, &b.Error); err != nil {
			return nil, err
		}
		b.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		b.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		builds = append(builds, b)
	}
	return builds, rows.Err()
}
