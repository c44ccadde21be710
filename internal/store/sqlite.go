package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore persists one serialized record per slug in a SQLite database.
// The record itself is stored as an opaque JSON blob; only the slug is
// queryable. This keeps every query a read-through to durable storage
// rather than an in-process registry that grows with each ingested document.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the record database under dataDir.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "documents.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			slug       TEXT PRIMARY KEY,
			record     BLOB NOT NULL,
			created_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Put(ctx context.Context, rec *Record) error {
	if rec.Slug == "" {
		return fmt.Errorf("record has empty slug")
	}
	if len(rec.ImagePaths) != len(rec.Embeddings) {
		return fmt.Errorf("record for %s misaligned: %d image paths, %d embeddings",
			rec.Slug, len(rec.ImagePaths), len(rec.Embeddings))
	}
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("serialize record %s: %w", rec.Slug, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (slug, record, created_at) VALUES (?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET record = excluded.record, created_at = excluded.created_at
	`, rec.Slug, blob, rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write record %s: %w", rec.Slug, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, slug string) (*Record, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT record FROM documents WHERE slug = ?`, slug).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("read record %s: %w", slug, err)
	}
	var rec Record
	if err := json.Unmarshal(blob, &rec); err != nil {
		return nil, fmt.Errorf("deserialize record %s: %w", slug, err)
	}
	return &rec, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
