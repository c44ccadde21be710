package store

import (
	"context"
	"errors"
	"time"

	"github.com/aryan9600/adapteach-rag/internal/embed"
)

// ErrNotFound is returned by Get when no record exists for a slug. It is the
// one failure callers must be able to tell apart from internal faults: an
// unknown document is a client error, everything else is not.
var ErrNotFound = errors.New("document not found")

// Record is the persisted unit for one ingested document: the ordered page
// image paths and the index-aligned page embeddings, keyed by slug.
// Records are written once at ingestion and never mutated; re-ingesting the
// same slug replaces the whole record.
type Record struct {
	Slug       string                `json:"slug"`
	Model      string                `json:"model"`
	ImagePaths []string              `json:"image_paths"`
	Embeddings []embed.PageEmbedding `json:"embeddings"`
	CreatedAt  time.Time             `json:"created_at"`
}

// PageCount returns the number of pages in the record.
func (r *Record) PageCount() int {
	return len(r.ImagePaths)
}

// Store is durable slug-keyed persistence for document records.
type Store interface {
	// Put writes the record, overwriting any prior record for the same slug.
	Put(ctx context.Context, rec *Record) error
	// Get reads the record for slug, or ErrNotFound.
	Get(ctx context.Context, slug string) (*Record, error)
	Close() error
}
