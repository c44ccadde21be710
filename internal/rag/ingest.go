package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/aryan9600/adapteach-rag/internal/store"
)

// Ingest turns an uploaded PDF plus a document name into a stored record and
// returns the derived slug. The record is committed only after both
// rendering and embedding succeed; a failed upload leaves nothing behind in
// the store. Re-ingesting a name that slugifies to an existing identifier
// replaces the prior record wholesale.
func (s *Service) Ingest(ctx context.Context, docName string, pdf []byte) (string, error) {
	slug := store.Slugify(docName)
	if slug == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, docName)
	}
	log := s.log.With("doc_slug", slug)

	paths, images, err := s.renderer.Render(ctx, pdf, slug)
	if err != nil {
		return "", fmt.Errorf("render pages: %w", err)
	}
	log.Info("rendered pdf", "pages", len(paths))

	embeddings, err := s.pages.EncodePages(ctx, images)
	if err != nil {
		return "", fmt.Errorf("embed pages: %w", err)
	}
	// Page i's image must correspond to embedding i; everything downstream
	// leans on this alignment.
	if len(embeddings) != len(paths) {
		return "", fmt.Errorf("embedding count %d does not match page count %d", len(embeddings), len(paths))
	}

	rec := &store.Record{
		Slug:       slug,
		Model:      s.pages.Model(),
		ImagePaths: paths,
		Embeddings: embeddings,
		CreatedAt:  time.Now(),
	}
	if err := s.store.Put(ctx, rec); err != nil {
		return "", fmt.Errorf("store record: %w", err)
	}
	log.Info("ingested document", "pages", len(paths), "model", rec.Model)

	return slug, nil
}
