package embed

import (
	"context"
	"errors"
)

// Vector is a single embedding vector.
type Vector []float32

// PageEmbedding is the multi-vector representation of one rendered page
// (or of a query): a ColPali-family model emits one vector per image patch
// or query token rather than a single pooled vector.
type PageEmbedding []Vector

// ErrModelMismatch is returned when a stored record was embedded with a
// different model than the one currently configured. Scores across model
// families are meaningless, so the query fails rather than returning
// silently wrong pages.
var ErrModelMismatch = errors.New("stored embeddings were produced by a different model")

// PageEncoder embeds rendered page images, preserving input order.
type PageEncoder interface {
	// EncodePages returns one embedding per image, index-aligned with the
	// input. Implementations must never reorder results.
	EncodePages(ctx context.Context, images [][]byte) ([]PageEmbedding, error)
	// Model identifies the embedding model, recorded with every ingested
	// document so drift is detectable at query time.
	Model() string
}

// QueryEncoder embeds free-text queries with the page model's query-side
// encoder.
type QueryEncoder interface {
	EncodeQuery(ctx context.Context, query string) (PageEmbedding, error)
}

// Scorer computes one relevance score per page for a query embedding.
type Scorer func(query PageEmbedding, pages []PageEmbedding) []float64
