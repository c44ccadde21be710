package rag

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aryan9600/adapteach-rag/internal/embed"
	"github.com/aryan9600/adapteach-rag/internal/store"
)

// ErrEmptyQuery is returned when a query is missing or whitespace-only.
// Surfaced to the caller as a client error.
var ErrEmptyQuery = errors.New("query must not be empty")

// ErrInvalidName is returned when a document name slugifies to nothing.
var ErrInvalidName = errors.New("document name produces an empty identifier")

// PageRenderer converts a PDF into ordered per-page images on disk.
type PageRenderer interface {
	Render(ctx context.Context, pdf []byte, slug string) (paths []string, images [][]byte, err error)
}

// Generator produces a text answer from page images and a query.
type Generator interface {
	Generate(ctx context.Context, images [][]byte, query string) (string, error)
	Model() string
}

// Service wires the ingestion pipeline, retrieval engine, and answer
// synthesizer around a shared document store. All model handles are
// constructed once at process start and injected here; the service holds
// no per-document state of its own — every query reads the record back
// from durable storage.
type Service struct {
	store       store.Store
	renderer    PageRenderer
	pages       embed.PageEncoder
	queries     embed.QueryEncoder
	score       embed.Scorer
	generator   Generator
	log         *slog.Logger
	defaultTopK int
}

func NewService(
	st store.Store,
	renderer PageRenderer,
	pages embed.PageEncoder,
	queries embed.QueryEncoder,
	score embed.Scorer,
	generator Generator,
	defaultTopK int,
	log *slog.Logger,
) *Service {
	if defaultTopK <= 0 {
		defaultTopK = 2
	}
	return &Service{
		store:       st,
		renderer:    renderer,
		pages:       pages,
		queries:     queries,
		score:       score,
		generator:   generator,
		defaultTopK: defaultTopK,
		log:         log,
	}
}
