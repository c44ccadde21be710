package rag

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aryan9600/adapteach-rag/internal/embed"
	"github.com/yuin/goldmark"
)

// Answer is the per-request query result. Pages reference the selected page
// images in retrieved-rank order; they are never persisted.
type Answer struct {
	Answer     string   `json:"answer"`
	AnswerHTML string   `json:"answer_html"`
	Pages      []string `json:"pages"`
}

var markdown = goldmark.New()

// Query retrieves the top-k most relevant pages of a stored document and
// asks the generative model to answer from their images.
func (s *Service) Query(ctx context.Context, slug, query string, topK int) (*Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	rec, err := s.store.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	if rec.Model != s.pages.Model() {
		return nil, fmt.Errorf("%w: record has %s, encoder is %s",
			embed.ErrModelMismatch, rec.Model, s.pages.Model())
	}

	qEmb, err := s.queries.EncodeQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scores := s.score(qEmb, rec.Embeddings)
	topIdxs := TopK(scores, topK, s.defaultTopK)
	s.log.Info("ranked pages", "doc_slug", slug, "top_k", len(topIdxs), "indices", topIdxs)

	images := make([][]byte, 0, len(topIdxs))
	for _, i := range topIdxs {
		data, err := os.ReadFile(rec.ImagePaths[i])
		if err != nil {
			return nil, fmt.Errorf("read page image %d: %w", i, err)
		}
		images = append(images, data)
	}

	answer, err := s.generator.Generate(ctx, images, query)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	pages := make([]string, 0, len(topIdxs))
	for _, i := range topIdxs {
		pages = append(pages, PageURI(slug, i))
	}

	var html bytes.Buffer
	if err := markdown.Convert([]byte(answer), &html); err != nil {
		return nil, fmt.Errorf("render answer markdown: %w", err)
	}

	return &Answer{
		Answer:     answer,
		AnswerHTML: html.String(),
		Pages:      pages,
	}, nil
}

// PageURI builds the logical reference to a rendered page image.
func PageURI(slug string, pageIndex int) string {
	return fmt.Sprintf("/docs/%s/page/%d.png", slug, pageIndex)
}
