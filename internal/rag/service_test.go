package rag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aryan9600/adapteach-rag/internal/embed"
	"github.com/aryan9600/adapteach-rag/internal/store"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	recs   map[string]*store.Record
	putErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{recs: make(map[string]*store.Record)}
}

func (f *fakeStore) Put(ctx context.Context, rec *store.Record) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.recs[rec.Slug] = rec
	return nil
}

func (f *fakeStore) Get(ctx context.Context, slug string) (*store.Record, error) {
	rec, ok := f.recs[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, slug)
	}
	return rec, nil
}

func (f *fakeStore) Close() error { return nil }

// fakeRenderer writes real page files so the query path can read them back.
type fakeRenderer struct {
	root  string
	pages int
	err   error
}

func (f *fakeRenderer) Render(ctx context.Context, pdf []byte, slug string) ([]string, [][]byte, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	dir := filepath.Join(f.root, slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	var paths []string
	var images [][]byte
	for i := 0; i < f.pages; i++ {
		data := []byte(fmt.Sprintf("png-%d", i))
		path := filepath.Join(dir, fmt.Sprintf("%d.png", i))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, nil, err
		}
		paths = append(paths, path)
		images = append(images, data)
	}
	return paths, images, nil
}

// fakePageEncoder tags page i with the single vector [i].
type fakePageEncoder struct {
	model string
	err   error
}

func (f *fakePageEncoder) EncodePages(ctx context.Context, images [][]byte) ([]embed.PageEmbedding, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]embed.PageEmbedding, len(images))
	for i := range images {
		out[i] = embed.PageEmbedding{{float32(i)}}
	}
	return out, nil
}

func (f *fakePageEncoder) Model() string { return f.model }

type fakeQueryEncoder struct {
	vec embed.PageEmbedding
	err error
}

func (f *fakeQueryEncoder) EncodeQuery(ctx context.Context, query string) (embed.PageEmbedding, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

type fakeGenerator struct {
	answer    string
	err       error
	gotImages [][]byte
	gotQuery  string
}

func (f *fakeGenerator) Generate(ctx context.Context, images [][]byte, query string) (string, error) {
	f.gotImages = images
	f.gotQuery = query
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeGenerator) Model() string { return "fake-gen" }

type testDeps struct {
	store    *fakeStore
	renderer *fakeRenderer
	pages    *fakePageEncoder
	queries  *fakeQueryEncoder
	gen      *fakeGenerator
}

func newTestService(t *testing.T, pages int) (*Service, *testDeps) {
	t.Helper()
	d := &testDeps{
		store:    newFakeStore(),
		renderer: &fakeRenderer{root: t.TempDir(), pages: pages},
		pages:    &fakePageEncoder{model: "vidore/colSmol-256M"},
		queries:  &fakeQueryEncoder{vec: embed.PageEmbedding{{1}}},
		gen:      &fakeGenerator{answer: "The answer is **42**."},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(d.store, d.renderer, d.pages, d.queries, embed.MaxSim, d.gen, 2, log)
	return svc, d
}

func TestIngest_StoresAlignedRecord(t *testing.T) {
	svc, d := newTestService(t, 3)

	slug, err := svc.Ingest(context.Background(), "Intro To Systems", []byte("%PDF"))
	require.NoError(t, err)
	require.Equal(t, "intro-to-systems", slug)

	rec := d.store.recs[slug]
	require.NotNil(t, rec)
	require.Len(t, rec.ImagePaths, 3)
	require.Len(t, rec.Embeddings, 3)
	require.Equal(t, "vidore/colSmol-256M", rec.Model)
	for i, p := range rec.ImagePaths {
		require.True(t, strings.HasSuffix(p, fmt.Sprintf("%d.png", i)), "path %q out of page order", p)
	}
}

func TestIngest_SameNameSameSlug(t *testing.T) {
	svc, _ := newTestService(t, 2)
	ctx := context.Background()

	slug1, err := svc.Ingest(ctx, "Intro To Systems", []byte("a"))
	require.NoError(t, err)
	slug2, err := svc.Ingest(ctx, "Intro To Systems", []byte("b"))
	require.NoError(t, err)
	require.Equal(t, slug1, slug2)
}

func TestIngest_ReingestReplacesRecord(t *testing.T) {
	svc, d := newTestService(t, 5)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "Doc", []byte("v1"))
	require.NoError(t, err)
	require.Equal(t, 5, d.store.recs["doc"].PageCount())

	d.renderer.pages = 2
	_, err = svc.Ingest(ctx, "Doc", []byte("v2"))
	require.NoError(t, err)
	require.Equal(t, 2, d.store.recs["doc"].PageCount(), "second upload should fully replace the first")
}

func TestIngest_EmptyNameRejected(t *testing.T) {
	svc, d := newTestService(t, 1)

	_, err := svc.Ingest(context.Background(), "!!!", []byte("x"))
	require.ErrorIs(t, err, ErrInvalidName)
	require.Empty(t, d.store.recs)
}

func TestIngest_RenderFailureCommitsNothing(t *testing.T) {
	svc, d := newTestService(t, 3)
	d.renderer.err = fmt.Errorf("corrupt pdf")

	_, err := svc.Ingest(context.Background(), "Doc", []byte("x"))
	require.Error(t, err)
	require.Empty(t, d.store.recs)
}

func TestIngest_EmbedFailureCommitsNothing(t *testing.T) {
	svc, d := newTestService(t, 3)
	d.pages.err = fmt.Errorf("model unavailable")

	_, err := svc.Ingest(context.Background(), "Doc", []byte("x"))
	require.Error(t, err)
	require.Empty(t, d.store.recs)
}

func TestQuery_UnknownSlugIsNotFound(t *testing.T) {
	svc, _ := newTestService(t, 1)

	_, err := svc.Query(context.Background(), "no-such-doc", "anything", 0)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestQuery_EmptyQueryRejected(t *testing.T) {
	svc, _ := newTestService(t, 1)

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := svc.Query(context.Background(), "doc", q, 0)
		require.ErrorIs(t, err, ErrEmptyQuery, "query %q", q)
	}
}

func TestQuery_ModelMismatchFails(t *testing.T) {
	svc, d := newTestService(t, 2)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "Doc", []byte("x"))
	require.NoError(t, err)
	d.store.recs["doc"].Model = "some-older-model"

	_, err = svc.Query(ctx, "doc", "q", 0)
	require.ErrorIs(t, err, embed.ErrModelMismatch)
}

func TestQuery_EndToEnd(t *testing.T) {
	svc, d := newTestService(t, 3)
	ctx := context.Background()

	slug, err := svc.Ingest(ctx, "Intro To Systems", []byte("%PDF"))
	require.NoError(t, err)

	// Page i is embedded as [i], the query as [1]: MaxSim ranks page 2 first.
	ans, err := svc.Query(ctx, slug, "what is virtual memory?", 1)
	require.NoError(t, err)

	require.Equal(t, []string{"/docs/intro-to-systems/page/2.png"}, ans.Pages)
	require.NotEmpty(t, ans.Answer)
	require.Contains(t, ans.AnswerHTML, "<strong>42</strong>")

	// The generator received exactly the selected page image and the query.
	require.Len(t, d.gen.gotImages, 1)
	require.Equal(t, []byte("png-2"), d.gen.gotImages[0])
	require.Equal(t, "what is virtual memory?", d.gen.gotQuery)
}

func TestQuery_TopKPolicyAtBoundary(t *testing.T) {
	svc, _ := newTestService(t, 5)
	ctx := context.Background()

	slug, err := svc.Ingest(ctx, "Doc", []byte("%PDF"))
	require.NoError(t, err)

	tests := []struct {
		topK      int
		wantPages int
	}{
		{0, 2},  // configured default
		{-1, 5}, // all pages
		{10, 5}, // clamped, not an error
		{3, 3},  // plain positive
		{-7, 2}, // undefined negatives fall back to default
	}
	for _, tt := range tests {
		ans, err := svc.Query(ctx, slug, "q", tt.topK)
		require.NoError(t, err, "top_k=%d", tt.topK)
		require.Len(t, ans.Pages, tt.wantPages, "top_k=%d", tt.topK)
	}
}

func TestQuery_GeneratorFailureIsFatal(t *testing.T) {
	svc, d := newTestService(t, 2)
	ctx := context.Background()

	slug, err := svc.Ingest(ctx, "Doc", []byte("x"))
	require.NoError(t, err)

	d.gen.err = fmt.Errorf("quota exceeded")
	_, err = svc.Query(ctx, slug, "q", 0)
	require.Error(t, err)
	require.NotErrorIs(t, err, store.ErrNotFound)
}
