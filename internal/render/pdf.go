package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// Renderer rasterizes PDF pages to PNG files under a per-slug directory.
// The PDF is validated with a Go parser first so corrupt uploads fail before
// a renderer process is spawned; rasterization itself shells out to
// pdftoppm, which must be on PATH.
type Renderer struct {
	ImagesRoot string
	DPI        int
}

func NewRenderer(imagesRoot string, dpi int) *Renderer {
	return &Renderer{ImagesRoot: imagesRoot, DPI: dpi}
}

// Render writes one PNG per page to <images-root>/<slug>/<i>.png, i zero-based
// in page order, and returns the paths plus the image bytes in the same order.
// Rendering over an existing slug directory replaces its contents entirely.
func (r *Renderer) Render(ctx context.Context, pdf []byte, slug string) ([]string, [][]byte, error) {
	pageCount, err := validatePDF(pdf)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid pdf: %w", err)
	}

	tmpPDF, err := writeTempPDF(pdf)
	if err != nil {
		return nil, nil, err
	}
	defer os.Remove(tmpPDF)

	tmpDir, err := os.MkdirTemp("", "adapteach-pages-*")
	if err != nil {
		return nil, nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	cmd := exec.CommandContext(ctx, "pdftoppm", "-png", "-r", strconv.Itoa(r.DPI), tmpPDF, filepath.Join(tmpDir, "page"))
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(out)))
	}

	rendered, err := collectRendered(tmpDir)
	if err != nil {
		return nil, nil, err
	}
	if len(rendered) != pageCount {
		return nil, nil, fmt.Errorf("rendered %d pages, pdf has %d", len(rendered), pageCount)
	}

	// Replace any prior render for this slug wholesale: a re-uploaded
	// document may have fewer pages and stale images must not survive.
	destDir := filepath.Join(r.ImagesRoot, slug)
	if err := os.RemoveAll(destDir); err != nil {
		return nil, nil, fmt.Errorf("clear image directory: %w", err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create image directory: %w", err)
	}

	paths := make([]string, 0, len(rendered))
	images := make([][]byte, 0, len(rendered))
	for i, src := range rendered {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, nil, fmt.Errorf("read rendered page %d: %w", i, err)
		}
		dest := filepath.Join(destDir, fmt.Sprintf("%d.png", i))
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return nil, nil, fmt.Errorf("write page image %d: %w", i, err)
		}
		paths = append(paths, dest)
		images = append(images, data)
	}
	return paths, images, nil
}

// validatePDF parses the PDF and returns its page count.
func validatePDF(data []byte) (int, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	n := reader.NumPage()
	if n <= 0 {
		return 0, fmt.Errorf("pdf has no pages")
	}
	return n, nil
}

func writeTempPDF(data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "adapteach-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(path)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return path, nil
}

// collectRendered lists pdftoppm output files sorted by page number.
// pdftoppm names files page-1.png, page-2.png (zero-padded when the document
// has 10+ pages), so the suffix is parsed numerically rather than relying on
// lexical order.
func collectRendered(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read render output: %w", err)
	}
	type page struct {
		num  int
		path string
	}
	var pages []page
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "page-") || !strings.HasSuffix(name, ".png") {
			continue
		}
		numStr := strings.TrimSuffix(strings.TrimPrefix(name, "page-"), ".png")
		num, err := strconv.Atoi(numStr)
		if err != nil {
			continue
		}
		pages = append(pages, page{num: num, path: filepath.Join(dir, name)})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no pages")
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].num < pages[j].num })
	paths := make([]string, len(pages))
	for i, p := range pages {
		paths[i] = p.path
	}
	return paths, nil
}
