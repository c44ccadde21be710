package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/aryan9600/adapteach-rag/internal/store"
	"github.com/go-chi/chi/v5"
)

// handlePageImage serves a rendered page image. Both path parameters are
// validated before touching the filesystem so a crafted slug can't escape
// the images root.
func (s *Server) handlePageImage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "docSlug")
	if slug == "" || store.Slugify(slug) != slug {
		jsonError(w, "invalid document slug", http.StatusBadRequest)
		return
	}
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || page < 0 {
		jsonError(w, "invalid page index", http.StatusBadRequest)
		return
	}

	path := filepath.Join(s.cfg.ImagesRoot, slug, fmt.Sprintf("%d.png", page))
	http.ServeFile(w, r, path)
}
