package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aryan9600/adapteach-rag/internal/rag"
	"github.com/aryan9600/adapteach-rag/internal/store"
)

type queryRequest struct {
	DocSlug string `json:"doc_slug"`
	Query   string `json:"query"`
	TopK    int    `json:"top_k"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.DocSlug == "" {
		jsonError(w, "doc_slug is required", http.StatusBadRequest)
		return
	}

	answer, err := s.svc.Query(r.Context(), req.DocSlug, req.Query, req.TopK)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			// The one error kind the caller can act on.
			jsonError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, rag.ErrEmptyQuery):
			jsonError(w, err.Error(), http.StatusBadRequest)
		default:
			s.log.Error("query failed", "doc_slug", req.DocSlug, "error", err)
			jsonError(w, "failed to answer query", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(answer)
}
