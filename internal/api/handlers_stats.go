package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleModelStats(w http.ResponseWriter, r *http.Request) {
	if s.stats.Embed == nil || s.stats.Gen == nil {
		jsonError(w, "model stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"embedder": map[string]any{
			"model": s.stats.EmbedModel,
			"stats": s.stats.Embed.Snapshot(),
		},
		"generator": map[string]any{
			"model": s.stats.GenModel,
			"stats": s.stats.Gen.Snapshot(),
		},
	})
}
