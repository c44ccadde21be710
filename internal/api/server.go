package api

import (
	"log/slog"
	"net/http"

	"github.com/aryan9600/adapteach-rag/internal/config"
	"github.com/aryan9600/adapteach-rag/internal/rag"
	"github.com/aryan9600/adapteach-rag/internal/stats"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ModelStats exposes latency windows for the two external models.
type ModelStats struct {
	EmbedModel string
	Embed      *stats.Window
	GenModel   string
	Gen        *stats.Window
}

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	svc    *rag.Service
	log    *slog.Logger
	cfg    config.Config
	stats  ModelStats
}

// NewServer creates and configures the HTTP server.
func NewServer(svc *rag.Service, log *slog.Logger, cfg config.Config, ms ModelStats) *Server {
	s := &Server{
		svc:   svc,
		log:   log,
		cfg:   cfg,
		stats: ms,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Post("/api/documents", s.handleUpload)
	r.Post("/api/query", s.handleQuery)
	r.Get("/api/stats/models", s.handleModelStats)

	// Rendered page images referenced by query responses.
	r.Get("/docs/{docSlug}/page/{page}.png", s.handlePageImage)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
