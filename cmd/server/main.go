package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aryan9600/adapteach-rag/internal/api"
	"github.com/aryan9600/adapteach-rag/internal/config"
	"github.com/aryan9600/adapteach-rag/internal/embed"
	"github.com/aryan9600/adapteach-rag/internal/gen"
	"github.com/aryan9600/adapteach-rag/internal/rag"
	"github.com/aryan9600/adapteach-rag/internal/render"
	"github.com/aryan9600/adapteach-rag/internal/stats"
	"github.com/aryan9600/adapteach-rag/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Document store.
	st, err := store.NewSQLiteStore(cfg.DataDir)
	if err != nil {
		log.Error("failed to open document store", "error", err)
		os.Exit(1)
	}

	// Model clients, constructed once and shared across requests.
	embedder := embed.NewColPaliClient(cfg.EmbedBaseURL, cfg.EmbedModel, cfg.EmbedTimeout, cfg.EmbedMaxRetries)
	embedder.Stats = stats.NewWindow(cfg.StatsWindow)
	gemini := gen.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout)
	gemini.Stats = stats.NewWindow(cfg.StatsWindow)

	renderer := render.NewRenderer(cfg.ImagesRoot, cfg.RenderDPI)

	svc := rag.NewService(st, renderer, embedder, embedder, embed.MaxSim, gemini, cfg.DefaultTopK, log)

	srv := api.NewServer(svc, log, cfg, api.ModelStats{
		EmbedModel: embedder.Model(),
		Embed:      embedder.Stats,
		GenModel:   gemini.Model(),
		Gen:        gemini.Stats,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		embedder.Close()
		gemini.Close()
		st.Close()
	}()

	log.Info("starting adapteach-rag", "port", cfg.Port, "embed_model", cfg.EmbedModel, "gen_model", cfg.GeminiModel)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
