package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Storage layout. The record database and the rendered page images
	// live in separate trees joined by the document slug.
	DataDir    string `yaml:"data_dir"`
	ImagesRoot string `yaml:"images_root"`

	// Page-embedding inference server
	EmbedBaseURL    string        `yaml:"embed_base_url"`
	EmbedModel      string        `yaml:"embed_model"`
	EmbedTimeout    time.Duration `yaml:"-"`
	EmbedMaxRetries int           `yaml:"embed_max_retries"`

	// Generative model
	GeminiAPIKey  string        `yaml:"-"`
	GeminiBaseURL string        `yaml:"gemini_base_url"`
	GeminiModel   string        `yaml:"gemini_model"`
	GeminiTimeout time.Duration `yaml:"-"`

	// Retrieval
	DefaultTopK int `yaml:"default_top_k"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Page rasterization
	RenderDPI int `yaml:"render_dpi"`

	// Model latency stats window
	StatsWindow time.Duration `yaml:"-"`

	// Timeout fields as they appear in a YAML file (seconds).
	EmbedTimeoutSecs  int `yaml:"embed_timeout_secs"`
	GeminiTimeoutSecs int `yaml:"gemini_timeout_secs"`
	StatsWindowSecs   int `yaml:"stats_window_secs"`
}

// Load builds the configuration from defaults, an optional YAML file
// (CONFIG_FILE, default ./config.yaml), and environment variables.
// Environment variables win over the file.
func Load() (Config, error) {
	cfg := Config{
		Port:            "8090",
		DataDir:         "data",
		ImagesRoot:      "data/images",
		EmbedModel:      "vidore/colSmol-256M",
		EmbedTimeout:    120 * time.Second,
		EmbedMaxRetries: 3,
		GeminiBaseURL:   "https://generativelanguage.googleapis.com",
		GeminiModel:     "gemini-2.5-flash",
		GeminiTimeout:   120 * time.Second,
		DefaultTopK:     2,
		MaxUploadBytes:  52428800, // 50MB
		RenderDPI:       150,
		StatsWindow:     1 * time.Hour,
	}

	path := envOr("CONFIG_FILE", "config.yaml")
	if err := cfg.applyFile(path); err != nil {
		return cfg, err
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.DataDir = envOr("DATA_DIR", cfg.DataDir)
	cfg.ImagesRoot = envOr("IMAGES_ROOT", cfg.ImagesRoot)

	cfg.EmbedBaseURL = envOr("EMBED_BASE_URL", cfg.EmbedBaseURL)
	cfg.EmbedModel = envOr("EMBED_MODEL", cfg.EmbedModel)
	cfg.EmbedTimeout = envDuration("EMBED_TIMEOUT", cfg.EmbedTimeout)
	cfg.EmbedMaxRetries = envInt("EMBED_MAX_RETRIES", cfg.EmbedMaxRetries)

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiBaseURL = envOr("GEMINI_BASE_URL", cfg.GeminiBaseURL)
	cfg.GeminiModel = envOr("GEMINI_MODEL", cfg.GeminiModel)
	cfg.GeminiTimeout = envDuration("GEMINI_TIMEOUT", cfg.GeminiTimeout)

	cfg.DefaultTopK = envInt("DEFAULT_TOP_K", cfg.DefaultTopK)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.RenderDPI = envInt("RENDER_DPI", cfg.RenderDPI)
	cfg.StatsWindow = envDuration("STATS_WINDOW", cfg.StatsWindow)

	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 2
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.RenderDPI <= 0 {
		cfg.RenderDPI = 150
	}
	if cfg.EmbedMaxRetries < 0 {
		cfg.EmbedMaxRetries = 0
	}

	return cfg, nil
}

// applyFile overlays values from a YAML config file. A missing file is not
// an error; an unreadable or malformed one is.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if c.EmbedTimeoutSecs > 0 {
		c.EmbedTimeout = time.Duration(c.EmbedTimeoutSecs) * time.Second
	}
	if c.GeminiTimeoutSecs > 0 {
		c.GeminiTimeout = time.Duration(c.GeminiTimeoutSecs) * time.Second
	}
	if c.StatsWindowSecs > 0 {
		c.StatsWindow = time.Duration(c.StatsWindowSecs) * time.Second
	}
	return nil
}

func (c Config) Validate() error {
	if c.EmbedBaseURL == "" {
		return fmt.Errorf("EMBED_BASE_URL is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
