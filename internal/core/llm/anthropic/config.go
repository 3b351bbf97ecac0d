package anthropic

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joseph-ayodele/syllabus-sync/internal/core/normalize"
)

// Config for the Anthropic Messages API client.
type Config struct {
	APIKey      string        // if empty, falls back to env ANTHROPIC_API_KEY
	BaseURL     string        // default https://api.anthropic.com
	Model       string        // e.g., "claude-3-haiku-20240307"
	Version     string        // anthropic-version header, default 2023-06-01
	Temperature float32       // 0..1
	MaxTokens   int           // default 4096
	Timeout     time.Duration // http client timeout
}

type Client struct {
	cfg        Config
	http       *http.Client
	normalizer *normalize.Normalizer
	logger     *slog.Logger
}

func NewClient(cfg Config, normalizer *normalize.Normalizer, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-haiku-20240307"
	}
	if cfg.Version == "" {
		cfg.Version = "2023-06-01"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if normalizer == nil {
		normalizer = normalize.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		http:       &http.Client{Timeout: cfg.Timeout},
		normalizer: normalizer,
		logger:     logger,
	}
}
