// Package provider selects the extraction model client from configuration.
package provider

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/core/llm"
	"github.com/joseph-ayodele/syllabus-sync/internal/core/llm/anthropic"
	"github.com/joseph-ayodele/syllabus-sync/internal/core/llm/openai"
	"github.com/joseph-ayodele/syllabus-sync/internal/core/normalize"
)

const (
	Anthropic = "anthropic"
	OpenAI    = "openai"
)

// New returns the client for cfg.Provider. Empty fields fall back to the
// client's own defaults.
func New(cfg common.LLMConfig, n *normalize.Normalizer, logger *slog.Logger) (llm.CourseExtractor, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case Anthropic, "":
		return anthropic.NewClient(anthropic.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		}, n, logger), nil
	case OpenAI:
		return openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		}, n, logger), nil
	default:
		return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown llm provider %q", cfg.Provider), common.ErrInvalidInput)
	}
}
