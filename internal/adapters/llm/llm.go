// Package llm selects the chapter narrator named by the configuration.
package llm

import (
	"log/slog"
	"net/http"

	"github.com/bradstire/wst-reader/internal/adapters/llm/anthropic"
	"github.com/bradstire/wst-reader/internal/adapters/llm/openrouter"
	"github.com/bradstire/wst-reader/internal/config"
	"github.com/bradstire/wst-reader/internal/ports"
)

// NewNarrator builds the narrator for cfg.LLMProvider. It fails when the
// provider's API key is missing.
func NewNarrator(cfg config.Config, logger *slog.Logger) (ports.Narrator, error) {
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}
	if cfg.LLMProvider == config.ProviderAnthropic {
		return anthropic.New(anthropic.Config{
			APIKey:     cfg.AnthropicAPIKey,
			BaseURL:    cfg.AnthropicBaseURL,
			Model:      cfg.LLMModel,
			MaxRetries: cfg.LLMMaxRetries,
			Timeout:    cfg.LLMTimeout,
		}, logger), nil
	}
	return openrouter.NewClient(
		&http.Client{Timeout: cfg.LLMTimeout},
		cfg.OpenRouterAPIKey,
		cfg.OpenRouterBaseURL,
		cfg.LLMModel,
		cfg.LLMFallbackModels,
		logger,
		openrouter.WithMaxRetries(cfg.LLMMaxRetries),
	), nil
}
