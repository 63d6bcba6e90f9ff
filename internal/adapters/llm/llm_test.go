package llm_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bradstire/wst-reader/internal/adapters/llm"
	"github.com/bradstire/wst-reader/internal/adapters/llm/anthropic"
	"github.com/bradstire/wst-reader/internal/adapters/llm/openrouter"
	"github.com/bradstire/wst-reader/internal/config"
)

func TestNewNarrator(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := llm.NewNarrator(config.Config{LLMProvider: config.ProviderOpenRouter}, logger)
	assert.ErrorContains(t, err, "OPENROUTER_API_KEY")

	n, err := llm.NewNarrator(config.Config{LLMProvider: config.ProviderOpenRouter, OpenRouterAPIKey: "k", LLMModel: "m"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &openrouter.Client{}, n)

	n, err = llm.NewNarrator(config.Config{LLMProvider: config.ProviderAnthropic, AnthropicAPIKey: "k", LLMModel: "m"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &anthropic.Narrator{}, n)
}
