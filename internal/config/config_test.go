package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bradstire/wst-reader/internal/config"
	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/enforcer"
)

func TestLoadFrom_Defaults(t *testing.T) {
	c, err := config.LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, slog.LevelInfo, c.LogLevel)
	assert.Equal(t, config.ProviderOpenRouter, c.LLMProvider)
	assert.Equal(t, "openai/gpt-4.1-mini", c.LLMModel)
	assert.Equal(t, 60*time.Second, c.LLMTimeout)
	assert.Equal(t, 2, c.LLMMaxRetries)
	assert.Equal(t, 0.5, c.ReversalRatio)
	assert.False(t, c.OTelEnabled)
	assert.Empty(t, c.LLMFallbackModels)

	assert.ErrorContains(t, c.RequireLLM(), "OPENROUTER_API_KEY")
}

func TestLoadFrom_Overrides(t *testing.T) {
	c, err := config.LoadFrom(map[string]string{
		"LOG_LEVEL":           "DEBUG",
		"LLM_PROVIDER":        "Anthropic",
		"LLM_FALLBACK_MODELS": " a , ,b",
		"LLM_TIMEOUT":         "5s",
		"ANTHROPIC_API_KEY":   "k",
		"REVERSAL_RATIO":      "0.25",
		"WST_OTEL_ENABLED":    "true",
	})
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, c.LogLevel)
	assert.Equal(t, config.ProviderAnthropic, c.LLMProvider)
	assert.Equal(t, "claude-sonnet-4-5", c.LLMModel)
	assert.Equal(t, []string{"a", "b"}, c.LLMFallbackModels)
	assert.Equal(t, 5*time.Second, c.LLMTimeout)
	assert.Equal(t, 0.25, c.ReversalRatio)
	assert.True(t, c.OTelEnabled)
	assert.NoError(t, c.RequireLLM())
}

func TestLoadFrom_Invalid(t *testing.T) {
	for name, vars := range map[string]map[string]string{
		"log level": {"LOG_LEVEL": "loud"},
		"provider":  {"LLM_PROVIDER": "local"},
		"timeout":   {"LLM_TIMEOUT": "soon"},
		"reversal":  {"REVERSAL_RATIO": "1.5"},
		"retries":   {"LLM_MAX_RETRIES": "-1"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := config.LoadFrom(vars)
			assert.Error(t, err)
		})
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadTuning_EmptyPath(t *testing.T) {
	tu, err := config.LoadTuning("")
	require.NoError(t, err)
	assert.Equal(t, enforcer.DefaultTuning(), tu)
}

func TestLoadTuning_MergesOverDefaults(t *testing.T) {
	path := writeFile(t, `
short_line_words: 5
profiles:
  default:
    tracked_word_cap: 8
  signs:
    leo:
      question_rate: 9
`)
	tu, err := config.LoadTuning(path)
	require.NoError(t, err)

	def := enforcer.DefaultTuning()
	assert.Equal(t, 5, tu.ShortLineWords)
	assert.Equal(t, def.LongLineWords, tu.LongLineWords)
	assert.Equal(t, 8, tu.Profiles.Default.TrackedWordCap)
	assert.Equal(t, def.Profiles.Default.TrackedPhraseCap, tu.Profiles.Default.TrackedPhraseCap)

	leo := tu.Profiles.Signs[domain.Leo]
	assert.Equal(t, 9.0, leo.QuestionRate)
	assert.Equal(t, def.Profiles.Signs[domain.Leo].StaccatoMin, leo.StaccatoMin)
	assert.Equal(t, domain.Leo, leo.Sign)
	assert.Len(t, tu.Profiles.Signs, 12)
	assert.Equal(t, def.Profiles.Signs[domain.Virgo], tu.Profiles.Signs[domain.Virgo])
}

func TestLoadTuning_Errors(t *testing.T) {
	_, err := config.LoadTuning(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = config.LoadTuning(writeFile(t, "profiles:\n  signs:\n    ophiuchus:\n      question_rate: 1\n"))
	assert.ErrorIs(t, err, domain.ErrUnknownSign)

	_, err = config.LoadTuning(writeFile(t, "question_throttle: 3\n"))
	assert.ErrorContains(t, err, "question_throttle")

	_, err = config.LoadTuning(writeFile(t, "short_line_words: [1\n"))
	assert.Error(t, err)
}
