package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
)

// defaultModels is used when LLM_MODEL is unset.
var defaultModels = map[string]string{
	ProviderOpenRouter: "openai/gpt-4.1-mini",
	ProviderAnthropic:  "claude-sonnet-4-5",
}

type Config struct {
	HTTPAddr     string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevelName string     `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel     slog.Level

	LLMProvider       string        `env:"LLM_PROVIDER" envDefault:"openrouter"`
	LLMModel          string        `env:"LLM_MODEL"`
	LLMFallbackModels []string      `env:"LLM_FALLBACK_MODELS" envSeparator:","`
	LLMTimeout        time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	LLMMaxRetries     int           `env:"LLM_MAX_RETRIES" envDefault:"2"`

	OpenRouterAPIKey  string `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	AnthropicAPIKey   string `env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL  string `env:"ANTHROPIC_BASE_URL"`

	ReversalRatio float64 `env:"REVERSAL_RATIO" envDefault:"0.5"`
	StripBreaks   bool    `env:"WST_STRIP_BREAKS"`
	TuningFile    string  `env:"TUNING_FILE"`
	OTelEnabled   bool    `env:"WST_OTEL_ENABLED"`
}

// Load reads the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	level, err := parseLogLevel(c.LogLevelName)
	if err != nil {
		return Config{}, err
	}
	c.LogLevel = level

	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	if _, ok := defaultModels[c.LLMProvider]; !ok {
		return Config{}, fmt.Errorf("invalid LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.LLMModel == "" {
		c.LLMModel = defaultModels[c.LLMProvider]
	}
	c.LLMFallbackModels = cleanList(c.LLMFallbackModels)

	if c.ReversalRatio < 0 || c.ReversalRatio > 1 {
		return Config{}, fmt.Errorf("invalid REVERSAL_RATIO %v: must be between 0 and 1", c.ReversalRatio)
	}
	if c.LLMMaxRetries < 0 {
		return Config{}, fmt.Errorf("invalid LLM_MAX_RETRIES %d", c.LLMMaxRetries)
	}

	return c, nil
}

// RequireLLM checks that the selected provider has its API key.
func (c Config) RequireLLM() error {
	switch {
	case c.LLMProvider == ProviderOpenRouter && c.OpenRouterAPIKey == "":
		return errors.New("OPENROUTER_API_KEY is required when LLM_PROVIDER=openrouter")
	case c.LLMProvider == ProviderAnthropic && c.AnthropicAPIKey == "":
		return errors.New("ANTHROPIC_API_KEY is required when LLM_PROVIDER=anthropic")
	}
	return nil
}

func cleanList(in []string) []string {
	var out []string
	for _, m := range in {
		m = strings.TrimSpace(m)
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}
