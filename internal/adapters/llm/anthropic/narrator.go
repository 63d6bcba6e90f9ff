// Package anthropic narrates chapters with the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/bradstire/wst-reader/internal/adapters/llm/prompt"
	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/ports"
	"github.com/bradstire/wst-reader/internal/telemetry"
)

const maxTokens = 2048

// Config selects the model and transport for a Narrator.
type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint. Empty means the SDK default.
	BaseURL    string
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

// Narrator implements ports.Narrator. Retries on 429 and 5xx are left to the SDK.
type Narrator struct {
	client anthropic.Client
	model  anthropic.Model
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Narrator {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	metricsOnce.Do(initMetrics)
	return &Narrator{
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(cfg.Model),
		logger: logger,
	}
}

var aiMetrics struct {
	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
}

var metricsOnce sync.Once

func initMetrics() {
	m := telemetry.Meter("github.com/bradstire/wst-reader/anthropic")
	aiMetrics.inputTokens, _ = m.Int64Counter("wst.ai.input_tokens",
		metric.WithDescription("Anthropic API input tokens consumed"),
		metric.WithUnit("{token}"),
	)
	aiMetrics.outputTokens, _ = m.Int64Counter("wst.ai.output_tokens",
		metric.WithDescription("Anthropic API output tokens generated"),
		metric.WithUnit("{token}"),
	)
}

func (n *Narrator) NarrateChapter(ctx context.Context, in ports.ChapterInput) (ports.ChapterOutput, error) {
	user, err := prompt.Chapter(in)
	if err != nil {
		return ports.ChapterOutput{}, err
	}

	ctx, span := telemetry.Tracer("github.com/bradstire/wst-reader/anthropic").Start(ctx, "anthropic.messages.new")
	defer span.End()
	span.SetAttributes(
		attribute.String("wst.ai.model", string(n.model)),
		attribute.Int("wst.chapter", in.Chapter),
	)

	message, err := n.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       n.model,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(prompt.Temperature),
		System:      []anthropic.TextBlockParam{{Text: prompt.System}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ports.ChapterOutput{}, fmt.Errorf("%w: %w", domain.ErrUpstreamLLM, err)
	}

	modelAttr := metric.WithAttributes(attribute.String("wst.ai.model", string(n.model)))
	aiMetrics.inputTokens.Add(ctx, message.Usage.InputTokens, modelAttr)
	aiMetrics.outputTokens.Add(ctx, message.Usage.OutputTokens, modelAttr)

	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		err := fmt.Errorf("%w: no text blocks in response", domain.ErrUpstreamLLM)
		span.SetStatus(codes.Error, err.Error())
		return ports.ChapterOutput{}, err
	}

	model := string(message.Model)
	if model == "" {
		model = string(n.model)
	}
	n.logger.DebugContext(ctx, "chapter narrated", "chapter", in.Chapter, "model", model,
		"input_tokens", message.Usage.InputTokens, "output_tokens", message.Usage.OutputTokens)
	return ports.ChapterOutput{Text: text, Model: model}, nil
}
