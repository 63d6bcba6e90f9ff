package anthropic_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bradstire/wst-reader/internal/adapters/llm/anthropic"
	"github.com/bradstire/wst-reader/internal/adapters/llm/prompt"
	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/ports"
)

func chapterInput() ports.ChapterInput {
	return ports.ChapterInput{
		Chapter:    1,
		Sign:       domain.Scorpio,
		DateAnchor: "October 14th",
		Spread: []domain.DrawnCard{
			{Card: domain.Card{Name: "The Hermit"}, Position: 1},
			{Card: domain.Card{Name: "Justice"}, Position: 2},
		},
		Revealed: 1,
	}
}

func newNarrator(url string) *anthropic.Narrator {
	return anthropic.New(anthropic.Config{
		APIKey:  "test-key",
		BaseURL: url + "/",
		Model:   "claude-test",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNarrator_NarrateChapter(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
		System      []struct {
			Text string `json:"text"`
		} `json:"system"`
		Messages []struct {
			Role    string `json:"role"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
			"content": [{"type": "text", "text": "  The Hermit lifts the lantern.  "}],
			"stop_reason": "end_turn", "stop_sequence": null,
			"usage": {"input_tokens": 12, "output_tokens": 7}
		}`))
	}))
	defer srv.Close()

	out, err := newNarrator(srv.URL).NarrateChapter(context.Background(), chapterInput())
	require.NoError(t, err)
	assert.Equal(t, "The Hermit lifts the lantern.", out.Text)
	assert.Equal(t, "claude-test", out.Model)

	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, 2048, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	require.Len(t, got.System, 1)
	assert.Equal(t, prompt.System, got.System[0].Text)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Content, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content[0].Text, "Card 2: ???")
	assert.NotContains(t, got.Messages[0].Content[0].Text, "Justice")
}

func TestNarrator_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer srv.Close()

	_, err := newNarrator(srv.URL).NarrateChapter(context.Background(), chapterInput())
	assert.ErrorIs(t, err, domain.ErrUpstreamLLM)
}

func TestNarrator_UnknownChapter(t *testing.T) {
	in := chapterInput()
	in.Chapter = 0
	_, err := newNarrator("http://127.0.0.1:0").NarrateChapter(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrUnknownChapter)
}
