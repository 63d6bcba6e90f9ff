package openrouter_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bradstire/wst-reader/internal/adapters/llm/openrouter"
	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/ports"
)

func testInput() ports.ChapterInput {
	return ports.ChapterInput{
		Chapter:    2,
		Sign:       domain.Leo,
		DateAnchor: "October 14th",
		Spread: []domain.DrawnCard{
			{Card: domain.Card{Name: "The Fool"}, Position: 1, Orientation: domain.Upright},
			{Card: domain.Card{Name: "The Magician"}, Position: 2, Orientation: domain.Reversed},
			{Card: domain.Card{Name: "The Star"}, Position: 3, Orientation: domain.Upright},
			{Card: domain.Card{Name: "The Moon"}, Position: 4, Orientation: domain.Upright},
			{Card: domain.Card{Name: "The Sun"}, Position: 5, Orientation: domain.Upright},
		},
		Revealed: 2,
	}
}

func chatReply(w http.ResponseWriter, content string) {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func newClient(url string, fallback []string, retries int) *openrouter.Client {
	return openrouter.NewClient(
		http.DefaultClient,
		"test-key",
		url,
		"test-model",
		fallback,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		openrouter.WithMaxRetries(retries),
		openrouter.WithInitialBackoff(time.Millisecond),
	)
}

func TestClient_NarrateChapter_Success(t *testing.T) {
	var gotReq struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("expected /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("bad auth header: %s", r.Header.Get("Authorization"))
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)
		chatReply(w, "  The Magician turns up reversed.  ")
	}))
	defer srv.Close()

	out, err := newClient(srv.URL+"/", nil, 0).NarrateChapter(context.Background(), testInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Text != "The Magician turns up reversed." {
		t.Errorf("unexpected text: %q", out.Text)
	}
	if out.Model != "test-model" {
		t.Errorf("unexpected model: %s", out.Model)
	}

	if gotReq.Model != "test-model" {
		t.Errorf("request model: %v", gotReq.Model)
	}
	if gotReq.Temperature != 0.7 {
		t.Errorf("request temperature: %v", gotReq.Temperature)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", gotReq.Messages)
	}
	user := gotReq.Messages[1].Content
	if !strings.Contains(user, "Card 3: ???") || strings.Contains(user, "The Star") {
		t.Errorf("prompt leaks future cards:\n%s", user)
	}
}

func TestClient_NarrateChapter_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		chatReply(w, "Third time.")
	}))
	defer srv.Close()

	out, err := newClient(srv.URL, nil, 2).NarrateChapter(context.Background(), testInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
	if out.Text != "Third time." {
		t.Errorf("unexpected text: %q", out.Text)
	}
}

func TestClient_NarrateChapter_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, nil, 3).NarrateChapter(context.Background(), testInput())
	if !errors.Is(err, domain.ErrUpstreamLLM) {
		t.Fatalf("expected ErrUpstreamLLM, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
}

func TestClient_NarrateChapter_FallbackModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		if req.Model == "test-model" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		chatReply(w, "From the fallback.")
	}))
	defer srv.Close()

	out, err := newClient(srv.URL, []string{"backup-model"}, 0).NarrateChapter(context.Background(), testInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Model != "backup-model" {
		t.Errorf("unexpected model: %s", out.Model)
	}
}

func TestClient_NarrateChapter_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, nil, 1).NarrateChapter(context.Background(), testInput())
	if !errors.Is(err, domain.ErrUpstreamLLM) {
		t.Fatalf("expected ErrUpstreamLLM, got %v", err)
	}
}

func TestClient_NarrateChapter_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, nil, 0).NarrateChapter(context.Background(), testInput())
	if err == nil {
		t.Fatal("expected error for empty choices, got nil")
	}
}

func TestClient_NarrateChapter_UnknownChapter(t *testing.T) {
	in := testInput()
	in.Chapter = 9
	_, err := newClient("http://127.0.0.1:0", nil, 0).NarrateChapter(context.Background(), in)
	if !errors.Is(err, domain.ErrUnknownChapter) {
		t.Fatalf("expected ErrUnknownChapter, got %v", err)
	}
}
