package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bradstire/wst-reader/internal/adapters/decks"
	httpadapter "github.com/bradstire/wst-reader/internal/adapters/http"
	"github.com/bradstire/wst-reader/internal/adapters/rng"
	"github.com/bradstire/wst-reader/internal/app"
	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/enforcer"
	"github.com/bradstire/wst-reader/internal/ports"
)

type stubNarrator struct{ err error }

func (s stubNarrator) NarrateChapter(_ context.Context, in ports.ChapterInput) (ports.ChapterOutput, error) {
	if s.err != nil {
		return ports.ChapterOutput{}, s.err
	}
	return ports.ChapterOutput{Text: fmt.Sprintf("Chapter %d is about %s.", in.Chapter, in.Spread[in.Revealed-1].Name), Model: "stub"}, nil
}

func newServer(t *testing.T, n ports.Narrator) *echo.Echo {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := app.NewReadingService(decks.NewEmbeddedStore(), n, rng.NewSeeded(3), enforcer.Default(), logger, app.DefaultOptions())

	e := echo.New()
	e.Use(httpadapter.RequestIDMiddleware())
	e.Use(httpadapter.TracingMiddleware())
	e.Use(httpadapter.LoggingMiddleware(logger))
	httpadapter.NewHandler(svc).Register(e)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(newServer(t, stubNarrator{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestDrawSpread(t *testing.T) {
	rec := do(newServer(t, stubNarrator{}), http.MethodGet, "/v1/spread?reversal=0&clarifiers=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httpadapter.SpreadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.StandardDeckID, resp.Deck)
	require.Len(t, resp.Cards, domain.SpreadSize)
	require.Len(t, resp.Clarifiers, 1)
	for i, c := range resp.Cards {
		assert.Equal(t, i+1, c.Position)
		assert.Equal(t, domain.Upright, c.Orientation)
		assert.NotEmpty(t, c.Keywords)
	}
}

func TestDrawSpread_Validation(t *testing.T) {
	e := newServer(t, stubNarrator{})
	for _, q := range []string{"reversal=abc", "reversal=1.5", "clarifiers=x", "clarifiers=3"} {
		rec := do(e, http.MethodGet, "/v1/spread?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestGuard(t *testing.T) {
	body := `{"text":"The Tower looms over The Fool.","spread":[{"name":"The Fool"},{"name":"The Tower","reversed":true}],"allowed_now":["The Fool"]}`
	rec := do(newServer(t, stubNarrator{}), http.MethodPost, "/v1/guard", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httpadapter.GuardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"forward-reference:The Tower"}, resp.Violations)
	assert.NotContains(t, resp.Text, "Tower")
	assert.Contains(t, resp.Text, "The Fool")
}

func TestGuard_BadRequest(t *testing.T) {
	e := newServer(t, stubNarrator{})
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/v1/guard", `{"text":`).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/v1/guard", `{"text":"x","spread":[{"name":"  "}]}`).Code)
}

func TestEnforce(t *testing.T) {
	rec := do(newServer(t, stubNarrator{}), http.MethodPost, "/v1/enforce", `{"text":"The energy is loud today!","sign":"leo"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httpadapter.EnforceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "The energy is loud today.", resp.Text)
	assert.Equal(t, domain.Leo, resp.Metrics.Sign)
	assert.Contains(t, resp.Metrics.Applied, "exclamations")
}

func TestCreateReading(t *testing.T) {
	rec := do(newServer(t, stubNarrator{}), http.MethodPost, "/v1/readings", `{"sign":"aquarius"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httpadapter.ReadingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, domain.Aquarius, resp.Sign)
	assert.Len(t, resp.Cards, domain.SpreadSize)
	require.Len(t, resp.Chapters, domain.ChapterCount)
	assert.Equal(t, rec.Header().Get("X-Request-Id"), resp.Meta.RequestID)
	assert.NotEmpty(t, resp.Text)
}

func TestCreateReading_Errors(t *testing.T) {
	rec := do(newServer(t, stubNarrator{}), http.MethodPost, "/v1/readings", `{"sign":"ophiuchus"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(newServer(t, stubNarrator{err: domain.ErrUpstreamLLM}), http.MethodPost, "/v1/readings", `{"sign":"leo"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp httpadapter.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "upstream LLM failure", resp.Error)
}

func TestRequestIDMiddleware_KeepsCallerID(t *testing.T) {
	e := echo.New()
	e.Use(httpadapter.RequestIDMiddleware())
	e.GET("/id", func(c echo.Context) error {
		return c.String(http.StatusOK, httpadapter.RequestID(c.Request().Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Body.String())
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}
