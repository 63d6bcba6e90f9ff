package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bradstire/wst-reader/internal/app"
	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/reveal"
)

// maxTextLen bounds the text accepted by guard and enforce.
const maxTextLen = 200_000

type Handler struct {
	svc *app.ReadingService
}

func NewHandler(svc *app.ReadingService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
	e.GET("/v1/spread", h.DrawSpread)
	e.POST("/v1/guard", h.Guard)
	e.POST("/v1/enforce", h.Enforce)
	e.POST("/v1/readings", h.CreateReading)
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) DrawSpread(c echo.Context) error {
	opts := h.svc.Options()

	reversal := opts.ReversalRatio
	if raw := c.QueryParam("reversal"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "reversal must be a number between 0 and 1"})
		}
		reversal = parsed
	}

	clarifiers := opts.MaxClarifiers
	if raw := c.QueryParam("clarifiers"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "clarifiers must be an integer between 0 and 2"})
		}
		clarifiers = parsed
	}

	d, err := h.svc.Draw(c.Request().Context(), reversal, clarifiers)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, SpreadResponse{
		Deck:       opts.DeckID,
		Cards:      toCards(d.Spread.Cards),
		Clarifiers: toCards(d.Clarifiers),
	})
}

func (h *Handler) Guard(c echo.Context) error {
	var req GuardRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
	}
	if len(req.Text) > maxTextLen {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "text is too long"})
	}
	for _, r := range append(append([]CardRef{}, req.Spread...), req.Clarifiers...) {
		if domain.BaseName(r.Name) == "" {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "card names must not be empty"})
		}
	}

	res := h.svc.Guard(c.Request().Context(), req.Text, fromRefs(req.Spread), req.AllowedNow, fromRefs(req.Clarifiers))
	return c.JSON(http.StatusOK, GuardResponse{Text: res.Text, Violations: res.Tags()})
}

func (h *Handler) Enforce(c echo.Context) error {
	var req EnforceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
	}
	if len(req.Text) > maxTextLen {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "text is too long"})
	}

	res := h.svc.Enforce(c.Request().Context(), req.Text, req.Sign)
	return c.JSON(http.StatusOK, EnforceResponse{Text: res.Text, Metrics: res.Metrics})
}

func (h *Handler) CreateReading(c echo.Context) error {
	var req ReadingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
	}

	r, err := h.svc.Generate(c.Request().Context(), req.Sign)
	if err != nil {
		return mapError(c, err)
	}

	requestID := RequestID(c.Request().Context())
	return c.JSON(http.StatusOK, toReading(r, requestID))
}

func toReading(r app.Reading, requestID string) ReadingResponse {
	chapters := make([]ChapterResponse, len(r.Chapters))
	for i, ch := range r.Chapters {
		chapters[i] = ChapterResponse{
			Number:     ch.Number,
			Text:       ch.Text,
			Violations: tags(ch.Violations),
			Model:      ch.Model,
		}
	}
	return ReadingResponse{
		ID:         r.ID,
		Sign:       r.Sign,
		DateAnchor: r.DateAnchor,
		Cards:      toCards(r.Draw.Spread.Cards),
		Clarifiers: toCards(r.Draw.Clarifiers),
		Chapters:   chapters,
		Text:       r.Text,
		Metrics:    r.Metrics,
		Meta: MetaResp{
			RequestID: requestID,
			LatencyMS: r.LatencyMS,
		},
	}
}

func tags(vs []reveal.Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}

func mapError(c echo.Context, err error) error {
	requestID := RequestID(c.Request().Context())

	switch {
	case errors.Is(err, domain.ErrDeckNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidReversalProbability),
		errors.Is(err, domain.ErrInvalidClarifierCount),
		errors.Is(err, domain.ErrUnknownSign):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUpstreamLLM), errors.Is(err, domain.ErrEmptyChapter):
		slog.Error("upstream LLM failure", "request_id", requestID, "error", err)
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: "upstream LLM failure"})
	default:
		slog.Error("internal error", "request_id", requestID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
