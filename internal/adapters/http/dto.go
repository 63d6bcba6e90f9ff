package http

import (
	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/enforcer"
)

// CardResponse is one drawn card on the wire.
type CardResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Title       string             `json:"title"`
	Position    int                `json:"position"`
	Orientation domain.Orientation `json:"orientation"`
	Keywords    []string           `json:"keywords,omitempty"`
	Short       string             `json:"short,omitempty"`
}

// SpreadResponse is the JSON shape returned by GET /v1/spread.
type SpreadResponse struct {
	Deck       string         `json:"deck"`
	Cards      []CardResponse `json:"cards"`
	Clarifiers []CardResponse `json:"clarifiers"`
}

// CardRef names a card in a request.
type CardRef struct {
	Name     string `json:"name"`
	Reversed bool   `json:"reversed"`
}

type GuardRequest struct {
	Text       string    `json:"text"`
	Spread     []CardRef `json:"spread"`
	AllowedNow []string  `json:"allowed_now"`
	Clarifiers []CardRef `json:"clarifiers"`
}

type GuardResponse struct {
	Text       string   `json:"text"`
	Violations []string `json:"violations"`
}

type EnforceRequest struct {
	Text string `json:"text"`
	Sign string `json:"sign"`
}

type EnforceResponse struct {
	Text    string           `json:"text"`
	Metrics enforcer.Metrics `json:"metrics"`
}

type ReadingRequest struct {
	Sign string `json:"sign"`
}

type ChapterResponse struct {
	Number     int      `json:"number"`
	Text       string   `json:"text"`
	Violations []string `json:"violations"`
	Model      string   `json:"model,omitempty"`
}

// ReadingResponse is the JSON shape returned by POST /v1/readings.
type ReadingResponse struct {
	ID         string            `json:"id"`
	Sign       domain.Sign       `json:"sign"`
	DateAnchor string            `json:"date_anchor"`
	Cards      []CardResponse    `json:"cards"`
	Clarifiers []CardResponse    `json:"clarifiers"`
	Chapters   []ChapterResponse `json:"chapters"`
	Text       string            `json:"text"`
	Metrics    enforcer.Metrics  `json:"metrics"`
	Meta       MetaResp          `json:"meta"`
}

type MetaResp struct {
	RequestID string `json:"request_id"`
	LatencyMS int64  `json:"latency_ms"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toCards(cards []domain.DrawnCard) []CardResponse {
	out := make([]CardResponse, len(cards))
	for i, dc := range cards {
		out[i] = CardResponse{
			ID:          dc.ID,
			Name:        dc.Name,
			Title:       dc.Title(),
			Position:    dc.Position,
			Orientation: dc.Orientation,
			Keywords:    dc.Keywords,
			Short:       dc.Short,
		}
	}
	return out
}

func fromRefs(refs []CardRef) []domain.DrawnCard {
	out := make([]domain.DrawnCard, len(refs))
	for i, r := range refs {
		o := domain.Upright
		if r.Reversed {
			o = domain.Reversed
		}
		name := domain.BaseName(r.Name)
		out[i] = domain.DrawnCard{
			Card:        domain.Card{ID: domain.CardID(name), Name: name},
			Position:    i + 1,
			Orientation: o,
		}
	}
	return out
}
