// Package ports declares what the reading service needs from the outside:
// a source of decks and a narrator for chapter prose.
package ports

import (
	"context"

	"github.com/bradstire/wst-reader/internal/domain"
)

// DeckStore looks decks up by id. Unknown ids fail with
// domain.ErrDeckNotFound.
type DeckStore interface {
	GetDeck(ctx context.Context, deckID string) (domain.Deck, error)
}

// ChapterInput holds everything a narrator needs to write one chapter.
type ChapterInput struct {
	Chapter    int
	Sign       domain.Sign
	DateAnchor string
	// Spread is the full draw in order. Narrators must hide every card past
	// Revealed.
	Spread     []domain.DrawnCard
	Revealed   int
	Clarifiers []domain.DrawnCard
}

// ChapterOutput is the raw chapter text returned by the narrator.
type ChapterOutput struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// Narrator writes chapter prose via an LLM.
type Narrator interface {
	NarrateChapter(ctx context.Context, in ChapterInput) (ChapterOutput, error)
}
