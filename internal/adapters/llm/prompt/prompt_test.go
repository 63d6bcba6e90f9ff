package prompt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bradstire/wst-reader/internal/adapters/llm/prompt"
	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/ports"
)

func drawn(names ...string) []domain.DrawnCard {
	out := make([]domain.DrawnCard, len(names))
	for i, n := range names {
		out[i] = domain.DrawnCard{
			Card:        domain.Card{Name: n, Keywords: []string{"kw"}, Short: "Short."},
			Position:    i + 1,
			Orientation: domain.Upright,
		}
	}
	return out
}

func input(chapter int) ports.ChapterInput {
	spread := drawn("The Fool", "The Tower", "Death", "The Star", "Ace of Cups")
	spread[1].Orientation = domain.Reversed
	return ports.ChapterInput{
		Chapter:    chapter,
		Sign:       domain.Virgo,
		DateAnchor: "October 14th",
		Spread:     spread,
		Revealed:   min(chapter, 5),
		Clarifiers: drawn("Two of Swords"),
	}
}

func TestChapter_HidesFutureCards(t *testing.T) {
	p, err := prompt.Chapter(input(2))
	require.NoError(t, err)

	assert.Contains(t, p, "Sign: Virgo")
	assert.Contains(t, p, "Date: October 14th")
	assert.Contains(t, p, "Card 1: The Fool (kw; Short.)")
	assert.Contains(t, p, "Card 2: The Tower, reversed (kw; Short.)")
	for _, pos := range []string{"Card 3: ???", "Card 4: ???", "Card 5: ???"} {
		assert.Contains(t, p, pos)
	}
	for _, name := range []string{"Death", "The Star", "Ace of Cups"} {
		assert.NotContains(t, p, name)
	}
	assert.Contains(t, p, "Reveal Card 2")
}

func TestChapter_ClarifierMarkerInstruction(t *testing.T) {
	p, err := prompt.Chapter(input(1))
	require.NoError(t, err)
	assert.Contains(t, p, "Clarifiers: Two of Swords")
	assert.Contains(t, p, `write the line "Clarifiers: <names>"`)

	in := input(1)
	in.Clarifiers = nil
	p, err = prompt.Chapter(in)
	require.NoError(t, err)
	assert.Contains(t, p, "Clarifiers: none")
	assert.NotContains(t, p, "<names>")
}

func TestChapter_FinaleRevealsEverything(t *testing.T) {
	p, err := prompt.Chapter(input(6))
	require.NoError(t, err)
	assert.NotContains(t, p, prompt.Hidden)
	assert.Contains(t, p, "Card 5: Ace of Cups")
	assert.Contains(t, p, "like and subscribe")
}

func TestChapter_RejectsUnknownChapter(t *testing.T) {
	for _, n := range []int{0, 7} {
		_, err := prompt.Chapter(input(n))
		assert.ErrorIs(t, err, domain.ErrUnknownChapter)
	}
}
