package domain

import "strings"

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
	// Float64 returns a random float in [0.0, 1.0).
	Float64() float64
}

// Orientation represents the orientation of a drawn tarot card.
type Orientation string

const (
	Upright  Orientation = "upright"
	Reversed Orientation = "reversed"
)

// Arcana splits the deck into majors and suited minors.
type Arcana string

const (
	Major Arcana = "major"
	Minor Arcana = "minor"
)

// Card represents a single tarot card in a deck.
type Card struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Arcana   Arcana   `json:"arcana"`
	Suit     string   `json:"suit,omitempty"`
	Keywords []string `json:"keywords"`
	Short    string   `json:"short"`
}

// DrawnCard is a card that has been drawn as part of a spread or as a
// clarifier.
type DrawnCard struct {
	Card
	Position    int         `json:"position"`
	Orientation Orientation `json:"orientation"`
}

// IsReversed reports whether the card was drawn reversed.
func (d DrawnCard) IsReversed() bool { return d.Orientation == Reversed }

// Title renders the card the way the narrative names it.
func (d DrawnCard) Title() string {
	if d.IsReversed() {
		return d.Name + reversedSuffix
	}
	return d.Name
}

// Deck is a collection of tarot cards.
type Deck struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// ChapterCount is the number of chapters in a reading.
const ChapterCount = 6

// Spread is the ordered set of five cards at the centre of a reading.
type Spread struct {
	Cards []DrawnCard
}

// BaseNames returns the spread's card names in draw order.
func (s Spread) BaseNames() []string {
	out := make([]string, len(s.Cards))
	for i, c := range s.Cards {
		out[i] = c.Name
	}
	return out
}

// AllowedAt returns the base names the narrative may name in chapter i
// (1-based). Chapters past the spread length reveal every card.
func (s Spread) AllowedAt(chapter int) []string {
	n := min(max(chapter, 0), len(s.Cards))
	return s.BaseNames()[:n]
}

const reversedSuffix = ", reversed"

// BaseName strips an optional ", reversed" suffix from title.
func BaseName(title string) string {
	t := strings.TrimSpace(title)
	if i := strings.LastIndex(strings.ToLower(t), reversedSuffix); i >= 0 && i+len(reversedSuffix) == len(t) {
		return strings.TrimSpace(t[:i])
	}
	return t
}
