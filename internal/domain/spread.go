package domain

import (
	"golang.org/x/text/cases"
)

// SpreadSize is the number of cards in every reading's spread.
const SpreadSize = 5

// MaxClarifiers is the upper bound on clarifier cards per reading.
const MaxClarifiers = 2

// SameCard compares two card names ignoring orientation and case.
func SameCard(a, b string) bool {
	return foldKey(a) == foldKey(b)
}

func foldKey(name string) string {
	// Casers carry state, so each call gets its own.
	return cases.Fold().String(BaseName(name))
}

// DrawSpread shuffles a copy of deck and pops cards until it holds five
// distinct base names. Each card is reversed with probability
// reversalProbability. Positions are 1-based.
func DrawSpread(deck Deck, rng RNG, reversalProbability float64) (Spread, error) {
	if reversalProbability < 0 || reversalProbability > 1 {
		return Spread{}, ErrInvalidReversalProbability
	}

	pool := shuffled(deck.Cards, rng)
	seen := make(map[string]bool, SpreadSize)
	cards := make([]DrawnCard, 0, SpreadSize)

	for len(cards) < SpreadSize {
		if len(pool) == 0 {
			return Spread{}, &ExhaustionError{Drawn: len(cards), Want: SpreadSize, Deck: len(deck.Cards)}
		}
		card := pool[len(pool)-1]
		pool = pool[:len(pool)-1]
		orientation := drawOrientation(rng, reversalProbability)

		key := foldKey(card.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		cards = append(cards, DrawnCard{
			Card:        card,
			Position:    len(cards) + 1,
			Orientation: orientation,
		})
	}

	return Spread{Cards: cards}, nil
}

// DrawClarifiers draws up to maxCount cards whose base names are not in
// used. Clarifiers are not checked against each other.
func DrawClarifiers(deck Deck, used []string, maxCount int, reversalProbability float64, rng RNG) ([]DrawnCard, error) {
	if maxCount < 0 || maxCount > MaxClarifiers {
		return nil, ErrInvalidClarifierCount
	}
	if reversalProbability < 0 || reversalProbability > 1 {
		return nil, ErrInvalidReversalProbability
	}

	excluded := make(map[string]bool, len(used))
	for _, u := range used {
		excluded[foldKey(u)] = true
	}
	remaining := make([]Card, 0, len(deck.Cards))
	for _, c := range deck.Cards {
		if !excluded[foldKey(c.Name)] {
			remaining = append(remaining, c)
		}
	}

	pool := shuffled(remaining, rng)
	n := min(maxCount, len(pool))
	out := make([]DrawnCard, n)
	for i := range n {
		out[i] = DrawnCard{
			Card:        pool[i],
			Position:    i + 1,
			Orientation: drawOrientation(rng, reversalProbability),
		}
	}
	return out, nil
}

func drawOrientation(rng RNG, p float64) Orientation {
	if rng.Float64() < p {
		return Reversed
	}
	return Upright
}

// shuffled returns a Fisher-Yates shuffled copy of cards.
func shuffled(cards []Card, rng RNG) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
