package domain

import "strings"

// StandardDeckID names the 78-card deck.
const StandardDeckID = "rider_waite"

// StandardDeckSize is the number of cards in a full tarot deck.
const StandardDeckSize = 78

var majorArcana = []string{
	"The Fool", "The Magician", "The High Priestess", "The Empress", "The Emperor",
	"The Hierophant", "The Lovers", "The Chariot", "Strength", "The Hermit",
	"Wheel of Fortune", "Justice", "The Hanged Man", "Death", "Temperance",
	"The Devil", "The Tower", "The Star", "The Moon", "The Sun",
	"Judgement", "The World",
}

var (
	suits = []string{"Wands", "Cups", "Swords", "Pentacles"}
	ranks = []string{
		"Ace", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine", "Ten",
		"Page", "Knight", "Queen", "King",
	}
)

// StandardDeck builds the 22 majors followed by the four suits of 14 ranks.
// Cards carry names and ids only; keyword data lives with the deck store.
func StandardDeck() Deck {
	cards := make([]Card, 0, StandardDeckSize)
	for _, name := range majorArcana {
		cards = append(cards, Card{ID: CardID(name), Name: name, Arcana: Major})
	}
	for _, suit := range suits {
		for _, rank := range ranks {
			name := rank + " of " + suit
			cards = append(cards, Card{ID: CardID(name), Name: name, Arcana: Minor, Suit: suit})
		}
	}
	return Deck{ID: StandardDeckID, Name: "Rider-Waite", Cards: cards}
}

// CardID turns a card name into its snake_case id.
func CardID(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
