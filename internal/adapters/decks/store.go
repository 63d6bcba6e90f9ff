// Package decks serves the tarot decks bundled with the binary.
package decks

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sync"

	"github.com/bradstire/wst-reader/internal/domain"
)

//go:embed data/*.json
var embedded embed.FS

// deckFile is the on-disk shape of one deck.
type deckFile struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Cards []domain.Card `json:"cards"`
}

// Store implements ports.DeckStore over the data/*.json files of a
// filesystem. Files are read once, on first use.
type Store struct {
	fsys fs.FS

	once  sync.Once
	decks map[string]domain.Deck
	err   error
}

// NewEmbeddedStore serves the decks compiled into the binary.
func NewEmbeddedStore() *Store {
	return NewStore(embedded)
}

// NewStore serves the decks found under data/ in fsys.
func NewStore(fsys fs.FS) *Store {
	return &Store{fsys: fsys}
}

func (s *Store) load() {
	files, err := fs.Glob(s.fsys, "data/*.json")
	if err != nil {
		s.err = fmt.Errorf("list decks: %w", err)
		return
	}
	s.decks = make(map[string]domain.Deck, len(files))
	for _, file := range files {
		d, err := readDeck(s.fsys, file)
		if err != nil {
			s.err = err
			return
		}
		if _, dup := s.decks[d.ID]; dup {
			s.err = fmt.Errorf("deck %s: id %q declared twice", file, d.ID)
			return
		}
		s.decks[d.ID] = d
	}
}

func readDeck(fsys fs.FS, file string) (domain.Deck, error) {
	raw, err := fs.ReadFile(fsys, file)
	if err != nil {
		return domain.Deck{}, fmt.Errorf("read deck %s: %w", file, err)
	}
	var df deckFile
	if err := json.Unmarshal(raw, &df); err != nil {
		return domain.Deck{}, fmt.Errorf("parse deck %s: %w", file, err)
	}
	if df.ID == "" || len(df.Cards) == 0 {
		return domain.Deck{}, fmt.Errorf("deck %s: id and cards are required", file)
	}
	// The standard deck must match the canonical list so the narrative
	// and the guard agree on every name.
	if df.ID == domain.StandardDeckID {
		if err := checkStandard(df.Cards); err != nil {
			return domain.Deck{}, fmt.Errorf("deck %s: %w", file, err)
		}
	}
	return domain.Deck{ID: df.ID, Name: df.Name, Cards: df.Cards}, nil
}

func checkStandard(cards []domain.Card) error {
	want := domain.StandardDeck().Cards
	if len(cards) != len(want) {
		return fmt.Errorf("has %d cards, want %d", len(cards), len(want))
	}
	for i, c := range cards {
		if c.Name != want[i].Name || c.ID != want[i].ID {
			return fmt.Errorf("card %d is %q (%s), want %q (%s)", i, c.Name, c.ID, want[i].Name, want[i].ID)
		}
	}
	return nil
}

// GetDeck returns the deck with deckID.
func (s *Store) GetDeck(_ context.Context, deckID string) (domain.Deck, error) {
	s.once.Do(s.load)
	if s.err != nil {
		return domain.Deck{}, s.err
	}
	deck, ok := s.decks[deckID]
	if !ok {
		return domain.Deck{}, fmt.Errorf("%w: %q", domain.ErrDeckNotFound, deckID)
	}
	return deck, nil
}
