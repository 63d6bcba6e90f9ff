package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDeckNotFound               = errors.New("deck not found")
	ErrDeckExhausted              = errors.New("deck exhausted before spread was complete")
	ErrInvalidReversalProbability = errors.New("reversal probability must be between 0 and 1")
	ErrInvalidClarifierCount      = errors.New("clarifier count must be between 0 and 2")
	ErrUnknownChapter             = errors.New("chapter must be between 1 and 6")
	ErrUnknownSign                = errors.New("unknown zodiac sign")
	ErrEmptyChapter               = errors.New("narrator returned an empty chapter")
	ErrUpstreamLLM                = errors.New("upstream LLM failure")
)

// ExhaustionError reports a deck that ran out of cards before the spread
// reached its size.
type ExhaustionError struct {
	Drawn int
	Want  int
	Deck  int
}

func (e *ExhaustionError) Error() string {
	return fmt.Sprintf("deck of %d cards exhausted after %d unique draws (want %d)", e.Deck, e.Drawn, e.Want)
}

// Is makes errors.Is(err, ErrDeckExhausted) match.
func (e *ExhaustionError) Is(target error) bool {
	return target == ErrDeckExhausted
}
