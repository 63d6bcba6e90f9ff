package app_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bradstire/wst-reader/internal/app"
	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/enforcer"
	"github.com/bradstire/wst-reader/internal/ports"
	"github.com/bradstire/wst-reader/internal/reveal"
)

type mockDeckStore struct {
	deck domain.Deck
	err  error
}

func (m *mockDeckStore) GetDeck(_ context.Context, _ string) (domain.Deck, error) {
	return m.deck, m.err
}

// mockNarrator names every spread card and clarifier in every chapter, so
// the guard has something to redact.
type mockNarrator struct {
	mu     sync.Mutex
	inputs []ports.ChapterInput
	err    error
	empty  int
}

func (m *mockNarrator) NarrateChapter(_ context.Context, in ports.ChapterInput) (ports.ChapterOutput, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, in)
	m.mu.Unlock()
	if m.err != nil {
		return ports.ChapterOutput{}, m.err
	}
	if in.Chapter == m.empty {
		return ports.ChapterOutput{Text: "  \n"}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Chapter %d opens for %s on %s.\n", in.Chapter, in.Sign, in.DateAnchor)
	for _, c := range in.Spread {
		fmt.Fprintf(&b, "I keep seeing %s in the way you move lately.\n", c.Title())
	}
	for _, c := range in.Clarifiers {
		fmt.Fprintf(&b, "%s sits beside you quietly for now.\n", c.Name)
	}
	return ports.ChapterOutput{Text: b.String(), Model: "mock-model"}, nil
}

type pcgRNG struct{ r *rand.Rand }

func (p pcgRNG) Intn(n int) int { return p.r.IntN(n) }

func (p pcgRNG) Float64() float64 { return p.r.Float64() }

func newService(t *testing.T, ds ports.DeckStore, n ports.Narrator) *app.ReadingService {
	t.Helper()
	opts := app.DefaultOptions()
	opts.Now = func() time.Time { return time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC) }
	return app.NewReadingService(
		ds, n,
		pcgRNG{r: rand.New(rand.NewPCG(7, 11))},
		enforcer.Default(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		opts,
	)
}

func TestGenerate_Success(t *testing.T) {
	narrator := &mockNarrator{}
	svc := newService(t, &mockDeckStore{deck: domain.StandardDeck()}, narrator)

	r, err := svc.Generate(context.Background(), "leo")
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, domain.Leo, r.Sign)
	assert.Equal(t, "October 14th", r.DateAnchor)
	require.Len(t, r.Draw.Spread.Cards, domain.SpreadSize)
	require.Len(t, r.Draw.Clarifiers, domain.MaxClarifiers)
	require.Len(t, r.Chapters, domain.ChapterCount)
	assert.NotEmpty(t, r.Text)
	assert.Equal(t, domain.Leo, r.Metrics.Sign)

	require.Len(t, narrator.inputs, domain.ChapterCount)
	for i, in := range narrator.inputs {
		assert.Equal(t, i+1, in.Chapter)
		assert.Equal(t, min(i+1, domain.SpreadSize), in.Revealed)
		assert.Equal(t, "October 14th", in.DateAnchor)
	}
}

func TestGenerate_ChaptersNeverNameLaterCards(t *testing.T) {
	svc := newService(t, &mockDeckStore{deck: domain.StandardDeck()}, &mockNarrator{})

	r, err := svc.Generate(context.Background(), "Gemini")
	require.NoError(t, err)

	cards := r.Draw.Spread.Cards
	for _, ch := range r.Chapters {
		for j, c := range cards {
			named := reveal.NameMatcher(c.Name).MatchString(ch.Text)
			if j < ch.Number {
				assert.True(t, named, "chapter %d lost %s", ch.Number, c.Name)
			} else {
				assert.False(t, named, "chapter %d names %s early", ch.Number, c.Name)
			}
		}
		want := len(r.Draw.Clarifiers) + max(0, len(cards)-ch.Number)
		assert.Len(t, ch.Violations, want, "chapter %d", ch.Number)
	}
}

func TestGenerate_ClarifiersStayHiddenWithoutMarker(t *testing.T) {
	svc := newService(t, &mockDeckStore{deck: domain.StandardDeck()}, &mockNarrator{})

	r, err := svc.Generate(context.Background(), "pisces")
	require.NoError(t, err)

	for _, c := range r.Draw.Clarifiers {
		assert.False(t, reveal.NameMatcher(c.Name).MatchString(r.Text), "clarifier %s leaked", c.Name)
	}
}

func TestGenerate_UnknownSign(t *testing.T) {
	narrator := &mockNarrator{}
	svc := newService(t, &mockDeckStore{deck: domain.StandardDeck()}, narrator)

	_, err := svc.Generate(context.Background(), "ophiuchus")
	require.ErrorIs(t, err, domain.ErrUnknownSign)
	assert.Empty(t, narrator.inputs)
}

func TestGenerate_DeckNotFound(t *testing.T) {
	svc := newService(t, &mockDeckStore{err: domain.ErrDeckNotFound}, &mockNarrator{})

	_, err := svc.Generate(context.Background(), "leo")
	assert.ErrorIs(t, err, domain.ErrDeckNotFound)
}

func TestGenerate_DeckExhausted(t *testing.T) {
	small := domain.Deck{ID: "tiny", Cards: domain.StandardDeck().Cards[:3]}
	svc := newService(t, &mockDeckStore{deck: small}, &mockNarrator{})

	_, err := svc.Generate(context.Background(), "leo")
	require.ErrorIs(t, err, domain.ErrDeckExhausted)

	var exh *domain.ExhaustionError
	require.True(t, errors.As(err, &exh))
	assert.Equal(t, 3, exh.Drawn)
}

func TestGenerate_NarratorFailure(t *testing.T) {
	narrator := &mockNarrator{err: fmt.Errorf("%w: boom", domain.ErrUpstreamLLM)}
	svc := newService(t, &mockDeckStore{deck: domain.StandardDeck()}, narrator)

	_, err := svc.Generate(context.Background(), "leo")
	require.ErrorIs(t, err, domain.ErrUpstreamLLM)
	assert.Contains(t, err.Error(), "narrate chapter 1")
	assert.Len(t, narrator.inputs, 1)
}

func TestGenerate_EmptyChapter(t *testing.T) {
	narrator := &mockNarrator{empty: 3}
	svc := newService(t, &mockDeckStore{deck: domain.StandardDeck()}, narrator)

	_, err := svc.Generate(context.Background(), "leo")
	require.ErrorIs(t, err, domain.ErrEmptyChapter)
	assert.Contains(t, err.Error(), "narrate chapter 3")
}

func TestDraw_UsesRequestedClarifierCount(t *testing.T) {
	svc := newService(t, &mockDeckStore{deck: domain.StandardDeck()}, &mockNarrator{})

	d, err := svc.Draw(context.Background(), 0, 1)
	require.NoError(t, err)
	assert.Len(t, d.Spread.Cards, domain.SpreadSize)
	require.Len(t, d.Clarifiers, 1)
	assert.False(t, d.Clarifiers[0].IsReversed())
	for _, c := range d.Spread.Cards {
		assert.False(t, domain.SameCard(c.Name, d.Clarifiers[0].Name))
	}

	_, err = svc.Draw(context.Background(), 1.5, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidReversalProbability)
}

func TestEnforce_ConcurrentCallsShareCursor(t *testing.T) {
	svc := newService(t, &mockDeckStore{deck: domain.StandardDeck()}, &mockNarrator{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := svc.Enforce(context.Background(), "The energy is loud today!", "aries")
			assert.Equal(t, "The energy is loud today.", res.Text)
		}()
	}
	wg.Wait()
}

func TestDateAnchor(t *testing.T) {
	for day, want := range map[int]string{1: "March 1st", 2: "March 2nd", 3: "March 3rd", 4: "March 4th", 11: "March 11th", 22: "March 22nd", 31: "March 31st"} {
		assert.Equal(t, want, app.DateAnchor(time.Date(2026, time.March, day, 0, 0, 0, 0, time.UTC)))
	}
}
