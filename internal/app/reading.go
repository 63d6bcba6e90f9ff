package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/enforcer"
	"github.com/bradstire/wst-reader/internal/ports"
	"github.com/bradstire/wst-reader/internal/reveal"
	"github.com/bradstire/wst-reader/internal/telemetry"
	"github.com/bradstire/wst-reader/internal/textrules"
)

// ChapterSeparator joins guarded chapters into one document.
const ChapterSeparator = "\n\n"

// Draw is a spread with its clarifiers.
type Draw struct {
	Spread     domain.Spread
	Clarifiers []domain.DrawnCard
}

// Chapter is one narrated and guarded chapter.
type Chapter struct {
	Number     int
	Text       string
	Violations []reveal.Violation
	Model      string
}

// Reading is the application-level output of Generate (no HTTP types).
type Reading struct {
	ID         string
	Sign       domain.Sign
	DateAnchor string
	Draw       Draw
	Chapters   []Chapter
	Text       string
	Metrics    enforcer.Metrics
	LatencyMS  int64
}

// Options tunes a ReadingService.
type Options struct {
	DeckID        string
	ReversalRatio float64
	MaxClarifiers int
	// StripBreaks removes <break> annotations while sanitising.
	StripBreaks bool
	Now         func() time.Time
}

// DefaultOptions draws from the standard deck with even reversal odds.
func DefaultOptions() Options {
	return Options{
		DeckID:        domain.StandardDeckID,
		ReversalRatio: 0.5,
		MaxClarifiers: domain.MaxClarifiers,
		Now:           time.Now,
	}
}

// ReadingService orchestrates draw, narration, guarding and enforcement.
type ReadingService struct {
	decks    ports.DeckStore
	narrator ports.Narrator
	rng      domain.RNG
	guard    *reveal.Guard
	enforcer *enforcer.Enforcer
	logger   *slog.Logger
	opts     Options

	// rngMu guards rng, which need not be safe for concurrent use.
	rngMu sync.Mutex
	// cursorMu guards cursor, shared by every document this service enforces.
	cursorMu sync.Mutex
	cursor   *textrules.Cursor

	instruments instruments
}

type instruments struct {
	readings   metric.Int64Counter
	violations metric.Int64Counter
	breaches   metric.Int64Counter
	chapterMS  metric.Float64Histogram
}

func NewReadingService(ds ports.DeckStore, narrator ports.Narrator, rng domain.RNG, en *enforcer.Enforcer, logger *slog.Logger, opts Options) *ReadingService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadingService{
		decks:       ds,
		narrator:    narrator,
		rng:         rng,
		guard:       reveal.New(reveal.WithMaxIterations(en.Tuning().MaxRuleIterations)),
		enforcer:    en,
		logger:      logger,
		opts:        opts,
		cursor:      textrules.NewCursor(),
		instruments: newInstruments(),
	}
}

// Options returns the service's draw settings.
func (s *ReadingService) Options() Options { return s.opts }

func newInstruments() instruments {
	m := telemetry.Meter("github.com/bradstire/wst-reader/app")
	var in instruments
	in.readings, _ = m.Int64Counter("wst.readings",
		metric.WithDescription("Readings generated"),
		metric.WithUnit("{reading}"),
	)
	in.violations, _ = m.Int64Counter("wst.guard.violations",
		metric.WithDescription("Card names redacted by the reveal guard"),
		metric.WithUnit("{violation}"),
	)
	in.breaches, _ = m.Int64Counter("wst.enforce.breaches",
		metric.WithDescription("Documents left above a repetition cap after enforcement"),
		metric.WithUnit("{document}"),
	)
	in.chapterMS, _ = m.Float64Histogram("wst.chapter.duration",
		metric.WithDescription("Narrator latency per chapter in milliseconds"),
		metric.WithUnit("ms"),
	)
	return in
}

// Draw pulls a spread and its clarifiers from the configured deck.
func (s *ReadingService) Draw(ctx context.Context, reversalRatio float64, clarifiers int) (Draw, error) {
	deck, err := s.decks.GetDeck(ctx, s.opts.DeckID)
	if err != nil {
		return Draw{}, fmt.Errorf("get deck: %w", err)
	}

	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	spread, err := domain.DrawSpread(deck, s.rng, reversalRatio)
	if err != nil {
		return Draw{}, fmt.Errorf("draw spread: %w", err)
	}
	extra, err := domain.DrawClarifiers(deck, spread.BaseNames(), clarifiers, reversalRatio, s.rng)
	if err != nil {
		return Draw{}, fmt.Errorf("draw clarifiers: %w", err)
	}
	return Draw{Spread: spread, Clarifiers: extra}, nil
}

// Guard redacts one chapter and logs what it removed.
func (s *ReadingService) Guard(ctx context.Context, chapter string, spread []domain.DrawnCard, allowedNow []string, clarifiers []domain.DrawnCard) reveal.Result {
	res := s.guard.Apply(chapter, spread, allowedNow, clarifiers)
	s.recordViolations(ctx, s.logger, res)
	return res
}

func (s *ReadingService) recordViolations(ctx context.Context, logger *slog.Logger, res reveal.Result) {
	n := len(res.Violations)
	if n == 0 {
		return
	}
	s.instruments.violations.Add(ctx, int64(n))
	logger.WarnContext(ctx, "reveal guard redacted card names", "violations", n, "tags", res.Tags())
}

// Enforce runs the enforcer with the service's shared rotation cursor.
func (s *ReadingService) Enforce(ctx context.Context, text, sign string) enforcer.Result {
	s.cursorMu.Lock()
	res := s.enforcer.Enforce(text, sign, s.cursor)
	s.cursorMu.Unlock()

	s.assertCaps(ctx, res)
	return res
}

// assertCaps logs the offending lines when a repetition cap still holds
// too many matches after enforcement.
func (s *ReadingService) assertCaps(ctx context.Context, res enforcer.Result) {
	if res.LogBreaches(ctx, s.logger) {
		s.instruments.breaches.Add(ctx, 1)
		return
	}
	for _, w := range res.Metrics.Warnings {
		s.logger.DebugContext(ctx, "enforcer density warning", "warning", w)
	}
}

// Generate writes a full reading for sign. Chapters are narrated one after
// another, each seeing only the cards revealed so far.
func (s *ReadingService) Generate(ctx context.Context, sign string) (Reading, error) {
	parsed, ok := domain.ParseSign(sign)
	if !ok {
		return Reading{}, fmt.Errorf("%w: %q", domain.ErrUnknownSign, sign)
	}

	tracer := telemetry.Tracer("github.com/bradstire/wst-reader/app")
	ctx, span := tracer.Start(ctx, "reading.generate")
	defer span.End()

	start := time.Now()
	id := uuid.NewString()
	span.SetAttributes(attribute.String("wst.reading.id", id), attribute.String("wst.sign", string(parsed)))
	logger := s.logger.With("reading_id", id, "sign", parsed)

	draw, err := s.Draw(ctx, s.opts.ReversalRatio, s.opts.MaxClarifiers)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Reading{}, err
	}
	logger.InfoContext(ctx, "spread locked", "spread", titles(draw.Spread.Cards), "clarifiers", titles(draw.Clarifiers))

	r := Reading{
		ID:         id,
		Sign:       parsed,
		DateAnchor: DateAnchor(s.opts.Now()),
		Draw:       draw,
	}

	texts := make([]string, 0, domain.ChapterCount)
	for i := 1; i <= domain.ChapterCount; i++ {
		ch, err := s.chapter(ctx, r, i)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return Reading{}, err
		}
		r.Chapters = append(r.Chapters, ch)
		texts = append(texts, ch.Text)
	}

	stitched := textrules.Sanitize(strings.Join(texts, ChapterSeparator), textrules.SanitizeOptions{StripBreaks: s.opts.StripBreaks})
	res := s.Enforce(ctx, stitched, string(parsed))
	r.Text = res.Text
	r.Metrics = res.Metrics
	r.LatencyMS = time.Since(start).Milliseconds()

	s.instruments.readings.Add(ctx, 1, metric.WithAttributes(attribute.String("wst.family", string(parsed.Family()))))
	logger.InfoContext(ctx, "reading complete",
		"words", res.Metrics.After.Words,
		"tracked_word", fmt.Sprintf("%d→%d", res.Metrics.Before.TrackedWord, res.Metrics.After.TrackedWord),
		"tracked_phrase", fmt.Sprintf("%d→%d", res.Metrics.Before.TrackedPhrase, res.Metrics.After.TrackedPhrase),
		"latency_ms", r.LatencyMS,
	)
	return r, nil
}

func (s *ReadingService) chapter(ctx context.Context, r Reading, i int) (Chapter, error) {
	tracer := telemetry.Tracer("github.com/bradstire/wst-reader/app")
	ctx, span := tracer.Start(ctx, "reading.chapter")
	defer span.End()
	span.SetAttributes(attribute.Int("wst.chapter", i))

	in := ports.ChapterInput{
		Chapter:    i,
		Sign:       r.Sign,
		DateAnchor: r.DateAnchor,
		Spread:     r.Draw.Spread.Cards,
		Revealed:   min(i, len(r.Draw.Spread.Cards)),
		Clarifiers: r.Draw.Clarifiers,
	}

	t0 := time.Now()
	out, err := s.narrator.NarrateChapter(ctx, in)
	s.instruments.chapterMS.Record(ctx, float64(time.Since(t0).Milliseconds()))
	if err != nil {
		return Chapter{}, fmt.Errorf("narrate chapter %d: %w", i, err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return Chapter{}, fmt.Errorf("narrate chapter %d: %w", i, domain.ErrEmptyChapter)
	}

	res := s.guard.Apply(out.Text, r.Draw.Spread.Cards, r.Draw.Spread.AllowedAt(i), r.Draw.Clarifiers)
	s.recordViolations(ctx, s.logger.With("reading_id", r.ID, "chapter", i), res)
	span.SetAttributes(attribute.Int("wst.chapter.violations", len(res.Violations)))

	return Chapter{Number: i, Text: res.Text, Violations: res.Violations, Model: out.Model}, nil
}

func titles(cards []domain.DrawnCard) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Title()
	}
	return out
}

// DateAnchor renders t as "October 14th".
func DateAnchor(t time.Time) string {
	day := t.Day()
	suffix := "th"
	switch day {
	case 1, 21, 31:
		suffix = "st"
	case 2, 22:
		suffix = "nd"
	case 3, 23:
		suffix = "rd"
	}
	return fmt.Sprintf("%s %d%s", t.Month(), day, suffix)
}
