package enforcer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/textrules"
)

// Counts is one measurement of a document.
type Counts struct {
	Words         int     `json:"words"`
	Lines         int     `json:"lines"`
	TrackedWord   int     `json:"tracked_word"`
	TrackedPhrase int     `json:"tracked_phrase"`
	Ellipses      int     `json:"ellipses"`
	Questions     int     `json:"questions"`
	StaccatoShare float64 `json:"staccato_share"`
}

// Band is a [Min, Max] count range with a preferred Target inside it.
type Band struct {
	Min    int `json:"min"`
	Target int `json:"target"`
	Max    int `json:"max"`
}

// Contains reports whether n lies inside the band.
func (b Band) Contains(n int) bool { return n >= b.Min && n <= b.Max }

// Bands are the targets computed for one document.
type Bands struct {
	TrackedWordCap   int     `json:"tracked_word_cap"`
	TrackedPhraseCap int     `json:"tracked_phrase_cap"`
	Ellipsis         Band    `json:"ellipsis"`
	Question         Band    `json:"question"`
	StaccatoMin      float64 `json:"staccato_min"`
	StaccatoMax      float64 `json:"staccato_max"`
}

// Metrics is the audit record of one Enforce call.
type Metrics struct {
	Sign   domain.Sign   `json:"sign,omitempty"`
	Family domain.Family `json:"family,omitempty"`

	Before Counts `json:"before"`
	After  Counts `json:"after"`
	Bands  Bands  `json:"bands"`

	FragmentFixes int `json:"fragment_fixes"`
	CommaFixes    int `json:"comma_fixes"`
	NounSeamFixes int `json:"noun_seam_fixes"`

	Pivots      int `json:"pivots"`
	Invitations int `json:"invitations"`
	Fillers     int `json:"fillers"`
	Reveals     int `json:"reveals"`

	// Fixes counts every edit by category.
	Fixes map[string]int `json:"fixes"`
	// Applied lists the stages that changed the text, in order.
	Applied  []string `json:"applied"`
	Warnings []string `json:"warnings,omitempty"`
}

func (m *Metrics) record(stage string, d textrules.Fired) {
	if d.Total() == 0 {
		return
	}
	m.Applied = append(m.Applied, stage)
	for k, v := range d {
		m.Fixes[k] += v
		switch fixFamily(k) {
		case "fragment":
			m.FragmentFixes += v
		case "comma":
			m.CommaFixes += v
		case "noun-seam":
			m.NounSeamFixes += v
		case "pivot":
			m.Pivots += v
		case "invitation":
			m.Invitations += v
		case "filler":
			m.Fillers += v
		case "reveal":
			m.Reveals += v
		}
	}
}

func fixFamily(name string) string {
	family, _, _ := strings.Cut(name, ":")
	return family
}

type meter struct {
	tuning Tuning
	lex    *lexicon
}

func (mt meter) measure(text string) Counts {
	doc := textrules.Parse(text)
	share, _ := mt.staccato(doc)
	lines := 0
	for _, pos := range doc.Positions() {
		if !textrules.IsMarkupOnly(doc.Line(pos)) {
			lines++
		}
	}
	return Counts{
		Words:         doc.WordCount(),
		Lines:         lines,
		TrackedWord:   textrules.Count(trackedWord, text),
		TrackedPhrase: textrules.Count(trackedPhrase, text),
		Ellipses:      textrules.Count(ellipsisMark, text),
		Questions:     textrules.Count(questionMark, text),
		StaccatoShare: share,
	}
}

// contentWords counts the words of doc that did not come from the pipeline:
// inserted lines and card headers are skipped, appended sentences and
// leading fillers are stripped, and pivots count as the statement they
// replaced.
func (mt meter) contentWords(doc textrules.Document) int {
	n := 0
	for _, pos := range doc.Positions() {
		plain := strings.TrimSpace(textrules.StripMarkup(doc.Line(pos)))
		if mt.lex.fixed[plain] || isCardHeader(plain) {
			continue
		}
		plain = fillerPrefix.ReplaceAllString(plain, "")
		plain = pivotDone.ReplaceAllString(plain, "This means $1.")
		n += textrules.CountWords(mt.lex.stripAppended(plain))
	}
	return n
}

func (mt meter) bands(words int, p domain.ConstraintProfile) Bands {
	return Bands{
		TrackedWordCap:   p.EffectiveWordCap(),
		TrackedPhraseCap: p.TrackedPhraseCap,
		Ellipsis:         mt.ellipsisBand(words),
		Question:         mt.questionBand(words, p),
		StaccatoMin:      p.StaccatoMin,
		StaccatoMax:      p.StaccatoMax,
	}
}

func (mt meter) scale(words int) float64 {
	return math.Max(float64(words)/1000, mt.tuning.MinDensityScale)
}

func (mt meter) ellipsisBand(words int) Band {
	k := mt.scale(words)
	lo := max(1, round(mt.tuning.EllipsisMinRate*k))
	hi := max(lo, round(mt.tuning.EllipsisMaxRate*k))
	return Band{Min: lo, Target: clampInt(round(mt.tuning.EllipsisRate*k), lo, hi), Max: hi}
}

func (mt meter) questionBand(words int, p domain.ConstraintProfile) Band {
	k := mt.scale(words) * mt.tuning.QuestionThrottle
	lo := max(1, round(mt.tuning.QuestionMinRate*k))
	hi := max(lo, round(mt.tuning.QuestionMaxRate*k))
	rate := math.Min(math.Max(p.QuestionRate, mt.tuning.QuestionMinRate), mt.tuning.QuestionMaxRate)
	return Band{Min: lo, Target: clampInt(round(rate*k), lo, hi), Max: hi}
}

func round(f float64) int { return int(math.Round(f)) }

func clampInt(v, lo, hi int) int { return min(max(v, lo), hi) }

// OffendingLines lists the lines that still carry the tracked word and the
// tracked phrase, formatted "[L<n>] <line>" with 1-based line numbers.
func OffendingLines(text string) (word, phrase []string) {
	for i, line := range strings.Split(text, "\n") {
		tag := fmt.Sprintf("[L%d] %s", i+1, strings.TrimSpace(line))
		if textrules.Count(trackedWord, line) > 0 {
			word = append(word, tag)
		}
		if textrules.Count(trackedPhrase, line) > 0 {
			phrase = append(phrase, tag)
		}
	}
	return word, phrase
}

// Breached reports whether a repetition cap still holds too many matches.
func (r Result) Breached() bool {
	m := r.Metrics
	return m.After.TrackedWord > m.Bands.TrackedWordCap || m.After.TrackedPhrase > m.Bands.TrackedPhraseCap
}

// LogBreaches warns with the offending lines of every cap r still breaches.
// It reports whether anything was logged.
func (r Result) LogBreaches(ctx context.Context, logger *slog.Logger) bool {
	if !r.Breached() {
		return false
	}
	m := r.Metrics
	word, phrase := OffendingLines(r.Text)
	if m.After.TrackedWord > m.Bands.TrackedWordCap {
		logger.WarnContext(ctx, "tracked word above cap",
			"count", m.After.TrackedWord, "cap", m.Bands.TrackedWordCap, "lines", strings.Join(word, " || "))
	}
	if m.After.TrackedPhrase > m.Bands.TrackedPhraseCap {
		logger.WarnContext(ctx, "tracked phrase above cap",
			"count", m.After.TrackedPhrase, "cap", m.Bands.TrackedPhraseCap, "lines", strings.Join(phrase, " || "))
	}
	return true
}
