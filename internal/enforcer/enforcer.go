// Package enforcer rewrites a stitched reading so it meets the stylistic
// constraints of the reader's sign: tracked-word and tracked-phrase caps,
// ellipsis and question density, staccato share, line length and the
// per-sign modulation blocks.
package enforcer

import (
	"fmt"
	"strings"

	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/textrules"
)

// Result is the enforced text and its audit record.
type Result struct {
	Text    string  `json:"text"`
	Metrics Metrics `json:"metrics"`
}

// Stage describes one step of the pipeline.
type Stage struct {
	Name     string   `json:"name"`
	Reassert []string `json:"reassert,omitempty"`
}

// Enforcer holds the compiled pipeline. It is immutable after New and safe
// for concurrent use; rotation state lives in the caller's Cursor.
type Enforcer struct {
	tuning    Tuning
	lex       *lexicon
	cards     []cardMatcher
	fragments *textrules.Table
	stages    []stage
}

// New validates t and compiles the pipeline.
func New(t Tuning) (*Enforcer, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}
	return &Enforcer{
		tuning:    t,
		lex:       newLexicon(),
		cards:     newCardMatchers(domain.StandardDeck()),
		fragments: textrules.NewTable(fragmentRules()...),
		stages:    pipeline(),
	}, nil
}

// Default returns an Enforcer built from DefaultTuning.
func Default() *Enforcer {
	en, err := New(DefaultTuning())
	if err != nil {
		panic(err)
	}
	return en
}

// Tuning returns the constants the Enforcer was built with.
func (en *Enforcer) Tuning() Tuning { return en.tuning }

// Stages lists the pipeline in execution order.
func (en *Enforcer) Stages() []Stage {
	out := make([]Stage, 0, len(en.stages))
	for _, st := range en.stages {
		s := Stage{Name: st.name}
		for _, k := range st.reassert {
			s.Reassert = append(s.Reassert, k.String())
		}
		out = append(out, s)
	}
	return out
}

// Enforce runs the pipeline over text for the given sign. Unknown or empty
// signs use the default profile. A nil cursor starts a fresh rotation.
func (en *Enforcer) Enforce(text, sign string, cursor *textrules.Cursor) Result {
	if cursor == nil {
		cursor = textrules.NewCursor()
	}
	profile := en.tuning.Profiles.For(sign)
	e := &env{
		profile:   profile,
		tuning:    en.tuning,
		cursor:    cursor,
		lex:       en.lex,
		meter:     meter{tuning: en.tuning, lex: en.lex},
		cards:     en.cards,
		fragments: en.fragments,
	}
	m := Metrics{Sign: profile.Sign, Family: profile.Family, Fixes: map[string]int{}}
	m.Before = e.meter.measure(text)

	if strings.TrimSpace(text) == "" {
		m.After = e.meter.measure("")
		m.Bands = e.meter.bands(0, profile)
		return Result{Metrics: m}
	}

	e.contentWords = e.meter.contentWords(textrules.Parse(textrules.Normalize(text)))
	e.bands = e.meter.bands(e.contentWords, profile)

	for _, st := range en.stages {
		var fired textrules.Fired
		text, fired = st.run(text, e)
		m.record(st.name, fired)
		for _, k := range st.reassert {
			text, fired = k.enforce(text, e)
			m.record("reassert:"+k.String(), fired)
		}
	}

	m.After = e.meter.measure(text)
	m.Bands = e.bands
	m.Warnings = e.warnings(m.After)
	return Result{Text: text, Metrics: m}
}

// env is the per-call state handed to every pass.
type env struct {
	profile   domain.ConstraintProfile
	tuning    Tuning
	cursor    *textrules.Cursor
	lex       *lexicon
	meter     meter
	cards     []cardMatcher
	fragments *textrules.Table

	// contentWords excludes lines and questions the pipeline inserts, so the
	// bands of a second run match the first.
	contentWords int
	bands        Bands
}

func (e *env) canInject() bool {
	return e.contentWords >= e.tuning.InjectionMinWords
}

func (e *env) warnings(c Counts) []string {
	var out []string
	if c.TrackedWord > e.bands.TrackedWordCap {
		out = append(out, fmt.Sprintf("tracked word count %d exceeds cap %d", c.TrackedWord, e.bands.TrackedWordCap))
	}
	if c.TrackedPhrase > e.bands.TrackedPhraseCap {
		out = append(out, fmt.Sprintf("tracked phrase count %d exceeds cap %d", c.TrackedPhrase, e.bands.TrackedPhraseCap))
	}
	if c.Words < 500 {
		return out
	}
	if !e.bands.Ellipsis.Contains(c.Ellipses) {
		out = append(out, fmt.Sprintf("ellipsis count %d outside [%d, %d]", c.Ellipses, e.bands.Ellipsis.Min, e.bands.Ellipsis.Max))
	}
	if !e.bands.Question.Contains(c.Questions) {
		out = append(out, fmt.Sprintf("question count %d outside [%d, %d]", c.Questions, e.bands.Question.Min, e.bands.Question.Max))
	}
	if c.StaccatoShare < e.bands.StaccatoMin || c.StaccatoShare > e.bands.StaccatoMax {
		out = append(out, fmt.Sprintf("staccato share %.2f outside [%.2f, %.2f]", c.StaccatoShare, e.bands.StaccatoMin, e.bands.StaccatoMax))
	}
	return out
}

// lineOffsets returns, for every line in reading order, the number of
// words that precede it.
func lineOffsets(doc textrules.Document) map[textrules.Position]int {
	out := make(map[textrules.Position]int, doc.LineCount())
	n := 0
	for _, pos := range doc.Positions() {
		out[pos] = n
		n += textrules.CountWords(doc.Line(pos))
	}
	return out
}

// contentParagraphs returns the indices of paragraphs holding at least one
// unprotected line.
func contentParagraphs(doc textrules.Document, lex *lexicon) []int {
	var out []int
	for pi, para := range doc.Paragraphs {
		for _, line := range para {
			if !lex.protected(line) {
				out = append(out, pi)
				break
			}
		}
	}
	return out
}

func hasLine(doc textrules.Document, want string) bool {
	for _, pos := range doc.Positions() {
		if strings.TrimSpace(textrules.StripMarkup(doc.Line(pos))) == want {
			return true
		}
	}
	return false
}
