// Package reveal keeps each chapter causally consistent with the draw. It
// redacts spread cards the reading has not reached yet and hides clarifier
// cards until the chapter announces them with a "Clarifiers: …" line.
package reveal

import (
	"regexp"
	"strings"

	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/textrules"
)

// Placeholder replaces every redacted card name.
const Placeholder = "this energy"

// ViolationKind classifies a redaction.
type ViolationKind string

const (
	ForwardReference ViolationKind = "forward-reference"
	ClarifierEarly   ViolationKind = "clarifier-early"
)

// Violation is one redacted occurrence.
type Violation struct {
	Kind ViolationKind `json:"kind"`
	Card string        `json:"card"`
}

func (v Violation) String() string {
	return string(v.Kind) + ":" + v.Card
}

// Result is the guarded chapter.
type Result struct {
	Text       string
	Violations []Violation
	// ClarifiersRevealed is true when the chapter had no clarifiers or its
	// marker line was reached. Re-guarding such text should pass no
	// clarifiers, since the marker line is gone.
	ClarifiersRevealed bool
	Cleanup            textrules.Fired
}

// Tags renders the violations as "kind:card" strings.
func (r Result) Tags() []string {
	out := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		out[i] = v.String()
	}
	return out
}

var (
	markerLine    = regexp.MustCompile(`(?i)^\s*clarifiers?\s*:\s*(.+)$`)
	clarifierWord = regexp.MustCompile(`(?i)\bclarifier(s)?\b`)
)

// Guard redacts one chapter. The zero value is not usable; use New.
type Guard struct {
	cleanup *textrules.Table
	maxIter int
}

// Option configures a Guard.
type Option func(*Guard)

// WithMaxIterations bounds the cleanup fixpoint.
func WithMaxIterations(n int) Option {
	return func(g *Guard) { g.maxIter = n }
}

// New builds a Guard with the standard cleanup table.
func New(opts ...Option) *Guard {
	g := &Guard{
		cleanup: textrules.NewTable(cleanupRules()...),
		maxIter: textrules.DefaultMaxIterations,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// CleanupRules exposes the cleanup table in execution order.
func (g *Guard) CleanupRules() []textrules.Rule {
	return g.cleanup.Rules()
}

// Apply redacts chapter. allowedNow holds the spread base names the chapter
// may name; clarifiers are gated behind the chapter's marker line.
func (g *Guard) Apply(chapter string, spread []domain.DrawnCard, allowedNow []string, clarifiers []domain.DrawnCard) Result {
	res := Result{Cleanup: textrules.Fired{}}
	text := chapter

	for _, card := range spread {
		if isAllowed(card.Name, allowedNow) {
			continue
		}
		var n int
		text, n = redact(text, card.Name)
		for range n {
			res.Violations = append(res.Violations, Violation{Kind: ForwardReference, Card: card.Name})
		}
	}

	text, res.ClarifiersRevealed, res.Violations = gateClarifiers(text, clarifiers, res.Violations)

	text, fired := g.cleanup.Fixpoint(text, g.maxIter)
	res.Cleanup.Add(fired)

	if t, n := dedupeCallToAction(text); n > 0 {
		text = t
		res.Cleanup["cta-dedupe"] += n
	}

	res.Text = text
	return res
}

func gateClarifiers(text string, clarifiers []domain.DrawnCard, vs []Violation) (string, bool, []Violation) {
	revealed := len(clarifiers) == 0
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		if markerLine.MatchString(textrules.StripMarkup(line)) {
			revealed = true
			continue
		}
		if revealed {
			out = append(out, line)
			continue
		}
		for _, c := range clarifiers {
			var n int
			line, n = redact(line, c.Name)
			for range n {
				vs = append(vs, Violation{Kind: ClarifierEarly, Card: c.Name})
			}
		}
		line, _ = textrules.Replace(line, clarifierWord, func(m textrules.Match) (string, bool) {
			repl := "supporting influence"
			if m.Group(1) != "" {
				repl += "s"
			}
			return textrules.AdjustCase(m.Text(), repl), true
		})
		out = append(out, line)
	}

	return strings.Join(out, "\n"), revealed, vs
}

// redact swaps every mention of name, with or without a ", reversed"
// suffix, for the placeholder.
func redact(text, name string) (string, int) {
	if strings.TrimSpace(domain.BaseName(name)) == "" {
		return text, 0
	}
	return textrules.Replace(text, NameMatcher(name), textrules.Literal(Placeholder))
}

// NameMatcher matches name case-insensitively with flexible whitespace and
// an optional ", reversed" suffix.
func NameMatcher(name string) *regexp.Regexp {
	fields := strings.Fields(domain.BaseName(name))
	for i, f := range fields {
		fields[i] = regexp.QuoteMeta(f)
	}
	return regexp.MustCompile(`(?i)\b` + strings.Join(fields, `\s+`) + `(?:,\s*reversed)?\b`)
}

func isAllowed(name string, allowed []string) bool {
	for _, a := range allowed {
		if domain.SameCard(name, a) {
			return true
		}
	}
	return false
}

var defaultGuard = New()

// Apply runs the default Guard.
func Apply(chapter string, spread []domain.DrawnCard, allowedNow []string, clarifiers []domain.DrawnCard) Result {
	return defaultGuard.Apply(chapter, spread, allowedNow, clarifiers)
}
