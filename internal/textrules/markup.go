// Package textrules holds the text primitives shared by the reveal guard and
// the style enforcer: markup-aware matching, ordered rewrite tables with a
// fixpoint driver, rotation cursors and small word/line helpers.
//
// Markup spans are self-closing tag-like annotations such as
// <break time="2s" />. Every scan in this package skips matches that overlap
// a markup span, and nothing here ever rewrites the interior of one.
package textrules

import (
	"regexp"
	"strings"
)

var markupPattern = regexp.MustCompile(`<[A-Za-z][\w:-]*(?:\s[^<>]*)?/>`)

// Span is a half-open byte range [Start, End).
type Span struct {
	Start, End int
}

func (s Span) overlaps(start, end int) bool {
	return start < s.End && s.Start < end
}

// MarkupSpans returns the byte ranges of every markup span in s.
func MarkupSpans(s string) []Span {
	locs := markupPattern.FindAllStringIndex(s, -1)
	spans := make([]Span, len(locs))
	for i, l := range locs {
		spans[i] = Span{Start: l[0], End: l[1]}
	}
	return spans
}

// StripMarkup removes markup spans from s.
func StripMarkup(s string) string {
	if !strings.Contains(s, "/>") {
		return s
	}
	return markupPattern.ReplaceAllString(s, "")
}

// IsMarkupOnly reports whether s holds nothing but markup and whitespace.
func IsMarkupOnly(s string) bool {
	return strings.TrimSpace(s) != "" && strings.TrimSpace(StripMarkup(s)) == ""
}

// Match is one non-markup regexp match.
type Match struct {
	// Groups[0] is the full match; unmatched optional groups are "".
	Groups []string
	Start  int
	End    int
	// Index counts matches seen so far in the scan, starting at 0.
	Index int
	// Source is the full text being scanned.
	Source string
}

// Text returns the full matched text.
func (m Match) Text() string { return m.Groups[0] }

// Group returns submatch i or "" when it does not exist.
func (m Match) Group(i int) string {
	if i < 0 || i >= len(m.Groups) {
		return ""
	}
	return m.Groups[i]
}

// Before returns the text preceding the match.
func (m Match) Before() string { return m.Source[:m.Start] }

// After returns the text following the match.
func (m Match) After() string { return m.Source[m.End:] }

// FindAll returns every match of re in s that does not overlap a markup span.
func FindAll(re *regexp.Regexp, s string) []Match {
	locs := re.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return nil
	}
	spans := MarkupSpans(s)
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		if insideMarkup(spans, loc[0], loc[1]) {
			continue
		}
		groups := make([]string, len(loc)/2)
		for g := range groups {
			if loc[2*g] >= 0 {
				groups[g] = s[loc[2*g]:loc[2*g+1]]
			}
		}
		out = append(out, Match{
			Groups: groups,
			Start:  loc[0],
			End:    loc[1],
			Index:  len(out),
			Source: s,
		})
	}
	return out
}

// Count returns the number of non-markup matches of re in s.
func Count(re *regexp.Regexp, s string) int {
	return len(FindAll(re, s))
}

// Rewriter returns the replacement for m. Returning false keeps the match.
type Rewriter func(m Match) (string, bool)

// Replace rewrites the non-markup matches of re in s. It returns the new
// text and the number of matches whose replacement differed from the
// original text.
func Replace(s string, re *regexp.Regexp, fn Rewriter) (string, int) {
	matches := FindAll(re, s)
	if len(matches) == 0 {
		return s, 0
	}
	var b strings.Builder
	b.Grow(len(s))
	last, n := 0, 0
	for _, m := range matches {
		repl, ok := fn(m)
		if !ok || repl == m.Text() {
			continue
		}
		b.WriteString(s[last:m.Start])
		b.WriteString(repl)
		last = m.End
		n++
	}
	if n == 0 {
		return s, 0
	}
	b.WriteString(s[last:])
	return b.String(), n
}

// Template expands $0..$9 in tmpl with the groups of each match.
func Template(tmpl string) Rewriter {
	return func(m Match) (string, bool) {
		return expand(tmpl, m), true
	}
}

// Literal always rewrites to s.
func Literal(s string) Rewriter {
	return func(Match) (string, bool) { return s, true }
}

func expand(tmpl string, m Match) string {
	if !strings.Contains(tmpl, "$") {
		return tmpl
	}
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c == '$' && i+1 < len(tmpl) && tmpl[i+1] >= '0' && tmpl[i+1] <= '9' {
			b.WriteString(m.Group(int(tmpl[i+1] - '0')))
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func insideMarkup(spans []Span, start, end int) bool {
	for _, sp := range spans {
		if sp.overlaps(start, end) {
			return true
		}
		if sp.Start >= end {
			break
		}
	}
	return false
}
