package reveal

import (
	"regexp"
	"strings"

	"github.com/bradstire/wst-reader/internal/textrules"
)

// cleanupRules repairs the artifacts left when card names are swapped for
// the placeholder. Higher priority runs first.
func cleanupRules() []textrules.Rule {
	return []textrules.Rule{
		{
			Name:     "doubled-placeholder",
			Pattern:  regexp.MustCompile(`(?i)\b(this) energy(?:(?:\s*,\s*|\s+(?:and|or)\s+|\s+)this energy\b)+`),
			Rewrite:  textrules.Template("$1 energy"),
			Priority: 100,
		},
		{
			Name:     "placeholder-echo",
			Pattern:  regexp.MustCompile(`(?i)\b(this) energy(?:\s+energy\b)+`),
			Rewrite:  textrules.Template("$1 energy"),
			Priority: 95,
		},
		{
			Name:    "determiner-mismatch",
			Pattern: regexp.MustCompile(`(?i)\b(the|this|that|these|those|a|an|my|your|our|their|his|her|its)\s+this energy\b`),
			Rewrite: func(m textrules.Match) (string, bool) {
				return textrules.AdjustCase(m.Group(1), Placeholder), true
			},
			Priority: 90,
		},
		{
			Name:    "placeholder-agreement",
			Pattern: regexp.MustCompile(`(?i)\b(this energy)\s+(` + pluralVerbs + `)\b`),
			Rewrite: func(m textrules.Match) (string, bool) {
				if causative[strings.ToLower(lastWord(m.Before()))] {
					return "", false
				}
				return m.Group(1) + " " + singularVerb(m.Group(2)), true
			},
			Priority: 80,
		},
		{
			Name:     "placeholder-comma-splice",
			Pattern:  regexp.MustCompile(`(?i)\b(this energy),\s+(is|was|has|also|still|keeps|` + pluralVerbs + `)\b`),
			Rewrite:  textrules.Template("$1 $2"),
			Priority: 70,
		},
		{
			Name:     "spirit-capital",
			Pattern:  regexp.MustCompile(`\bspirit\b`),
			Rewrite:  textrules.Literal("Spirit"),
			Priority: 50,
		},
		{
			Name:     "placeholder-sentence-case",
			Pattern:  regexp.MustCompile(`(?m)(^\s*|[.!?…]["”’)]?\s+)this energy\b`),
			Rewrite:  textrules.Template("$1This energy"),
			Priority: 10,
		},
	}
}

const pluralVerbs = `are|were|have|don't|don’t|aren't|aren’t|weren't|weren’t|keep|feel|want|need|pull|push|hold|show|seem|bring|ask`

var singular = map[string]string{
	"are":     "is",
	"were":    "was",
	"have":    "has",
	"don't":   "doesn't",
	"don’t":   "doesn’t",
	"aren't":  "isn't",
	"aren’t":  "isn’t",
	"weren't": "wasn't",
	"weren’t": "wasn’t",
	"keep":    "keeps",
	"feel":    "feels",
	"want":    "wants",
	"need":    "needs",
	"pull":    "pulls",
	"push":    "pushes",
	"hold":    "holds",
	"show":    "shows",
	"seem":    "seems",
	"bring":   "brings",
	"ask":     "asks",
}

// causative verbs take a bare infinitive: "let this energy keep".
var causative = map[string]bool{
	"let": true, "lets": true, "let's": true, "let’s": true, "make": true, "makes": true,
	"made": true, "help": true, "helps": true, "watch": true, "see": true, "saw": true, "hear": true,
}

func lastWord(s string) string {
	ws := textrules.Words(s)
	if len(ws) == 0 {
		return ""
	}
	return ws[len(ws)-1]
}

func singularVerb(v string) string {
	if s, ok := singular[strings.ToLower(v)]; ok {
		return s
	}
	return v
}

var ctaLine = regexp.MustCompile(`(?i)\blike\s*(?:\+|&|and)\s*subscribe\b`)

// dedupeCallToAction keeps only the last "like + subscribe" line.
func dedupeCallToAction(text string) (string, int) {
	lines := strings.Split(text, "\n")
	last := -1
	for i, l := range lines {
		if ctaLine.MatchString(textrules.StripMarkup(l)) {
			last = i
		}
	}
	if last < 0 {
		return text, 0
	}
	out := lines[:0:0]
	removed := 0
	for i, l := range lines {
		if i != last && ctaLine.MatchString(textrules.StripMarkup(l)) {
			removed++
			continue
		}
		out = append(out, l)
	}
	if removed == 0 {
		return text, 0
	}
	return strings.Join(out, "\n"), removed
}
