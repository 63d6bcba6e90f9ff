package enforcer

import (
	"regexp"
	"strings"

	"github.com/bradstire/wst-reader/internal/textrules"
)

// Rule names carry a family prefix so metrics can bucket them.
const (
	fragmentPrefix = "fragment:"
	commaPrefix    = "comma:"
	seamPrefix     = "noun-seam:"
)

const seamNouns = `influence|presence|vibe|current|pull|undercurrent|force|tone|card`

// seamLeaders are nouns that yield to a following noun. "current" is left
// out because it is also an adjective.
var seamLeaders = map[string]bool{
	"influence": true, "presence": true, "vibe": true, "pull": true,
	"undercurrent": true, "force": true, "tone": true, "card": true,
}

var massNouns = map[string]bool{
	"chaos": true, "stress": true, "business": true, "news": true, "progress": true,
	"mess": true, "focus": true, "success": true, "kindness": true, "darkness": true,
	"softness": true, "loneliness": true, "happiness": true, "sadness": true,
	"this": true, "is": true, "was": true, "has": true, "its": true, "us": true,
	"yes": true, "his": true, "less": true, "unless": true, "always": true,
	"perhaps": true, "thus": true, "as": true, "does": true, "yours": true,
}

var skipWords = map[string]bool{"the": true, "a": true, "an": true, "to": true, "you": true, "your": true, "at": true, "for": true}

const sentenceLead = `(^|[.!?…]["”’)]?\s+)`

func fragmentRules() []textrules.Rule {
	return []textrules.Rule{
		{
			Name:     fragmentPrefix + "part-of-there",
			Pattern:  regexp.MustCompile(`(?i)\b(part) of there about\b`),
			Rewrite:  textrules.Template("$1 of this is about"),
			Priority: 100,
		},
		{
			Name:     fragmentPrefix + "there-about",
			Pattern:  regexp.MustCompile(`(?i)\b(there) about\b`),
			Rewrite:  caseTemplate(1, "it's about"),
			Priority: 90,
		},
		{
			Name:     fragmentPrefix + "there-verb",
			Pattern:  regexp.MustCompile(`(?m)` + sentenceLead + `([Tt]here)((?:\s+also)?(?:\s+just)?)\s+(saying|warning|forcing|buzzing|trying|going|working|building|pushing|holding|calling|pressing|fighting|messing|waiting|screaming|showing)\b((?:\s+[\p{L}'’]+){0,3})`),
			Rewrite:  rewriteThereVerb,
			Priority: 80,
		},
		{
			Name:     fragmentPrefix + "there-not",
			Pattern:  regexp.MustCompile(`(?m)` + sentenceLead + `([Tt]here) not\b`),
			Rewrite:  sentenceCaseTemplate("they're not"),
			Priority: 70,
		},
		{
			Name:     fragmentPrefix + "there-the",
			Pattern:  regexp.MustCompile(`(?m)` + sentenceLead + `([Tt]here) the kind of\b`),
			Rewrite:  sentenceCaseTemplate("that's the kind of"),
			Priority: 70,
		},
		{
			Name:     fragmentPrefix + "there-like",
			Pattern:  regexp.MustCompile(`(?m)` + sentenceLead + `([Tt]here) like\b`),
			Rewrite:  sentenceCaseTemplate("it's like"),
			Priority: 70,
		},
		{
			Name:     fragmentPrefix + "there-there",
			Pattern:  regexp.MustCompile(`(?i)\b(there) there\b`),
			Rewrite:  caseTemplate(1, "there's"),
			Priority: 60,
		},
		{
			Name:     commaPrefix + "determiner-noun",
			Pattern:  regexp.MustCompile(`\b(This|That|The|These|Those) (` + seamNouns + `), ([a-z]+)\b`),
			Rewrite:  textrules.Template("$1 $2 $3"),
			Priority: 50,
		},
		{
			Name:     seamPrefix + "reversed-noun",
			Pattern:  regexp.MustCompile(`(?i)\b(reversed) (?:energy|influence|current|presence)\b`),
			Rewrite:  textrules.Template("$1 card"),
			Priority: 40,
		},
		{
			Name:     seamPrefix + "noun-noun",
			Pattern:  regexp.MustCompile(`(?i)\b(` + seamNouns + `)\s+(` + seamNouns + `)\b`),
			Rewrite:  rewriteNounSeam,
			Priority: 30,
		},
		{
			Name:    seamPrefix + "double-determiner",
			Pattern: regexp.MustCompile(`(?i)\b(a|the) (that|this)\b`),
			Rewrite: func(m textrules.Match) (string, bool) {
				return textrules.AdjustCase(m.Group(1), strings.ToLower(m.Group(2))), true
			},
			Priority: 20,
		},
		{
			Name:     seamPrefix + "little-this",
			Pattern:  regexp.MustCompile(`(?i)\b(that little) this\b`),
			Rewrite:  textrules.Template("$1"),
			Priority: 20,
		},
	}
}

// caseTemplate writes repl with the case of group g.
func caseTemplate(g int, repl string) textrules.Rewriter {
	return func(m textrules.Match) (string, bool) {
		return textrules.AdjustCase(m.Group(g), repl), true
	}
}

// sentenceCaseTemplate keeps the sentence lead-in (group 1) and writes repl
// capitalised.
func sentenceCaseTemplate(repl string) textrules.Rewriter {
	return func(m textrules.Match) (string, bool) {
		return m.Group(1) + textrules.Capitalize(repl), true
	}
}

func rewriteThereVerb(m textrules.Match) (string, bool) {
	lead, adverbs, verb, tail := m.Group(1), m.Group(3), m.Group(4), m.Group(5)
	pronoun := "It's"
	if pluralFollows(tail) {
		pronoun = "They're"
	}
	return lead + pronoun + adverbs + " " + verb + tail, true
}

// pluralFollows inspects the next significant word.
func pluralFollows(tail string) bool {
	for _, w := range strings.Fields(tail) {
		w = strings.ToLower(strings.Trim(w, `'’`))
		if skipWords[w] {
			continue
		}
		return len(w) > 2 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && !massNouns[w]
	}
	return false
}

func rewriteNounSeam(m textrules.Match) (string, bool) {
	first, second := m.Group(1), m.Group(2)
	if strings.EqualFold(first, second) || seamLeaders[strings.ToLower(first)] {
		return textrules.AdjustCase(first, strings.ToLower(second)), true
	}
	return "", false
}

// repairFragments runs the fragment, comma and noun-seam table to fixpoint.
func repairFragments(text string, e *env) (string, textrules.Fired) {
	return e.fragments.Fixpoint(text, e.tuning.MaxRuleIterations)
}
