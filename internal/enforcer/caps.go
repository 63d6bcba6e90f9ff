package enforcer

import (
	"strings"
	"unicode"

	"github.com/bradstire/wst-reader/internal/textrules"
)

// capTrackedWord brings the tracked word down to the profile's cap.
// Occurrences are rewritten from the end of the document so the earliest
// ones survive. Contextual phrases go first; whatever excess remains gets
// a rotating synonym.
func capTrackedWord(text string, e *env) (string, textrules.Fired) {
	return limitTrackedWord(text, e, e.profile.EffectiveWordCap(), e.wordSynonyms())
}

// zeroTrackedWord removes every tracked word for profiles that demand it,
// then repairs the fragments the substitutions can leave.
func zeroTrackedWord(text string, e *env) (string, textrules.Fired) {
	if !e.profile.ZeroTrackedWord {
		return text, nil
	}
	text, fired := limitTrackedWord(text, e, 0, zeroingSynonyms)
	if fired.Total() == 0 {
		return text, fired
	}
	text, more := repairFragments(text, e)
	fired.Add(more)
	return text, fired
}

func (e *env) wordSynonyms() []string {
	if e.profile.ZeroTrackedWord {
		return zeroingSynonyms
	}
	return trackedWordSynonyms
}

func limitTrackedWord(text string, e *env, limit int, synonyms []string) (string, textrules.Fired) {
	fired := textrules.Fired{}
	occ := textrules.FindAll(trackedWord, text)
	if len(occ) <= limit {
		return text, fired
	}

	// Contextual pass, last occurrence first.
	excess := len(occ) - limit
	for i := len(occ) - 1; i >= 0 && excess > 0; i-- {
		o := textrules.FindAll(trackedWord, text)
		if i >= len(o) {
			continue
		}
		next, ok := rewriteInContext(text, o[i])
		if !ok {
			continue
		}
		text = next
		excess = textrules.Count(trackedWord, text) - limit
		fired["tracked-word:contextual"]++
	}

	// Synonym fallback, bounded by the occurrences left.
	for attempts := textrules.Count(trackedWord, text); attempts > 0; attempts-- {
		o := textrules.FindAll(trackedWord, text)
		if len(o) <= limit {
			break
		}
		last := o[len(o)-1]
		syn := e.cursor.Next("tracked-word", synonyms)
		text = text[:last.Start] + textrules.AdjustCase(last.Text(), syn) + text[last.End:]
		fired["tracked-word:synonym"]++
	}
	return text, fired
}

// rewriteInContext applies the first contextual rewrite whose match covers
// occurrence o.
func rewriteInContext(text string, o textrules.Match) (string, bool) {
	for _, c := range trackedWordContext {
		for _, m := range textrules.FindAll(c.pattern, text) {
			if m.Start > o.Start || m.End < o.End {
				continue
			}
			repl := textrules.AdjustCase(m.Text(), c.repl)
			return text[:m.Start] + repl + text[m.End:], true
		}
	}
	return text, false
}

// capTrackedPhrase keeps the first N tracked phrases and softens the rest.
// A softened match can complete a phrase that opened earlier, so the pass
// repeats while the count is over the cap, bounded by the phrase heads.
func capTrackedPhrase(text string, e *env) (string, textrules.Fired) {
	limit := e.profile.TrackedPhraseCap
	fired := textrules.Fired{}
	for attempts := textrules.Count(phraseHead, text); attempts > 0; attempts-- {
		if textrules.Count(trackedPhrase, text) <= limit {
			break
		}
		out, n := textrules.Replace(text, trackedPhrase, func(m textrules.Match) (string, bool) {
			if m.Index < limit {
				return "", false
			}
			return softenPhrase(m.Text(), e.cursor), true
		})
		if n == 0 {
			break
		}
		text = out
		fired["tracked-phrase:softened"] += n
	}
	return text, fired
}

// softenPhrase swaps the phrase head for a soft variant and keeps whatever
// follows its first internal delimiter. Phrases nested in that suffix are
// softened too.
func softenPhrase(original string, cursor *textrules.Cursor) string {
	soft := cursor.NextAvoiding("tracked-phrase", softPhrases, func(s string) bool {
		return strings.EqualFold(s, original)
	})
	suffix := ""
	if i := strings.IndexAny(original, "—–,:;…"); i > 0 {
		suffix = trackedPhrase.ReplaceAllStringFunc(original[i:], func(inner string) string {
			return softenPhrase(inner, cursor)
		})
	}
	if r := textrules.FirstRune(original); r != 0 && !unicode.IsUpper(r) {
		soft = textrules.Uncapitalize(soft)
	}
	return soft + suffix
}
