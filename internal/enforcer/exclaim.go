package enforcer

import (
	"regexp"
	"strings"

	"github.com/bradstire/wst-reader/internal/textrules"
)

var (
	interrobang     = regexp.MustCompile(`\?+!+|!+\?+`)
	exclaimSentence = regexp.MustCompile(`[^.!?…\n<>]+!+`)
	exclaimRun      = regexp.MustCompile(`!+`)
)

// softenExclamations removes exclamation marks. Call-to-action closers get
// their soft form; encouragement without a warning gets a rotating tag;
// everything else ends with a full stop.
func softenExclamations(text string, e *env) (string, textrules.Fired) {
	fired := textrules.Fired{}
	if !strings.Contains(text, "!") {
		return text, fired
	}
	for _, c := range ctaClosers {
		if n := strings.Count(text, c.from); n > 0 {
			text = strings.ReplaceAll(text, c.from, c.to)
			fired["exclamation:cta"] += n
		}
	}
	text, n := textrules.Replace(text, interrobang, textrules.Literal("?"))
	if n > 0 {
		fired["exclamation:interrobang"] = n
	}
	text, n = textrules.Replace(text, exclaimSentence, func(m textrules.Match) (string, bool) {
		body := strings.TrimRight(m.Text(), "!")
		if encouragementWords.MatchString(body) && !warningWords.MatchString(body) {
			fired["exclamation:encouragement"]++
			return strings.TrimRight(body, " ") + e.cursor.Next("encouragement", encouragementTags), true
		}
		return body + ".", true
	})
	if soft := n - fired["exclamation:encouragement"]; soft > 0 {
		fired["exclamation:softened"] = soft
	}
	// Marks after other punctuation or markup have no sentence body.
	text, n = textrules.Replace(text, exclaimRun, func(m textrules.Match) (string, bool) {
		before := strings.TrimRight(m.Before(), " ")
		if strings.HasSuffix(before, ".") || strings.HasSuffix(before, "?") || strings.HasSuffix(before, "…") {
			return "", true
		}
		return ".", true
	})
	if n > 0 {
		fired["exclamation:stray"] = n
	}
	return text, fired
}
