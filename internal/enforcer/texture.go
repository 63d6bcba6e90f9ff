package enforcer

import (
	"math"
	"regexp"
	"strings"

	"github.com/bradstire/wst-reader/internal/textrules"
)

var (
	pivotSentence = regexp.MustCompile(`\b(?:This|That) means ([^.?!…\n]+)\.`)
	// pivotDone also matches a pivot whose ellipsis was trimmed or whose
	// question was demoted.
	pivotDone = regexp.MustCompile(`\bMaybe[…,]? this is what ([^.?!\n]+?) looks like[?.]`)

	letsMark        = regexp.MustCompile(`(?i)\blet['’]s\b`)
	reflectiveWords = regexp.MustCompile(`(?i)\b(?:truth|maybe|afraid|tired|stuck|heavy|boundary|choice|feel)\b`)
	intensityWords  = regexp.MustCompile(`(?i)\b(?:stuck|afraid|pressure|heavy|tense|exhausted|raw|overwhelmed|brutal|sharp)\b`)
	fillerLead      = regexp.MustCompile(`(?i)^(?:okay|so|look|uh|wait|hmm|mm)\b`)
	fillerPrefix    = regexp.MustCompile(`^(?:(?:Hmm|Mm)[…,.]|Wait\.|Uh—)\s+`)
)

func pivotQuestion(rest string) string {
	return "Maybe… this is what " + strings.TrimSpace(rest) + " looks like?"
}

// reflectPivots turns "This means X." statements into reflective
// questions, at most PivotLimit per document.
func reflectPivots(text string, e *env) (string, textrules.Fired) {
	fired := textrules.Fired{}
	room := e.tuning.PivotLimit - textrules.Count(pivotDone, text)
	if room <= 0 || !pivotSentence.MatchString(text) {
		return text, fired
	}
	doc := textrules.Parse(text)
	for _, pos := range doc.Positions() {
		line := doc.Line(pos)
		if room == 0 {
			break
		}
		if e.lex.protected(line) {
			continue
		}
		out, n := textrules.Replace(line, pivotSentence, func(m textrules.Match) (string, bool) {
			if room == 0 {
				return "", false
			}
			room--
			return pivotQuestion(m.Group(1)), true
		})
		if n > 0 {
			doc.Set(pos, out)
			fired["pivot:added"] += n
		}
	}
	if fired.Total() == 0 {
		return text, fired
	}
	return doc.String(), fired
}

func (e *env) textureScale() float64 {
	return math.Max(float64(e.contentWords)/1000, e.tuning.TextureMinScale)
}

// contentLines returns the unprotected lines of paragraph pi with the
// sentences passes append stripped off.
func (e *env) contentLines(doc textrules.Document, pi int) []string {
	var out []string
	for _, line := range doc.Paragraphs[pi] {
		if e.lex.protected(line) {
			continue
		}
		out = append(out, e.lex.stripAppended(strings.TrimSpace(textrules.StripMarkup(line))))
	}
	return out
}

func (e *env) paragraphMatches(doc textrules.Document, pi int, re *regexp.Regexp) bool {
	for _, line := range e.contentLines(doc, pi) {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// revealCadence places the reveal pair after the content paragraph at the
// configured fraction of the document. The pair carries the tracked phrase
// only while the phrase is under its cap.
func revealCadence(text string, e *env) (string, textrules.Fired) {
	fired := textrules.Fired{}
	if !e.canInject() {
		return text, fired
	}
	doc := textrules.Parse(text)
	for _, r := range revealPairs {
		if hasLine(doc, r) {
			return text, fired
		}
	}
	content := contentParagraphs(doc, e.lex)
	if len(content) == 0 {
		return text, fired
	}
	pair := revealPairs[1]
	if textrules.Count(trackedPhrase, text) < e.profile.TrackedPhraseCap {
		pair = revealPairs[0]
	}
	after := content[int(float64(len(content))*e.tuning.RevealAt)]
	doc.InsertParagraph(after+1, pair)
	fired["reveal:added"] = 1
	return doc.String(), fired
}

// firstContentLine is the first unprotected line of paragraph pi.
func (e *env) firstContentLine(doc textrules.Document, pi int) (textrules.Position, bool) {
	for li, line := range doc.Paragraphs[pi] {
		if !e.lex.protected(line) {
			return textrules.Position{Para: pi, Line: li}, true
		}
	}
	return textrules.Position{}, false
}

// addFillers opens intense paragraphs with a spoken filler until the
// document has its share of filler-led paragraphs.
func addFillers(text string, e *env) (string, textrules.Fired) {
	fired := textrules.Fired{}
	if !e.canInject() {
		return text, fired
	}
	target := max(1, round(e.tuning.FillerRate*e.textureScale()))
	doc := textrules.Parse(text)
	have := 0
	var slots []textrules.Position
	for _, pi := range contentParagraphs(doc, e.lex) {
		pos, ok := e.firstContentLine(doc, pi)
		if !ok {
			continue
		}
		line := doc.Line(pos)
		if fillerLead.MatchString(strings.TrimSpace(textrules.StripMarkup(line))) {
			have++
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "<") || !e.paragraphMatches(doc, pi, intensityWords) {
			continue
		}
		slots = append(slots, pos)
	}
	for _, pos := range slots {
		if have >= target {
			break
		}
		f := e.cursor.Next("filler", fillers)
		doc.Set(pos, f+" "+strings.TrimLeft(doc.Line(pos), " "))
		have++
		fired["filler:added"]++
	}
	if fired.Total() == 0 {
		return text, fired
	}
	return doc.String(), fired
}

func hasInvitation(doc textrules.Document, pi int) bool {
	p := doc.ParagraphText(pi)
	for _, inv := range invitations {
		if strings.Contains(p, inv) {
			return true
		}
	}
	return false
}

// inviteReader appends a "Let's" invitation to reflective paragraphs, never
// two content paragraphs in a row, until the document has its share.
func inviteReader(text string, e *env) (string, textrules.Fired) {
	fired := textrules.Fired{}
	if !e.canInject() {
		return text, fired
	}
	target := clampInt(round(e.tuning.InvitationRate*e.textureScale()), e.tuning.InvitationMin, e.tuning.InvitationMax)
	have := textrules.Count(letsMark, text)
	if have >= target {
		return text, fired
	}
	doc := textrules.Parse(text)
	content := contentParagraphs(doc, e.lex)
	invited := make([]bool, len(content))
	for i, pi := range content {
		invited[i] = hasInvitation(doc, pi)
	}
	for i, pi := range content {
		if have >= target {
			break
		}
		if invited[i] || i > 0 && invited[i-1] || i+1 < len(content) && invited[i+1] {
			continue
		}
		last := textrules.Position{Para: pi, Line: len(doc.Paragraphs[pi]) - 1}
		line := doc.Line(last)
		if e.lex.protected(line) || !e.paragraphMatches(doc, pi, reflectiveWords) {
			continue
		}
		inv := e.cursor.Next("invitation", invitations)
		doc.Set(last, textrules.EnsureTerminal(line, ".")+" "+inv)
		invited[i] = true
		have++
		fired["invitation:added"]++
	}
	if fired.Total() == 0 {
		return text, fired
	}
	return doc.String(), fired
}
