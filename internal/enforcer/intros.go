package enforcer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/textrules"
)

type cardMatcher struct {
	name string
	re   *regexp.Regexp
}

// newCardMatchers compiles one matcher per card. Names starting with "The"
// accept a lower-case article; the rest of the name is case-sensitive so
// "the world" in running prose is not taken for The World.
func newCardMatchers(deck domain.Deck) []cardMatcher {
	out := make([]cardMatcher, 0, len(deck.Cards))
	for _, c := range deck.Cards {
		fields := strings.Fields(c.Name)
		for i, f := range fields {
			fields[i] = regexp.QuoteMeta(f)
		}
		if fields[0] == "The" && len(fields) > 1 {
			fields[0] = "[Tt]he"
		}
		re := regexp.MustCompile(`\b` + strings.Join(fields, `\s+`) + `\b(,\s*(?i:reversed))?`)
		out = append(out, cardMatcher{name: c.Name, re: re})
	}
	return out
}

type mention struct {
	card     string
	reversed bool
	pos      textrules.Position
	at       int
}

func (e *env) firstMentions(doc textrules.Document) []mention {
	var out []mention
	for _, c := range e.cards {
		for _, pos := range doc.Positions() {
			line := doc.Line(pos)
			if e.lex.protected(line) {
				continue
			}
			ms := textrules.FindAll(c.re, line)
			if len(ms) == 0 {
				continue
			}
			out = append(out, mention{card: c.name, reversed: ms[0].Group(1) != "", pos: pos, at: ms[0].Start})
			break
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.pos != b.pos {
			return a.pos.Para < b.pos.Para || a.pos.Para == b.pos.Para && a.pos.Line < b.pos.Line
		}
		return a.at < b.at
	})
	return out
}

func hasHeader(doc textrules.Document, card string) bool {
	for _, pos := range doc.Positions() {
		plain := strings.TrimSpace(textrules.StripMarkup(doc.Line(pos)))
		if isCardHeader(plain) && (strings.HasPrefix(plain, card+" is here") || strings.HasPrefix(plain, card+" reversed is here")) {
			return true
		}
	}
	return false
}

// introduceCards puts a header line at the top of the paragraph where each
// card is first named. The header carries a reflective question unless one
// was asked within the cooldown.
func introduceCards(text string, e *env) (string, textrules.Fired) {
	fired := textrules.Fired{}
	if !e.canInject() {
		return text, fired
	}
	doc := textrules.Parse(text)
	inserted := make(map[int]int)
	for _, m := range e.firstMentions(doc) {
		if hasHeader(doc, m.card) {
			continue
		}
		header := m.card
		if m.reversed {
			header += " reversed"
		}
		header += cardIntroSuffix

		at := inserted[m.pos.Para]
		offset := lineOffsets(doc)[textrules.Position{Para: m.pos.Para, Line: at}]
		if e.cooldownOK(e.questions(doc), offset) {
			last := e.cursor.Last("card-intro")
			q := e.cursor.NextAvoiding("card-intro", cardIntroQuestions, func(s string) bool { return s == last })
			header += " " + q
		}
		doc.InsertLines(m.pos.Para, at, header)
		inserted[m.pos.Para]++
		fired["card-intro:added"]++
	}
	return doc.String(), fired
}

// insertCheckpoints adds the missing checkpoint questions as their own
// paragraphs at a quarter, half and three quarters of the content.
func insertCheckpoints(text string, e *env) (string, textrules.Fired) {
	fired := textrules.Fired{}
	if !e.canInject() {
		return text, fired
	}
	doc := textrules.Parse(text)
	content := contentParagraphs(doc, e.lex)
	if len(content) < e.tuning.CheckpointMinParagraphs {
		return text, fired
	}
	at := []float64{0.25, 0.5, 0.75}
	for i := len(checkpointQuestions) - 1; i >= 0; i-- {
		q := checkpointQuestions[i]
		if hasLine(doc, q) {
			continue
		}
		after := content[int(float64(len(content))*at[i])]
		doc.InsertParagraph(after+1, q)
		fired["checkpoint:added"]++
	}
	return doc.String(), fired
}

// insertOpener makes the first line a performable opener, never the one
// the cursor handed out last.
func insertOpener(text string, e *env) (string, textrules.Fired) {
	fired := textrules.Fired{}
	doc := textrules.Parse(text)
	if len(doc.Paragraphs) == 0 {
		return text, fired
	}
	first := strings.TrimSpace(textrules.StripMarkup(doc.Paragraphs[0][0]))
	if isOpener(first) {
		e.cursor.SetLast("opener", first)
		return text, fired
	}
	if !e.canInject() {
		return text, fired
	}
	last := e.cursor.Last("opener")
	op := e.cursor.NextAvoiding("opener", openers, func(s string) bool { return s == last })
	doc.InsertLines(0, 0, op)
	fired["opener:added"] = 1
	return doc.String(), fired
}
