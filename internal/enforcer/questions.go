package enforcer

import (
	"sort"
	"strings"

	"github.com/bradstire/wst-reader/internal/textrules"
)

// question is one "?" in a document.
type question struct {
	pos       textrules.Position
	start     int // byte offset of the sentence in its line
	end       int // byte offset just past the "?"
	offset    int // words before the "?" in the whole document
	protected bool
}

func (e *env) questions(doc textrules.Document) []question {
	offsets := lineOffsets(doc)
	var out []question
	for _, pos := range doc.Positions() {
		line := doc.Line(pos)
		prot := e.lex.protected(line)
		spans := textrules.MarkupSpans(line)
		for _, m := range textrules.FindAll(questionMark, line) {
			out = append(out, question{
				pos:       pos,
				start:     sentenceStart(line, spans, m.Start),
				end:       m.End,
				offset:    offsets[pos] + textrules.CountWords(line[:m.Start]),
				protected: prot,
			})
		}
	}
	return out
}

// sentenceStart walks back from i to just after the previous sentence mark
// outside markup.
func sentenceStart(line string, spans []textrules.Span, i int) int {
	for j := i - 1; j >= 0; {
		if sp, ok := spanAt(spans, j); ok {
			j = sp.Start - 1
			continue
		}
		if strings.ContainsRune(".!?", rune(line[j])) || strings.HasSuffix(line[:j+1], "…") {
			k := j + 1
			for k < i && line[k] == ' ' {
				k++
			}
			return k
		}
		j--
	}
	return 0
}

func spanAt(spans []textrules.Span, i int) (textrules.Span, bool) {
	for _, sp := range spans {
		if i >= sp.Start && i < sp.End {
			return sp, true
		}
	}
	return textrules.Span{}, false
}

// cooldownOK reports whether offset is far enough from every question.
func (e *env) cooldownOK(qs []question, offset int) bool {
	return nearestQuestion(qs, offset) >= e.profile.QuestionCooldownWords
}

func nearestQuestion(qs []question, offset int) int {
	best := int(^uint(0) >> 1)
	for _, q := range qs {
		d := q.offset - offset
		if d < 0 {
			d = -d
		}
		best = min(best, d)
	}
	return best
}

// injectQuestions appends fill questions until the count reaches the band
// target. Each goes to the eligible paragraph farthest from any question,
// and no question follows itself.
func injectQuestions(text string, e *env) (string, textrules.Fired) {
	fired := textrules.Fired{}
	if !e.canInject() {
		return text, fired
	}
	doc := textrules.Parse(text)
	for {
		qs := e.questions(doc)
		if len(qs) >= e.bands.Question.Target {
			break
		}
		pos, ok := e.fillSlot(doc, qs)
		if !ok {
			break
		}
		last := e.cursor.Last("fill-question")
		q := e.cursor.NextAvoiding("fill-question", fillQuestions, func(s string) bool { return s == last })
		doc.Set(pos, textrules.EnsureTerminal(doc.Line(pos), ".")+" "+q)
		fired["question:added"]++
	}
	return doc.String(), fired
}

// fillSlot picks the last line of the content paragraph that has no
// question, respects the cooldown, and lies farthest from existing ones.
func (e *env) fillSlot(doc textrules.Document, qs []question) (textrules.Position, bool) {
	offsets := lineOffsets(doc)
	asked := make(map[int]bool)
	for _, q := range qs {
		asked[q.pos.Para] = true
	}
	var best textrules.Position
	bestDist, found := -1, false
	for _, pi := range contentParagraphs(doc, e.lex) {
		if asked[pi] {
			continue
		}
		pos := textrules.Position{Para: pi, Line: len(doc.Paragraphs[pi]) - 1}
		line := doc.Line(pos)
		if e.lex.protected(line) {
			continue
		}
		end := offsets[pos] + textrules.CountWords(line)
		if !e.cooldownOK(qs, end) {
			continue
		}
		if d := nearestQuestion(qs, end); d > bestDist {
			best, bestDist, found = pos, d, true
		}
	}
	return best, found
}

// trimQuestions demotes questions to statements while the count is above
// the band. Cooldown violators go first, then questions sharing a
// paragraph, then the rest; later questions before earlier ones.
func trimQuestions(text string, e *env) (string, textrules.Fired) {
	fired := textrules.Fired{}
	doc := textrules.Parse(text)
	for guard := textrules.Count(questionMark, text); guard > 0; guard-- {
		qs := e.questions(doc)
		if len(qs) <= e.bands.Question.Max {
			break
		}
		q, ok := e.demotable(qs)
		if !ok {
			break
		}
		line := doc.Line(q.pos)
		doc.Set(q.pos, line[:q.start]+demote(line[q.start:q.end])+line[q.end:])
		fired["question:demoted"]++
	}
	return doc.String(), fired
}

func (e *env) demotable(qs []question) (question, bool) {
	perPara := make(map[int]int)
	for _, q := range qs {
		perPara[q.pos.Para]++
	}
	tier := func(i int) int {
		q := qs[i]
		switch {
		case i > 0 && q.offset-qs[i-1].offset < e.profile.QuestionCooldownWords:
			return 0
		case perPara[q.pos.Para] > 1:
			return 1
		}
		return 2
	}
	var idx []int
	for i, q := range qs {
		if !q.protected {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return question{}, false
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ta, tb := tier(idx[a]), tier(idx[b])
		if ta != tb {
			return ta < tb
		}
		return idx[a] > idx[b]
	})
	return qs[idx[0]], true
}

// demote rewrites one question sentence as a statement.
func demote(sentence string) string {
	lead := sentence[:len(sentence)-len(strings.TrimLeft(sentence, " "))]
	if d, ok := declaratives[strings.TrimSpace(sentence)]; ok {
		return lead + d
	}
	return strings.TrimSuffix(sentence, "?") + "."
}
