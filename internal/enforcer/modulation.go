package enforcer

import (
	"strings"

	"github.com/bradstire/wst-reader/internal/textrules"
)

// modulate adds the per-family blocks: air beats per window and the water
// anchor near the end.
func modulate(text string, e *env) (string, textrules.Fired) {
	fired := textrules.Fired{}
	if !e.canInject() {
		return text, fired
	}
	if e.profile.AirModulation {
		var more textrules.Fired
		text, more = airBeats(text, e)
		fired.Add(more)
	}
	if e.profile.WaterAnchor {
		var more textrules.Fired
		text, more = anchorWater(text, e)
		fired.Add(more)
	}
	return text, fired
}

type beatPlan struct {
	para  int
	lines []string
}

// airBeats gives every window of at least half the window size one block
// of a short beat, a reflective long line and, budget permitting, a
// question. Windows are cut by content words so inserted lines do not move
// them.
func airBeats(text string, e *env) (string, textrules.Fired) {
	fired := textrules.Fired{}
	doc := textrules.Parse(text)
	positions := doc.Positions()

	win := make([]int, len(positions))
	words := map[int]int{}
	first := map[int]int{}
	offset, existing := 0, 0
	for i, pos := range positions {
		line := doc.Line(pos)
		if e.lex.isModulation(line) {
			win[i] = -1
			if isAirBeat(line) {
				existing++
			}
			continue
		}
		w := offset / e.tuning.WindowWords
		win[i] = w
		if _, ok := first[w]; !ok {
			first[w] = i
		}
		n := textrules.CountWords(e.lex.stripAppended(strings.TrimSpace(textrules.StripMarkup(line))))
		words[w] += n
		offset += n
	}

	var windows []int
	for w := 0; w <= offset/e.tuning.WindowWords; w++ {
		if words[w] >= e.tuning.WindowWords/2 {
			windows = append(windows, w)
		}
	}
	if existing >= len(windows) {
		return text, fired
	}

	qs := e.questions(doc)
	offsets := lineOffsets(doc)
	used := map[int]bool{}
	var plans []beatPlan
	for _, w := range windows {
		start, end := first[w], windowEnd(first, w, len(positions))
		if hasModulation(win, start, end) {
			continue
		}
		para, ok := e.beatParagraph(doc, positions, win, w, start, end)
		if !ok || used[para] {
			continue
		}
		used[para] = true

		block := []string{
			e.cursor.Next("air-beat", airShortBeats),
			airLongLine(e.cursor.Next("air-connective", airConnectives), e.cursor.Next("air-long", airLongLines)),
		}
		last := textrules.Position{Para: para, Line: len(doc.Paragraphs[para]) - 1}
		at := offsets[last] + textrules.CountWords(doc.Line(last))
		if len(qs) < e.bands.Question.Max && e.cooldownOK(qs, at) {
			current := doc.String()
			q := e.cursor.NextAvoiding("air-question", airExtraQuestions, func(s string) bool {
				return strings.Contains(current, s)
			})
			if !strings.Contains(current, q) {
				block = append(block, q)
				qs = append(qs, question{offset: at})
				fired["modulation:air-question"]++
			}
		}
		plans = append(plans, beatPlan{para: para, lines: block})
		fired["modulation:air-beat"]++
	}

	for i := len(plans) - 1; i >= 0; i-- {
		p := plans[i]
		doc.InsertLines(p.para, len(doc.Paragraphs[p.para]), p.lines...)
	}
	if len(plans) == 0 {
		return text, fired
	}
	return doc.String(), fired
}

// windowEnd is the index of the first line of the next window present.
func windowEnd(first map[int]int, w, n int) int {
	end := n
	for v, i := range first {
		if v > w && i < end {
			end = i
		}
	}
	return end
}

func hasModulation(win []int, start, end int) bool {
	for i := start; i < end; i++ {
		if win[i] == -1 {
			return true
		}
	}
	return false
}

// beatParagraph picks the first paragraph lying wholly inside the window
// with an unprotected line, else the paragraph the window starts in.
func (e *env) beatParagraph(doc textrules.Document, positions []textrules.Position, win []int, w, start, end int) (int, bool) {
	for i := start; i < end; i++ {
		pi := positions[i].Para
		if positions[i].Line != 0 {
			continue
		}
		inside, open := true, false
		for j := i; j < len(positions) && positions[j].Para == pi; j++ {
			if win[j] != w && win[j] != -1 {
				inside = false
				break
			}
			if !e.lex.protected(doc.Line(positions[j])) {
				open = true
			}
		}
		if inside && open {
			return pi, true
		}
	}
	if start < len(positions) {
		return positions[start].Para, true
	}
	return 0, false
}

func isAirBeat(line string) bool {
	plain := strings.TrimSpace(textrules.StripMarkup(line))
	for _, b := range airShortBeats {
		if plain == b {
			return true
		}
	}
	return false
}

// anchorWater inserts the three-line anchor after the content paragraph
// holding the configured fraction of the words.
func anchorWater(text string, e *env) (string, textrules.Fired) {
	doc := textrules.Parse(text)
	if hasLine(doc, waterAnchor[1]) {
		return text, nil
	}
	content := contentParagraphs(doc, e.lex)
	if len(content) == 0 {
		return text, nil
	}
	total := 0
	for _, pi := range content {
		total += textrules.CountWords(doc.ParagraphText(pi))
	}
	target := int(float64(total) * e.tuning.WaterAnchorAt)
	after, seen := content[len(content)-1], 0
	for _, pi := range content {
		seen += textrules.CountWords(doc.ParagraphText(pi))
		if seen >= target {
			after = pi
			break
		}
	}
	doc.InsertParagraph(after+1, waterAnchor...)
	return doc.String(), textrules.Fired{"modulation:water-anchor": 1}
}
