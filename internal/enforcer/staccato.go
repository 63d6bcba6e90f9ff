package enforcer

import (
	"sort"
	"strings"

	"github.com/bradstire/wst-reader/internal/textrules"
)

type staccatoLine struct {
	pos   textrules.Position
	words int
	short bool
}

// window is a run of consecutive lines totalling at most WindowWords
// words. first and last index the measured lines, inclusive.
type window struct {
	first, last int
	lines       int
	short       int
}

func (w window) share() float64 { return textrules.Ratio(w.short, w.lines) }

func (mt meter) staccatoLines(doc textrules.Document) []staccatoLine {
	var out []staccatoLine
	for _, pos := range doc.Positions() {
		line := doc.Line(pos)
		if textrules.IsMarkupOnly(line) {
			continue
		}
		n := textrules.CountWords(line)
		out = append(out, staccatoLine{pos: pos, words: n, short: n <= mt.tuning.ShortLineWords})
	}
	return out
}

// staccato returns the global short-line share and the windows of doc.
func (mt meter) staccato(doc textrules.Document) (float64, []window) {
	lines := mt.staccatoLines(doc)
	short := 0
	for _, l := range lines {
		if l.short {
			short++
		}
	}
	return textrules.Ratio(short, len(lines)), mt.windows(lines)
}

func (mt meter) windows(lines []staccatoLine) []window {
	var out []window
	var cur window
	sum := 0
	for i, l := range lines {
		if cur.lines > 0 && sum+l.words > mt.tuning.WindowWords {
			out = append(out, cur)
			cur, sum = window{}, 0
		}
		if cur.lines == 0 {
			cur.first = i
		}
		cur.last = i
		cur.lines++
		sum += l.words
		if l.short {
			cur.short++
		}
	}
	if cur.lines > 0 {
		out = append(out, cur)
	}
	return out
}

func worstShare(ws []window) float64 {
	worst := 0.0
	for _, w := range ws {
		worst = max(worst, w.share())
	}
	return worst
}

// balanceStaccato moves the short-line share into the family band. Above
// the band it merges short lines into neighbours, worst window first.
// Below it splits long lines into a short head. The share is re-measured
// after every edit.
func balanceStaccato(text string, e *env) (string, textrules.Fired) {
	fired := textrules.Fired{}
	doc := textrules.Parse(text)
	lo, hi := e.profile.StaccatoMin, e.profile.StaccatoMax

	for guard := doc.LineCount(); guard > 0; guard-- {
		share, ws := e.meter.staccato(doc)
		if share <= hi && worstShare(ws) <= hi {
			break
		}
		next, ok := e.mergeOnce(doc, ws, share)
		if !ok {
			break
		}
		doc = next
		fired["staccato:merge"]++
	}

	for guard := doc.LineCount(); guard > 0; guard-- {
		share, ws := e.meter.staccato(doc)
		if share >= lo {
			break
		}
		next, ok := e.splitOnce(doc, worstShare(ws))
		if !ok {
			break
		}
		doc = next
		fired["staccato:split"]++
	}

	if fired.Total() == 0 {
		return text, fired
	}
	return doc.String(), fired
}

type mergeCand struct {
	at     textrules.Position // line that survives
	filler bool
}

// mergeOnce performs the first acceptable merge. Windows are visited from
// the highest share down; inside a window, filler lines fuse first.
func (e *env) mergeOnce(doc textrules.Document, ws []window, share float64) (textrules.Document, bool) {
	lines := e.meter.staccatoLines(doc)
	order := make([]int, 0, len(ws))
	for i, w := range ws {
		if share > e.profile.StaccatoMax || w.share() > e.profile.StaccatoMax {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool { return ws[order[a]].share() > ws[order[b]].share() })

	for _, wi := range order {
		w := ws[wi]
		var cands []mergeCand
		for i := w.first; i <= w.last; i++ {
			l := lines[i]
			if !l.short {
				continue
			}
			filler := isFiller(doc.Line(l.pos))
			cands = append(cands, mergeCand{at: l.pos, filler: filler})
			if l.pos.Line > 0 {
				cands = append(cands, mergeCand{at: textrules.Position{Para: l.pos.Para, Line: l.pos.Line - 1}})
			}
		}
		sort.SliceStable(cands, func(a, b int) bool { return cands[a].filler && !cands[b].filler })
		for _, c := range cands {
			if next, ok := e.tryMerge(doc, c.at); ok {
				return next, true
			}
		}
	}
	return doc, false
}

// tryMerge joins the line at pos with the one after it in the same
// paragraph, if both may be touched and the result keeps the share in band.
func (e *env) tryMerge(doc textrules.Document, pos textrules.Position) (textrules.Document, bool) {
	para := doc.Paragraphs[pos.Para]
	if pos.Line+1 >= len(para) {
		return doc, false
	}
	a, b := para[pos.Line], para[pos.Line+1]
	if e.lex.protected(a) || e.lex.protected(b) || textrules.IsMarkupOnly(a) || textrules.IsMarkupOnly(b) {
		return doc, false
	}
	if textrules.LastRune(a) == '?' {
		return doc, false
	}
	joined := joinLines(a, b)
	if textrules.CountWords(joined) > e.tuning.LongLineWords {
		return doc, false
	}
	next := doc.Clone()
	next.Set(pos, joined)
	next.RemoveLine(textrules.Position{Para: pos.Para, Line: pos.Line + 1})
	if share, _ := e.meter.staccato(next); share < e.profile.StaccatoMin {
		return doc, false
	}
	return next, true
}

// joinLines uses an ellipsis after a pause or before a lower-case
// continuation, otherwise an em dash.
func joinLines(a, b string) string {
	a = strings.TrimRight(a, " ")
	switch r := textrules.LastRune(a); {
	case r == '…':
		return a + " " + b
	case r == ',' || r == ';' || r == ':':
		return strings.TrimRight(a, ",;:") + "… " + b
	case startsLower(b):
		return strings.TrimRight(a, ".") + "… " + b
	default:
		return strings.TrimRight(a, ".!") + " — " + textrules.Uncapitalize(b)
	}
}

func startsLower(s string) bool {
	r := textrules.FirstRune(s)
	return r != 0 && strings.ToLower(string(r)) == string(r) && strings.ToUpper(string(r)) != string(r)
}

func isFiller(line string) bool {
	words := textrules.Words(line)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !fillerWords[strings.ToLower(w)] {
			return false
		}
	}
	return true
}

// splitOnce splits the longest splittable line into a short head and the
// rest, as long as no window ends up worse than allowed.
func (e *env) splitOnce(doc textrules.Document, worst float64) (textrules.Document, bool) {
	lines := e.meter.staccatoLines(doc)
	order := make([]staccatoLine, 0, len(lines))
	for _, l := range lines {
		if l.words >= e.tuning.SplitMinWords && !e.lex.protected(doc.Line(l.pos)) {
			order = append(order, l)
		}
	}
	sort.SliceStable(order, func(a, b int) bool { return order[a].words > order[b].words })

	limit := max(worst, e.profile.StaccatoMax)
	for _, l := range order {
		line := doc.Line(l.pos)
		for k := e.tuning.ShortLineWords; k >= 4; k-- {
			head, tail, ok := textrules.SplitWordsAt(line, k)
			if !ok || !safeCut(head, tail) {
				continue
			}
			next := doc.Clone()
			next.Set(l.pos, textrules.EnsureTerminal(head, "."))
			next.InsertLines(l.pos.Para, l.pos.Line+1, textrules.Capitalize(tail))
			if _, ws := e.meter.staccato(next); worstShare(ws) > limit {
				continue
			}
			return next, true
		}
	}
	return doc, false
}

// safeCut rejects heads ending in a function word and tails opening with a
// discourse marker.
func safeCut(head, tail string) bool {
	hw, tw := textrules.Words(head), textrules.Words(tail)
	if len(hw) == 0 || len(tw) == 0 {
		return false
	}
	if splitStopWords[strings.ToLower(hw[len(hw)-1])] || anchorWords[strings.ToLower(tw[0])] {
		return false
	}
	return !strings.ContainsAny(textrules.StripMarkup(head), ".!?…")
}
