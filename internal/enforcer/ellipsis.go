package enforcer

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bradstire/wst-reader/internal/textrules"
)

// ellipsisAnchors are the places a pause can be added without changing the
// meaning of the sentence.
var ellipsisAnchors = []struct {
	name    string
	pattern *regexp.Regexp
	rewrite textrules.Rewriter
}{
	{
		name:    "discourse-marker",
		pattern: regexp.MustCompile(`(^|[.!?]["”’)]?\s+)(But|And|So|Okay|Look),?\s`),
		rewrite: textrules.Template("$1$2… "),
	},
	{
		name:    "reflective",
		pattern: regexp.MustCompile(`\b(I|You|We) (admit|pretend|feel|know)\b`),
		rewrite: textrules.Template("$1… $2"),
	},
	{
		name:    "catch-phrase",
		pattern: regexp.MustCompile(`\b(You knew) (before you said it)\b`),
		rewrite: textrules.Template("$1… $2"),
	},
}

// anchorWords must not open a line the pipeline creates, or a later run
// would find fresh discourse-marker anchors.
var anchorWords = map[string]bool{"but": true, "and": true, "so": true, "okay": true, "look": true}

type anchorEdit struct {
	pos        textrules.Position
	start, end int
	repl       string
}

// fillEllipses adds pauses at anchors until the count reaches the band
// target. Chosen anchors are spread evenly over the candidates.
func fillEllipses(text string, e *env) (string, textrules.Fired) {
	fired := textrules.Fired{}
	text, n := textrules.Replace(text, ellipsisRun, textrules.Literal("…"))
	if n > 0 {
		fired["ellipsis:collapsed"] = n
	}
	need := e.bands.Ellipsis.Target - textrules.Count(ellipsisMark, text)
	if need <= 0 {
		return text, fired
	}

	doc := textrules.Parse(text)
	var cands []anchorEdit
	for _, pos := range doc.Positions() {
		line := doc.Line(pos)
		if e.lex.protected(line) {
			continue
		}
		var inLine []anchorEdit
		for _, a := range ellipsisAnchors {
			for _, m := range textrules.FindAll(a.pattern, line) {
				repl, ok := a.rewrite(m)
				if !ok || repl == m.Text() {
					continue
				}
				inLine = append(inLine, anchorEdit{pos: pos, start: m.Start, end: m.End, repl: repl})
			}
		}
		sort.SliceStable(inLine, func(i, j int) bool { return inLine[i].start < inLine[j].start })
		cands = append(cands, dropOverlaps(inLine)...)
	}
	if len(cands) == 0 {
		return text, fired
	}

	chosen := spread(len(cands), need)
	// Apply from the end so earlier byte offsets stay valid.
	for i := len(chosen) - 1; i >= 0; i-- {
		c := cands[chosen[i]]
		line := doc.Line(c.pos)
		doc.Set(c.pos, line[:c.start]+c.repl+line[c.end:])
		fired["ellipsis:added"]++
	}
	return doc.String(), fired
}

func dropOverlaps(edits []anchorEdit) []anchorEdit {
	var out []anchorEdit
	end := -1
	for _, ed := range edits {
		if ed.start < end {
			continue
		}
		out = append(out, ed)
		end = ed.end
	}
	return out
}

// spread picks k indices out of n, evenly spaced and ascending.
func spread(n, k int) []int {
	if k >= n {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	out := make([]int, 0, k)
	for i := 0; i < k; i++ {
		out = append(out, (2*i+1)*n/(2*k))
	}
	return out
}

// trimEllipses turns the last ellipses of doc back into plain punctuation
// until the count is within the band. Protected lines keep theirs.
func trimEllipses(doc textrules.Document, e *env) int {
	excess := 0
	for _, pos := range doc.Positions() {
		excess += textrules.Count(ellipsisMark, doc.Line(pos))
	}
	excess -= e.bands.Ellipsis.Max
	trimmed := 0
	positions := doc.Positions()
	for i := len(positions) - 1; i >= 0 && excess > 0; i-- {
		pos := positions[i]
		line := doc.Line(pos)
		if e.lex.protected(line) {
			continue
		}
		ms := textrules.FindAll(ellipsisMark, line)
		for j := len(ms) - 1; j >= 0 && excess > 0; j-- {
			line = dropEllipsis(line, ms[j].Start, ms[j].End)
			excess--
			trimmed++
		}
		doc.Set(pos, line)
	}
	return trimmed
}

func dropEllipsis(line string, start, end int) string {
	head := strings.TrimRight(line[:start], " ")
	rest := line[end:]
	next := strings.TrimLeft(rest, " ")
	r, _ := utf8.DecodeRuneInString(next)
	switch {
	case strings.TrimSpace(textrules.StripMarkup(next)) == "":
		return head + "." + rest
	case strings.ContainsRune(".!?,;:", r):
		return head + next
	case unicode.IsUpper(r):
		return head + ". " + next
	default:
		return head + ", " + next
	}
}
