package enforcer

import (
	"strings"

	"github.com/bradstire/wst-reader/internal/textrules"
)

// splitLongLines breaks unpunctuated lines above the long-line threshold.
// The head always closes with an ellipsis and the tail carries on in the
// same case, so no new sentence opens. The tail ends in a full stop unless
// it already carries a terminal mark.
func splitLongLines(text string, e *env) (string, textrules.Fired) {
	fired := textrules.Fired{}
	doc := textrules.Parse(text)
	for pi, para := range doc.Paragraphs {
		out := make([]string, 0, len(para))
		for _, line := range para {
			parts := e.splitLong(line)
			fired["long-line:split"] += len(parts) - 1
			out = append(out, parts...)
		}
		doc.Paragraphs[pi] = out
	}
	if fired["long-line:split"] == 0 {
		return text, textrules.Fired{}
	}
	return doc.String(), fired
}

func (e *env) splitLong(line string) []string {
	if e.lex.protected(line) || textrules.CountWords(line) <= e.tuning.LongLineWords || hasInnerStop(line) {
		return []string{line}
	}
	head, tail, ok := cutLong(line)
	if !ok {
		return []string{line}
	}
	return append(e.splitLong(head), e.splitLong(tail)...)
}

// hasInnerStop reports sentence punctuation before the line's final mark.
func hasInnerStop(line string) bool {
	t := strings.TrimRight(strings.TrimSpace(textrules.StripMarkup(line)), `.!?…"'”’) `)
	return strings.ContainsAny(t, ".;:!?")
}

// cutLong prefers a coordinating comma, then a dash or ellipsis, then the
// middle word. Each candidate must leave two words on both sides.
func cutLong(line string) (head, tail string, ok bool) {
	words := textrules.CountWords(line)
	half := words / 2
	if h, t, ok := cutAtNearest(line, []string{", and ", ", but "}, half, true); ok {
		return h, t, true
	}
	if h, t, ok := cutAtNearest(line, []string{" — ", "—", "… ", "…"}, half, false); ok {
		return h, t, true
	}
	h, t, ok := textrules.SplitWordsAt(line, half)
	if !ok {
		return "", "", false
	}
	return closeHead(h), closeTail(t), true
}

// cutAtNearest splits at the separator occurrence closest to the word
// midpoint rather than the leftmost one, so neither half is left long. With keepWord the conjunction after the comma opens the tail.
func cutAtNearest(line string, seps []string, half int, keepWord bool) (string, string, bool) {
	bestAt, bestLen, bestDist := -1, 0, 0
	spans := textrules.MarkupSpans(line)
	for _, sep := range seps {
		for from := 0; ; {
			i := strings.Index(line[from:], sep)
			if i < 0 {
				break
			}
			i += from
			from = i + len(sep)
			if _, in := spanAt(spans, i); in {
				continue
			}
			before := textrules.CountWords(line[:i])
			if before < 2 || textrules.CountWords(line[i+len(sep):]) < 2 {
				continue
			}
			d := before - half
			if d < 0 {
				d = -d
			}
			if bestAt < 0 || d < bestDist {
				bestAt, bestLen, bestDist = i, len(sep), d
			}
		}
	}
	if bestAt < 0 {
		return "", "", false
	}
	rest := line[bestAt+bestLen:]
	if keepWord {
		rest = line[bestAt+1:]
	}
	return closeHead(line[:bestAt]), closeTail(strings.TrimLeft(rest, " ")), true
}

func closeHead(h string) string {
	return strings.TrimRight(h, ",;:—–- ") + "…"
}

func closeTail(t string) string {
	return textrules.EnsureTerminal(t, ".")
}
