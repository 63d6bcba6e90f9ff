package textrules

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)

// Words returns the words of s, ignoring markup.
func Words(s string) []string {
	return wordPattern.FindAllString(StripMarkup(s), -1)
}

// CountWords returns the number of words in s, ignoring markup.
func CountWords(s string) int {
	return len(wordPattern.FindAllStringIndex(StripMarkup(s), -1))
}

// Ratio returns n/d, or 0 when d is zero.
func Ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// AdjustCase capitalises repl when original starts with an upper-case letter.
func AdjustCase(original, repl string) string {
	r, _ := utf8.DecodeRuneInString(original)
	if r == utf8.RuneError || !unicode.IsUpper(r) {
		return repl
	}
	return Capitalize(repl)
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Uncapitalize lower-cases the first rune of s unless the first word is "I"
// or an all-caps token.
func Uncapitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || !unicode.IsUpper(r) {
		return s
	}
	next, _ := utf8.DecodeRuneInString(s[size:])
	if unicode.IsUpper(next) || (r == 'I' && !unicode.IsLetter(next)) {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

const terminalMarks = ".!?…"

// EndsTerminal reports whether s (ignoring trailing markup, quotes and
// space) ends in sentence punctuation.
func EndsTerminal(s string) bool {
	t := trimTail(s)
	if t == "" {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(t)
	return strings.ContainsRune(terminalMarks, r)
}

// EnsureTerminal appends mark unless s already ends with sentence
// punctuation. A trailing comma, semicolon, colon or dash is replaced.
func EnsureTerminal(s, mark string) string {
	t := strings.TrimRight(s, " \t")
	if t == "" || EndsTerminal(t) {
		return t
	}
	t = strings.TrimRight(t, ",;:—–- ")
	return t + mark
}

func trimTail(s string) string {
	t := strings.TrimSpace(StripMarkup(s))
	return strings.TrimRight(t, `"'”’) `)
}

// LastRune returns the final non-space rune of s ignoring markup and closing
// quotes, or 0.
func LastRune(s string) rune {
	t := trimTail(s)
	if t == "" {
		return 0
	}
	r, _ := utf8.DecodeLastRuneInString(t)
	return r
}

// FirstRune returns the first non-space rune of s ignoring markup, or 0.
func FirstRune(s string) rune {
	t := strings.TrimSpace(StripMarkup(s))
	if t == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(t)
	return r
}

// SplitWordsAt cuts line after its k-th word, keeping punctuation attached
// to that word in the head. The tail starts at the next word. ok is false
// when line has k words or fewer.
func SplitWordsAt(line string, k int) (head, tail string, ok bool) {
	if k <= 0 {
		return "", line, false
	}
	locs := wordLocs(line)
	if len(locs) <= k {
		return line, "", false
	}
	cut := locs[k-1][1]
	for cut < len(line) && line[cut] != ' ' && line[cut] != '<' {
		cut++
	}
	head = strings.TrimRight(line[:cut], " ")
	tail = strings.TrimLeft(line[cut:], " ")
	if head == "" || tail == "" {
		return line, "", false
	}
	return head, tail, true
}

// wordLocs returns the byte ranges of the words in s outside markup.
func wordLocs(s string) [][]int {
	locs := wordPattern.FindAllStringIndex(s, -1)
	spans := MarkupSpans(s)
	if len(spans) == 0 {
		return locs
	}
	out := locs[:0]
	for _, l := range locs {
		if !insideMarkup(spans, l[0], l[1]) {
			out = append(out, l)
		}
	}
	return out
}
