package textrules

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	trailingSpace  = regexp.MustCompile(`(?m)[ \t]+$`)
	excessNewlines = regexp.MustCompile(`\n{3,}`)

	chapterHeaderLine = regexp.MustCompile(`(?m)^\[CH\d{2}\][^\n]*\n?`)
	rulerLine         = regexp.MustCompile(`(?m)^[ \t—-]{3,}$`)
	bracketLogLine    = regexp.MustCompile(`(?m)^\[[^\]\n]+\](?:[ \t]+\[[^\]\n]+\])*[ \t].*$`)
	breakTag          = regexp.MustCompile(`<break\s+time=['"][^'"]+['"]\s*/>`)
)

// Normalize converts s to NFC, unifies line endings, strips trailing
// whitespace and collapses runs of blank lines.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = trailingSpace.ReplaceAllString(s, "")
	s = excessNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// SanitizeOptions tunes Sanitize.
type SanitizeOptions struct {
	// StripBreaks removes <break time="…" /> annotations.
	StripBreaks bool
}

// Sanitize removes production scaffolding from stitched chapter output:
// [CHnn] header lines, ruler lines and bracketed log lines.
func Sanitize(s string, opts SanitizeOptions) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = chapterHeaderLine.ReplaceAllString(s, "")
	s = rulerLine.ReplaceAllString(s, "")
	s = bracketLogLine.ReplaceAllString(s, "")
	if opts.StripBreaks {
		s = breakTag.ReplaceAllString(s, "")
	}
	s = excessNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
