package textrules

import "strings"

// Document is text split into paragraphs of lines. Paragraphs are separated
// by one or more blank lines.
type Document struct {
	Paragraphs [][]string
}

// Position addresses one line of a Document.
type Position struct {
	Para, Line int
}

// Parse splits text into paragraphs. Whitespace-only lines separate
// paragraphs and are not kept.
func Parse(text string) Document {
	var doc Document
	var cur []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				doc.Paragraphs = append(doc.Paragraphs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, strings.TrimRight(line, " \t\r"))
	}
	if len(cur) > 0 {
		doc.Paragraphs = append(doc.Paragraphs, cur)
	}
	return doc
}

// String joins lines with newlines and paragraphs with a blank line.
func (d Document) String() string {
	parts := make([]string, 0, len(d.Paragraphs))
	for _, p := range d.Paragraphs {
		if len(p) == 0 {
			continue
		}
		parts = append(parts, strings.Join(p, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out := Document{Paragraphs: make([][]string, len(d.Paragraphs))}
	for i, p := range d.Paragraphs {
		out.Paragraphs[i] = append([]string(nil), p...)
	}
	return out
}

// Positions returns every line position in reading order.
func (d Document) Positions() []Position {
	var out []Position
	for pi, p := range d.Paragraphs {
		for li := range p {
			out = append(out, Position{Para: pi, Line: li})
		}
	}
	return out
}

// Line returns the line at pos.
func (d Document) Line(pos Position) string {
	return d.Paragraphs[pos.Para][pos.Line]
}

// Set replaces the line at pos.
func (d Document) Set(pos Position, line string) {
	d.Paragraphs[pos.Para][pos.Line] = line
}

// LineCount returns the number of lines.
func (d Document) LineCount() int {
	n := 0
	for _, p := range d.Paragraphs {
		n += len(p)
	}
	return n
}

// WordCount returns the number of words in the document.
func (d Document) WordCount() int {
	n := 0
	for _, p := range d.Paragraphs {
		for _, l := range p {
			n += CountWords(l)
		}
	}
	return n
}

// InsertLines inserts lines into paragraph para before index at.
func (d *Document) InsertLines(para, at int, lines ...string) {
	p := d.Paragraphs[para]
	out := make([]string, 0, len(p)+len(lines))
	out = append(out, p[:at]...)
	out = append(out, lines...)
	out = append(out, p[at:]...)
	d.Paragraphs[para] = out
}

// RemoveLine deletes the line at pos and drops the paragraph if it empties.
func (d *Document) RemoveLine(pos Position) {
	p := d.Paragraphs[pos.Para]
	p = append(p[:pos.Line:pos.Line], p[pos.Line+1:]...)
	if len(p) == 0 {
		d.Paragraphs = append(d.Paragraphs[:pos.Para:pos.Para], d.Paragraphs[pos.Para+1:]...)
		return
	}
	d.Paragraphs[pos.Para] = p
}

// InsertParagraph inserts a new paragraph before index at.
func (d *Document) InsertParagraph(at int, lines ...string) {
	out := make([][]string, 0, len(d.Paragraphs)+1)
	out = append(out, d.Paragraphs[:at]...)
	out = append(out, append([]string(nil), lines...))
	out = append(out, d.Paragraphs[at:]...)
	d.Paragraphs = out
}

// ParagraphText joins the lines of paragraph i with newlines.
func (d Document) ParagraphText(i int) string {
	return strings.Join(d.Paragraphs[i], "\n")
}
