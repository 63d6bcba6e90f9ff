// Package prompt renders the chapter prompts shared by every narrator.
package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/ports"
)

// System is the narrator persona.
const System = `You are ANGELA for White Soul Tarot 2. You read tarot for one zodiac sign at a time, speaking straight to the listener in warm, plain, spoken English.

Rules:
- Write prose only: no headings, lists, stage directions or markdown.
- Never name a card shown as ???. Those cards have not been drawn yet.
- Never predict disasters or give medical, legal or financial advice.`

// Hidden stands in for cards the chapter may not see.
const Hidden = "???"

// Temperature is the sampling temperature every narrator uses.
const Temperature = 0.7

type cardLine struct {
	Position int
	Title    string
	Detail   string
}

type chapterData struct {
	Chapter    int
	Chapters   int
	Sign       domain.Sign
	DateAnchor string
	Cards      []cardLine
	Clarifiers string
	Focus      string
	HasMarker  bool
}

var chapterTmpl = template.Must(template.New("chapter").Parse(`Sign: {{.Sign}}
Date: {{.DateAnchor}}
Chapter {{.Chapter}} of {{.Chapters}}

Spread:
{{range .Cards}}  Card {{.Position}}: {{.Title}}{{if .Detail}} ({{.Detail}}){{end}}
{{end}}Clarifiers: {{.Clarifiers}}

{{.Focus}}
{{- if .HasMarker}}

Before you name a clarifier, write the line "Clarifiers: <names>" on its own. Do not name them before that line.
{{- end}}

Write about 500 words.`))

// Chapter renders the user prompt for in.Chapter. Cards past in.Revealed are
// shown as Hidden.
func Chapter(in ports.ChapterInput) (string, error) {
	if in.Chapter < 1 || in.Chapter > domain.ChapterCount {
		return "", fmt.Errorf("%w: got %d", domain.ErrUnknownChapter, in.Chapter)
	}

	data := chapterData{
		Chapter:    in.Chapter,
		Chapters:   domain.ChapterCount,
		Sign:       in.Sign,
		DateAnchor: in.DateAnchor,
		Clarifiers: "none",
		HasMarker:  len(in.Clarifiers) > 0,
	}
	for i, c := range in.Spread {
		line := cardLine{Position: i + 1, Title: Hidden}
		if i < in.Revealed {
			line.Title = c.Title()
			line.Detail = detail(c)
		}
		data.Cards = append(data.Cards, line)
	}
	if len(in.Clarifiers) > 0 {
		names := make([]string, len(in.Clarifiers))
		for i, c := range in.Clarifiers {
			names[i] = c.Title()
		}
		data.Clarifiers = strings.Join(names, " | ")
	}
	data.Focus = focus(in)

	var b strings.Builder
	if err := chapterTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render chapter %d: %w", in.Chapter, err)
	}
	return b.String(), nil
}

func detail(c domain.DrawnCard) string {
	parts := make([]string, 0, 2)
	if len(c.Keywords) > 0 {
		parts = append(parts, strings.Join(c.Keywords, ", "))
	}
	if c.Short != "" {
		parts = append(parts, c.Short)
	}
	return strings.Join(parts, "; ")
}

func focus(in ports.ChapterInput) string {
	switch {
	case in.Chapter == 1:
		return fmt.Sprintf("Open the reading for %s and reveal Card 1.", in.Sign)
	case in.Chapter <= len(in.Spread):
		return fmt.Sprintf("Reveal Card %d and connect it to the cards already on the table.", in.Chapter)
	default:
		return "Close the reading. Tie all five cards together and end with one invitation to like and subscribe."
	}
}
