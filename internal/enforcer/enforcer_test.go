package enforcer_test

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/enforcer"
	"github.com/bradstire/wst-reader/internal/textrules"
)

var bank = []string{
	"You have been carrying this for a long time and it shows.",
	"Something in the way you move lately tells me you are tired.",
	"So you keep checking the door to see who is still waiting.",
	"I know the quiet feels heavy but it is making room now.",
	"Your patience is turning into something sharper than it was last spring.",
	"People around you are starting to notice the change in your voice.",
}

const energyLine = "The energy you have been carrying is asking to be released now."

// reading builds a document of n twelve-word lines in paragraphs of four,
// with tracked lines spread evenly.
func reading(n, tracked int) string {
	every := 0
	if tracked > 0 {
		every = n / tracked
	}
	var b strings.Builder
	placed := 0
	for i := 0; i < n; i++ {
		if i > 0 {
			if i%4 == 0 {
				b.WriteString("\n\n")
			} else {
				b.WriteString("\n")
			}
		}
		if every > 0 && i%every == 0 && placed < tracked {
			b.WriteString(energyLine)
			placed++
			continue
		}
		b.WriteString(bank[i%len(bank)])
	}
	return b.String()
}

var visibleEnergy = regexp.MustCompile(`(?i)\benergy\b`)

func TestEmptyInput(t *testing.T) {
	en := enforcer.Default()
	for _, in := range []string{"", "   ", "\n\n\t\n"} {
		res := en.Enforce(in, "leo", nil)
		assert.Empty(t, res.Text)
		assert.Zero(t, res.Metrics.After.Words)
		assert.Zero(t, res.Metrics.After.StaccatoShare)
		assert.Empty(t, res.Metrics.Applied)
	}
}

func TestScenarioTrackedWordCap(t *testing.T) {
	text := reading(167, 40)
	require.GreaterOrEqual(t, textrules.CountWords(text), 2000)

	res := enforcer.Default().Enforce(text, "", nil)

	assert.Equal(t, 40, res.Metrics.Before.TrackedWord)
	assert.LessOrEqual(t, res.Metrics.After.TrackedWord, 10)
	assert.LessOrEqual(t, len(visibleEnergy.FindAllString(res.Text, -1)), 10)
	assert.Contains(t, res.Metrics.Applied, "tracked-word")
}

func TestScenarioDensityBands(t *testing.T) {
	res := enforcer.Default().Enforce(reading(167, 40), "", nil)
	m := res.Metrics

	assert.True(t, m.Bands.Question.Contains(m.After.Questions), "questions %d not in %+v", m.After.Questions, m.Bands.Question)
	assert.True(t, m.Bands.Ellipsis.Contains(m.After.Ellipses), "ellipses %d not in %+v", m.After.Ellipses, m.Bands.Ellipsis)

	doc := textrules.Parse(res.Text)
	assert.Equal(t, "Okay… so here’s what I’m seeing.", doc.Paragraphs[0][0])
	for _, q := range []string{"What did this teach you?", "Where's the boundary?", "What has to change now?"} {
		assert.Contains(t, res.Text, "\n\n"+q+"\n\n")
	}
}

func TestScenarioTrackedPhraseCap(t *testing.T) {
	line := "You knew this already, and the whole room felt it."
	text := strings.TrimSpace(strings.Repeat(line+"\n", 6))

	res := enforcer.Default().Enforce(text, "", nil)

	lines := strings.Split(res.Text, "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, []string{line, line, line}, lines[:3])
	for _, l := range lines[3:] {
		assert.NotEqual(t, line, l)
	}
	assert.Equal(t, 6, res.Metrics.Before.TrackedPhrase)
	assert.Equal(t, 3, res.Metrics.After.TrackedPhrase)
}

func TestScenarioCapricornZeroesTrackedWord(t *testing.T) {
	text := "The energy here is heavy.\nSit with this energy for a while.\nLet the energy move."

	res := enforcer.Default().Enforce(text, "capricorn", nil)

	assert.Equal(t, domain.Capricorn, res.Metrics.Sign)
	assert.Equal(t, 3, res.Metrics.Before.TrackedWord)
	assert.Zero(t, res.Metrics.After.TrackedWord)
	assert.Empty(t, visibleEnergy.FindAllString(res.Text, -1))
	assert.Zero(t, res.Metrics.Bands.TrackedWordCap)
}

func TestCapsHoldForEverySign(t *testing.T) {
	en := enforcer.Default()
	text := reading(100, 30) + "\n\nDon't lie to yourself. Don't lie to yourself. Don't lie to yourself. Don't lie to yourself. Don't lie to yourself."
	for _, sign := range domain.Signs() {
		t.Run(string(sign), func(t *testing.T) {
			res := en.Enforce(text, string(sign), nil)
			p := en.Tuning().Profiles.For(string(sign))
			assert.LessOrEqual(t, res.Metrics.After.TrackedWord, p.EffectiveWordCap())
			assert.LessOrEqual(t, res.Metrics.After.TrackedPhrase, p.TrackedPhraseCap)
			assert.Equal(t, sign.Family(), res.Metrics.Family)
		})
	}
}

func TestUnknownSignUsesDefaultProfile(t *testing.T) {
	res := enforcer.Default().Enforce("Plain words.", "ophiuchus", nil)
	assert.Empty(t, res.Metrics.Sign)
	assert.Equal(t, domain.DefaultProfile().TrackedWordCap, res.Metrics.Bands.TrackedWordCap)
}

const smallText = "The energy is loud today!\nThere saying you should rest, but you keep going anyway.\n\nSo you wait. You know it already."

func TestSmallTextCorrections(t *testing.T) {
	res := enforcer.Default().Enforce(smallText, "", nil)

	want := "The energy is loud today.\nIt's saying you should rest, but you keep going anyway.\n\nSo you wait. You… know it already."
	assert.Equal(t, want, res.Text)
	assert.Equal(t, 1, res.Metrics.FragmentFixes)
	assert.Equal(t, []string{"fragments", "ellipsis", "exclamations"}, res.Metrics.Applied)
}

func TestIdempotent(t *testing.T) {
	en := enforcer.Default()
	first := en.Enforce(smallText, "", nil)
	second := en.Enforce(first.Text, "", nil)

	if diff := cmp.Diff(first.Text, second.Text); diff != "" {
		t.Fatalf("second run changed the text (-first +second):\n%s", diff)
	}
	assert.Empty(t, second.Metrics.Applied)
}

func TestIdempotentForEverySign(t *testing.T) {
	en := enforcer.Default()
	text := reading(60, 12)
	require.GreaterOrEqual(t, textrules.CountWords(text), 500)

	for _, sign := range domain.Signs() {
		t.Run(string(sign), func(t *testing.T) {
			first := en.Enforce(text, string(sign), nil)
			second := en.Enforce(first.Text, string(sign), nil)

			if diff := cmp.Diff(first.Text, second.Text); diff != "" {
				t.Fatalf("second run changed the text (-first +second):\n%s", diff)
			}
			assert.Empty(t, second.Metrics.Applied)
			assert.Equal(t, first.Metrics.Bands, second.Metrics.Bands)
			for _, m := range []enforcer.Metrics{first.Metrics, second.Metrics} {
				assert.True(t, m.Bands.Question.Contains(m.After.Questions), "questions %d not in %+v", m.After.Questions, m.Bands.Question)
				assert.True(t, m.Bands.Ellipsis.Contains(m.After.Ellipses), "ellipses %d not in %+v", m.After.Ellipses, m.Bands.Ellipsis)
			}
		})
	}
}

func TestTexturePassesApplied(t *testing.T) {
	res := enforcer.Default().Enforce(reading(60, 12), "", nil)
	m := res.Metrics

	assert.Equal(t, 1, m.Reveals)
	assert.Positive(t, m.Invitations)
	assert.Contains(t, res.Text, "Here’s the part you don’t want to say…")
	assert.LessOrEqual(t, m.After.TrackedPhrase, m.Bands.TrackedPhraseCap)
}

func TestScenarioNestedTrackedPhrase(t *testing.T) {
	kept := "You knew this already, and it showed."
	text := strings.Repeat(kept+"\n", 3) + "You knew—You knew—You knew—You knew—You knew—You knew this already."

	res := enforcer.Default().Enforce(text, "", nil)

	assert.Equal(t, 4, res.Metrics.Before.TrackedPhrase)
	assert.Equal(t, 3, res.Metrics.After.TrackedPhrase)
	assert.Empty(t, res.Metrics.Warnings)
}

func TestMarkupPreserved(t *testing.T) {
	tag := `<voice name="energy" />`
	brk := `<break time="1.5s" />`
	var b strings.Builder
	b.WriteString(tag + "\n")
	for i := 0; i < 12; i++ {
		b.WriteString("This energy lingers " + brk + " in the room.\n")
	}
	b.WriteString(brk)

	res := enforcer.Default().Enforce(b.String(), "", nil)

	assert.Equal(t, 1, strings.Count(res.Text, tag))
	assert.Equal(t, 13, strings.Count(res.Text, brk))
	assert.Equal(t, 12, res.Metrics.Before.TrackedWord)
	assert.LessOrEqual(t, res.Metrics.After.TrackedWord, 10)
	assert.True(t, strings.HasSuffix(res.Text, brk))
}

func TestCursorRotatesOpenerAcrossDocuments(t *testing.T) {
	en := enforcer.Default()
	cursor := textrules.NewCursor()

	a := en.Enforce(reading(40, 0), "", cursor)
	b := en.Enforce(reading(40, 0), "", cursor)

	first := textrules.Parse(a.Text).Paragraphs[0][0]
	second := textrules.Parse(b.Text).Paragraphs[0][0]
	assert.NotEqual(t, first, second)

	// Independent cursors give independent documents the same output.
	c := en.Enforce(reading(40, 0), "", nil)
	assert.Equal(t, a.Text, c.Text)
}

func TestStagesOrder(t *testing.T) {
	var names []string
	for _, s := range enforcer.Default().Stages() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"normalize", "tracked-word", "tracked-phrase", "fragments", "pivots", "card-introductions",
		"reveal", "fillers", "ellipsis", "checkpoints", "opener", "exclamations", "long-lines",
		"modulation", "invitations", "question-fill", "zeroing", "staccato", "question-trim", "finalize",
	}, names)
}

func TestTuningValidate(t *testing.T) {
	require.NoError(t, enforcer.DefaultTuning().Validate())

	bad := enforcer.DefaultTuning()
	bad.ShortLineWords = 0
	bad.QuestionThrottle = 2
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "short_line_words")
	assert.Contains(t, err.Error(), "question_throttle")

	_, err = enforcer.New(bad)
	assert.Error(t, err)
}

func TestOffendingLines(t *testing.T) {
	word, phrase := enforcer.OffendingLines("Plain.\nThe energy moves.\nDon't lie to yourself.\n<voice name=\"energy\" />")
	assert.Equal(t, []string{"[L2] The energy moves."}, word)
	assert.Equal(t, []string{"[L3] Don't lie to yourself."}, phrase)
}

func TestLogBreaches(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	res := enforcer.Result{
		Text: "Calm line.\nThe energy moves.",
		Metrics: enforcer.Metrics{
			After: enforcer.Counts{TrackedWord: 12, TrackedPhrase: 1},
			Bands: enforcer.Bands{TrackedWordCap: 10, TrackedPhraseCap: 3},
		},
	}

	require.True(t, res.Breached())
	assert.True(t, res.LogBreaches(context.Background(), logger))
	assert.Contains(t, buf.String(), "tracked word above cap")
	assert.Contains(t, buf.String(), "[L2] The energy moves.")
	assert.NotContains(t, buf.String(), "tracked phrase above cap")

	buf.Reset()
	res.Metrics.After.TrackedWord = 10
	assert.False(t, res.LogBreaches(context.Background(), logger))
	assert.Empty(t, buf.String())
}
