package enforcer

import (
	"regexp"
	"strings"

	"github.com/bradstire/wst-reader/internal/textrules"
)

var (
	trackedWord   = regexp.MustCompile(`(?i)\benergy\b`)
	trackedPhrase = regexp.MustCompile(`(?i)\b(?:You knew[^.!?\n]{0,50}(?:before you said it|this already|that already)|Don['’]t lie to yourself)`)
	phraseHead    = regexp.MustCompile(`(?i)\b(?:You knew|Don['’]t lie to yourself)`)
	ellipsisMark  = regexp.MustCompile(`…|\.{3,}`)
	questionMark  = regexp.MustCompile(`\?`)
)

// contextual rewrites for the tracked word, most specific first.
var trackedWordContext = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	{regexp.MustCompile(`(?i)\bin this energy\b`), "in this undertone"},
	{regexp.MustCompile(`(?i)\bwith this energy\b`), "with this vibe"},
	{regexp.MustCompile(`(?i)\bthis energy['’]s\b`), "this presence's"},
	{regexp.MustCompile(`(?i)\bthe energy['’]s\b`), "the current's"},
	{regexp.MustCompile(`(?i)\benergy around you\b`), "tension around you"},
	{regexp.MustCompile(`(?i)\bthis energy\b`), "this presence"},
	{regexp.MustCompile(`(?i)\bthat energy\b`), "that pull"},
	{regexp.MustCompile(`(?i)\bthe energy\b`), "the current"},
	{regexp.MustCompile(`(?i)\bof energy\b`), "of force"},
	{regexp.MustCompile(`(?i)\benergy here\b`), "current here"},
}

var (
	trackedWordSynonyms = []string{"current", "vibe", "presence", "pull", "shift", "undertone", "tone", "force", "moment"}
	zeroingSynonyms     = []string{"current", "presence", "pull", "momentum", "tone"}
)

// softPhrases replace tracked-phrase occurrences past the cap. None of them
// matches trackedPhrase.
var softPhrases = []string{
	"You sensed this",
	"You felt this already",
	"You already clocked this",
	"Some part of you saw it first",
}

var openers = []string{
	"Okay… so here’s what I’m seeing.",
	"Let’s not pretend you didn’t feel that.",
	"Be honest—what changed after that call?",
}

var checkpointQuestions = []string{
	"What did this teach you?",
	"Where's the boundary?",
	"What has to change now?",
}

const cardIntroSuffix = " is here showing you what this moment is about."

var cardIntroQuestions = []string{
	"What shifts when you sit with that?",
	"Where does it land in you?",
	"What does that ask of you now?",
}

var fillQuestions = []string{
	"Is this really yours to carry?",
	"What's the lesson?",
	"Where's the boundary?",
	"What would honesty change here?",
	"What happens if you stop performing?",
}

var airExtraQuestions = []string{
	"Which voice is actually yours?",
	"What would you say if no one could misread it?",
	"Where does the air feel clearest?",
}

// declaratives maps known questions to their demoted form. Each pair sits
// on the same side of the short-line threshold.
var declaratives = map[string]string{
	"Is this really yours to carry?":       "Maybe this isn't yours to carry.",
	"What's the lesson?":                   "There's a lesson in this.",
	"Where's the boundary?":                "There's a boundary to name here.",
	"What would honesty change here?":      "Honesty would change something here.",
	"What happens if you stop performing?": "Something shifts when you stop performing.",
	"What shifts when you sit with that?":  "Something shifts when you sit with that.",
	"Where does it land in you?":           "Notice where it lands in you.",
	"What does that ask of you now?":       "That asks something real of you now.",
	"Which voice is actually yours?":       "One voice is actually yours.",
	"What would you say if no one could misread it?": "Say it like no one could misread it.",
	"Where does the air feel clearest?":               "Notice where the air feels clearest.",
}

var invitations = []string{
	"Let's name it.",
	"Let's pull one more.",
	"Let's be honest about what fell apart.",
	"Let's not overcomplicate this.",
}

// fillers open a paragraph. No ellipsis anchor matches them and
// fillerPrefix recognises each one, including after an ellipsis trim.
var fillers = []string{"Hmm…", "Wait.", "Uh—", "Mm…"}

const revealLead = "Here’s the part you don’t want to say…"

var revealPairs = []string{
	revealLead + " You knew before you said it.",
	revealLead + " Some part of you saw it first.",
}

var airShortBeats = []string{
	"You feel that shift.",
	"Hear the new current.",
	"This pause is loud.",
	"See the open door.",
	"Feel the air change.",
}

var airLongLines = []string{
	"You keep mapping the possibilities, letting every voice in the room echo until one of them finally rings true.",
	"There's a moment where you watch every storyline fan out, deciding which one you can breathe inside without shrinking.",
	"You are still choosing how to speak this, looping the angles so the words land where they can actually move something.",
}

var airConnectives = []string{"Frankly", "Honestly", "Quietly", "Right now"}

var waterAnchor = []string{
	"Here it is—the truth you were trying not to dodge.",
	"Breathe. One beat.",
	"Stay with it and move slowly.",
}

var ctaClosers = []struct {
	from, to string
}{
	{"You already know what to do!", "You already know what to do… right?"},
	{"That's all I've got for now!", "That's all for now… take it in."},
	{"That’s all I’ve got for now!", "That’s all for now… take it in."},
	{"Please like, subscribe, tell your group chat!", "Please like, subscribe, tell your group chat."},
	{"I'll see y'all soon!", "I'll see y'all soon."},
	{"I’ll see y’all soon!", "I’ll see y’all soon."},
}

var ctaPattern = regexp.MustCompile(`(?i)\b(?:like\s*(?:\+|&|and)\s*subscribe|please like, subscribe|you already know what to do|that['’]s all (?:i['’]ve got )?for now|see y['’]all soon)\b`)

var encouragementTags = []string{", you know.", "… trust that.", ", truly."}

var (
	encouragementWords = regexp.MustCompile(`(?i)\b(?:you['’]ve got this|you can|keep going|trust yourself|you['’]re ready|go for it|believe|proud|deserve|you did it|let it in|allow it)\b`)
	warningWords       = regexp.MustCompile(`(?i)\b(?:not|never|no|don['’]t|can['’]t|won['’]t|shouldn['’]t|careful|warning|stop|avoid|beware|danger)\b`)
)

var fillerWords = map[string]bool{
	"okay": true, "ok": true, "yeah": true, "look": true, "listen": true, "so": true,
	"right": true, "honestly": true, "seriously": true, "wait": true, "hmm": true,
	"anyway": true, "see": true, "alright": true, "mm": true, "well": true, "yes": true,
}

// splitStopWords must not end the head of a split line.
var splitStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true, "of": true,
	"to": true, "in": true, "on": true, "with": true, "for": true, "your": true, "my": true,
	"is": true, "are": true, "that": true, "this": true, "at": true, "as": true, "if": true,
	"so": true, "you": true, "it": true, "from": true, "by": true, "be": true, "was": true,
}

// lexicon collects the fixed lines the enforcer inserts, used to recognise
// protected lines and keep passes idempotent.
type lexicon struct {
	fixed map[string]bool
	// appended are the sentences passes attach to existing lines.
	appended []string
}

func newLexicon() *lexicon {
	l := &lexicon{fixed: make(map[string]bool)}
	for _, set := range [][]string{fillQuestions, cardIntroQuestions, airExtraQuestions} {
		for _, q := range set {
			l.appended = append(l.appended, q)
			if d, ok := declaratives[q]; ok {
				l.appended = append(l.appended, d)
			}
		}
	}
	l.appended = append(l.appended, invitations...)
	for _, set := range [][]string{openers, checkpointQuestions, airShortBeats, waterAnchor, airExtraQuestions, revealPairs} {
		for _, s := range set {
			l.fixed[s] = true
		}
	}
	for _, long := range airLongLines {
		l.fixed[long] = true
		for _, c := range airConnectives {
			l.fixed[airLongLine(c, long)] = true
		}
	}
	return l
}

// stripAppended removes the trailing sentences passes attached to line.
func (l *lexicon) stripAppended(line string) string {
	for stripped := true; stripped; {
		stripped = false
		for _, s := range l.appended {
			if strings.HasSuffix(line, " "+s) {
				line = strings.TrimSuffix(line, " "+s)
				stripped = true
				break
			}
		}
	}
	return line
}

func airLongLine(connective, line string) string {
	return connective + ", " + textrules.Uncapitalize(line)
}

// protected lines are never merged, split, demoted or used as anchors.
func (l *lexicon) protected(line string) bool {
	t := strings.TrimSpace(line)
	if t == "" || textrules.IsMarkupOnly(t) {
		return true
	}
	plain := strings.TrimSpace(textrules.StripMarkup(t))
	if l.fixed[plain] {
		return true
	}
	if isCardHeader(plain) {
		return true
	}
	return ctaPattern.MatchString(plain)
}

func (l *lexicon) isModulation(line string) bool {
	plain := strings.TrimSpace(textrules.StripMarkup(line))
	if !l.fixed[plain] {
		return false
	}
	for _, set := range [][]string{openers, checkpointQuestions, revealPairs} {
		for _, s := range set {
			if s == plain {
				return false
			}
		}
	}
	return true
}

func isOpener(line string) bool {
	plain := strings.TrimSpace(textrules.StripMarkup(line))
	for _, o := range openers {
		if plain == o {
			return true
		}
	}
	return false
}

func isCardHeader(line string) bool {
	return strings.Contains(line, cardIntroSuffix)
}
