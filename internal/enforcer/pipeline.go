package enforcer

import (
	"regexp"

	"github.com/bradstire/wst-reader/internal/textrules"
)

// pass is one pure rewrite of the document.
type pass func(text string, e *env) (string, textrules.Fired)

type capKind int

const (
	capWord capKind = iota
	capPhrase
)

func (k capKind) String() string {
	if k == capPhrase {
		return "tracked-phrase"
	}
	return "tracked-word"
}

func (k capKind) enforce(text string, e *env) (string, textrules.Fired) {
	if k == capPhrase {
		return capTrackedPhrase(text, e)
	}
	return capTrackedWord(text, e)
}

// stage is a pass plus the caps re-verified after it.
type stage struct {
	name     string
	run      pass
	reassert []capKind
}

// pipeline is the execution order. Exclamations, long lines and the
// modulation inserts run before the staccato balance so it measures the
// final line structure.
func pipeline() []stage {
	word := []capKind{capWord}
	both := []capKind{capWord, capPhrase}
	return []stage{
		{name: "normalize", run: normalizePass},
		{name: "tracked-word", run: capTrackedWord},
		{name: "tracked-phrase", run: capTrackedPhrase},
		{name: "fragments", run: repairFragments, reassert: word},
		{name: "pivots", run: reflectPivots},
		{name: "card-introductions", run: introduceCards, reassert: both},
		{name: "reveal", run: revealCadence, reassert: both},
		{name: "fillers", run: addFillers},
		{name: "ellipsis", run: fillEllipses},
		{name: "checkpoints", run: insertCheckpoints},
		{name: "opener", run: insertOpener},
		{name: "exclamations", run: softenExclamations},
		{name: "long-lines", run: splitLongLines, reassert: word},
		{name: "modulation", run: modulate, reassert: both},
		{name: "invitations", run: inviteReader},
		{name: "question-fill", run: injectQuestions},
		{name: "zeroing", run: zeroTrackedWord},
		{name: "staccato", run: balanceStaccato, reassert: both},
		{name: "question-trim", run: trimQuestions, reassert: word},
		{name: "finalize", run: finalize, reassert: both},
	}
}

var (
	dotRun      = regexp.MustCompile(`\.{3,}`)
	ellipsisRun = regexp.MustCompile(`…(?:[ \t]*…)+`)
	spaceRun    = regexp.MustCompile(`[ \t]{2,}`)
	spacedComma = regexp.MustCompile(`[ \t]+([,;:])`)
)

func normalizePass(text string, _ *env) (string, textrules.Fired) {
	fired := textrules.Fired{}
	out := textrules.Normalize(text)
	if out != text {
		fired["normalize:whitespace"] = 1
	}
	out, n := textrules.Replace(out, dotRun, textrules.Literal("…"))
	if n > 0 {
		fired["normalize:ellipsis"] = n
	}
	return out, fired
}

// finalize tidies what the earlier passes leave behind and trims ellipses
// back into the band.
func finalize(text string, e *env) (string, textrules.Fired) {
	fired := textrules.Fired{}
	out, n := textrules.Replace(text, ellipsisRun, textrules.Literal("…"))
	if n > 0 {
		fired["finalize:ellipsis-run"] = n
	}
	doc := textrules.Parse(out)
	if n := trimEllipses(doc, e); n > 0 {
		fired["ellipsis:trimmed"] = n
	}
	out = doc.String()
	out, n = textrules.Replace(out, spaceRun, textrules.Literal(" "))
	if n > 0 {
		fired["finalize:spaces"] = n
	}
	out, n = textrules.Replace(out, spacedComma, textrules.Template("$1"))
	if n > 0 {
		fired["finalize:comma-spacing"] = n
	}
	return out, fired
}
