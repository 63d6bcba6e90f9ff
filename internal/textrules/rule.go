package textrules

import (
	"regexp"
	"slices"
)

// DefaultMaxIterations bounds Fixpoint when the caller passes zero.
const DefaultMaxIterations = 5

// Rule is one pattern rewrite in an ordered table.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Rewrite Rewriter
	// Priority orders rules inside a table. Higher runs first; equal
	// priorities keep declaration order.
	Priority int
}

// Apply runs the rule once over s.
func (r Rule) Apply(s string) (string, int) {
	return Replace(s, r.Pattern, r.Rewrite)
}

// Fired counts rule applications by rule name.
type Fired map[string]int

// Total sums every count.
func (f Fired) Total() int {
	n := 0
	for _, v := range f {
		n += v
	}
	return n
}

// Add merges other into f.
func (f Fired) Add(other Fired) {
	for k, v := range other {
		f[k] += v
	}
}

// Table is an ordered set of rules.
type Table struct {
	rules []Rule
}

// NewTable sorts rules by priority and returns the table.
func NewTable(rules ...Rule) *Table {
	sorted := slices.Clone(rules)
	slices.SortStableFunc(sorted, func(a, b Rule) int {
		return b.Priority - a.Priority
	})
	return &Table{rules: sorted}
}

// Rules returns the rules in execution order.
func (t *Table) Rules() []Rule {
	return slices.Clone(t.rules)
}

// ApplyOnce runs every rule once in order.
func (t *Table) ApplyOnce(s string) (string, Fired) {
	fired := Fired{}
	for _, r := range t.rules {
		var n int
		s, n = r.Apply(s)
		if n > 0 {
			fired[r.Name] += n
		}
	}
	return s, fired
}

// Fixpoint repeats ApplyOnce until a round changes nothing or maxIter
// rounds have run.
func (t *Table) Fixpoint(s string, maxIter int) (string, Fired) {
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	total := Fired{}
	for range maxIter {
		next, fired := t.ApplyOnce(s)
		if len(fired) == 0 {
			break
		}
		total.Add(fired)
		s = next
	}
	return s, total
}
