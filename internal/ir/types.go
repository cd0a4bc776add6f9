package ir

import (
	"sort"
	"strings"
)

// CharSet is an unordered set of characters.
//
// Used for the constant alphabet, the variable alphabet and the axiom
// alphabet of a Post system.
type CharSet map[rune]struct{}

// NewCharSet builds a set from the given characters.
func NewCharSet(chars ...rune) CharSet {
	s := make(CharSet, len(chars))
	for _, ch := range chars {
		s[ch] = struct{}{}
	}
	return s
}

// CharSetOf builds a set from every character of s.
func CharSetOf(s string) CharSet {
	return NewCharSet([]rune(s)...)
}

// Has reports whether ch is a member of the set.
func (s CharSet) Has(ch rune) bool {
	_, ok := s[ch]
	return ok
}

// Sorted returns the members in ascending code point order.
func (s CharSet) Sorted() []rune {
	out := make([]rune, 0, len(s))
	for ch := range s {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// String renders the members in sorted order, e.g. "#1".
func (s CharSet) String() string {
	return string(s.Sorted())
}

// Clone returns an independent copy. A nil set clones to an empty set.
func (s CharSet) Clone() CharSet {
	out := make(CharSet, len(s))
	for ch := range s {
		out[ch] = struct{}{}
	}
	return out
}

// RuleArrow separates pattern and replacement in the textual rule form.
const RuleArrow = "->"

// Rule is one production: wherever Pattern matches, the matched span is
// replaced by Replacement with variables substituted.
type Rule struct {
	Pattern     string `json:"pattern" yaml:"pattern" toml:"pattern"`
	Replacement string `json:"replacement" yaml:"replacement" toml:"replacement"`
}

// String returns the display form "pattern -> replacement" used in traces.
func (r Rule) String() string {
	return r.Pattern + " " + RuleArrow + " " + r.Replacement
}

// RuleSet is an ordered rule list. Index order is priority order.
type RuleSet []Rule

// Clone returns a copy that shares no backing array with rs.
func (rs RuleSet) Clone() RuleSet {
	if rs == nil {
		return nil
	}
	out := make(RuleSet, len(rs))
	copy(out, rs)
	return out
}

// Definition is a complete Post system: the three alphabets, the ordered
// rules and the initial working string.
//
// A Definition is built once and treated as read-only afterwards. The
// engine takes its own copy on construction.
type Definition struct {
	Alphabet  CharSet
	Variables CharSet
	Axioms    CharSet
	Rules     RuleSet
	Initial   string
}

// Clone returns a deep copy of the definition.
func (d *Definition) Clone() *Definition {
	return &Definition{
		Alphabet:  d.Alphabet.Clone(),
		Variables: d.Variables.Clone(),
		Axioms:    d.Axioms.Clone(),
		Rules:     d.Rules.Clone(),
		Initial:   d.Initial,
	}
}

// ForeignChars returns the characters of s that are not in the alphabet,
// in order of first appearance.
func (d *Definition) ForeignChars(s string) []rune {
	var out []rune
	seen := make(map[rune]bool)
	for _, ch := range s {
		if !d.Alphabet.Has(ch) && !seen[ch] {
			seen[ch] = true
			out = append(out, ch)
		}
	}
	return out
}

// TraceRecord is one successful rule application.
//
// Start and End are rune offsets of the matched span within Before.
type TraceRecord struct {
	Seq       int64  `json:"seq"`
	Before    string `json:"before"`
	Rule      string `json:"rule"`
	RuleIndex int    `json:"rule_index"`
	After     string `json:"after"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
}

// SpanExact reports whether every character of Before outside the matched
// span survives unchanged in After.
func (t TraceRecord) SpanExact() bool {
	before := []rune(t.Before)
	after := []rune(t.After)
	if t.Start < 0 || t.End > len(before) || t.Start > t.End {
		return false
	}
	suffix := len(before) - t.End
	if t.Start+suffix > len(after) {
		return false
	}
	return string(before[:t.Start]) == string(after[:t.Start]) &&
		string(before[t.End:]) == string(after[len(after)-suffix:])
}

// ParseRule splits the textual form "pattern->replacement".
//
// The split happens at the last arrow that leaves a non-empty replacement,
// so a pattern may itself contain "->". Whitespace is significant.
// Returns false if no such arrow exists or the pattern would be empty.
func ParseRule(s string) (Rule, bool) {
	for i := strings.LastIndex(s, RuleArrow); i > 0; i = strings.LastIndex(s[:i], RuleArrow) {
		if i+len(RuleArrow) < len(s) {
			return Rule{Pattern: s[:i], Replacement: s[i+len(RuleArrow):]}, true
		}
	}
	return Rule{}, false
}
