package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/postsys/internal/ir"
)

// opKind is the instruction type of a compiled pattern.
type opKind uint8

const (
	opLiteral opKind = iota // match one character exactly
	opBind                  // first occurrence of a variable: bind a maximal axiom run
	opBackref               // later occurrence: must equal the bound text
)

type op struct {
	kind opKind
	ch   rune // literal character, or the variable for opBind/opBackref
	slot int  // binding slot for opBind/opBackref
}

// Compiler turns pattern templates into matchers for one alphabet,
// variable set and axiom set. The sets are read only.
type Compiler struct {
	alphabet  ir.CharSet
	variables ir.CharSet
	axioms    ir.CharSet
}

// New creates a compiler over the given alphabets.
func New(alphabet, variables, axioms ir.CharSet) *Compiler {
	return &Compiler{alphabet: alphabet, variables: variables, axioms: axioms}
}

// Matcher is a compiled pattern.
//
// A Matcher holds no match state. Each Find call gets its own binding
// table, so no binding ever leaks from one attempt into the next.
type Matcher struct {
	pattern   string
	ops       []op
	slots     []rune       // slot -> variable
	slotOf    map[rune]int // variable -> slot
	variables ir.CharSet
	axioms    ir.CharSet
}

// Compile builds a matcher for pattern. Returns the first ValidationError
// found if the pattern is malformed.
func (c *Compiler) Compile(pattern string) (*Matcher, error) {
	m, errs := c.check(pattern)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return m, nil
}

// check compiles pattern and collects every problem with it.
// The returned matcher is usable for replacement checks even when errs
// is non-empty, but must not be used for matching.
func (c *Compiler) check(pattern string) (*Matcher, []ValidationError) {
	m := &Matcher{
		pattern:   pattern,
		slotOf:    make(map[rune]int),
		variables: c.variables,
		axioms:    c.axioms,
	}
	var errs []ValidationError

	if pattern == "" {
		errs = append(errs, ValidationError{
			Field:   "pattern",
			Message: "pattern must be non-empty",
			Code:    ErrEmptyPattern,
			Rule:    -1,
		})
		return m, errs
	}

	usesVariables := false
	for i, ch := range []rune(pattern) {
		col := i + 1

		if c.variables.Has(ch) {
			usesVariables = true
			if slot, seen := m.slotOf[ch]; seen {
				m.ops = append(m.ops, op{kind: opBackref, ch: ch, slot: slot})
			} else {
				slot = len(m.slots)
				m.slotOf[ch] = slot
				m.slots = append(m.slots, ch)
				m.ops = append(m.ops, op{kind: opBind, ch: ch, slot: slot})
			}
		} else if c.alphabet.Has(ch) {
			m.ops = append(m.ops, op{kind: opLiteral, ch: ch})
		} else {
			errs = append(errs, ValidationError{
				Field:   "pattern",
				Message: fmt.Sprintf("character %q is neither in the alphabet nor a variable", ch),
				Code:    ErrUnknownCharacter,
				Rule:    -1,
				Column:  col,
			})
			continue
		}

		if len(m.ops) < 2 {
			continue
		}
		prev, cur := m.ops[len(m.ops)-2], m.ops[len(m.ops)-1]
		switch {
		case prev.kind != opLiteral && cur.kind != opLiteral:
			errs = append(errs, ValidationError{
				Field:   "pattern",
				Message: fmt.Sprintf("variables %q and %q are adjacent; the split between their runs is undefined", prev.ch, cur.ch),
				Code:    ErrAdjacentVariables,
				Rule:    -1,
				Column:  col,
			})
		case prev.kind != opLiteral && c.axioms.Has(cur.ch),
			cur.kind != opLiteral && c.axioms.Has(prev.ch):
			errs = append(errs, ValidationError{
				Field:   "pattern",
				Message: "variable is adjacent to an axiom literal and can never bind a maximal run",
				Code:    ErrVariableTouchesAxiom,
				Rule:    -1,
				Column:  col,
			})
		}
	}

	if usesVariables && len(c.axioms) == 0 {
		errs = append(errs, ValidationError{
			Field:   "pattern",
			Message: "pattern uses variables but the axiom set is empty",
			Code:    ErrNoAxioms,
			Rule:    -1,
		})
	}

	return m, errs
}

// checkReplacement validates a replacement template against a compiled pattern.
func (c *Compiler) checkReplacement(m *Matcher, replacement string) []ValidationError {
	var errs []ValidationError
	for i, ch := range []rune(replacement) {
		switch {
		case c.variables.Has(ch):
			if _, bound := m.slotOf[ch]; !bound {
				errs = append(errs, ValidationError{
					Field:   "replacement",
					Message: fmt.Sprintf("variable %q does not occur in the pattern", ch),
					Code:    ErrUnboundVariable,
					Rule:    -1,
					Column:  i + 1,
				})
			}
		case !c.alphabet.Has(ch):
			errs = append(errs, ValidationError{
				Field:   "replacement",
				Message: fmt.Sprintf("character %q is neither in the alphabet nor a variable", ch),
				Code:    ErrUnknownCharacter,
				Rule:    -1,
				Column:  i + 1,
			})
		}
	}
	return errs
}

// Pattern returns the source template.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// Variables returns the pattern's variables in order of first occurrence.
func (m *Matcher) Variables() []rune {
	out := make([]rune, len(m.slots))
	copy(out, m.slots)
	return out
}

type span struct {
	start, end int
}

// Match is the result of one successful search.
// Start and End are rune offsets of the matched span.
type Match struct {
	Start int
	End   int

	subject []rune
	spans   []span
	slotOf  map[rune]int
}

// Binding returns the text bound to variable v.
func (mt *Match) Binding(v rune) (string, bool) {
	slot, ok := mt.slotOf[v]
	if !ok {
		return "", false
	}
	s := mt.spans[slot]
	return string(mt.subject[s.start:s.end]), true
}

// Find searches subject for the leftmost occurrence of the pattern.
//
// Each variable binds a maximal run of axiom characters, so there is
// exactly one candidate binding per position and the search only
// backtracks over start positions. A start at which two occurrences of
// the same variable would disagree is simply not a match.
func (m *Matcher) Find(subject []rune) (*Match, bool) {
	for start := 0; start < len(subject); start++ {
		spans := make([]span, len(m.slots))
		if end, ok := m.matchAt(subject, start, 0, spans); ok {
			return &Match{
				Start:   start,
				End:     end,
				subject: subject,
				spans:   spans,
				slotOf:  m.slotOf,
			}, true
		}
	}
	return nil, false
}

// matchAt runs the program from instruction pc at subject position pos.
// Returns the end offset of the match.
func (m *Matcher) matchAt(subject []rune, pos, pc int, spans []span) (int, bool) {
	if pc == len(m.ops) {
		return pos, true
	}

	o := m.ops[pc]
	switch o.kind {
	case opLiteral:
		if pos < len(subject) && subject[pos] == o.ch {
			return m.matchAt(subject, pos+1, pc+1, spans)
		}
		return 0, false

	case opBind:
		if pos > 0 && m.axioms.Has(subject[pos-1]) {
			return 0, false
		}
		end := pos
		for end < len(subject) && m.axioms.Has(subject[end]) {
			end++
		}
		if end == pos {
			return 0, false
		}
		spans[o.slot] = span{start: pos, end: end}
		return m.matchAt(subject, end, pc+1, spans)

	case opBackref:
		bound := spans[o.slot]
		n := bound.end - bound.start
		if pos+n > len(subject) {
			return 0, false
		}
		for i := 0; i < n; i++ {
			if subject[pos+i] != subject[bound.start+i] {
				return 0, false
			}
		}
		if pos > 0 && m.axioms.Has(subject[pos-1]) {
			return 0, false
		}
		if pos+n < len(subject) && m.axioms.Has(subject[pos+n]) {
			return 0, false
		}
		return m.matchAt(subject, pos+n, pc+1, spans)
	}

	return 0, false
}

// Instantiate builds replacement text from a successful match.
// Literal characters are copied; each variable is replaced by its binding.
func (m *Matcher) Instantiate(replacement string, match *Match) (string, error) {
	var b strings.Builder
	for i, ch := range []rune(replacement) {
		if !m.variables.Has(ch) {
			b.WriteRune(ch)
			continue
		}
		text, ok := match.Binding(ch)
		if !ok {
			return "", ValidationError{
				Field:   "replacement",
				Message: fmt.Sprintf("variable %q does not occur in the pattern", ch),
				Code:    ErrUnboundVariable,
				Rule:    -1,
				Column:  i + 1,
			}
		}
		b.WriteString(text)
	}
	return b.String(), nil
}
