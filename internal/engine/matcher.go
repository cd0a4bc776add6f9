package engine

import (
	"fmt"

	"github.com/roach88/postsys/internal/compiler"
)

// candidate is a rule application that has been found but not committed.
type candidate struct {
	rule  *compiler.CompiledRule
	out   []rune
	match *compiler.Match
}

// selectRule finds the first rule, in declaration order, whose pattern
// occurs anywhere in subject. subject is not modified.
//
// Returns false when no rule applies.
func selectRule(rules []*compiler.CompiledRule, subject []rune) (candidate, bool) {
	for _, r := range rules {
		out, match, ok, err := r.Apply(subject)
		if err != nil {
			// CompileRules rejects replacements with unbound variables,
			// so instantiation cannot fail for a compiled rule.
			panic(fmt.Sprintf("engine: instantiate rule %d: %v", r.Index, err))
		}
		if ok {
			return candidate{rule: r, out: out, match: match}, true
		}
	}
	return candidate{}, false
}
