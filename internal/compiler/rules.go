package compiler

import (
	"github.com/roach88/postsys/internal/ir"
)

// CompiledRule pairs a rule with its matcher.
type CompiledRule struct {
	Index   int
	Rule    ir.Rule
	Matcher *Matcher
}

// CompileRules validates def and compiles every rule in declaration order.
// Fails fast with the first ValidationError, before any rewriting can begin.
func CompileRules(def *ir.Definition) ([]*CompiledRule, error) {
	if errs := Validate(def); len(errs) > 0 {
		return nil, errs[0]
	}

	c := New(def.Alphabet, def.Variables, def.Axioms)
	rules := make([]*CompiledRule, len(def.Rules))
	for i, rule := range def.Rules {
		m, err := c.Compile(rule.Pattern)
		if err != nil {
			return nil, err
		}
		rules[i] = &CompiledRule{Index: i, Rule: rule, Matcher: m}
	}
	return rules, nil
}

// Apply searches subject and, on a match, returns the rewritten string.
// subject is never modified. ok is false when the pattern does not occur.
func (r *CompiledRule) Apply(subject []rune) (out []rune, match *Match, ok bool, err error) {
	match, found := r.Matcher.Find(subject)
	if !found {
		return nil, nil, false, nil
	}

	replacement, err := r.Matcher.Instantiate(r.Rule.Replacement, match)
	if err != nil {
		return nil, nil, false, err
	}

	repl := []rune(replacement)
	out = make([]rune, 0, len(subject)-(match.End-match.Start)+len(repl))
	out = append(out, subject[:match.Start]...)
	out = append(out, repl...)
	out = append(out, subject[match.End:]...)
	return out, match, true, nil
}
