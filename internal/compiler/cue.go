package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/postsys/internal/ir"
)

// LoadCUE compiles a CUE document and reads the Post system under the
// top-level "system" field:
//
//	system: {
//		initial:   "11#11"
//		alphabet:  ["1", "#"]
//		variables: ["v"]
//		axioms:    ["1"]
//		rules: [{pattern: "v#v", replacement: "#"}, "1#->#"]
//	}
func LoadCUE(data []byte, filename string) (*Source, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	system := v.LookupPath(cue.ParsePath("system"))
	if !system.Exists() {
		return nil, &CompileError{
			Code:    ErrMissingField,
			Field:   "system",
			Message: "system is required",
			Pos:     v.Pos(),
		}
	}
	return CompileCUE(system)
}

// CompileCUE reads a Post system from a CUE struct value.
func CompileCUE(v cue.Value) (*Source, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	src := &Source{}

	initialVal := v.LookupPath(cue.ParsePath("initial"))
	if !initialVal.Exists() {
		return nil, &CompileError{
			Code:    ErrMissingField,
			Field:   "initial",
			Message: "initial is required",
			Pos:     v.Pos(),
		}
	}
	initial, err := initialVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	src.Initial = initial

	if src.Alphabet, err = stringList(v, "alphabet"); err != nil {
		return nil, err
	}
	if src.Variables, err = stringList(v, "variables"); err != nil {
		return nil, err
	}
	if src.Axioms, err = stringList(v, "axioms"); err != nil {
		return nil, err
	}
	if src.Rules, err = parseRules(v); err != nil {
		return nil, err
	}

	return src, nil
}

// stringList reads an optional list of strings.
func stringList(v cue.Value, field string) ([]string, error) {
	listVal := v.LookupPath(cue.ParsePath(field))
	if !listVal.Exists() {
		return nil, nil
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Code:    ErrInvalidCharEntry,
				Field:   field,
				Message: fmt.Sprintf("entries must be strings: %v", err),
				Pos:     iter.Value().Pos(),
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// parseRules reads the rule list. Each entry is either a struct with
// pattern and replacement or a "pattern->replacement" string.
func parseRules(v cue.Value) ([]SourceRule, error) {
	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, nil
	}

	iter, err := rulesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rules []SourceRule
	for i := 0; iter.Next(); i++ {
		entry := iter.Value()

		if s, err := entry.String(); err == nil {
			rule, ok := ir.ParseRule(s)
			if !ok {
				return nil, &CompileError{
					Code:    ErrInvalidRule,
					Field:   fmt.Sprintf("rules[%d]", i),
					Message: fmt.Sprintf("rule %q is not of the form pattern->replacement", s),
					Pos:     entry.Pos(),
				}
			}
			rules = append(rules, SourceRule{Pattern: rule.Pattern, Replacement: rule.Replacement})
			continue
		}

		pattern, err := entry.LookupPath(cue.ParsePath("pattern")).String()
		if err != nil {
			return nil, &CompileError{
				Code:    ErrInvalidRule,
				Field:   fmt.Sprintf("rules[%d].pattern", i),
				Message: "pattern is required",
				Pos:     entry.Pos(),
			}
		}
		replacement, err := entry.LookupPath(cue.ParsePath("replacement")).String()
		if err != nil {
			return nil, &CompileError{
				Code:    ErrInvalidRule,
				Field:   fmt.Sprintf("rules[%d].replacement", i),
				Message: "replacement is required",
				Pos:     entry.Pos(),
			}
		}
		rules = append(rules, SourceRule{Pattern: pattern, Replacement: replacement})
	}
	return rules, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Code:    ErrDecodeFailed,
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return &CompileError{Code: ErrDecodeFailed, Field: "cue", Message: err.Error()}
}
