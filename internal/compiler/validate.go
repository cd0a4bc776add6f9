package compiler

import (
	"fmt"

	"github.com/roach88/postsys/internal/ir"
)

// Validation error codes (E200-E299).
const (
	// Template errors (E201-E205)
	ErrUnknownCharacter     = "E201" // character neither in alphabet nor a variable
	ErrUnboundVariable      = "E202" // replacement uses a variable absent from the pattern
	ErrAdjacentVariables    = "E203" // two variables side by side
	ErrVariableTouchesAxiom = "E204" // variable next to a literal axiom character
	ErrEmptyPattern         = "E205" // pattern must be non-empty

	// Definition errors (E206-E207)
	ErrAxiomOutsideAlphabet = "E206" // axiom not in the alphabet
	ErrNoAxioms             = "E207" // pattern uses a variable but the axiom set is empty
)

// ValidationError is a MalformedPattern or definition-level error.
//
// Rule is the index of the offending rule, or -1 for definition-level
// errors. Column is the 1-based rune position in the template, or 0.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Rule    int    `json:"rule"`
	Column  int    `json:"column,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("[%s] %s col %d: %s", e.Code, e.Field, e.Column, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a definition and every rule template.
// Returns all errors found (does not fail fast).
func Validate(def *ir.Definition) []ValidationError {
	var errs []ValidationError

	for _, ch := range def.Axioms.Sorted() {
		if !def.Alphabet.Has(ch) {
			errs = append(errs, ValidationError{
				Field:   "axioms",
				Message: fmt.Sprintf("axiom %q is not in the alphabet", ch),
				Code:    ErrAxiomOutsideAlphabet,
				Rule:    -1,
			})
		}
	}

	c := New(def.Alphabet, def.Variables, def.Axioms)
	for i, rule := range def.Rules {
		prog, perrs := c.check(rule.Pattern)
		for _, e := range perrs {
			errs = append(errs, e.forRule(i, "pattern"))
		}
		for _, e := range c.checkReplacement(prog, rule.Replacement) {
			errs = append(errs, e.forRule(i, "replacement"))
		}
	}

	return errs
}

// forRule attaches rule coordinates to a template-level error.
func (e ValidationError) forRule(index int, template string) ValidationError {
	e.Rule = index
	e.Field = fmt.Sprintf("rules[%d].%s", index, template)
	return e
}
