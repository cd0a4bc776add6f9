package compiler

import (
	"bytes"
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/roach88/postsys/internal/ir"
)

// Source decoding error codes (E300-E399).
const (
	ErrDecodeFailed     = "E301" // syntax error in the source document
	ErrInvalidCharEntry = "E302" // set entry is not exactly one character
	ErrInvalidRule      = "E303" // rule entry malformed
	ErrMissingField     = "E304" // required field absent
)

// CompileError is a decoding error with an optional source position.
type CompileError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
}

// Source is the decoded, not yet validated form of a Post system.
// Every set entry is a one-character string.
type Source struct {
	Initial   string       `yaml:"initial" toml:"initial" json:"initial"`
	Alphabet  []string     `yaml:"alphabet" toml:"alphabet" json:"alphabet"`
	Variables []string     `yaml:"variables" toml:"variables" json:"variables"`
	Axioms    []string     `yaml:"axioms" toml:"axioms" json:"axioms"`
	Rules     []SourceRule `yaml:"rules" toml:"rules" json:"rules"`
}

// SourceRule is one rule entry. In every structured format it may also be
// written in the short form "pattern->replacement".
type SourceRule struct {
	Pattern     string `yaml:"pattern" toml:"pattern" json:"pattern"`
	Replacement string `yaml:"replacement" toml:"replacement" json:"replacement"`
}

// UnmarshalYAML accepts either a mapping or a "p->r" scalar.
func (r *SourceRule) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		rule, ok := ir.ParseRule(node.Value)
		if !ok {
			return fmt.Errorf("line %d: rule %q is not of the form pattern->replacement", node.Line, node.Value)
		}
		r.Pattern, r.Replacement = rule.Pattern, rule.Replacement
		return nil
	}

	type plain SourceRule
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = SourceRule(p)
	return nil
}

// Definition converts the source into a definition.
// Rule templates are not checked here; see Validate.
func (s *Source) Definition() (*ir.Definition, error) {
	alphabet, err := charSet("alphabet", s.Alphabet)
	if err != nil {
		return nil, err
	}
	variables, err := charSet("variables", s.Variables)
	if err != nil {
		return nil, err
	}
	axioms, err := charSet("axioms", s.Axioms)
	if err != nil {
		return nil, err
	}

	rules := make(ir.RuleSet, 0, len(s.Rules))
	for i, r := range s.Rules {
		if r.Pattern == "" {
			return nil, &CompileError{
				Code:    ErrInvalidRule,
				Field:   fmt.Sprintf("rules[%d].pattern", i),
				Message: "pattern is required",
			}
		}
		rules = append(rules, ir.Rule{Pattern: r.Pattern, Replacement: r.Replacement})
	}

	return &ir.Definition{
		Alphabet:  alphabet,
		Variables: variables,
		Axioms:    axioms,
		Rules:     rules,
		Initial:   s.Initial,
	}, nil
}

func charSet(field string, entries []string) (ir.CharSet, error) {
	set := make(ir.CharSet, len(entries))
	for i, e := range entries {
		chars := []rune(e)
		if len(chars) != 1 {
			return nil, &CompileError{
				Code:    ErrInvalidCharEntry,
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: fmt.Sprintf("entry %q must be exactly one character", e),
			}
		}
		set[chars[0]] = struct{}{}
	}
	return set, nil
}

// DecodeYAML parses a YAML definition with strict field checking.
func DecodeYAML(data []byte) (*Source, error) {
	var src Source
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&src); err != nil {
		return nil, &CompileError{Code: ErrDecodeFailed, Field: "yaml", Message: err.Error()}
	}
	return &src, nil
}

// tomlSource mirrors Source for TOML, where a rules array may mix
// "p->r" strings and inline tables.
type tomlSource struct {
	Initial   string   `toml:"initial"`
	Alphabet  []string `toml:"alphabet"`
	Variables []string `toml:"variables"`
	Axioms    []string `toml:"axioms"`
	Rules     []any    `toml:"rules"`
}

// DecodeTOML parses a TOML definition with strict field checking.
func DecodeTOML(data []byte) (*Source, error) {
	var raw tomlSource
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&raw); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, &CompileError{
				Code:    ErrDecodeFailed,
				Field:   "toml",
				Message: fmt.Sprintf("line %d column %d: %s", row, col, derr.Error()),
			}
		}
		return nil, &CompileError{Code: ErrDecodeFailed, Field: "toml", Message: err.Error()}
	}

	src := &Source{
		Initial:   raw.Initial,
		Alphabet:  raw.Alphabet,
		Variables: raw.Variables,
		Axioms:    raw.Axioms,
	}
	for i, entry := range raw.Rules {
		rule, err := tomlRule(i, entry)
		if err != nil {
			return nil, err
		}
		src.Rules = append(src.Rules, rule)
	}
	return src, nil
}

// tomlRule normalizes one rules entry: a "p->r" string or a table with
// pattern and replacement keys.
func tomlRule(i int, entry any) (SourceRule, error) {
	field := fmt.Sprintf("rules[%d]", i)
	invalid := func(msg string) (SourceRule, error) {
		return SourceRule{}, &CompileError{Code: ErrInvalidRule, Field: field, Message: msg}
	}

	switch v := entry.(type) {
	case string:
		rule, ok := ir.ParseRule(v)
		if !ok {
			return invalid(fmt.Sprintf("rule %q is not of the form pattern->replacement", v))
		}
		return SourceRule{Pattern: rule.Pattern, Replacement: rule.Replacement}, nil
	case map[string]any:
		var r SourceRule
		for key, value := range v {
			text, ok := value.(string)
			if !ok {
				return invalid(fmt.Sprintf("%s must be a string", key))
			}
			switch key {
			case "pattern":
				r.Pattern = text
			case "replacement":
				r.Replacement = text
			default:
				return invalid(fmt.Sprintf("unknown key %q", key))
			}
		}
		return r, nil
	default:
		return invalid(fmt.Sprintf("expected a string or table, got %T", entry))
	}
}
