package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/postsys/internal/compiler"
	"github.com/roach88/postsys/internal/ir"
)

// DefaultMaxSteps caps scenarios that do not set max_steps.
// Post systems may never halt; the harness must.
const DefaultMaxSteps = 10000

// Scenario defines a rewrite test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Definition is an inline system definition.
	Definition *compiler.Source `yaml:"definition,omitempty"`

	// DefinitionFile is a path to a definition source, relative to the
	// scenario file. Exactly one of Definition and DefinitionFile is set.
	DefinitionFile string `yaml:"definition_file,omitempty"`

	// Initial overrides the definition's initial string when set.
	Initial *string `yaml:"initial,omitempty"`

	// MaxSteps caps the run. Zero means DefaultMaxSteps.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// RunID is an optional fixed run id for deterministic tests.
	// If empty, testutil.DefaultRunID is used.
	RunID string `yaml:"run_id,omitempty"`

	// Assertions validate the final string and the trace.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the outcome of a run.
type Assertion struct {
	// Type specifies the assertion type (see the Assert* constants).
	Type string `yaml:"type"`

	// Value is the expected final string (final_string).
	Value *string `yaml:"value,omitempty"`

	// Expect is the expected flag (halted, quota_exceeded, span_exact).
	// Defaults to true.
	Expect *bool `yaml:"expect,omitempty"`

	// Count is the expected number of steps (step_count).
	Count *int `yaml:"count,omitempty"`

	// Rule is a rule in "pattern->replacement" form (trace_contains).
	Rule string `yaml:"rule,omitempty"`

	// Before and After optionally narrow trace_contains to one step.
	Before *string `yaml:"before,omitempty"`
	After  *string `yaml:"after,omitempty"`

	// Rules is the expected relative rule order (trace_order).
	Rules []string `yaml:"rules,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalString   = "final_string"
	AssertHalted        = "halted"
	AssertQuotaExceeded = "quota_exceeded"
	AssertStepCount     = "step_count"
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertSpanExact     = "span_exact"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
//
// definition_file is resolved relative to the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.DefinitionFile != "" && !filepath.IsAbs(scenario.DefinitionFile) {
		scenario.DefinitionFile = filepath.Join(filepath.Dir(path), scenario.DefinitionFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadDefinition returns the scenario's definition with the initial
// override applied.
func (s *Scenario) LoadDefinition() (*ir.Definition, error) {
	src := s.Definition
	if s.DefinitionFile != "" {
		var err error
		if src, err = compiler.LoadFile(s.DefinitionFile); err != nil {
			return nil, err
		}
	}

	def, err := src.Definition()
	if err != nil {
		return nil, err
	}
	if s.Initial != nil {
		def.Initial = *s.Initial
	}
	return def, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Definition == nil && s.DefinitionFile == "":
		return fmt.Errorf("definition or definition_file is required")
	case s.Definition != nil && s.DefinitionFile != "":
		return fmt.Errorf("definition and definition_file are mutually exclusive")
	}

	if s.DefinitionFile != "" {
		if _, err := os.Stat(s.DefinitionFile); os.IsNotExist(err) {
			return fmt.Errorf("definition file not found: %s", s.DefinitionFile)
		}
	}

	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalString:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for final_string", index)
		}
	case AssertHalted, AssertQuotaExceeded, AssertSpanExact:
	case AssertStepCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for step_count", index)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for step_count", index)
		}
	case AssertTraceContains:
		if _, ok := ir.ParseRule(a.Rule); !ok {
			return fmt.Errorf("assertions[%d]: rule %q is not of the form pattern->replacement", index, a.Rule)
		}
	case AssertTraceOrder:
		if len(a.Rules) == 0 {
			return fmt.Errorf("assertions[%d]: rules list is required for trace_order", index)
		}
		for _, r := range a.Rules {
			if _, ok := ir.ParseRule(r); !ok {
				return fmt.Errorf("assertions[%d]: rule %q is not of the form pattern->replacement", index, r)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
