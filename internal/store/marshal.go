package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/postsys/internal/ir"
)

// marshalDefinition converts a Definition to canonical JSON TEXT for storage.
func marshalDefinition(def *ir.Definition) (string, error) {
	data, err := ir.MarshalCanonical(def.CanonicalMap())
	if err != nil {
		return "", fmt.Errorf("marshal definition: %w", err)
	}
	return string(data), nil
}

// storedDefinition mirrors Definition.CanonicalMap.
type storedDefinition struct {
	Alphabet  string    `json:"alphabet"`
	Variables string    `json:"variables"`
	Axioms    string    `json:"axioms"`
	Rules     []ir.Rule `json:"rules"`
	Initial   string    `json:"initial"`
}

// UnmarshalDefinition parses a definition stored by CreateRun.
func UnmarshalDefinition(data string) (*ir.Definition, error) {
	var sd storedDefinition
	if err := json.Unmarshal([]byte(data), &sd); err != nil {
		return nil, fmt.Errorf("unmarshal definition: %w", err)
	}
	return &ir.Definition{
		Alphabet:  ir.CharSetOf(sd.Alphabet),
		Variables: ir.CharSetOf(sd.Variables),
		Axioms:    ir.CharSetOf(sd.Axioms),
		Rules:     ir.RuleSet(sd.Rules),
		Initial:   sd.Initial,
	}, nil
}
