package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDefinition() *Definition {
	return &Definition{
		Alphabet:  CharSetOf("1#"),
		Variables: CharSetOf("v"),
		Axioms:    CharSetOf("1"),
		Rules:     RuleSet{{Pattern: "v#v", Replacement: "#"}},
		Initial:   "11#11",
	}
}

func TestDefinitionHashDeterminism(t *testing.T) {
	h1, err := DefinitionHash(testDefinition())
	require.NoError(t, err)
	h2, err := DefinitionHash(testDefinition())
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestDefinitionHashIgnoresSetConstructionOrder(t *testing.T) {
	a := testDefinition()
	b := testDefinition()
	b.Alphabet = CharSetOf("#1")

	assert.Equal(t, mustDefinitionHash(t, a), mustDefinitionHash(t, b))
}

func TestDefinitionHashChangesWithRuleOrder(t *testing.T) {
	a := testDefinition()
	a.Rules = RuleSet{{Pattern: "1", Replacement: "2"}, {Pattern: "2", Replacement: "3"}}
	b := testDefinition()
	b.Rules = RuleSet{{Pattern: "2", Replacement: "3"}, {Pattern: "1", Replacement: "2"}}

	assert.NotEqual(t, mustDefinitionHash(t, a), mustDefinitionHash(t, b), "rule order is priority and must affect identity")
}

func TestDefinitionHashChangesWithInitial(t *testing.T) {
	a := testDefinition()
	b := testDefinition()
	b.Initial = "11#111"

	assert.NotEqual(t, mustDefinitionHash(t, a), mustDefinitionHash(t, b))
}

func TestTraceHash(t *testing.T) {
	records := []TraceRecord{
		{Seq: 1, Before: "1", Rule: "1 -> 2", RuleIndex: 0, After: "2", Start: 0, End: 1},
		{Seq: 2, Before: "2", Rule: "2 -> 3", RuleIndex: 1, After: "3", Start: 0, End: 1},
	}

	h1, err := TraceHash(records)
	require.NoError(t, err)
	h2, err := TraceHash(append([]TraceRecord(nil), records...))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	empty, err := TraceHash(nil)
	require.NoError(t, err)
	assert.NotEqual(t, h1, empty)
}

func mustDefinitionHash(t *testing.T, d *Definition) string {
	t.Helper()
	h, err := DefinitionHash(d)
	require.NoError(t, err)
	return h
}
