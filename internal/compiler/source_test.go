package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/postsys/internal/ir"
)

func TestDecodeYAML(t *testing.T) {
	src, err := DecodeYAML([]byte(`
initial: "11#11"
alphabet: ["1", "#"]
variables: [v]
axioms: ["1"]
rules:
  - pattern: "v#v"
    replacement: "#"
  - "1#->#"
`))
	require.NoError(t, err)

	assert.Equal(t, "11#11", src.Initial)
	assert.Equal(t, []string{"1", "#"}, src.Alphabet)
	assert.Equal(t, []string{"v"}, src.Variables)
	assert.Equal(t, []string{"1"}, src.Axioms)
	assert.Equal(t, []SourceRule{
		{Pattern: "v#v", Replacement: "#"},
		{Pattern: "1#", Replacement: "#"},
	}, src.Rules)
}

func TestDecodeYAMLUnknownField(t *testing.T) {
	_, err := DecodeYAML([]byte(`
initial: "1"
alphabt: ["1"]
`))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrDecodeFailed, ce.Code)
}

func TestDecodeYAMLBadShortRule(t *testing.T) {
	_, err := DecodeYAML([]byte(`
initial: "1"
rules: ["no arrow"]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pattern->replacement")
}

func TestDecodeTOML(t *testing.T) {
	src, err := DecodeTOML([]byte(`
initial = "cabd"
alphabet = ["a", "b", "c", "d"]

[[rules]]
pattern = "ab"
replacement = "ba"
`))
	require.NoError(t, err)

	assert.Equal(t, "cabd", src.Initial)
	assert.Len(t, src.Alphabet, 4)
	assert.Empty(t, src.Variables)
	assert.Equal(t, []SourceRule{{Pattern: "ab", Replacement: "ba"}}, src.Rules)
}

func TestDecodeTOMLRuleForms(t *testing.T) {
	src, err := DecodeTOML([]byte(`
initial = "1"
alphabet = ["1", "2", "3"]
rules = ["1->2", { pattern = "2", replacement = "3" }]
`))
	require.NoError(t, err)

	assert.Equal(t, []SourceRule{
		{Pattern: "1", Replacement: "2"},
		{Pattern: "2", Replacement: "3"},
	}, src.Rules)

	yamlSrc, err := DecodeYAML([]byte("initial: \"1\"\nalphabet: [\"1\", \"2\", \"3\"]\nrules: [\"1->2\", {pattern: \"2\", replacement: \"3\"}]\n"))
	require.NoError(t, err)
	assert.Equal(t, yamlSrc.Rules, src.Rules)
}

func TestDecodeTOMLInvalidRule(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no arrow", `rules = ["12"]`, "pattern->replacement"},
		{"unknown key", `rules = [{ pattern = "1", with = "2" }]`, "unknown key"},
		{"non-string value", `rules = [{ pattern = 1 }]`, "must be a string"},
		{"number entry", `rules = [3]`, "expected a string or table"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTOML([]byte(tt.doc))
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, ErrInvalidRule, ce.Code)
			assert.Equal(t, "rules[0]", ce.Field)
			assert.Contains(t, ce.Message, tt.want)
		})
	}
}

func TestDecodeTOMLUnknownField(t *testing.T) {
	_, err := DecodeTOML([]byte(`
initial = "1"
bogus = true
`))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrDecodeFailed, ce.Code)
	assert.Equal(t, "toml", ce.Field)
}

func TestDecodeTOMLSyntaxError(t *testing.T) {
	_, err := DecodeTOML([]byte(`initial = `))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Message, "line 1")
}

func TestSourceDefinition(t *testing.T) {
	src := &Source{
		Initial:   "11#11",
		Alphabet:  []string{"1", "#"},
		Variables: []string{"v"},
		Axioms:    []string{"1"},
		Rules:     []SourceRule{{Pattern: "v#v", Replacement: "#"}},
	}

	def, err := src.Definition()
	require.NoError(t, err)

	assert.Equal(t, "#1", def.Alphabet.String())
	assert.Equal(t, "v", def.Variables.String())
	assert.Equal(t, "1", def.Axioms.String())
	assert.Equal(t, ir.RuleSet{{Pattern: "v#v", Replacement: "#"}}, def.Rules)
	assert.Equal(t, "11#11", def.Initial)
	assert.Empty(t, Validate(def))
}

func TestSourceDefinitionBadEntry(t *testing.T) {
	src := &Source{Alphabet: []string{"1", "ab"}}

	_, err := src.Definition()
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrInvalidCharEntry, ce.Code)
	assert.Equal(t, "alphabet[1]", ce.Field)
}

func TestSourceDefinitionEmptyPattern(t *testing.T) {
	src := &Source{Rules: []SourceRule{{Pattern: "", Replacement: "x"}}}

	_, err := src.Definition()
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrInvalidRule, ce.Code)
}

func TestParseText(t *testing.T) {
	src := ParseText(`11#11
A = {1, #};
X = {v};
A1 = {1};
R = {"v#v->#", "1#->#"};
`)

	assert.Equal(t, "11#11", src.Initial)
	assert.Equal(t, []string{"1", "#"}, src.Alphabet)
	assert.Equal(t, []string{"v"}, src.Variables)
	assert.Equal(t, []string{"1"}, src.Axioms)
	assert.Equal(t, []SourceRule{
		{Pattern: "v#v", Replacement: "#"},
		{Pattern: "1#", Replacement: "#"},
	}, src.Rules)
}

func TestParseTextSectionOrderAndSpacing(t *testing.T) {
	src := ParseText("ab\r\nR={\"ab->ba\"};A1={};A={a,b};X={};")

	assert.Equal(t, "ab", src.Initial)
	assert.Equal(t, []string{"a", "b"}, src.Alphabet)
	assert.Empty(t, src.Variables)
	assert.Empty(t, src.Axioms)
	assert.Equal(t, []SourceRule{{Pattern: "ab", Replacement: "ba"}}, src.Rules)
}

func TestParseTextMissingSections(t *testing.T) {
	src := ParseText("abc")

	assert.Equal(t, "abc", src.Initial)
	assert.Nil(t, src.Alphabet)
	assert.Nil(t, src.Rules)
}
