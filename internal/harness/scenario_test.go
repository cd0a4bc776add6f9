package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Inline(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/backref_equal.yaml")
	require.NoError(t, err)

	assert.Equal(t, "backref_equal", s.Name)
	require.NotNil(t, s.Definition)
	assert.Equal(t, "11#11", s.Definition.Initial)
	require.Len(t, s.Definition.Rules, 1)
	assert.Equal(t, "v#v", s.Definition.Rules[0].Pattern)
	assert.Len(t, s.Assertions, 3)
}

func TestLoadScenario_DefinitionFileResolvedRelative(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/restart_first_rule.yaml")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("testdata", "systems", "chain.toml"), s.DefinitionFile)

	def, err := s.LoadDefinition()
	require.NoError(t, err)
	assert.Equal(t, "1", def.Initial)
	assert.Len(t, def.Rules, 2)
}

func TestLoadScenario_InitialOverride(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/backref_unequal.yaml")
	require.NoError(t, err)

	def, err := s.LoadDefinition()
	require.NoError(t, err)
	assert.Equal(t, "11#111", def.Initial)
}

func TestLoadScenario_UnknownField(t *testing.T) {
	_, err := LoadScenario("testdata/invalid/unknown_field.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertion")
}

func TestLoadScenario_MissingAssertions(t *testing.T) {
	_, err := LoadScenario("testdata/invalid/missing_assertions.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertions list is required")
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario("testdata/does-not-exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `description: d
definition: {initial: "1", alphabet: ["1"]}
assertions: [{type: halted}]`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `name: n
definition: {initial: "1", alphabet: ["1"]}
assertions: [{type: halted}]`,
			wantErr: "description is required",
		},
		{
			name: "missing definition",
			content: `name: n
description: d
assertions: [{type: halted}]`,
			wantErr: "definition or definition_file is required",
		},
		{
			name: "both definitions",
			content: `name: n
description: d
definition: {initial: "1", alphabet: ["1"]}
definition_file: x.toml
assertions: [{type: halted}]`,
			wantErr: "mutually exclusive",
		},
		{
			name: "definition file missing",
			content: `name: n
description: d
definition_file: nowhere.toml
assertions: [{type: halted}]`,
			wantErr: "definition file not found",
		},
		{
			name: "negative max steps",
			content: `name: n
description: d
definition: {initial: "1", alphabet: ["1"]}
max_steps: -1
assertions: [{type: halted}]`,
			wantErr: "max_steps must be non-negative",
		},
		{
			name: "unknown assertion type",
			content: `name: n
description: d
definition: {initial: "1", alphabet: ["1"]}
assertions: [{type: final_state}]`,
			wantErr: `unknown assertion type "final_state"`,
		},
		{
			name: "final_string without value",
			content: `name: n
description: d
definition: {initial: "1", alphabet: ["1"]}
assertions: [{type: final_string}]`,
			wantErr: "value is required for final_string",
		},
		{
			name: "step_count without count",
			content: `name: n
description: d
definition: {initial: "1", alphabet: ["1"]}
assertions: [{type: step_count}]`,
			wantErr: "count is required for step_count",
		},
		{
			name: "trace_contains bad rule",
			content: `name: n
description: d
definition: {initial: "1", alphabet: ["1"]}
assertions: [{type: trace_contains, rule: "11"}]`,
			wantErr: "not of the form pattern->replacement",
		},
		{
			name: "trace_order empty",
			content: `name: n
description: d
definition: {initial: "1", alphabet: ["1"]}
assertions: [{type: trace_order}]`,
			wantErr: "rules list is required for trace_order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_AllTestdataLoad(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.Len(t, paths, 7)

	for _, p := range paths {
		s, err := LoadScenario(p)
		require.NoError(t, err, p)
		assert.Equal(t, strings.TrimSuffix(filepath.Base(p), ".yaml"), s.Name, "scenario name matches its file")
	}
}
