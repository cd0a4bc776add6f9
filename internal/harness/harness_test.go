package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/postsys/internal/compiler"
	"github.com/roach88/postsys/internal/testutil"
)

func TestRun_AllScenariosPass(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, p := range paths {
		s, err := LoadScenario(p)
		require.NoError(t, err)
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_ReadsTraceFromStore(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/restart_first_rule.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, testutil.DefaultRunID, result.RunID)
	assert.Equal(t, "1", result.Initial)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, int64(1), result.Trace[0].Seq)
	assert.Equal(t, "1 -> 2", result.Trace[0].Rule)
	assert.Equal(t, 1, result.Trace[1].RuleIndex)
}

func TestRun_QuotaExceeded(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/non_terminating.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.True(t, result.QuotaExceeded)
	assert.False(t, result.Halted)
	require.Len(t, result.Trace, 10)
	for i := 1; i < len(result.Trace); i++ {
		assert.Greater(t, len(result.Trace[i].After), len(result.Trace[i-1].After))
	}
}

func TestRun_DefaultMaxSteps(t *testing.T) {
	s := &Scenario{
		Name:        "flip_forever",
		Description: "uncapped scenario still stops",
		Definition: &compiler.Source{
			Initial:  "a",
			Alphabet: []string{"a", "b"},
			Rules: []compiler.SourceRule{
				{Pattern: "a", Replacement: "b"},
				{Pattern: "b", Replacement: "a"},
			},
		},
		Assertions: []Assertion{{Type: AssertQuotaExceeded}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Trace, DefaultMaxSteps)
}

func TestRun_FailingAssertionsReported(t *testing.T) {
	wrong := "abc"
	s := &Scenario{
		Name:        "wrong_final",
		Description: "expects the wrong string",
		Definition: &compiler.Source{
			Initial:  "cabd",
			Alphabet: []string{"a", "b", "c", "d"},
			Rules:    []compiler.SourceRule{{Pattern: "ab", Replacement: "ba"}},
		},
		Assertions: []Assertion{
			{Type: AssertFinalString, Value: &wrong},
			{Type: AssertQuotaExceeded},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "assertions[0]")
	assert.Contains(t, result.Errors[0], `"cbad"`)
	assert.Contains(t, result.Errors[1], "assertions[1]")
}

func TestRun_MalformedDefinitionIsError(t *testing.T) {
	s := &Scenario{
		Name:        "adjacent",
		Description: "adjacent variables",
		Definition: &compiler.Source{
			Initial:   "1#1",
			Alphabet:  []string{"1", "#"},
			Variables: []string{"v", "w"},
			Axioms:    []string{"1"},
			Rules:     []compiler.SourceRule{{Pattern: "vw#", Replacement: "#"}},
		},
		Assertions: []Assertion{{Type: AssertHalted}},
	}

	_, err := Run(s)
	require.Error(t, err)
	assert.ErrorAs(t, err, new(compiler.ValidationError))
}

func TestRun_FixedRunID(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/literal_rule.yaml")
	require.NoError(t, err)
	s.RunID = "run-fixed"

	result, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, "run-fixed", result.RunID)
}

func TestRunContext_Cancelled(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/non_terminating.yaml")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = RunContext(ctx, s)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/unary_add.yaml")
	require.NoError(t, err)

	var snapshots [][]byte
	for i := 0; i < 3; i++ {
		result, err := Run(s)
		require.NoError(t, err)
		data, err := NewTraceSnapshot(s.Name, result).MarshalCanonical()
		require.NoError(t, err)
		snapshots = append(snapshots, data)
	}
	assert.Equal(t, snapshots[0], snapshots[1])
	assert.Equal(t, snapshots[1], snapshots[2])
}
