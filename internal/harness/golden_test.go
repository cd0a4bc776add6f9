package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/postsys/internal/ir"
)

func TestRunWithGolden_Scenarios(t *testing.T) {
	for _, name := range []string{
		"literal_rule",
		"backref_equal",
		"restart_first_rule",
		"no_applicable_rule",
	} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestTraceSnapshot_Canonical(t *testing.T) {
	result := &Result{
		RunID:   "run-1",
		Initial: "cabd",
		Final:   "cbad",
		Halted:  true,
		Trace: []ir.TraceRecord{
			{Seq: 1, Before: "cabd", Rule: "ab -> ba", After: "cbad", Start: 1, End: 3},
		},
	}

	data, err := NewTraceSnapshot("snap", result).MarshalCanonical()
	require.NoError(t, err)

	want := `{"final":"cbad","halted":true,"initial":"cabd","run_id":"run-1","scenario_name":"snap",` +
		`"trace":[{"after":"cbad","before":"cabd","end":3,"rule":"ab -> ba","rule_index":0,"seq":1,"start":1}]}`
	assert.Equal(t, want, string(data))
}

func TestTraceSnapshot_EmptyTrace(t *testing.T) {
	data, err := NewTraceSnapshot("empty", &Result{Trace: []ir.TraceRecord{}}).MarshalCanonical()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"trace":[]`)
}
