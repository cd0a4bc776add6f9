// Package harness provides scenario testing for Post systems.
//
// The harness loads a system definition, runs it through the engine with a
// step cap, persists the run to an in-memory store, and evaluates
// assertions against the trace read back from the store.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	definition:
//	  initial: "11#11"
//	  alphabet: ["1", "#"]
//	  variables: [v]
//	  axioms: ["1"]
//	  rules: ["v#v->#"]
//	max_steps: 100
//	assertions:
//	  - type: final_string
//	    value: "#"
//	  - type: halted
//	  - type: trace_contains
//	    rule: "v#v->#"
//
// A scenario may name a definition file (CUE, YAML, TOML or the legacy
// text format) with definition_file instead of an inline definition. The
// path is resolved relative to the scenario file.
//
// # Assertion Types
//
//   - final_string: the final working string equals value
//   - halted: the run halted (expect: false for capped non-terminating runs)
//   - quota_exceeded: the run stopped at max_steps
//   - step_count: exactly count rules were applied
//   - trace_contains: some step applied rule (optionally with before/after)
//   - trace_order: rules were applied in this relative order
//   - span_exact: every step changed only its matched span
//
// # Deterministic Testing
//
// Every scenario runs with a fixed run id (testutil.FixedRunGenerator) and
// the engine's logical clock, so identical scenarios produce byte-identical
// golden traces.
package harness
