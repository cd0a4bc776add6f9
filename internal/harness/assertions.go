package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/postsys/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string           // Assertion type for categorization
	Expected string           // Human-readable expected outcome
	Actual   string           // Human-readable actual outcome
	Trace    []ir.TraceRecord // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, rec := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s | %s | %s\n", rec.Seq, rec.Before, rec.Rule, rec.After)
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
// Returns an empty slice (not nil) when all assertions pass.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	errs := []string{}
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertFinalString:
		return assertFinalString(result, *a.Value)
	case AssertHalted:
		return assertFlag(result, a.Type, result.Halted, expected(a))
	case AssertQuotaExceeded:
		return assertFlag(result, a.Type, result.QuotaExceeded, expected(a))
	case AssertStepCount:
		return assertStepCount(result, *a.Count)
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertSpanExact:
		return assertSpanExact(result.Trace, expected(a))
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func expected(a Assertion) bool {
	return a.Expect == nil || *a.Expect
}

// displayRule normalizes "p->r" to the trace form "p -> r".
// Callers have already validated the rule.
func displayRule(s string) string {
	r, _ := ir.ParseRule(s)
	return r.String()
}

func assertFinalString(result *Result, want string) error {
	if result.Final == want {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalString,
		Expected: fmt.Sprintf("%q", want),
		Actual:   fmt.Sprintf("%q", result.Final),
		Trace:    result.Trace,
	}
}

func assertFlag(result *Result, name string, got, want bool) error {
	if got == want {
		return nil
	}
	return &AssertionError{
		Type:     name,
		Expected: fmt.Sprintf("%t", want),
		Actual:   fmt.Sprintf("%t", got),
		Trace:    result.Trace,
	}
}

func assertStepCount(result *Result, want int) error {
	if len(result.Trace) == want {
		return nil
	}
	return &AssertionError{
		Type:     AssertStepCount,
		Expected: fmt.Sprintf("%d steps", want),
		Actual:   fmt.Sprintf("%d steps", len(result.Trace)),
		Trace:    result.Trace,
	}
}

// assertTraceContains checks if some step applied the rule, optionally
// with the given before and after strings.
func assertTraceContains(trace []ir.TraceRecord, a Assertion) error {
	rule := displayRule(a.Rule)
	for _, rec := range trace {
		if rec.Rule != rule {
			continue
		}
		if a.Before != nil && rec.Before != *a.Before {
			continue
		}
		if a.After != nil && rec.After != *a.After {
			continue
		}
		return nil
	}

	want := rule
	if a.Before != nil {
		want += fmt.Sprintf(" before %q", *a.Before)
	}
	if a.After != nil {
		want += fmt.Sprintf(" after %q", *a.After)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: want,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the rules were applied in the given relative
// order. Steps don't need to be consecutive (intervening steps are allowed).
func assertTraceOrder(trace []ir.TraceRecord, a Assertion) error {
	next := 0
	for _, rec := range trace {
		if next < len(a.Rules) && rec.Rule == displayRule(a.Rules[next]) {
			next++
		}
	}
	if next == len(a.Rules) {
		return nil
	}

	actual := make([]string, len(trace))
	for i, rec := range trace {
		actual[i] = rec.Rule
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("rules in order %v", a.Rules),
		Actual:   fmt.Sprintf("missing %q after %d matched; applied %v", a.Rules[next], next, actual),
		Trace:    trace,
	}
}

// assertSpanExact checks that every step left the text outside its
// matched span unchanged.
func assertSpanExact(trace []ir.TraceRecord, want bool) error {
	exact := true
	var bad ir.TraceRecord
	for _, rec := range trace {
		if !rec.SpanExact() {
			exact = false
			bad = rec
			break
		}
	}
	if exact == want {
		return nil
	}

	actual := "every step span-exact"
	if !exact {
		actual = fmt.Sprintf("step %d rewrote outside [%d,%d)", bad.Seq, bad.Start, bad.End)
	}
	return &AssertionError{
		Type:     AssertSpanExact,
		Expected: fmt.Sprintf("span_exact=%t", want),
		Actual:   actual,
		Trace:    trace,
	}
}
