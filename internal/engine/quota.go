package engine

import "fmt"

// QuotaEnforcer is the opt-in step cap of a single Run.
//
// Post systems have no termination detection. For a rule set that halts
// within the cap the result is identical to an unbounded run.
type QuotaEnforcer struct {
	maxSteps int
	applied  int
}

// NewQuotaEnforcer returns a fresh quota of maxSteps applied steps.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check claims one step. It runs before a rule is applied; when the cap is
// already used up the step is refused and current (the working string,
// still unchanged) is carried in the error.
func (q *QuotaEnforcer) Check(current string) error {
	if q.applied >= q.maxSteps {
		return &StepsExceededError{
			Steps:   q.applied + 1,
			Limit:   q.maxSteps,
			Current: current,
		}
	}
	q.applied++
	return nil
}

// MaxSteps returns the cap.
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError is returned when a run would apply more steps than
// its quota allows. The step that would exceed the quota is not applied.
type StepsExceededError struct {
	Steps   int    // Number of the step that was refused
	Limit   int    // Maximum allowed steps
	Current string // Working string when the run stopped
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("run exceeded max steps quota: step %d > %d limit", e.Steps, e.Limit)
}
