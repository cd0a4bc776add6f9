package harness

import "github.com/roach88/postsys/internal/ir"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// RunID is the id the run was stored under.
	RunID string `json:"run_id"`

	// Initial is the working string the run started from.
	Initial string `json:"initial"`

	// Final is the working string when the run stopped.
	Final string `json:"final"`

	// Halted is true if no rule applied to Final.
	Halted bool `json:"halted"`

	// QuotaExceeded is true if the run stopped at its step cap.
	QuotaExceeded bool `json:"quota_exceeded"`

	// Trace contains every applied step in order, as read back from the store.
	Trace []ir.TraceRecord `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []ir.TraceRecord{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
