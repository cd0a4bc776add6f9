package store

import (
	"context"

	"github.com/roach88/postsys/internal/ir"
)

// StepRecorder writes every trace record it receives to one run.
// It satisfies engine.Recorder.
type StepRecorder struct {
	store *Store
	runID string
}

// NewStepRecorder returns a recorder that appends to run runID.
func NewStepRecorder(s *Store, runID string) *StepRecorder {
	return &StepRecorder{store: s, runID: runID}
}

// Record implements engine.Recorder.
func (r *StepRecorder) Record(ctx context.Context, rec ir.TraceRecord) error {
	return r.store.WriteStep(ctx, r.runID, rec)
}
