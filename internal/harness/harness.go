package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/postsys/internal/engine"
	"github.com/roach88/postsys/internal/ir"
	"github.com/roach88/postsys/internal/store"
	"github.com/roach88/postsys/internal/testutil"
)

// Harness executes scenarios against a store.
type Harness struct {
	store  *store.Store
	runGen engine.RunIDGenerator
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Create fresh in-memory database
//  2. Load the definition and apply the initial override
//  3. Run the engine with the step cap, recording every step
//  4. Read the trace back from the store
//  5. Evaluate assertions
//
// A malformed definition is returned as an error, not as a failed result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		runGen: testutil.NewFixedRunGenerator(scenario.RunID),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result, err := h.execute(ctx, scenario)
	if err != nil {
		return nil, err
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

func (h *Harness) execute(ctx context.Context, scenario *Scenario) (*Result, error) {
	def, err := scenario.LoadDefinition()
	if err != nil {
		return nil, fmt.Errorf("failed to load definition: %w", err)
	}

	maxSteps := scenario.MaxSteps
	if maxSteps == 0 {
		maxSteps = DefaultMaxSteps
	}

	runID := h.runGen.Generate()
	eng, err := engine.New(def,
		engine.WithMaxSteps(maxSteps),
		engine.WithLogger(h.logger),
		engine.WithRecorder(store.NewStepRecorder(h.store, runID)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	if _, err := h.store.CreateRun(ctx, runID, def, def.Initial, ir.EngineVersion); err != nil {
		return nil, err
	}

	result := NewResult()
	result.RunID = runID
	result.Initial = def.Initial

	final, runErr := eng.Run(ctx)
	status := ir.RunHalted
	switch {
	case runErr == nil:
	case engine.IsQuotaError(runErr):
		status = ir.RunQuotaExceeded
		result.QuotaExceeded = true
	default:
		return nil, fmt.Errorf("run failed: %w", runErr)
	}

	result.Final = final
	result.Halted = eng.Halted()

	if err := h.store.FinishRun(ctx, runID, final, status, eng.Steps()); err != nil {
		return nil, err
	}

	trace, err := h.store.ReadSteps(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	result.Trace = trace

	return result, nil
}
