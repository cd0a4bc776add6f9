package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/postsys/internal/engine"
	"github.com/roach88/postsys/internal/ir"
	"github.com/roach88/postsys/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string       `json:"run_id"`
	Status        ir.RunStatus `json:"status"`
	Steps         int64        `json:"steps"`
	ReplayedSteps int64        `json:"replayed_steps"`
	TraceHash     string       `json:"trace_hash"`
	Skipped       bool         `json:"skipped,omitempty"`
	Deterministic bool         `json:"deterministic"`
	Reason        string       `json:"reason,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run stored runs and verify determinism",
		Long: `Re-execute stored runs and compare them with their recorded traces.

Each run is rebuilt from its stored canonical definition and initial
string, executed up to its recorded step count, and its trace hash is
compared with the hash of the stored steps. Runs still marked running
or failed are skipped.

Exit codes:
  0 - All runs are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  postsys replay --db ./postsys.db
  postsys replay --db ./postsys.db --run 0190a5c2-...
  postsys replay --db ./postsys.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.Config.Database, "path to SQLite database (required)")
	if rootOpts.Config.Database == "" {
		_ = cmd.MarkFlagRequired("db")
	}
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var runs []ir.RunRecord
	if opts.RunID != "" {
		run, err := st.GetRun(ctx, opts.RunID)
		if errors.Is(err, store.ErrNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to get run", err)
		}
		runs = []ir.RunRecord{run}
	} else {
		runs, err = st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}

	if len(runs) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No runs found in database.")
		return nil
	}

	for _, run := range runs {
		runResult, err := replayAndVerifyRun(ctx, st, run)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}

		result.Runs = append(result.Runs, runResult)
		if !runResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}

	return outputReplayText(cmd, result, opts.Verbose)
}

// replayAndVerifyRun re-executes one stored run and compares traces.
func replayAndVerifyRun(ctx context.Context, st *store.Store, run ir.RunRecord) (ReplayRunResult, error) {
	res := ReplayRunResult{
		RunID:  run.ID,
		Status: run.Status,
		Steps:  run.Steps,
	}

	if !run.Status.Terminal() || run.Status == ir.RunFailed {
		res.Skipped = true
		res.Deterministic = true
		res.Reason = fmt.Sprintf("run is %s", run.Status)
		return res, nil
	}

	stored, err := st.ReadSteps(ctx, run.ID)
	if err != nil {
		return res, err
	}
	storedHash, err := ir.TraceHash(stored)
	if err != nil {
		return res, err
	}
	res.TraceHash = storedHash

	def, err := store.UnmarshalDefinition(run.Definition)
	if err != nil {
		return res, err
	}
	defHash, err := ir.DefinitionHash(def)
	if err != nil {
		return res, err
	}
	if defHash != run.DefinitionHash {
		res.Reason = "definition hash mismatch"
		return res, nil
	}
	def.Initial = run.Initial

	// The replay may not run further than the recorded run did.
	limit := int(run.Steps)
	if limit == 0 {
		limit = 1
	}
	eng, err := engine.New(def, engine.WithMaxSteps(limit))
	if err != nil {
		return res, err
	}
	final, runErr := eng.Run(ctx)
	res.ReplayedSteps = eng.Steps()

	if runErr != nil && !engine.IsQuotaError(runErr) {
		return res, runErr
	}
	halted := runErr == nil && eng.Halted()

	replayHash, err := ir.TraceHash(eng.Trace())
	if err != nil {
		return res, err
	}

	switch {
	case replayHash != storedHash:
		res.Reason = "trace hash mismatch"
	case final != run.Final:
		res.Reason = fmt.Sprintf("final string %q, recorded %q", final, run.Final)
	case run.Status == ir.RunHalted && !halted:
		res.Reason = "recorded run halted, replay did not"
	default:
		res.Deterministic = true
	}
	return res, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		// Determinism failure = exit code 1
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		status := "✓"
		switch {
		case run.Skipped:
			status = "-"
		case !run.Deterministic:
			status = "✗"
		}

		fmt.Fprintf(w, "%s Run: %s\n", status, run.RunID)
		fmt.Fprintf(w, "  Steps: %d recorded, %d replayed (%s)\n", run.Steps, run.ReplayedSteps, run.Status)
		if verbose && run.TraceHash != "" {
			fmt.Fprintf(w, "  Trace hash: %s\n", run.TraceHash)
		}
		if run.Reason != "" {
			fmt.Fprintf(w, "  %s\n", run.Reason)
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	// Determinism failure = exit code 1
	return NewExitError(ExitFailure, "determinism verification failed")
}
