package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/postsys/internal/ir"
	"github.com/roach88/postsys/internal/queryir"
	"github.com/roach88/postsys/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - without it, runs are listed
	Rule     int    // optional - filter to one rule index; -1 for all

	// Run listing filters
	Status     string
	Definition string // definition hash prefix
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	ID             string       `json:"id"`
	Status         ir.RunStatus `json:"status"`
	Steps          int64        `json:"steps"`
	Initial        string       `json:"initial"`
	Final          string       `json:"final"`
	DefinitionHash string       `json:"definition_hash"`
}

// TraceResult holds the complete trace of one stored run.
type TraceResult struct {
	Run   ir.RunRecord     `json:"run"`
	Trace []ir.TraceRecord `json:"trace"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show stored runs and their traces",
		Long: `Show runs persisted by "postsys run --db".

Without --run, lists stored runs with their status and step count,
optionally filtered by --status and --definition (a hash prefix).
With --run, prints the stored trace of that run as a table.

Examples:
  postsys trace --db ./postsys.db
  postsys trace --db ./postsys.db --status quota_exceeded
  postsys trace --db ./postsys.db --run 0190a5c2-...
  postsys trace --db ./postsys.db --run 0190a5c2-... --rule 0 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.Config.Database, "path to SQLite database (required)")
	if rootOpts.Config.Database == "" {
		_ = cmd.MarkFlagRequired("db")
	}
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to show")
	cmd.Flags().IntVar(&opts.Rule, "rule", -1, "show only steps that applied this rule index")
	cmd.Flags().StringVar(&opts.Status, "status", "", "list only runs with this status")
	cmd.Flags().StringVar(&opts.Definition, "definition", "", "list only runs whose definition hash starts with this prefix")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		return listRuns(ctx, st, opts, cmd)
	}

	run, err := st.GetRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to get run", err)
	}

	filter := queryir.Predicate(queryir.Equals{Field: "run_id", Value: run.ID})
	if opts.Rule >= 0 {
		filter = queryir.AllOf(filter, queryir.Equals{Field: "rule_index", Value: opts.Rule})
	}
	steps, err := st.FindSteps(ctx, filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read steps", err)
	}

	result := TraceResult{
		Run:   run,
		Trace: steps,
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd, result)
}

// listRuns prints a summary of every stored run.
func listRuns(ctx context.Context, st *store.Store, opts *TraceOptions, cmd *cobra.Command) error {
	var filters []queryir.Predicate
	if opts.Status != "" {
		if !ir.RunStatus(opts.Status).Valid() {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid status %q", opts.Status))
		}
		filters = append(filters, queryir.Equals{Field: "status", Value: opts.Status})
	}
	if opts.Definition != "" {
		filters = append(filters, queryir.HasPrefix{Field: "definition_hash", Prefix: opts.Definition})
	}

	runs, err := st.FindRuns(ctx, queryir.AllOf(filters...))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, RunSummary{
			ID:             run.ID,
			Status:         run.Status,
			Steps:          run.Steps,
			Initial:        run.Initial,
			Final:          run.Final,
			DefinitionHash: run.DefinitionHash,
		})
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, summaries)
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(w, "%s  %-14s %6d step(s)  %s -> %s\n", s.ID, s.Status, s.Steps, s.Initial, s.Final)
	}
	return nil
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, data any) error {
	response := CLIResponse{
		Status: "ok",
		Data:   data,
	}
	if tr, ok := data.(TraceResult); ok {
		response.RunID = tr.Run.ID
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Run: %s\n", result.Run.ID)
	fmt.Fprintf(w, "Status: %s (%d step(s))\n", result.Run.Status, result.Run.Steps)
	fmt.Fprintf(w, "Definition: %s\n", result.Run.DefinitionHash)
	fmt.Fprintln(w)

	WriteTraceTable(w, result.Trace)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Result: %s\n", result.Run.Final)
	return nil
}
