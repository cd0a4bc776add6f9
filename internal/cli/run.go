package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/postsys/internal/engine"
	"github.com/roach88/postsys/internal/ir"
	"github.com/roach88/postsys/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	MaxSteps int
	Initial  string
	Input    string
	Output   string
	Strict   bool
	NoTrace  bool

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// RunResult is the outcome of one run.
type RunResult struct {
	RunID   string           `json:"run_id,omitempty"`
	Initial string           `json:"initial"`
	Final   string           `json:"final"`
	Status  ir.RunStatus     `json:"status"`
	Steps   int64            `json:"steps"`
	Trace   []ir.TraceRecord `json:"trace"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <definition-file>",
		Short: "Rewrite the initial string until no rule applies",
		Long: `Run a Post system to completion.

Each step applies the first rule (in declaration order) whose pattern
occurs in the working string, at its leftmost occurrence. The run halts
when no rule applies. Every step is printed as a table row.

The initial string comes from --initial, from the first line of --input,
or from the definition itself. With --db the run and its trace are
persisted for the trace and replay commands.

Exit codes:
  0 - The system halted
  1 - Step cap reached, or the run was interrupted
  2 - Command error (invalid definition, bad input, database error)

Example:
  postsys run ./systems/unary_add.cue
  postsys run --input in.txt --output out.txt --max-steps 1000 ./system.yaml
  postsys run --db ./postsys.db --initial "11#11" ./equal.toml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSystem(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.Config.Database, "path to SQLite database for persisting the run")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", rootOpts.Config.MaxSteps, "maximum number of steps (0 = unbounded)")
	cmd.Flags().StringVar(&opts.Initial, "initial", "", "initial string (overrides the definition)")
	cmd.Flags().StringVar(&opts.Input, "input", "", "read the initial string from the first line of this file")
	cmd.Flags().StringVar(&opts.Output, "output", "", "write the final string to this file")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "reject initial strings with characters outside the alphabet")
	cmd.Flags().BoolVar(&opts.NoTrace, "no-trace", false, "print only the final string")
	cmd.MarkFlagsMutuallyExclusive("initial", "input")

	return cmd
}

func runSystem(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.MaxSteps < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--max-steps must be non-negative, got %d", opts.MaxSteps))
	}

	// Configure logging based on verbose flag
	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	def, validationErrors, err := LoadSystem(path)
	if err != nil {
		code, message := loadErrorParts(err)
		return outputCompileError(formatter, code, message)
	}
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	switch {
	case cmd.Flags().Changed("initial"):
		def.Initial = opts.Initial
	case opts.Input != "":
		initial, err := ReadInitialFile(opts.Input)
		if err != nil {
			code, message := loadErrorParts(err)
			return outputCompileError(formatter, code, message)
		}
		def.Initial = initial
	}
	logger.Info("definition loaded", "path", path, "rules", len(def.Rules), "initial", def.Initial)

	engineOpts := []engine.Option{
		engine.WithMaxSteps(opts.MaxSteps),
		engine.WithLogger(logger),
	}
	if opts.Strict {
		engineOpts = append(engineOpts, engine.WithStrictInput())
	}

	// Open database if persistence was requested
	var st *store.Store
	var runID string
	if opts.Database != "" {
		logger.Info("opening database", "path", opts.Database)
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()

		runIDs := opts.RunIDs
		if runIDs == nil {
			runIDs = engine.UUIDv7Generator{}
		}
		runID = runIDs.Generate()
		engineOpts = append(engineOpts, engine.WithRecorder(store.NewStepRecorder(st, runID)))
	}

	eng, err := engine.New(def, engineOpts...)
	if err != nil {
		if engine.IsInvalidInputError(err) {
			return outputCompileError(formatter, string(engine.ErrCodeInvalidInput), err.Error())
		}
		return WrapExitError(ExitCommandError, "failed to create engine", err)
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if st != nil {
		if _, err := st.CreateRun(ctx, runID, def, def.Initial, ir.EngineVersion); err != nil {
			return WrapExitError(ExitCommandError, "failed to create run", err)
		}
	}

	final, runErr := eng.Run(ctx)
	status := runStatus(runErr)

	if st != nil {
		// The run context may already be cancelled; the final state is
		// still written.
		if err := st.FinishRun(context.WithoutCancel(ctx), runID, final, status, eng.Steps()); err != nil {
			return WrapExitError(ExitCommandError, "failed to finish run", err)
		}
	}

	if status == ir.RunFailed {
		return WrapExitError(ExitCommandError, "run failed", runErr)
	}

	if opts.Output != "" {
		if err := WriteOutputFile(opts.Output, final); err != nil {
			code, message := loadErrorParts(err)
			return outputCompileError(formatter, code, message)
		}
	}

	result := RunResult{
		RunID:   runID,
		Initial: def.Initial,
		Final:   final,
		Status:  status,
		Steps:   eng.Steps(),
		Trace:   traceJSON(eng.Trace()),
	}
	if err := outputRunResult(formatter, result, opts.NoTrace); err != nil {
		return err
	}

	switch status {
	case ir.RunQuotaExceeded:
		return WrapExitError(ExitFailure, "step cap reached", runErr)
	case ir.RunCancelled:
		return WrapExitError(ExitFailure, "run interrupted", runErr)
	}
	return nil
}

// runStatus maps the error returned by Engine.Run to a stored status.
func runStatus(err error) ir.RunStatus {
	switch {
	case err == nil:
		return ir.RunHalted
	case engine.IsQuotaError(err):
		return ir.RunQuotaExceeded
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ir.RunCancelled
	default:
		return ir.RunFailed
	}
}

// outputRunResult prints a run as a trace table or JSON.
func outputRunResult(formatter *OutputFormatter, result RunResult, noTrace bool) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "ok",
			Data:   result,
			RunID:  result.RunID,
		}
		if result.Status != ir.RunHalted {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    runStatusCode(result.Status),
				Message: fmt.Sprintf("run ended with status %s after %d step(s)", result.Status, result.Steps),
			}
		}
		return json.NewEncoder(formatter.Writer).Encode(response)
	}

	w := formatter.Writer
	if !noTrace {
		WriteTraceTable(w, result.Trace)
		fmt.Fprintln(w)
	}
	switch result.Status {
	case ir.RunHalted:
		fmt.Fprintf(w, "✓ Halted after %d step(s)\n", result.Steps)
	case ir.RunQuotaExceeded:
		fmt.Fprintf(w, "✗ Step cap reached after %d step(s)\n", result.Steps)
	default:
		fmt.Fprintf(w, "✗ Run %s after %d step(s)\n", result.Status, result.Steps)
	}
	fmt.Fprintf(w, "Result: %s\n", result.Final)
	if result.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", result.RunID)
	}
	return nil
}

// runStatusCode maps a non-halted status to a CLI error code.
func runStatusCode(status ir.RunStatus) string {
	if status == ir.RunQuotaExceeded {
		return string(engine.ErrCodeQuotaExceeded)
	}
	return ErrCodeGeneric
}
