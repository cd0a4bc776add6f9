package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/postsys/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds a compiled definition and its identity.
type CompilationResult struct {
	Hash          string          `json:"hash"`
	SchemaVersion string          `json:"schema_version"`
	Rules         int             `json:"rules"`
	Definition    json.RawMessage `json:"definition"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <definition-file>",
		Short: "Compile a system definition to canonical JSON",
		Long: `Compile a Post system definition to canonical JSON.

The definition is decoded, validated, and written in canonical form
together with its content hash. Two definitions that describe the same
system compile to the same bytes regardless of source format.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	def, validationErrors, err := LoadSystem(path)
	if err != nil {
		code, message := loadErrorParts(err)
		return outputCompileError(formatter, code, message)
	}
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	canonical, err := ir.MarshalCanonical(def.CanonicalMap())
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, fmt.Sprintf("marshaling definition: %v", err))
	}
	hash, err := ir.DefinitionHash(def)
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error())
	}
	formatter.VerboseLog("Compiled %d rule(s), hash %s", len(def.Rules), hash)

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, canonical, 0644); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	result := CompilationResult{
		Hash:          hash,
		SchemaVersion: ir.SchemaVersion,
		Rules:         len(def.Rules),
		Definition:    canonical,
	}
	return outputCompileSuccess(formatter, result, opts.Output)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d rule(s)\n", result.Rules)
	fmt.Fprintf(formatter.Writer, "  hash: %s\n", result.Hash)
	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote canonical definition to %s\n", outputFile)
		return nil
	}
	fmt.Fprintln(formatter.Writer, string(result.Definition))
	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
