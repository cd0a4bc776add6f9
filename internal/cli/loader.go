package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/postsys/internal/compiler"
	"github.com/roach88/postsys/internal/ir"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeReadFailed  = "E002" // File read error
	ErrCodeEmptyInput  = "E003" // Input file has no first line
	ErrCodeDecode      = "E004" // Definition source could not be decoded
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeInvalidEnv  = "E006" // Environment configuration error
	ErrCodeWriteFailed = "E007" // File write error
)

// LoadError represents an error that occurred while loading a system.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSource reads and decodes a definition source without validating it.
func LoadSource(path string) (*ir.Definition, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("definition file not found: %s", path)}
	}

	src, err := compiler.LoadFile(path)
	if err != nil {
		return nil, convertCompileError(err)
	}
	def, err := src.Definition()
	if err != nil {
		return nil, convertCompileError(err)
	}
	return def, nil
}

// LoadSystem reads, decodes and validates a definition source.
// Validation failures are returned as the full list.
func LoadSystem(path string) (*ir.Definition, []compiler.ValidationError, error) {
	def, err := LoadSource(path)
	if err != nil {
		return nil, nil, err
	}
	if errs := compiler.Validate(def); len(errs) > 0 {
		return nil, errs, nil
	}
	return def, nil, nil
}

// ReadInitialFile returns the first line of an input file, without its
// line terminator.
func ReadInitialFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("input file not found: %s", path)}
	}
	if err != nil {
		return "", &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading input file: %v", err)}
	}
	if len(data) == 0 {
		return "", &LoadError{Code: ErrCodeEmptyInput, Message: fmt.Sprintf("input file is empty: %s", path)}
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

// WriteOutputFile writes the final string to path, followed by a newline.
func WriteOutputFile(path, final string) error {
	if err := os.WriteFile(path, []byte(final+"\n"), 0644); err != nil {
		return &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing output file: %v", err)}
	}
	return nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeDecode,
			Message: fmt.Sprintf("%s: %s: %s", compileErr.Code, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// loadErrorParts extracts error code and message from an error.
func loadErrorParts(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}
