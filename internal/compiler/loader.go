package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/postsys/internal/ir"
)

// Source formats recognised by LoadFile.
const (
	FormatCUE  = "cue"
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatText = "text"
)

// FormatOf returns the source format implied by a file name.
// Unknown extensions are read as the legacy text format.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatText
	}
}

// LoadFile reads a system definition source from path.
func LoadFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data, FormatOf(path), path)
}

// Decode parses data in the given format. filename is only used in
// error positions.
func Decode(data []byte, format, filename string) (*Source, error) {
	switch format {
	case FormatCUE:
		return LoadCUE(data, filename)
	case FormatYAML:
		return DecodeYAML(data)
	case FormatTOML:
		return DecodeTOML(data)
	case FormatText:
		return ParseText(string(data)), nil
	default:
		return nil, fmt.Errorf("unknown source format %q", format)
	}
}

// LoadDefinition reads and validates a definition source in one call.
// The returned error is either a *CompileError (decoding) or a
// ValidationError (a malformed rule set).
func LoadDefinition(path string) (*ir.Definition, error) {
	src, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	def, err := src.Definition()
	if err != nil {
		return nil, err
	}
	if errs := Validate(def); len(errs) > 0 {
		return nil, errs[0]
	}
	return def, nil
}
