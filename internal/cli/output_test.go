package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/postsys/internal/ir"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))

	wrapped := WrapExitError(ExitFailure, "step cap reached", errors.New("inner"))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.Equal(t, "step cap reached: inner", wrapped.Error())
	assert.EqualError(t, errors.Unwrap(wrapped), "inner")
}

func TestOutputFormatter_SuccessJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Success(map[string]int{"rules": 2}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_ErrorText(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, f.Error("E005", "not found", "x.yaml"))
	assert.Equal(t, "Error [E005]: not found\nDetails: x.yaml\n", buf.String())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	quiet := &OutputFormatter{Format: "text", Writer: out, ErrWriter: errOut}
	quiet.VerboseLog("hidden")
	assert.Empty(t, errOut.String())

	loud := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}
	loud.VerboseLog("loading %s", "a.cue")
	assert.Equal(t, "loading a.cue\n", errOut.String())
	assert.Empty(t, out.String(), "verbose output must not corrupt JSON on stdout")
}

func TestWriteTraceTable(t *testing.T) {
	buf := &bytes.Buffer{}
	WriteTraceTable(buf, []ir.TraceRecord{
		{Seq: 1, Before: "cabd", Rule: "ab -> ba", After: "cbad", Start: 1, End: 3},
	})

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Line Before"+strings.Repeat(" ", 19)+"Rule Applied"+strings.Repeat(" ", 8)+"Line After", lines[0])
	assert.Equal(t, strings.Repeat("-", 60), lines[1])
	assert.Equal(t, "cabd"+strings.Repeat(" ", 26)+"ab -> ba"+strings.Repeat(" ", 12)+"cbad", lines[2])
}

func TestWriteTraceTable_PadsByCharacter(t *testing.T) {
	buf := &bytes.Buffer{}
	WriteTraceTable(buf, []ir.TraceRecord{
		{Seq: 1, Before: "α×β", Rule: "α× -> ×α", After: "×αβ", Start: 0, End: 2},
	})

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "α×β"+strings.Repeat(" ", 27)+"α× -> ×α"+strings.Repeat(" ", 12)+"×αβ", lines[2])
	assert.Equal(t, 30, utf8.RuneCountInString(lines[2][:strings.Index(lines[2], "α× ->")]))
}

func TestWriteTraceTable_LongLinesNotTruncated(t *testing.T) {
	buf := &bytes.Buffer{}
	long := strings.Repeat("1", 40)
	WriteTraceTable(buf, []ir.TraceRecord{{Before: long, Rule: "1 -> 11", After: long + "1"}})

	assert.Contains(t, buf.String(), long+"1 -> 11")
}

func TestTraceJSON_NeverNull(t *testing.T) {
	data, err := json.Marshal(traceJSON(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
