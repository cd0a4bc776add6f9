package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/postsys/internal/ir"
	"github.com/roach88/postsys/internal/testutil"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testDefinition is the back-reference system: v#v -> # over {1,#}.
func testDefinition() *ir.Definition {
	return testutil.BackrefSystem("11#11")
}

// testStep creates a trace record with minimal required fields.
func testStep(seq int64, before, after string) ir.TraceRecord {
	return ir.TraceRecord{
		Seq:       seq,
		Before:    before,
		Rule:      "v#v -> #",
		RuleIndex: 0,
		After:     after,
		Start:     0,
		End:       len([]rune(before)),
	}
}
