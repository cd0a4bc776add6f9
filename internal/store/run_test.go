package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/postsys/internal/ir"
)

func TestCreateRun_GetRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	def := testDefinition()

	created, err := s.CreateRun(ctx, "run-1", def, "11#11", "0.1.0")
	require.NoError(t, err)

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, ir.RunRunning, got.Status)
	assert.Equal(t, "11#11", got.Final)
	assert.Equal(t, int64(0), got.Steps)

	wantHash, err := ir.DefinitionHash(def)
	require.NoError(t, err)
	assert.Equal(t, wantHash, got.DefinitionHash)
}

func TestCreateRun_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.CreateRun(ctx, "run-1", testDefinition(), "11#11", "0.1.0")
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, "run-1", testDefinition(), "11#11", "0.1.0")
	assert.Error(t, err)
}

func TestGetRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoredDefinition_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	def := testDefinition()

	_, err := s.CreateRun(ctx, "run-1", def, def.Initial, "0.1.0")
	require.NoError(t, err)
	run, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)

	decoded, err := UnmarshalDefinition(run.Definition)
	require.NoError(t, err)
	assert.Equal(t, def, decoded)
}

func TestWriteStep_ReadSteps_Ordered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.CreateRun(ctx, "run-1", testDefinition(), "11#11", "0.1.0")
	require.NoError(t, err)

	// Written out of order; read back by seq.
	require.NoError(t, s.WriteStep(ctx, "run-1", testStep(2, "b", "c")))
	require.NoError(t, s.WriteStep(ctx, "run-1", testStep(1, "a", "b")))
	require.NoError(t, s.WriteStep(ctx, "run-1", testStep(3, "c", "d")))

	steps, err := s.ReadSteps(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, steps, 3)
	for i, rec := range steps {
		assert.Equal(t, int64(i+1), rec.Seq)
	}
	assert.Equal(t, testStep(1, "a", "b"), steps[0])
}

func TestWriteStep_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.CreateRun(ctx, "run-1", testDefinition(), "11#11", "0.1.0")
	require.NoError(t, err)

	require.NoError(t, s.WriteStep(ctx, "run-1", testStep(1, "11#11", "#")))
	require.NoError(t, s.WriteStep(ctx, "run-1", testStep(1, "11#11", "#")))

	steps, err := s.ReadSteps(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, steps, 1)
}

func TestWriteStep_UnknownRun(t *testing.T) {
	s := createTestStore(t)

	err := s.WriteStep(context.Background(), "missing", testStep(1, "a", "b"))
	assert.Error(t, err, "foreign key must reject steps without a run")
}

func TestReadSteps_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	steps, err := s.ReadSteps(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, steps)
	assert.Empty(t, steps)
}

func TestFinishRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.CreateRun(ctx, "run-1", testDefinition(), "11#11", "0.1.0")
	require.NoError(t, err)

	require.NoError(t, s.FinishRun(ctx, "run-1", "#", ir.RunHalted, 1))

	run, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "#", run.Final)
	assert.Equal(t, ir.RunHalted, run.Status)
	assert.True(t, run.Status.Terminal())
	assert.Equal(t, int64(1), run.Steps)
}

func TestFinishRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	err := s.FinishRun(context.Background(), "missing", "", ir.RunHalted, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFinishRun_RejectsNonTerminalStatus(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.CreateRun(ctx, "run-1", testDefinition(), "11#11", "0.1.0")
	require.NoError(t, err)

	for _, status := range []ir.RunStatus{ir.RunRunning, "finished"} {
		err := s.FinishRun(ctx, "run-1", "#", status, 1)
		require.Error(t, err, "status %q", status)
		assert.Contains(t, err.Error(), "not terminal")
	}

	run, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, ir.RunRunning, run.Status, "rejected finish must not touch the row")
	assert.Equal(t, "11#11", run.Final)
}

func TestListRuns_OrderedByID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	for _, id := range []string{"run-b", "run-a", "run-c"} {
		_, err := s.CreateRun(ctx, id, testDefinition(), "11#11", "0.1.0")
		require.NoError(t, err)
	}

	runs, err = s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-a", runs[0].ID)
	assert.Equal(t, "run-b", runs[1].ID)
	assert.Equal(t, "run-c", runs[2].ID)
}

func TestStepRecorder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.CreateRun(ctx, "run-1", testDefinition(), "11#11", "0.1.0")
	require.NoError(t, err)

	rec := NewStepRecorder(s, "run-1")
	require.NoError(t, rec.Record(ctx, testStep(1, "11#11", "#")))

	steps, err := s.ReadSteps(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "#", steps[0].After)
}
