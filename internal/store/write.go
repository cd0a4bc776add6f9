package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/postsys/internal/ir"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// CreateRun inserts the header of a new run in the running state.
//
// The definition is serialized to canonical JSON and hashed, so two runs of
// the same definition share a definition_hash.
func (s *Store) CreateRun(ctx context.Context, id string, def *ir.Definition, initial, engineVersion string) (ir.RunRecord, error) {
	defJSON, err := marshalDefinition(def)
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("create run: %w", err)
	}
	defHash, err := ir.DefinitionHash(def)
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("create run: %w", err)
	}

	run := ir.RunRecord{
		ID:             id,
		DefinitionHash: defHash,
		Definition:     defJSON,
		Initial:        initial,
		Final:          initial,
		Status:         ir.RunRunning,
		EngineVersion:  engineVersion,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, definition_hash, definition, initial, final, status, steps, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.DefinitionHash,
		run.Definition,
		run.Initial,
		run.Final,
		string(run.Status),
		run.Steps,
		run.EngineVersion,
	)
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// WriteStep appends one trace record to a run.
// Uses ON CONFLICT(run_id, seq) DO NOTHING for idempotency.
//
// Note: The run must exist (foreign key constraint).
func (s *Store) WriteStep(ctx context.Context, runID string, rec ir.TraceRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO steps
		(run_id, seq, rule_index, rule, line_before, line_after, start_pos, end_pos)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		runID,
		rec.Seq,
		rec.RuleIndex,
		rec.Rule,
		rec.Before,
		rec.After,
		rec.Start,
		rec.End,
	)
	if err != nil {
		return fmt.Errorf("write step: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a run. status must be terminal.
// Returns ErrNotFound if the run does not exist.
func (s *Store) FinishRun(ctx context.Context, runID, final string, status ir.RunStatus, steps int64) error {
	if !status.Valid() || !status.Terminal() {
		return fmt.Errorf("finish run %s: status %q is not terminal", runID, status)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET final = ?, status = ?, steps = ?
		WHERE id = ?
	`, final, string(status), steps, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrNotFound)
	}
	return nil
}
