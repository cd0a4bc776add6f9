package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/postsys/internal/ir"
	"github.com/roach88/postsys/internal/queryir"
	"github.com/roach88/postsys/internal/querysql"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Column lists in scan order.
var (
	runColumns  = []string{"id", "definition_hash", "definition", "initial", "final", "status", "steps", "engine_version"}
	stepColumns = []string{"seq", "line_before", "rule", "rule_index", "line_after", "start_pos", "end_pos"}
)

// GetRun returns the header of a run.
// Returns ErrNotFound if the run does not exist.
func (s *Store) GetRun(ctx context.Context, id string) (ir.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+strings.Join(runColumns, ", ")+`
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.RunRecord{}, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns every run header ordered by id.
//
// Returns an empty slice (not nil) if the store has no runs.
func (s *Store) ListRuns(ctx context.Context) ([]ir.RunRecord, error) {
	return s.FindRuns(ctx, nil)
}

// FindRuns returns the run headers matching filter, ordered by id.
// A nil filter matches every run.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) FindRuns(ctx context.Context, filter queryir.Predicate) ([]ir.RunRecord, error) {
	rows, err := s.query(ctx, queryir.Select{
		From:    queryir.TableRuns,
		Columns: runColumns,
		Filter:  filter,
	})
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.RunRecord{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadSteps returns the trace of a run in seq order.
//
// Returns an empty slice (not nil) if the run has no steps.
func (s *Store) ReadSteps(ctx context.Context, runID string) ([]ir.TraceRecord, error) {
	return s.FindSteps(ctx, queryir.Equals{Field: "run_id", Value: runID})
}

// FindSteps returns the steps matching filter, ordered by run and seq.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) FindSteps(ctx context.Context, filter queryir.Predicate) ([]ir.TraceRecord, error) {
	rows, err := s.query(ctx, queryir.Select{
		From:    queryir.TableSteps,
		Columns: stepColumns,
		Filter:  filter,
	})
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []ir.TraceRecord{}
	for rows.Next() {
		var rec ir.TraceRecord
		if err := rows.Scan(
			&rec.Seq,
			&rec.Before,
			&rec.Rule,
			&rec.RuleIndex,
			&rec.After,
			&rec.Start,
			&rec.End,
		); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		steps = append(steps, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

// query compiles q and runs it.
func (s *Store) query(ctx context.Context, q queryir.Query) (*sql.Rows, error) {
	stmt, params, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, err
	}
	return s.db.QueryContext(ctx, stmt, params...)
}

func scanRun(row rowScanner) (ir.RunRecord, error) {
	var run ir.RunRecord
	var status string
	err := row.Scan(
		&run.ID,
		&run.DefinitionHash,
		&run.Definition,
		&run.Initial,
		&run.Final,
		&status,
		&run.Steps,
		&run.EngineVersion,
	)
	if err != nil {
		return ir.RunRecord{}, err
	}
	run.Status = ir.RunStatus(status)
	return run, nil
}
