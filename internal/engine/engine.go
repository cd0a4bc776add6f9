package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/postsys/internal/compiler"
	"github.com/roach88/postsys/internal/ir"
)

// Recorder receives every trace record produced by Run, in order.
// A recorder error stops the run.
type Recorder interface {
	Record(ctx context.Context, rec ir.TraceRecord) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(ctx context.Context, rec ir.TraceRecord) error

// Record calls f(ctx, rec).
func (f RecorderFunc) Record(ctx context.Context, rec ir.TraceRecord) error {
	return f(ctx, rec)
}

// StepResult describes the outcome of a single Step.
//
// When Applied is false the engine has halted and the other fields are
// zero.
type StepResult struct {
	Applied   bool
	RuleIndex int
	Rule      ir.Rule
	Start     int
	End       int
	Before    string
	After     string
}

// Engine is a Post system rewrite engine.
//
// INVARIANTS:
//   - rules order NEVER changes after construction
//   - every applied step restarts the rule search at rule 0
//   - once halted, Step and Run are no-ops until SetInitial
type Engine struct {
	def     *ir.Definition
	rules   []*compiler.CompiledRule // Compiled rules in declaration order
	working []rune
	halted  bool
	clock   *Clock
	trace   []ir.TraceRecord

	maxSteps    int // 0 means unbounded
	strictInput bool
	logger      *slog.Logger
	recorder    Recorder
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithMaxSteps caps the number of steps a single Run may apply.
//
// Default: unbounded. A Run that reaches the cap without halting returns
// a StepsExceededError and leaves the working string as it was after the
// last applied step.
func WithMaxSteps(maxSteps int) Option {
	return func(e *Engine) {
		e.maxSteps = maxSteps
	}
}

// WithStrictInput makes SetInitial reject working strings that contain
// characters outside the alphabet.
func WithStrictInput() Option {
	return func(e *Engine) {
		e.strictInput = true
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRecorder registers a recorder for trace records produced by Run.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// New creates an Engine for def and sets the working string to
// def.Initial.
//
// The definition is copied, and every rule is validated and compiled
// before New returns. A malformed rule set never produces an Engine.
func New(def *ir.Definition, opts ...Option) (*Engine, error) {
	if def == nil {
		return nil, fmt.Errorf("engine: nil definition")
	}

	d := def.Clone()
	rules, err := compiler.CompileRules(d)
	if err != nil {
		return nil, fmt.Errorf("compile rules: %w", err)
	}

	e := &Engine{
		def:    d,
		rules:  rules,
		clock:  NewClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := e.SetInitial(d.Initial); err != nil {
		return nil, err
	}
	return e, nil
}

// SetInitial replaces the working string and clears the halted state,
// the trace, and the clock.
func (e *Engine) SetInitial(s string) error {
	if e.strictInput {
		if foreign := e.def.ForeignChars(s); len(foreign) > 0 {
			return NewInvalidInputError(foreign)
		}
	}

	e.working = []rune(s)
	e.halted = false
	e.trace = nil
	e.clock.Reset()
	return nil
}

// Step applies at most one rule.
//
// The first rule (in declaration order) whose pattern occurs in the
// working string rewrites the leftmost occurrence. If no rule applies
// the engine halts and the working string is unchanged. Calling Step on
// a halted engine returns a zero StepResult.
func (e *Engine) Step() StepResult {
	if e.halted {
		return StepResult{}
	}

	c, ok := selectRule(e.rules, e.working)
	if !ok {
		e.halt()
		return StepResult{}
	}
	res, _ := e.commit(c)
	return res
}

// Run steps until the engine halts and returns the final working string.
//
// Run honours ctx cancellation between steps; on cancellation it returns
// the working string reached so far together with ctx.Err(). With
// WithMaxSteps, Run refuses the step past the cap and returns a
// StepsExceededError.
func (e *Engine) Run(ctx context.Context) (string, error) {
	var quota *QuotaEnforcer
	if e.maxSteps > 0 {
		quota = NewQuotaEnforcer(e.maxSteps)
	}

	for !e.halted {
		if err := ctx.Err(); err != nil {
			return e.Current(), err
		}

		c, ok := selectRule(e.rules, e.working)
		if !ok {
			e.halt()
			break
		}

		if quota != nil {
			if err := quota.Check(e.Current()); err != nil {
				e.logger.Warn("step quota exceeded",
					"limit", quota.MaxSteps(),
					"current", e.Current())
				return e.Current(), err
			}
		}

		_, rec := e.commit(c)
		if e.recorder != nil {
			if err := e.recorder.Record(ctx, rec); err != nil {
				return e.Current(), NewRecordError(rec.Seq, err)
			}
		}
	}

	return e.Current(), nil
}

// commit applies a selected rule and appends its trace record.
func (e *Engine) commit(c candidate) (StepResult, ir.TraceRecord) {
	before := string(e.working)
	e.working = c.out

	res := StepResult{
		Applied:   true,
		RuleIndex: c.rule.Index,
		Rule:      c.rule.Rule,
		Start:     c.match.Start,
		End:       c.match.End,
		Before:    before,
		After:     string(c.out),
	}
	rec := ir.TraceRecord{
		Seq:       e.clock.Next(),
		Before:    res.Before,
		Rule:      res.Rule.String(),
		RuleIndex: res.RuleIndex,
		After:     res.After,
		Start:     res.Start,
		End:       res.End,
	}
	e.trace = append(e.trace, rec)

	e.logger.Debug("rule applied",
		"seq", rec.Seq,
		"rule", rec.Rule,
		"before", rec.Before,
		"after", rec.After)
	return res, rec
}

func (e *Engine) halt() {
	e.halted = true
	e.logger.Info("halted",
		"steps", e.clock.Current(),
		"final", string(e.working))
}

// Current returns the working string.
func (e *Engine) Current() string {
	return string(e.working)
}

// Halted reports whether the last step found no applicable rule.
func (e *Engine) Halted() bool {
	return e.halted
}

// Steps returns the number of steps applied since the last SetInitial.
func (e *Engine) Steps() int64 {
	return e.clock.Current()
}

// Trace returns a copy of the trace records since the last SetInitial.
func (e *Engine) Trace() []ir.TraceRecord {
	out := make([]ir.TraceRecord, len(e.trace))
	copy(out, e.trace)
	return out
}

