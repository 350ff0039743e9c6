// Package solver is the entry point for answering design queries on a DP.
//
// A Solver validates the query against the DP's spaces, runs the DP's own
// Solve or SolveR with a fresh Tracer, re-minimises the answer and records
// the outcome. Every error it returns belongs to the taxonomy of package dp:
// a *dp.ModelError for bad input, an error wrapping dp.ErrNotImplemented
// when a direction cannot be computed, and a *dp.InternalError for a broken
// invariant. A panic inside a primitive is reported as an InternalError.
//
// Basic usage:
//
//	s := solver.New(solver.WithDebug(true))
//	res, err := s.Solve(model, 3.0)
//	if err != nil {
//		return err
//	}
//	fmt.Println(res.Min)
package solver

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gitrdm/gomcdp/pkg/dp"
	"github.com/gitrdm/gomcdp/pkg/posets"
	"github.com/gitrdm/gomcdp/pkg/simplify"
)

// Result is the answer to a forward query: the minimal resources needed to
// provide Query.
type Result struct {
	Query any
	Min   posets.UpperSet
	Trace *dp.Tracer
}

// Feasible reports whether some resource provides the functionality.
func (r Result) Feasible() bool { return !r.Min.IsEmpty() }

// ResultR is the answer to a backward query: the maximal functionality
// that Query can provide.
type ResultR struct {
	Query any
	Max   posets.LowerSet
	Trace *dp.Tracer
}

// Feasible reports whether the resource provides any functionality.
func (r ResultR) Feasible() bool { return !r.Max.IsEmpty() }

// Solver answers queries. It is safe for concurrent use.
type Solver struct {
	debug      bool
	simplify   bool
	logger     *slog.Logger
	metrics    *Metrics
	engineOpts []simplify.Option
	engine     *simplify.Engine
}

// Option configures a Solver.
type Option func(*Solver)

// WithDebug turns on the invariant checks: the answer of every query must
// be an antichain of its space, and every rewrite must keep its signature.
func WithDebug(on bool) Option {
	return func(s *Solver) { s.debug = on }
}

// WithLogger sets the logger used for traces and errors.
func WithLogger(l *slog.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records every query and rewrite on m.
func WithMetrics(m *Metrics) Option {
	return func(s *Solver) { s.metrics = m }
}

// WithSimplify controls whether Prepare rewrites the DP. On by default.
func WithSimplify(on bool) Option {
	return func(s *Solver) { s.simplify = on }
}

// WithEngineOptions passes extra options to the simplification engine.
func WithEngineOptions(opts ...simplify.Option) Option {
	return func(s *Solver) { s.engineOpts = append(s.engineOpts, opts...) }
}

// New returns a Solver with a discard logger, no metrics, debug checks off
// and simplification on.
func New(opts ...Option) *Solver {
	s := &Solver{
		simplify: true,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	eopts := []simplify.Option{
		simplify.WithDebug(s.debug),
		simplify.WithLogger(s.logger),
		simplify.WithObserver(s.metrics.RuleApplied),
	}
	s.engine = simplify.New(append(eopts, s.engineOpts...)...)
	return s
}

// Metrics returns the metrics the solver records on, or nil.
func (s *Solver) Metrics() *Metrics { return s.metrics }

// Engine returns the simplification engine used by Prepare.
func (s *Solver) Engine() *simplify.Engine { return s.engine }

// Prepare returns the DP the solver should query: d itself, or its
// simplified equivalent when simplification is on.
func (s *Solver) Prepare(d dp.PrimitiveDP) (dp.PrimitiveDP, error) {
	if !s.simplify {
		return d, nil
	}
	before := dp.Size(d)
	out, err := s.engine.Simplify(d)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("simplified", "before", before, "after", dp.Size(out))
	return out, nil
}

// Solve returns the minimal resources needed to provide f.
func (s *Solver) Solve(d dp.PrimitiveDP, f any) (res Result, err error) {
	start := time.Now()
	defer func() { s.metrics.observe("solve", start, res.Feasible(), err) }()
	defer s.recoverPanic("solve", d, &err)

	res = Result{Query: f, Min: posets.EmptyUpperSet(d.ResSpace())}
	if err := d.FunSpace().Belongs(f); err != nil {
		return res, &dp.ModelError{Where: "solve", Err: fmt.Errorf("functionality: %w", err)}
	}
	tr := dp.NewTracer("solve", s.logger)
	res.Trace = tr
	tr.Logf("Solving %s for f = %s", d, d.FunSpace().Format(f))

	u, err := d.Solve(tr, f)
	if err != nil {
		s.logger.Debug("solve failed", "dp", d.String(), "err", err)
		return res, err
	}
	mins := u.Minimals()
	if s.debug {
		if err := s.checkAnswer(d.ResSpace(), mins); err != nil {
			return res, &dp.InternalError{Op: "solve", Operands: []string{dp.Repr(d)}, Err: err}
		}
	}
	res.Min = posets.NewUpperSet(d.ResSpace(), mins)
	if res.Min.IsEmpty() {
		tr.Log("This problem is unfeasible.")
	} else {
		tr.Logf("Minimal resources needed: %s", res.Min)
	}
	return res, nil
}

// SolveR returns the maximal functionality r can provide.
func (s *Solver) SolveR(d dp.PrimitiveDP, r any) (res ResultR, err error) {
	start := time.Now()
	defer func() { s.metrics.observe("solve_r", start, res.Feasible(), err) }()
	defer s.recoverPanic("solve_r", d, &err)

	res = ResultR{Query: r, Max: posets.EmptyLowerSet(d.FunSpace())}
	if err := d.ResSpace().Belongs(r); err != nil {
		return res, &dp.ModelError{Where: "solve_r", Err: fmt.Errorf("resource: %w", err)}
	}
	tr := dp.NewTracer("solve_r", s.logger)
	res.Trace = tr
	tr.Logf("Solving %s backwards for r = %s", d, d.ResSpace().Format(r))

	l, err := d.SolveR(tr, r)
	if err != nil {
		s.logger.Debug("solve_r failed", "dp", d.String(), "err", err)
		return res, err
	}
	maxs := l.Maximals()
	if s.debug {
		if err := s.checkAnswer(d.FunSpace(), maxs); err != nil {
			return res, &dp.InternalError{Op: "solve_r", Operands: []string{dp.Repr(d)}, Err: err}
		}
	}
	res.Max = posets.NewLowerSet(d.FunSpace(), maxs)
	if res.Max.IsEmpty() {
		tr.Log("This problem is unfeasible.")
	} else {
		tr.Logf("Maximal functionality possible: %s", res.Max)
	}
	return res, nil
}

// Implementations lists the implementations with which r provides f.
func (s *Solver) Implementations(d dp.PrimitiveDP, f, r any) (imps []any, err error) {
	start := time.Now()
	defer func() { s.metrics.observe("implementations", start, len(imps) > 0, err) }()
	defer s.recoverPanic("implementations", d, &err)

	if err := d.FunSpace().Belongs(f); err != nil {
		return nil, &dp.ModelError{Where: "implementations", Err: fmt.Errorf("functionality: %w", err)}
	}
	if err := d.ResSpace().Belongs(r); err != nil {
		return nil, &dp.ModelError{Where: "implementations", Err: fmt.Errorf("resource: %w", err)}
	}
	return d.Implementations(f, r)
}

func (s *Solver) checkAnswer(p posets.Poset, points []any) error {
	for _, x := range points {
		if err := p.Belongs(x); err != nil {
			return err
		}
	}
	return posets.CheckAntichain(p, points)
}

func (s *Solver) recoverPanic(op string, d dp.PrimitiveDP, err *error) {
	p := recover()
	if p == nil {
		return
	}
	s.logger.Error("panic in primitive", "op", op, "dp", d.String(), "panic", p)
	*err = &dp.InternalError{
		Op:       op,
		Operands: []string{dp.Repr(d)},
		Err:      fmt.Errorf("panic: %v", p),
	}
}
