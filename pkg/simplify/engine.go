// Package simplify rewrites DP graphs into smaller equivalent ones.
//
// The engine works on series junctions. MakeSeries(dp1, dp2) builds
// dp1 ; dp2 the way a model compiler would, except that it first drops
// identity operands, flattens nested series and tries each rule of its
// ordered rule list on the new junction. Simplify rebuilds a whole graph
// bottom-up through MakeSeries.
//
// Every rule preserves semantics: for all f the rewritten DP solves to the
// same upper set. In debug mode the engine also checks after every rewrite
// that the functionality and resource spaces are unchanged, and reports an
// *dp.InternalError naming the rule otherwise.
//
// A rewrite budget proportional to the graph size bounds the work of each
// call, so a rule set that cycles fails with ErrStepBudget instead of
// hanging.
package simplify

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gitrdm/gomcdp/pkg/dp"
)

// DefaultStepFactor is the default rewrite budget per graph node.
const DefaultStepFactor = 20

// ErrStepBudget is wrapped by the InternalError returned when a call
// exceeds its rewrite budget.
var ErrStepBudget = errors.New("rewrite budget exhausted")

// Engine applies an ordered list of rules. It is safe for concurrent use.
type Engine struct {
	rules      []Rule
	debug      bool
	stepFactor int
	logger     *slog.Logger
	stats      *Stats
	observer   func(rule string)
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules replaces the rule list. Order is priority.
func WithRules(rules ...Rule) Option {
	return func(e *Engine) { e.rules = append([]Rule(nil), rules...) }
}

// WithDebug turns the signature checks on or off. They are on by default.
func WithDebug(on bool) Option {
	return func(e *Engine) { e.debug = on }
}

// WithStepFactor sets the rewrite budget per graph node.
func WithStepFactor(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.stepFactor = n
		}
	}
}

// WithLogger logs every rewrite at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver calls fn with the rule name after every rewrite.
func WithObserver(fn func(rule string)) Option {
	return func(e *Engine) { e.observer = fn }
}

// New returns an engine with DefaultRules and debug checks on.
func New(opts ...Option) *Engine {
	e := &Engine{
		rules:      DefaultRules(),
		debug:      true,
		stepFactor: DefaultStepFactor,
		logger:     slog.New(slog.DiscardHandler),
		stats:      NewStats(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the rule list in priority order.
func (e *Engine) Rules() []Rule { return append([]Rule(nil), e.rules...) }

// Stats returns the application counters of this engine.
func (e *Engine) Stats() *Stats { return e.stats }

// MakeSeries returns a DP equivalent to dp1 ; dp2. It fails with a
// *dp.ModelError when the spaces do not connect.
func (e *Engine) MakeSeries(dp1, dp2 dp.PrimitiveDP) (dp.PrimitiveDP, error) {
	if !dp1.ResSpace().SameAs(dp2.FunSpace()) {
		return nil, dp.NewModelError("MakeSeries",
			"resource space %s does not match functionality space %s", dp1.ResSpace(), dp2.FunSpace())
	}
	r := e.newRun(dp.Size(dp1) + dp.Size(dp2))
	return r.makeSeries(dp1, dp2)
}

// Simplify returns a DP equivalent to d with every series junction
// simplified.
func (e *Engine) Simplify(d dp.PrimitiveDP) (dp.PrimitiveDP, error) {
	r := e.newRun(dp.Size(d))
	return r.simplify(d)
}

// run carries the rewrite budget of one public call.
type run struct {
	e      *Engine
	budget int
	steps  int
}

func (e *Engine) newRun(nodes int) *run {
	return &run{e: e, budget: e.stepFactor * (nodes + 1)}
}

// EquivToIdentity reports whether d returns its functionality unchanged.
func EquivToIdentity(d dp.PrimitiveDP) bool {
	switch d := d.(type) {
	case *dp.Identity:
		return true
	case *dp.Mux:
		return d.IsIdentity()
	}
	return false
}

func (r *run) makeSeries(a, b dp.PrimitiveDP) (dp.PrimitiveDP, error) {
	if EquivToIdentity(a) {
		return b, nil
	}
	if EquivToIdentity(b) {
		return a, nil
	}
	if s, ok := a.(*dp.Series); ok {
		rest, err := r.makeSeries(s.Second(), b)
		if err != nil {
			return nil, err
		}
		return r.makeSeries(s.First(), rest)
	}

	head, tail := b, dp.PrimitiveDP(nil)
	if s, ok := b.(*dp.Series); ok {
		head, tail = s.First(), s.Second()
	}
	for _, rule := range r.e.rules {
		if !rule.Applies(a, head) {
			continue
		}
		res, err := r.apply(rule, a, head)
		if err != nil {
			return nil, err
		}
		if tail == nil {
			return res, nil
		}
		return r.makeSeries(res, tail)
	}
	return dp.NewSeries(a, b)
}

func (r *run) apply(rule Rule, a, b dp.PrimitiveDP) (dp.PrimitiveDP, error) {
	r.steps++
	if r.steps > r.budget {
		return nil, r.internal(rule, a, b, fmt.Errorf("%w after %d rewrites", ErrStepBudget, r.budget))
	}
	res, err := rule.Execute(a, b)
	if err != nil {
		return nil, r.internal(rule, a, b, err)
	}
	if r.e.debug {
		if err := checkSignature(a, b, res); err != nil {
			return nil, r.internal(rule, a, b, err)
		}
	}
	r.e.stats.record(rule.Name())
	if r.e.observer != nil {
		r.e.observer(rule.Name())
	}
	r.e.logger.Debug("rule applied", "rule", rule.Name(), "left", a.String(), "right", b.String(), "result", res.String())
	return r.simplify(res)
}

func (r *run) internal(rule Rule, a, b dp.PrimitiveDP, err error) error {
	return &dp.InternalError{
		Op:       "simplify",
		Rule:     rule.Name(),
		Operands: []string{dp.Repr(a), dp.Repr(b)},
		Err:      err,
	}
}

func checkSignature(a, b, res dp.PrimitiveDP) error {
	if !res.FunSpace().SameAs(a.FunSpace()) {
		return fmt.Errorf("functionality space changed from %s to %s", a.FunSpace(), res.FunSpace())
	}
	if !res.ResSpace().SameAs(b.ResSpace()) {
		return fmt.Errorf("resource space changed from %s to %s", b.ResSpace(), res.ResSpace())
	}
	return nil
}

func (r *run) simplify(d dp.PrimitiveDP) (dp.PrimitiveDP, error) {
	switch d := d.(type) {
	case *dp.Series:
		a, err := r.simplify(d.First())
		if err != nil {
			return nil, err
		}
		b, err := r.simplify(d.Second())
		if err != nil {
			return nil, err
		}
		return r.makeSeries(a, b)
	case *dp.Parallel:
		a, err := r.simplify(d.First())
		if err != nil {
			return nil, err
		}
		b, err := r.simplify(d.Second())
		if err != nil {
			return nil, err
		}
		return dp.NewParallel(a, b), nil
	case *dp.Loop:
		inner, err := r.simplify(d.Inner())
		if err != nil {
			return nil, err
		}
		return dp.NewLoop(inner, dp.WithMaxIterations(d.MaxIterations()))
	case *dp.CoProductDP:
		children := dp.Children(d)
		for i, c := range children {
			s, err := r.simplify(c)
			if err != nil {
				return nil, err
			}
			children[i] = s
		}
		return dp.NewCoProductDP(children...)
	}
	return d, nil
}

var defaultEngine = New()

// MakeSeries simplifies dp1 ; dp2 with the default engine.
func MakeSeries(dp1, dp2 dp.PrimitiveDP) (dp.PrimitiveDP, error) {
	return defaultEngine.MakeSeries(dp1, dp2)
}

// Simplify simplifies d with the default engine.
func Simplify(d dp.PrimitiveDP) (dp.PrimitiveDP, error) {
	return defaultEngine.Simplify(d)
}
