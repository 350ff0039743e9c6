package dp

import (
	"fmt"

	"github.com/gitrdm/gomcdp/pkg/posets"
)

// DefaultLoopMaxIterations bounds the fixed-point search of a Loop.
const DefaultLoopMaxIterations = 100

// Loop closes a feedback edge around a DP whose functionality is F1 × R2 and
// whose resources are R1 × R2: the second resource is fed back as the second
// functionality. The Loop has F = F1 and R = R1, and (f1, r1) is feasible iff
// some x makes ((f1, x), (r1, x)) feasible for the inner DP.
//
// Solve runs a Kleene ascent in the upper sets of R1 × R2 starting from the
// whole space; SolveR runs the dual descent in the lower sets of F1 × R2.
// Both stop when two consecutive iterates are equal and fail with
// ErrNotConverged after the iteration bound.
type Loop struct {
	inner   PrimitiveDP
	f12     posets.PosetProduct
	r12     posets.PosetProduct
	maxIter int
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithMaxIterations sets the fixed-point iteration bound.
func WithMaxIterations(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.maxIter = n
		}
	}
}

// NewLoop returns the feedback composition of inner.
func NewLoop(inner PrimitiveDP, opts ...LoopOption) (*Loop, error) {
	f12, ok1 := inner.FunSpace().(posets.PosetProduct)
	r12, ok2 := inner.ResSpace().(posets.PosetProduct)
	if !ok1 || !ok2 || f12.Len() != 2 || r12.Len() != 2 {
		return nil, NewModelError("Loop", "inner DP %s must map F1×R2 to R1×R2, got %s → %s",
			inner, inner.FunSpace(), inner.ResSpace())
	}
	if !f12.Sub(1).SameAs(r12.Sub(1)) {
		return nil, NewModelError("Loop", "feedback functionality %s does not match feedback resource %s",
			f12.Sub(1), r12.Sub(1))
	}
	l := &Loop{inner: inner, f12: f12, r12: r12, maxIter: DefaultLoopMaxIterations}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// MustLoop is like NewLoop but panics on error.
func MustLoop(inner PrimitiveDP, opts ...LoopOption) *Loop {
	l, err := NewLoop(inner, opts...)
	if err != nil {
		panic(err)
	}
	return l
}

// Inner returns the DP inside the feedback.
func (l *Loop) Inner() PrimitiveDP { return l.inner }

// MaxIterations returns the iteration bound.
func (l *Loop) MaxIterations() int { return l.maxIter }

func (l *Loop) Children() []PrimitiveDP { return []PrimitiveDP{l.inner} }

func (l *Loop) FunSpace() posets.Poset { return l.f12.Sub(0) }
func (l *Loop) ResSpace() posets.Poset { return l.r12.Sub(0) }

func (l *Loop) notConverged(dir string) error {
	return &ModelError{
		Where: l.String(),
		Err:   fmt.Errorf("%s after %d iterations: %w", dir, l.maxIter, ErrNotConverged),
	}
}

// fixedPoint returns the least fixed point in U(R1 × R2) for f1.
func (l *Loop) fixedPoint(tr *Tracer, f1 any) (posets.UpperSet, error) {
	r2 := l.r12.Sub(1)
	us := posets.UpperSets{P: l.r12}
	s := posets.NewUpperSet(l.r12, l.r12.Minimal())
	for i := 0; i < l.maxIter; i++ {
		var points []any
		for _, m := range s.Minimals() {
			fb := m.(posets.Tuple)[1]
			u, err := l.inner.Solve(nil, posets.Tuple{f1, fb})
			if err != nil {
				return posets.UpperSet{}, err
			}
			for _, x := range u.Minimals() {
				t := x.(posets.Tuple)
				j, err := r2.Join(t[1], fb)
				if err != nil {
					continue
				}
				points = append(points, posets.Tuple{t[0], j})
			}
		}
		next := posets.NewUpperSet(l.r12, points)
		tr.Logf("loop: iteration %d: %s", i+1, next)
		if us.Equal(s, next) {
			return next, nil
		}
		s = next
	}
	return posets.UpperSet{}, l.notConverged("solve")
}

func (l *Loop) Solve(tr *Tracer, f any) (posets.UpperSet, error) {
	s, err := l.fixedPoint(tr.Child("loop"), f)
	if err != nil {
		return posets.UpperSet{}, err
	}
	return posets.NewUpperSet(l.ResSpace(), firsts(s.Minimals())), nil
}

func (l *Loop) SolveR(tr *Tracer, r any) (posets.LowerSet, error) {
	tr = tr.Child("loop")
	f2 := l.f12.Sub(1)
	ls := posets.LowerSets{P: l.f12}
	s := posets.NewLowerSet(l.f12, l.f12.Maximal())
	for i := 0; i < l.maxIter; i++ {
		var points []any
		for _, m := range s.Maximals() {
			fb := m.(posets.Tuple)[1]
			low, err := l.inner.SolveR(nil, posets.Tuple{r, fb})
			if err != nil {
				return posets.LowerSet{}, err
			}
			for _, x := range low.Maximals() {
				t := x.(posets.Tuple)
				mt, err := f2.Meet(t[1], fb)
				if err != nil {
					continue
				}
				points = append(points, posets.Tuple{t[0], mt})
			}
		}
		next := posets.NewLowerSet(l.f12, points)
		tr.Logf("loop: iteration %d: %s", i+1, next)
		if ls.Equal(s, next) {
			return posets.NewLowerSet(l.FunSpace(), firsts(next.Maximals())), nil
		}
		s = next
	}
	return posets.LowerSet{}, l.notConverged("solve_r")
}

// Implementations returns the inner implementations at every fixed-point
// resource (r1', x) with r1' ≤ r.
func (l *Loop) Implementations(f, r any) ([]any, error) {
	s, err := l.fixedPoint(nil, f)
	if err != nil {
		return nil, err
	}
	var out []any
	for _, m := range s.Minimals() {
		t := m.(posets.Tuple)
		if !l.ResSpace().Leq(t[0], r) {
			continue
		}
		imps, err := l.inner.Implementations(posets.Tuple{f, t[1]}, posets.Tuple{r, t[1]})
		if err != nil {
			return nil, err
		}
		out = append(out, imps...)
	}
	return out, nil
}

func (l *Loop) String() string { return "Loop(" + l.inner.String() + ")" }

func firsts(points []any) []any {
	out := make([]any, len(points))
	for i, p := range points {
		out[i] = p.(posets.Tuple)[0]
	}
	return out
}
