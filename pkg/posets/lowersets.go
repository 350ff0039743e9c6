package posets

import (
	"fmt"
	"slices"
	"strings"
)

// LowerSet is a downward-closed subset of a poset, stored as its antichain of
// maximal elements. It is the result type of SolveR.
type LowerSet struct {
	p        Poset
	maximals []any
}

// NewLowerSet returns the lower closure of points in p (Ls).
func NewLowerSet(p Poset, points []any) LowerSet {
	return LowerSet{p: p, maximals: PosetMaxima(p, points)}
}

// LowerSetFromPoint returns ↓x (L).
func LowerSetFromPoint(p Poset, x any) LowerSet {
	return LowerSet{p: p, maximals: []any{x}}
}

// EmptyLowerSet returns the empty lower set of p.
func EmptyLowerSet(p Poset) LowerSet {
	return LowerSet{p: p}
}

// Poset returns the ambient poset.
func (l LowerSet) Poset() Poset { return l.p }

// Maximals returns a copy of the maximal elements.
func (l LowerSet) Maximals() []any { return slices.Clone(l.maximals) }

// Len returns the number of maximal elements.
func (l LowerSet) Len() int { return len(l.maximals) }

// IsEmpty reports whether the set is empty.
func (l LowerSet) IsEmpty() bool { return len(l.maximals) == 0 }

// Contains reports whether x is below some maximal element.
func (l LowerSet) Contains(x any) bool {
	for _, m := range l.maximals {
		if l.p.Leq(x, m) {
			return true
		}
	}
	return false
}

func (l LowerSet) String() string {
	parts := make([]string, len(l.maximals))
	for i, m := range l.maximals {
		parts[i] = l.p.Format(m)
	}
	return "↓{" + strings.Join(parts, ", ") + "}"
}

// LowerSetUnion returns the union of sets over p.
func LowerSetUnion(p Poset, sets ...LowerSet) LowerSet {
	var points []any
	for _, s := range sets {
		points = append(points, s.maximals...)
	}
	return NewLowerSet(p, points)
}

// LowerSetProduct returns the product of sets as a lower set of prod.
func LowerSetProduct(prod PosetProduct, sets ...LowerSet) LowerSet {
	if len(sets) != prod.Len() {
		panic(fmt.Sprintf("LowerSetProduct: %d sets for %d factors", len(sets), prod.Len()))
	}
	factors := make([][]any, len(sets))
	for i, s := range sets {
		factors[i] = s.maximals
	}
	return LowerSet{p: prod, maximals: Cartesian(factors)}
}

// LowerSets is the poset of lower sets of P ordered by inclusion: A ≤ B iff
// every element of A is below some element of B.
type LowerSets struct {
	P Poset
}

func (s LowerSets) String() string { return "L(" + s.P.String() + ")" }

func (s LowerSets) Belongs(x any) error {
	l, ok := x.(LowerSet)
	if !ok {
		return notBelongs(s, x, "expected LowerSet")
	}
	if !l.p.SameAs(s.P) {
		return notBelongs(s, x, "lower set of "+l.p.String())
	}
	return CheckAntichain(s.P, l.maximals)
}

func (s LowerSets) counterexample(a, b LowerSet) (any, bool) {
	for _, x := range a.maximals {
		if !b.Contains(x) {
			return x, true
		}
	}
	return nil, false
}

func (s LowerSets) Leq(a, b any) bool {
	_, found := s.counterexample(a.(LowerSet), b.(LowerSet))
	return !found
}

// CheckLeq explains why a ⊄ b.
func (s LowerSets) CheckLeq(a, b LowerSet) error {
	if x, found := s.counterexample(a, b); found {
		return &NotLeqError{
			Poset:       s.String(),
			A:           a.String(),
			B:           b.String(),
			Explanation: s.P.Format(x) + " is not below any maximal element of the second set",
		}
	}
	return nil
}

// CheckEqual returns nil if a and b denote the same lower set.
func (s LowerSets) CheckEqual(a, b LowerSet) error {
	if err := s.CheckLeq(a, b); err != nil {
		return fmt.Errorf("%w: %w", ErrNotEqual, err)
	}
	if err := s.CheckLeq(b, a); err != nil {
		return fmt.Errorf("%w: %w", ErrNotEqual, err)
	}
	return nil
}

func (s LowerSets) Equal(a, b any) bool { return s.Leq(a, b) && s.Leq(b, a) }

// Join is the union.
func (s LowerSets) Join(a, b any) (any, error) {
	return LowerSetUnion(s.P, a.(LowerSet), b.(LowerSet)), nil
}

// Meet is the intersection: the maximal meets of pairs of maximal elements.
func (s LowerSets) Meet(a, b any) (any, error) {
	la, lb := a.(LowerSet), b.(LowerSet)
	var points []any
	for _, x := range la.maximals {
		for _, y := range lb.maximals {
			m, err := s.P.Meet(x, y)
			if err != nil {
				return nil, err
			}
			points = append(points, m)
		}
	}
	return NewLowerSet(s.P, points), nil
}

// Top is the whole poset.
func (s LowerSets) Top() (any, error) { return NewLowerSet(s.P, s.P.Maximal()), nil }

// Bottom is the empty set.
func (s LowerSets) Bottom() (any, error) { return EmptyLowerSet(s.P), nil }

func (s LowerSets) Minimal() []any { return []any{EmptyLowerSet(s.P)} }

func (s LowerSets) Maximal() []any {
	t, _ := s.Top()
	return []any{t}
}

func (s LowerSets) Format(x any) string { return x.(LowerSet).String() }

func (s LowerSets) SameAs(other Poset) bool {
	o, ok := other.(LowerSets)
	return ok && o.P.SameAs(s.P)
}

// TestChain returns ↓c for a chain c of P.
func (s LowerSets) TestChain(n int) []any {
	c := s.P.TestChain(n)
	out := make([]any, len(c))
	for i, x := range c {
		out[i] = LowerSetFromPoint(s.P, x)
	}
	return out
}
