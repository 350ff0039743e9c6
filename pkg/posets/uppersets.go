package posets

import (
	"fmt"
	"slices"
	"strings"
)

// UpperSet is an upward-closed subset of a poset, stored as its antichain of
// minimal elements.
//
// The empty UpperSet denotes an infeasible problem; the UpperSet whose only
// minimal element is the bottom denotes a problem that is always satisfied.
// UpperSet values are immutable.
type UpperSet struct {
	p        Poset
	minimals []any
}

// NewUpperSet returns the upper closure of points in p (Us).
func NewUpperSet(p Poset, points []any) UpperSet {
	return UpperSet{p: p, minimals: PosetMinima(p, points)}
}

// UpperSetFromPoint returns ↑x (U).
func UpperSetFromPoint(p Poset, x any) UpperSet {
	return UpperSet{p: p, minimals: []any{x}}
}

// EmptyUpperSet returns the empty upper set of p.
func EmptyUpperSet(p Poset) UpperSet {
	return UpperSet{p: p}
}

// Poset returns the ambient poset.
func (u UpperSet) Poset() Poset { return u.p }

// Minimals returns a copy of the minimal elements.
func (u UpperSet) Minimals() []any { return slices.Clone(u.minimals) }

// Len returns the number of minimal elements.
func (u UpperSet) Len() int { return len(u.minimals) }

// IsEmpty reports whether the set is empty (infeasible).
func (u UpperSet) IsEmpty() bool { return len(u.minimals) == 0 }

// Contains reports whether x is above some minimal element.
func (u UpperSet) Contains(x any) bool {
	for _, m := range u.minimals {
		if u.p.Leq(m, x) {
			return true
		}
	}
	return false
}

func (u UpperSet) String() string {
	parts := make([]string, len(u.minimals))
	for i, m := range u.minimals {
		parts[i] = u.p.Format(m)
	}
	return "↑{" + strings.Join(parts, ", ") + "}"
}

// UpperSetUnion returns the union of sets over p.
func UpperSetUnion(p Poset, sets ...UpperSet) UpperSet {
	var points []any
	for _, s := range sets {
		points = append(points, s.minimals...)
	}
	return NewUpperSet(p, points)
}

// UpperSetProduct returns the product of sets as an upper set of prod.
// The product of antichains is an antichain; it is empty if any factor is.
func UpperSetProduct(prod PosetProduct, sets ...UpperSet) UpperSet {
	if len(sets) != prod.Len() {
		panic(fmt.Sprintf("UpperSetProduct: %d sets for %d factors", len(sets), prod.Len()))
	}
	factors := make([][]any, len(sets))
	for i, s := range sets {
		factors[i] = s.minimals
	}
	return UpperSet{p: prod, minimals: Cartesian(factors)}
}

// UpperSets is the poset of upper sets of P ordered so that a smaller set is
// a larger feasible region: A ≤ B iff B ⊆ A, that is, every element of B is
// above some element of A.
type UpperSets struct {
	P Poset
}

func (s UpperSets) String() string { return "U(" + s.P.String() + ")" }

func (s UpperSets) Belongs(x any) error {
	u, ok := x.(UpperSet)
	if !ok {
		return notBelongs(s, x, "expected UpperSet")
	}
	if !u.p.SameAs(s.P) {
		return notBelongs(s, x, "upper set of "+u.p.String())
	}
	return CheckAntichain(s.P, u.minimals)
}

func (s UpperSets) Leq(a, b any) bool {
	_, found := s.counterexample(a.(UpperSet), b.(UpperSet))
	return !found
}

// counterexample returns an element of B that is above no element of A.
func (s UpperSets) counterexample(a, b UpperSet) (any, bool) {
	for _, y := range b.minimals {
		if !a.Contains(y) {
			return y, true
		}
	}
	return nil, false
}

// CheckLeq explains why a ≰ b.
func (s UpperSets) CheckLeq(a, b UpperSet) error {
	if y, found := s.counterexample(a, b); found {
		return &NotLeqError{
			Poset:       s.String(),
			A:           a.String(),
			B:           b.String(),
			Explanation: s.P.Format(y) + " is not above any minimal element of the first set",
		}
	}
	return nil
}

// CheckEqual returns nil if a and b denote the same upper set.
func (s UpperSets) CheckEqual(a, b UpperSet) error {
	if err := s.CheckLeq(a, b); err != nil {
		return fmt.Errorf("%w: %w", ErrNotEqual, err)
	}
	if err := s.CheckLeq(b, a); err != nil {
		return fmt.Errorf("%w: %w", ErrNotEqual, err)
	}
	return nil
}

func (s UpperSets) Equal(a, b any) bool { return s.Leq(a, b) && s.Leq(b, a) }

// Join is the intersection: the minimal joins of pairs of minimal elements.
func (s UpperSets) Join(a, b any) (any, error) {
	ua, ub := a.(UpperSet), b.(UpperSet)
	var points []any
	for _, x := range ua.minimals {
		for _, y := range ub.minimals {
			j, err := s.P.Join(x, y)
			if err != nil {
				return nil, err
			}
			points = append(points, j)
		}
	}
	return NewUpperSet(s.P, points), nil
}

// Meet is the union.
func (s UpperSets) Meet(a, b any) (any, error) {
	return UpperSetUnion(s.P, a.(UpperSet), b.(UpperSet)), nil
}

// Top is the empty set.
func (s UpperSets) Top() (any, error) { return EmptyUpperSet(s.P), nil }

// Bottom is the whole poset.
func (s UpperSets) Bottom() (any, error) { return NewUpperSet(s.P, s.P.Minimal()), nil }

func (s UpperSets) Minimal() []any {
	b, _ := s.Bottom()
	return []any{b}
}

func (s UpperSets) Maximal() []any { return []any{EmptyUpperSet(s.P)} }

func (s UpperSets) Format(x any) string { return x.(UpperSet).String() }

func (s UpperSets) SameAs(other Poset) bool {
	o, ok := other.(UpperSets)
	return ok && o.P.SameAs(s.P)
}

// TestChain returns ↑c for a chain c of P: the sets shrink as c grows, which
// is increasing in UpperSets order.
func (s UpperSets) TestChain(n int) []any {
	c := s.P.TestChain(n)
	out := make([]any, len(c))
	for i, x := range c {
		out[i] = UpperSetFromPoint(s.P, x)
	}
	return out
}
