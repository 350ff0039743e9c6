// Package posets provides the order-theoretic value model used by the
// co-design solver: partially ordered sets, their products, and the
// upper/lower sets that solve results are expressed in.
//
// # Overview
//
// A Poset describes a carrier of values together with a partial order. Values
// are carried as plain Go values (float64, int, string, Tuple, and the Top and
// Bottom markers) and are interpreted by the Poset they are passed to:
//
//	P := posets.NewPosetProduct(posets.Nat(), posets.Rcomp())
//	P.Leq(posets.Tuple{1, 2.0}, posets.Tuple{3, 2.0}) // true
//
// All posets are immutable after construction. They hold no mutable state and
// may be shared between goroutines without locking.
package posets

import (
	"errors"
	"fmt"
)

// Poset is a partially ordered set.
//
// Implementations must guarantee that Leq is reflexive, antisymmetric and
// transitive over the values accepted by Belongs. Join and Meet are only
// required to exist where the order is a lattice on the arguments; otherwise
// they return an error wrapping ErrNotJoinable or ErrNotMeetable.
type Poset interface {
	fmt.Stringer

	// Belongs returns an error wrapping ErrNotBelongs if x is not a value of
	// this poset.
	Belongs(x any) error

	// Leq reports whether a ≤ b. Both values must belong to the poset.
	Leq(a, b any) bool

	// Equal reports whether a and b denote the same element.
	Equal(a, b any) bool

	// Join returns the least upper bound of a and b.
	Join(a, b any) (any, error)

	// Meet returns the greatest lower bound of a and b.
	Meet(a, b any) (any, error)

	// Top returns the greatest element or an error wrapping ErrNotBounded.
	Top() (any, error)

	// Bottom returns the least element or an error wrapping ErrNotBounded.
	Bottom() (any, error)

	// Minimal returns the minimal elements of the carrier.
	Minimal() []any

	// Maximal returns the maximal elements of the carrier.
	Maximal() []any

	// Format renders a value for diagnostics.
	Format(x any) string

	// SameAs reports whether other is structurally the same space.
	SameAs(other Poset) bool

	// TestChain returns an increasing chain of at most n elements.
	// It is used to sample the poset in property tests.
	TestChain(n int) []any
}

// Sentinel conditions raised by poset operations.
var (
	ErrNotBelongs  = errors.New("value does not belong to poset")
	ErrNotLeq      = errors.New("values are not ordered")
	ErrNotEqual    = errors.New("values are not equal")
	ErrNotJoinable = errors.New("not joinable")
	ErrNotMeetable = errors.New("not meetable")
	ErrNotBounded  = errors.New("poset is not bounded")
)

// Top marks the greatest element of posets whose values have no natural
// representation for it, such as Nat and Int.
type Top struct{}

func (Top) String() string { return "⊤" }

// Bottom marks the least element of Int.
type Bottom struct{}

func (Bottom) String() string { return "⊥" }

// Tuple is an element of a PosetProduct.
type Tuple []any

func (t Tuple) String() string {
	return formatTuple(t, func(x any) string { return fmt.Sprint(x) })
}

// NotLeqError explains why a ≤ b does not hold.
type NotLeqError struct {
	Poset       string
	A, B        string
	Explanation string
}

func (e *NotLeqError) Error() string {
	msg := fmt.Sprintf("%s: %s ≰ %s", e.Poset, e.A, e.B)
	if e.Explanation != "" {
		msg += " (" + e.Explanation + ")"
	}
	return msg
}

func (e *NotLeqError) Unwrap() error { return ErrNotLeq }

// CheckLeq returns nil if a ≤ b in p and a *NotLeqError otherwise.
func CheckLeq(p Poset, a, b any) error {
	if p.Leq(a, b) {
		return nil
	}
	err := &NotLeqError{Poset: p.String(), A: p.Format(a), B: p.Format(b)}
	if prod, ok := p.(PosetProduct); ok {
		ta, tb := a.(Tuple), b.(Tuple)
		for i, sub := range prod.subs {
			if !sub.Leq(ta[i], tb[i]) {
				err.Explanation = fmt.Sprintf("component %d: %s ≰ %s", i, sub.Format(ta[i]), sub.Format(tb[i]))
				break
			}
		}
	}
	return err
}

// CheckEqual returns nil if a and b are equal in p.
func CheckEqual(p Poset, a, b any) error {
	if p.Equal(a, b) {
		return nil
	}
	return fmt.Errorf("%w: %s: %s ≠ %s", ErrNotEqual, p, p.Format(a), p.Format(b))
}

// Lt reports whether a < b strictly.
func Lt(p Poset, a, b any) bool {
	return p.Leq(a, b) && !p.Equal(a, b)
}

// Comparable reports whether a and b are ordered in either direction.
func Comparable(p Poset, a, b any) bool {
	return p.Leq(a, b) || p.Leq(b, a)
}

func notBelongs(p Poset, x any, why string) error {
	return fmt.Errorf("%w: %v (%T) in %s: %s", ErrNotBelongs, x, x, p, why)
}
