// Package dp provides the design-problem algebra: the PrimitiveDP interface
// and the primitive and composite design problems built on it.
//
// # Overview
//
// A design problem (DP) relates a functionality space F to a resource space
// R. Solving a DP for a functionality f yields the upper set of resources
// that suffice to provide f; solving it backwards for a resource budget r
// yields the lower set of functionalities achievable within r:
//
//	d := dp.MustSeries(dp.MustPlusValueDP(kg, 1.0), dp.MustMultValueDP(kg, 2.0))
//	u, err := d.Solve(nil, 3.0) // ↑{8 kg}
//
// DPs are immutable values. Solve and SolveR never modify the DP they are
// called on, so a DP graph may be solved concurrently from many goroutines.
//
// # Composition
//
//   - Series(dp1, dp2): dp1's resources are dp2's functionality
//   - Parallel(dp1, dp2): independent problems side by side
//   - Loop(dp): part of the resources are fed back as functionality
//   - CoProductDP(dps...): a choice among alternatives
//
// # Errors
//
// Solve and SolveR report failures with the kinds defined in errors.go:
// *ModelError for problems with the model, ErrNotImplemented for directions a
// DP cannot compute, and *InternalError for broken invariants. Undefined map
// points, missing joins and missing meets are not errors: they produce empty
// result sets.
package dp

import (
	"fmt"
	"strings"

	"github.com/gitrdm/gomcdp/pkg/posets"
)

// PrimitiveDP is a monotone design problem.
type PrimitiveDP interface {
	fmt.Stringer

	// FunSpace returns the functionality space F.
	FunSpace() posets.Poset

	// ResSpace returns the resource space R.
	ResSpace() posets.Poset

	// Solve returns the minimal resources needed to provide f.
	// tr may be nil.
	Solve(tr *Tracer, f any) (posets.UpperSet, error)

	// SolveR returns the maximal functionality achievable with r.
	// It returns an error wrapping ErrNotImplemented when the DP cannot be
	// solved in this direction.
	SolveR(tr *Tracer, r any) (posets.LowerSet, error)

	// Implementations returns the implementations that provide f using at
	// most r. The result is empty when (f, r) is infeasible.
	Implementations(f, r any) ([]any, error)
}

// composite is implemented by DPs built from other DPs.
type composite interface {
	Children() []PrimitiveDP
}

// Children returns the direct sub-problems of d, or nil for primitives.
func Children(d PrimitiveDP) []PrimitiveDP {
	if c, ok := d.(composite); ok {
		return c.Children()
	}
	return nil
}

// Size returns the number of nodes in the DP graph rooted at d.
func Size(d PrimitiveDP) int {
	n := 1
	for _, c := range Children(d) {
		n += Size(c)
	}
	return n
}

// IsFeasible reports whether r is among the resources sufficient for f.
func IsFeasible(d PrimitiveDP, f, r any) (bool, error) {
	u, err := d.Solve(nil, f)
	if err != nil {
		return false, err
	}
	return u.Contains(r), nil
}

// Repr renders the DP graph as an indented tree with the spaces of every
// node. It is meant for diagnostics.
func Repr(d PrimitiveDP) string {
	var sb strings.Builder
	writeRepr(&sb, d, 0)
	return sb.String()
}

func writeRepr(sb *strings.Builder, d PrimitiveDP, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	switch d.(type) {
	case *Series:
		sb.WriteString("Series")
	case *Parallel:
		sb.WriteString("Parallel")
	case *Loop:
		sb.WriteString("Loop")
	case *CoProductDP:
		sb.WriteString("CoProduct")
	default:
		sb.WriteString(d.String())
	}
	fmt.Fprintf(sb, "  %s → %s\n", d.FunSpace(), d.ResSpace())
	for _, c := range Children(d) {
		writeRepr(sb, c, depth+1)
	}
}

// feasibleImps returns {f} when (f, r) is feasible for d. It is the
// implementation enumeration of DPs without an implementation space.
func feasibleImps(d PrimitiveDP, f, r any) ([]any, error) {
	ok, err := IsFeasible(d, f, r)
	if err != nil || !ok {
		return nil, err
	}
	return []any{f}, nil
}
