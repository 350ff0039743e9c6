// Package ndp gives design problems named ports.
//
// A NamedDP is a PrimitiveDP whose functionality and resource spaces are
// split into named components. SimpleWrap names the components of an
// existing DP; Composite wires named children together and compiles the
// wiring into a single PrimitiveDP made of Mux, Parallel, Series, JoinNDP
// and Loop nodes.
//
// Values follow the names: a NamedDP with one functionality name takes the
// value itself, one with several names takes a posets.Tuple with one
// component per name, in FNames order, and one with no names takes the
// empty Tuple.
package ndp

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gitrdm/gomcdp/pkg/dp"
	"github.com/gitrdm/gomcdp/pkg/posets"
)

// NamedDP is a design problem with named functionalities and resources.
type NamedDP interface {
	fmt.Stringer

	// FNames returns the functionality names in order.
	FNames() []string

	// RNames returns the resource names in order.
	RNames() []string

	// FType returns the space of one functionality.
	FType(name string) (posets.Poset, error)

	// RType returns the space of one resource.
	RType(name string) (posets.Poset, error)

	// DP returns the PrimitiveDP the named ports describe.
	DP() (dp.PrimitiveDP, error)

	// Flatten returns an equivalent NamedDP with no nested composites.
	Flatten() (NamedDP, error)

	// Implementations lists the implementations with which r provides f.
	Implementations(f, r any) ([]any, error)
}

// SimpleWrap names the components of a PrimitiveDP.
type SimpleWrap struct {
	dp     dp.PrimitiveDP
	fnames []string
	rnames []string
	ftypes []posets.Poset
	rtypes []posets.Poset
}

var _ NamedDP = (*SimpleWrap)(nil)

// NewSimpleWrap names d's spaces. A single name covers the whole space;
// otherwise the space must be a PosetProduct with one factor per name.
func NewSimpleWrap(d dp.PrimitiveDP, fnames, rnames []string) (*SimpleWrap, error) {
	ftypes, err := split(d.FunSpace(), fnames)
	if err != nil {
		return nil, dp.NewModelError("SimpleWrap", "functionality of %s: %w", d, err)
	}
	rtypes, err := split(d.ResSpace(), rnames)
	if err != nil {
		return nil, dp.NewModelError("SimpleWrap", "resources of %s: %w", d, err)
	}
	return &SimpleWrap{
		dp:     d,
		fnames: slices.Clone(fnames),
		rnames: slices.Clone(rnames),
		ftypes: ftypes,
		rtypes: rtypes,
	}, nil
}

// MustSimpleWrap is like NewSimpleWrap but panics on error.
func MustSimpleWrap(d dp.PrimitiveDP, fnames, rnames []string) *SimpleWrap {
	w, err := NewSimpleWrap(d, fnames, rnames)
	if err != nil {
		panic(err)
	}
	return w
}

func split(P posets.Poset, names []string) ([]posets.Poset, error) {
	if err := checkNames(names); err != nil {
		return nil, err
	}
	if len(names) == 1 {
		return []posets.Poset{P}, nil
	}
	prod, ok := P.(posets.PosetProduct)
	if !ok || prod.Len() != len(names) {
		return nil, fmt.Errorf("%d names %v for space %s", len(names), names, P)
	}
	return prod.Subs(), nil
}

func checkNames(names []string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" {
			return fmt.Errorf("empty name")
		}
		if seen[n] {
			return fmt.Errorf("repeated name %q", n)
		}
		seen[n] = true
	}
	return nil
}

func (w *SimpleWrap) FNames() []string { return slices.Clone(w.fnames) }
func (w *SimpleWrap) RNames() []string { return slices.Clone(w.rnames) }

func (w *SimpleWrap) FType(name string) (posets.Poset, error) {
	return lookup(w.fnames, w.ftypes, name, "functionality")
}

func (w *SimpleWrap) RType(name string) (posets.Poset, error) {
	return lookup(w.rnames, w.rtypes, name, "resource")
}

func lookup(names []string, types []posets.Poset, name, what string) (posets.Poset, error) {
	i := slices.Index(names, name)
	if i < 0 {
		return nil, dp.NewModelError(name, "no %s named %q (have %s)", what, name, strings.Join(names, ", "))
	}
	return types[i], nil
}

// DP returns the wrapped DP.
func (w *SimpleWrap) DP() (dp.PrimitiveDP, error) { return w.dp, nil }

// Flatten returns w.
func (w *SimpleWrap) Flatten() (NamedDP, error) { return w, nil }

func (w *SimpleWrap) Implementations(f, r any) ([]any, error) {
	return w.dp.Implementations(f, r)
}

func (w *SimpleWrap) String() string {
	return fmt.Sprintf("SimpleWrap(%s; %s → %s)", w.dp, strings.Join(w.fnames, ", "), strings.Join(w.rnames, ", "))
}

// spaceOf returns the space that holds a value for names of the given types.
func spaceOf(types []posets.Poset) posets.Poset {
	if len(types) == 1 {
		return types[0]
	}
	return posets.NewPosetProduct(types...)
}
