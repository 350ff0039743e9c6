package maps

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/gitrdm/gomcdp/pkg/posets"
)

// Coords is a coordinate tree describing how a Mux rearranges a value.
// It is a closed sum type with two variants:
//
//	Path{}        the whole value
//	Path{1}       component 1 of a tuple
//	Path{0, 2}    component 2 of component 0
//	Group{a, b}   the tuple (a(x), b(x)); Group{} builds the unit Tuple{}
//
// Every operation on coordinate trees is pure index algebra: it never looks at
// runtime values.
type Coords interface {
	fmt.Stringer
	isCoords()
}

// Path selects a nested component.
type Path []int

// Group builds a tuple from sub-trees.
type Group []Coords

func (Path) isCoords()  {}
func (Group) isCoords() {}

func (p Path) String() string {
	switch len(p) {
	case 0:
		return "()"
	case 1:
		return strconv.Itoa(p[0])
	}
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = strconv.Itoa(n)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (g Group) String() string {
	parts := make([]string, len(g))
	for i, c := range g {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Indices is a shorthand for Group{Path{i0}, Path{i1}, …}.
//
//	Indices(1, 0) // the swap [1, 0]
func Indices(idx ...int) Group {
	g := make(Group, len(idx))
	for i, n := range idx {
		g[i] = Path{n}
	}
	return g
}

// IdentityCoords returns Path{}, the tree that selects the whole value.
func IdentityCoords() Coords { return Path{} }

// CoordsCodomain returns the space produced by applying c to values of F.
func CoordsCodomain(F posets.Poset, c Coords) (posets.Poset, error) {
	switch c := c.(type) {
	case Path:
		cur := F
		for depth, i := range c {
			prod, ok := cur.(posets.PosetProduct)
			if !ok {
				return nil, fmt.Errorf("CoordsCodomain: %s at depth %d indexes non-product %s", c, depth, cur)
			}
			if i < 0 || i >= prod.Len() {
				return nil, fmt.Errorf("CoordsCodomain: index %d out of range for %s", i, prod)
			}
			cur = prod.Sub(i)
		}
		return cur, nil
	case Group:
		subs := make([]posets.Poset, len(c))
		for i, child := range c {
			s, err := CoordsCodomain(F, child)
			if err != nil {
				return nil, err
			}
			subs[i] = s
		}
		return posets.NewPosetProduct(subs...), nil
	}
	return nil, fmt.Errorf("CoordsCodomain: unknown coordinate node %T", c)
}

// ApplyCoords evaluates c on x.
func ApplyCoords(c Coords, x any) any {
	switch c := c.(type) {
	case Path:
		for _, i := range c {
			x = x.(posets.Tuple)[i]
		}
		return x
	case Group:
		out := make(posets.Tuple, len(c))
		for i, child := range c {
			out[i] = ApplyCoords(child, x)
		}
		return out
	}
	panic(fmt.Sprintf("ApplyCoords: unknown coordinate node %T", c))
}

// ComposeCoords returns the tree c such that
//
//	ApplyCoords(c, x) == ApplyCoords(c2, ApplyCoords(c1, x))
//
// for every x. Each leaf path of c2 is resolved against c1: descending into a
// Group picks a child, and reaching a Path of c1 concatenates the remaining
// indices onto it.
func ComposeCoords(c1, c2 Coords) Coords {
	switch c2 := c2.(type) {
	case Path:
		return follow(c1, c2)
	case Group:
		out := make(Group, len(c2))
		for i, child := range c2 {
			out[i] = ComposeCoords(c1, child)
		}
		return out
	}
	panic(fmt.Sprintf("ComposeCoords: unknown coordinate node %T", c2))
}

func follow(c Coords, p Path) Coords {
	if len(p) == 0 {
		return c
	}
	switch c := c.(type) {
	case Group:
		return follow(c[p[0]], p[1:])
	case Path:
		out := make(Path, 0, len(c)+len(p))
		return append(append(out, c...), p...)
	}
	panic(fmt.Sprintf("ComposeCoords: unknown coordinate node %T", c))
}

// CanonicalCoords rewrites c into its simplest equivalent form over F: a
// Group that rebuilds every component of the sub-tuple at some path, in
// order, collapses to that path.
func CanonicalCoords(F posets.Poset, c Coords) Coords {
	g, ok := c.(Group)
	if !ok {
		return c
	}
	children := make(Group, len(g))
	for i, child := range g {
		children[i] = CanonicalCoords(F, child)
	}
	if len(children) == 0 {
		return children
	}
	first, ok := children[0].(Path)
	if !ok || len(first) == 0 {
		return children
	}
	prefix := first[:len(first)-1]
	for i, child := range children {
		p, ok := child.(Path)
		if !ok || len(p) != len(first) || !slices.Equal(p[:len(p)-1], prefix) || p[len(p)-1] != i {
			return children
		}
	}
	sub, err := CoordsCodomain(F, Path(prefix))
	if err != nil {
		return children
	}
	if prod, ok := sub.(posets.PosetProduct); ok && prod.Len() == len(children) {
		return slices.Clone(Path(prefix))
	}
	return children
}

// IsIdentityCoords reports whether c is equivalent to the identity on F.
func IsIdentityCoords(F posets.Poset, c Coords) bool {
	p, ok := CanonicalCoords(F, c).(Path)
	return ok && len(p) == 0
}

// EqualCoords reports whether two trees are structurally identical.
func EqualCoords(a, b Coords) bool {
	switch a := a.(type) {
	case Path:
		b, ok := b.(Path)
		return ok && slices.Equal(a, b)
	case Group:
		b, ok := b.(Group)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !EqualCoords(a[i], b[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// PrefixCoords prepends i to every path of c. It lifts a tree over F to the
// same tree over the component i of a larger product.
func PrefixCoords(c Coords, i int) Coords {
	switch c := c.(type) {
	case Path:
		return append(Path{i}, c...)
	case Group:
		out := make(Group, len(c))
		for k, child := range c {
			out[k] = PrefixCoords(child, i)
		}
		return out
	}
	panic(fmt.Sprintf("PrefixCoords: unknown coordinate node %T", c))
}

// StripRoot removes the leading index of every path of c. It is the inverse
// of PrefixCoords and must only be called when ReferencedRoot(c) succeeds.
func StripRoot(c Coords) Coords {
	switch c := c.(type) {
	case Path:
		return slices.Clone(c[1:])
	case Group:
		out := make(Group, len(c))
		for k, child := range c {
			out[k] = StripRoot(child)
		}
		return out
	}
	panic(fmt.Sprintf("StripRoot: unknown coordinate node %T", c))
}

// ReferencedRoot reports which top-level component c reads from.
// It returns -1 when c reads nothing (an empty Group) and ok=false when c
// reads the whole value or more than one component.
func ReferencedRoot(c Coords) (root int, ok bool) {
	switch c := c.(type) {
	case Path:
		if len(c) == 0 {
			return 0, false
		}
		return c[0], true
	case Group:
		root = -1
		for _, child := range c {
			r, ok := ReferencedRoot(child)
			if !ok {
				return 0, false
			}
			if r == -1 {
				continue
			}
			if root != -1 && r != root {
				return 0, false
			}
			root = r
		}
		return root, true
	}
	return 0, false
}

// DualCoords returns the greatest f in F with ApplyCoords(c, f) ≤ r, when it
// exists. Each leaf of F receives the meet of every component of r that
// reads it; leaves that nothing reads receive their top. The result is
// undefined when a required meet or top does not exist.
func DualCoords(F posets.Poset, c Coords, r any) (any, bool) {
	reads := map[string][]any{}
	collectReads(c, r, reads)
	return buildDual(F, nil, reads)
}

func pathKey(p []int) string {
	var sb strings.Builder
	for _, i := range p {
		sb.WriteString(strconv.Itoa(i))
		sb.WriteByte('/')
	}
	return sb.String()
}

func collectReads(c Coords, r any, reads map[string][]any) {
	switch c := c.(type) {
	case Path:
		key := pathKey(c)
		reads[key] = append(reads[key], r)
	case Group:
		t := r.(posets.Tuple)
		for i, child := range c {
			collectReads(child, t[i], reads)
		}
	}
}

// buildDual walks F, combining bounds placed on a node with the bounds
// placed on its descendants.
func buildDual(F posets.Poset, at []int, reads map[string][]any) (any, bool) {
	var bound any
	for _, v := range reads[pathKey(at)] {
		if bound == nil {
			bound = v
			continue
		}
		m, err := F.Meet(bound, v)
		if err != nil {
			return nil, false
		}
		bound = m
	}

	prod, isProd := F.(posets.PosetProduct)
	if !isProd || !readsBelow(at, reads) {
		if bound != nil {
			return bound, true
		}
		top, err := F.Top()
		if err != nil {
			return nil, false
		}
		return top, true
	}

	out := make(posets.Tuple, prod.Len())
	for i := 0; i < prod.Len(); i++ {
		v, ok := buildDual(prod.Sub(i), append(slices.Clone(at), i), reads)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	if bound == nil {
		return out, true
	}
	m, err := F.Meet(bound, out)
	if err != nil {
		return nil, false
	}
	return m, true
}

func readsBelow(at []int, reads map[string][]any) bool {
	prefix := pathKey(at)
	for key := range reads {
		if len(key) > len(prefix) && strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
