package dp

import (
	"fmt"

	"github.com/gitrdm/gomcdp/pkg/maps"
	"github.com/gitrdm/gomcdp/pkg/posets"
)

// WrapAMap is the DP whose minimal resource is the image of a map:
// Solve(f) = ↑{m(f)}. An optional dual map gives SolveR(r) = ↓{dual(r)}.
// Where either map is undefined the result is empty.
type WrapAMap struct {
	amap maps.Map
	dual maps.Map
}

// NewWrapAMap returns the DP for amap. dual may be nil, in which case SolveR
// reports ErrNotImplemented.
func NewWrapAMap(amap, dual maps.Map) (*WrapAMap, error) {
	if dual != nil {
		if !dual.Domain().SameAs(amap.Codomain()) || !dual.Codomain().SameAs(amap.Domain()) {
			return nil, NewModelError("WrapAMap", "dual %s does not invert the spaces of %s", dual, amap)
		}
	}
	return &WrapAMap{amap: amap, dual: dual}, nil
}

// MustWrapAMap is like NewWrapAMap but panics on error.
func MustWrapAMap(amap, dual maps.Map) *WrapAMap {
	d, err := NewWrapAMap(amap, dual)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *WrapAMap) FunSpace() posets.Poset { return d.amap.Domain() }
func (d *WrapAMap) ResSpace() posets.Poset { return d.amap.Codomain() }

// Map returns the forward map.
func (d *WrapAMap) Map() maps.Map { return d.amap }

// Dual returns the dual map, or nil.
func (d *WrapAMap) Dual() maps.Map { return d.dual }

func (d *WrapAMap) Solve(_ *Tracer, f any) (posets.UpperSet, error) {
	y, ok := d.amap.Apply(f)
	if !ok {
		return posets.EmptyUpperSet(d.ResSpace()), nil
	}
	return posets.UpperSetFromPoint(d.ResSpace(), y), nil
}

func (d *WrapAMap) SolveR(_ *Tracer, r any) (posets.LowerSet, error) {
	if d.dual == nil {
		return posets.LowerSet{}, notImplemented(d, "solve_r without a dual map")
	}
	x, ok := d.dual.Apply(r)
	if !ok {
		return posets.EmptyLowerSet(d.FunSpace()), nil
	}
	return posets.LowerSetFromPoint(d.FunSpace(), x), nil
}

func (d *WrapAMap) Implementations(f, r any) ([]any, error) {
	return feasibleImps(d, f, r)
}

func (d *WrapAMap) String() string { return "WrapAMap(" + d.amap.String() + ")" }

// Identity is the DP with Solve(f) = ↑{f} and SolveR(r) = ↓{r}.
type Identity struct {
	WrapAMap
}

// NewIdentity returns the identity DP on F.
func NewIdentity(F posets.Poset) *Identity {
	id := maps.Identity{P: F}
	return &Identity{WrapAMap{amap: id, dual: id}}
}

func (d *Identity) String() string { return "Id(" + d.FunSpace().String() + ")" }

// Mux is the DP that rearranges a (nested) tuple according to a coordinate
// tree. Its resource space is derived from F and the coordinates.
//
// SolveR uses the coordinate dual. When the dual is undefined, because a
// duplicated component has no meet or an unread component has no top, the
// maximal functionalities are not a single point and SolveR reports
// ErrNotImplemented.
type Mux struct {
	WrapAMap
	mux maps.Mux
}

// NewMux returns the multiplexer on F selecting coords.
func NewMux(F posets.Poset, coords maps.Coords) (*Mux, error) {
	m, err := maps.NewMux(F, coords)
	if err != nil {
		return nil, &ModelError{Where: "Mux", Err: err}
	}
	return &Mux{WrapAMap: WrapAMap{amap: m, dual: maps.MuxDual{Mux: m}}, mux: m}, nil
}

// MustMux is like NewMux but panics on error.
func MustMux(F posets.Poset, coords maps.Coords) *Mux {
	m, err := NewMux(F, coords)
	if err != nil {
		panic(err)
	}
	return m
}

// Coords returns the coordinate tree.
func (d *Mux) Coords() maps.Coords { return d.mux.Coords }

// IsIdentity reports whether the multiplexer returns its input unchanged.
func (d *Mux) IsIdentity() bool { return maps.IsIdentityCoords(d.FunSpace(), d.mux.Coords) }

func (d *Mux) SolveR(_ *Tracer, r any) (posets.LowerSet, error) {
	x, ok := maps.DualCoords(d.FunSpace(), d.mux.Coords, r)
	if !ok {
		return posets.LowerSet{}, notImplemented(d, fmt.Sprintf("solve_r(%s) has no single maximal point", d.ResSpace().Format(r)))
	}
	return posets.LowerSetFromPoint(d.FunSpace(), x), nil
}

func (d *Mux) String() string { return d.mux.String() }
