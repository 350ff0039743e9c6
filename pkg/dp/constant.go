package dp

import (
	"github.com/gitrdm/gomcdp/pkg/posets"
)

// Constant is the DP with no functionality that always requires the resource
// value: F = One, Solve(()) = ↑{value}.
type Constant struct {
	R     posets.Poset
	Value any
}

// NewConstant returns the constant DP, checking value ∈ R.
func NewConstant(R posets.Poset, value any) (*Constant, error) {
	if err := R.Belongs(value); err != nil {
		return nil, &ModelError{Where: "Constant", Err: err}
	}
	return &Constant{R: R, Value: value}, nil
}

// MustConstant is like NewConstant but panics on error.
func MustConstant(R posets.Poset, value any) *Constant {
	d, err := NewConstant(R, value)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Constant) FunSpace() posets.Poset { return posets.One() }
func (d *Constant) ResSpace() posets.Poset { return d.R }

func (d *Constant) Solve(_ *Tracer, _ any) (posets.UpperSet, error) {
	return posets.UpperSetFromPoint(d.R, d.Value), nil
}

func (d *Constant) SolveR(_ *Tracer, r any) (posets.LowerSet, error) {
	if !d.R.Leq(d.Value, r) {
		return posets.EmptyLowerSet(posets.One()), nil
	}
	return posets.LowerSetFromPoint(posets.One(), posets.Tuple{}), nil
}

func (d *Constant) Implementations(f, r any) ([]any, error) { return feasibleImps(d, f, r) }

func (d *Constant) String() string { return "Constant(" + d.R.Format(d.Value) + ")" }

// Limit is the DP with no resources that accepts functionality up to value:
// R = One, Solve(f) = ↑{()} if f ≤ value, else ∅.
type Limit struct {
	F     posets.Poset
	Value any
}

// NewLimit returns the limit DP, checking value ∈ F.
func NewLimit(F posets.Poset, value any) (*Limit, error) {
	if err := F.Belongs(value); err != nil {
		return nil, &ModelError{Where: "Limit", Err: err}
	}
	return &Limit{F: F, Value: value}, nil
}

// MustLimit is like NewLimit but panics on error.
func MustLimit(F posets.Poset, value any) *Limit {
	d, err := NewLimit(F, value)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Limit) FunSpace() posets.Poset { return d.F }
func (d *Limit) ResSpace() posets.Poset { return posets.One() }

func (d *Limit) Solve(_ *Tracer, f any) (posets.UpperSet, error) {
	if !d.F.Leq(f, d.Value) {
		return posets.EmptyUpperSet(posets.One()), nil
	}
	return posets.UpperSetFromPoint(posets.One(), posets.Tuple{}), nil
}

func (d *Limit) SolveR(_ *Tracer, _ any) (posets.LowerSet, error) {
	return posets.LowerSetFromPoint(d.F, d.Value), nil
}

func (d *Limit) Implementations(f, r any) ([]any, error) { return feasibleImps(d, f, r) }

func (d *Limit) String() string { return "Limit(" + d.F.Format(d.Value) + ")" }
