package posets

import (
	"math"
	"strconv"
)

// RcompUnits is the completed non-negative reals [0, +∞] tagged with a unit
// of measurement. Values are float64; the top element is +Inf.
//
// Two RcompUnits are the same space only if their units match, which is how
// unit mismatches in a model surface as space mismatches:
//
//	NewRcompUnits("kg").SameAs(NewRcompUnits("s")) // false
type RcompUnits struct {
	Units string
}

// Rcomp returns the dimensionless completed reals.
func Rcomp() RcompUnits { return RcompUnits{} }

// NewRcompUnits returns the completed reals measured in units.
func NewRcompUnits(units string) RcompUnits { return RcompUnits{Units: units} }

func (p RcompUnits) String() string {
	if p.Units == "" {
		return "Rcomp"
	}
	return "Rcomp[" + p.Units + "]"
}

func (p RcompUnits) Belongs(x any) error {
	v, ok := x.(float64)
	if !ok {
		return notBelongs(p, x, "expected float64")
	}
	if math.IsNaN(v) {
		return notBelongs(p, x, "NaN")
	}
	if v < 0 {
		return notBelongs(p, x, "negative")
	}
	return nil
}

func (p RcompUnits) Leq(a, b any) bool {
	return a.(float64) <= b.(float64)
}

func (p RcompUnits) Equal(a, b any) bool {
	return a.(float64) == b.(float64)
}

func (p RcompUnits) Join(a, b any) (any, error) {
	return math.Max(a.(float64), b.(float64)), nil
}

func (p RcompUnits) Meet(a, b any) (any, error) {
	return math.Min(a.(float64), b.(float64)), nil
}

func (p RcompUnits) Top() (any, error)    { return math.Inf(1), nil }
func (p RcompUnits) Bottom() (any, error) { return 0.0, nil }
func (p RcompUnits) Minimal() []any       { return []any{0.0} }
func (p RcompUnits) Maximal() []any       { return []any{math.Inf(1)} }

func (p RcompUnits) Format(x any) string {
	v, ok := x.(float64)
	if !ok {
		return "?" + strconv.Quote(toString(x))
	}
	s := "∞"
	if !math.IsInf(v, 1) {
		s = strconv.FormatFloat(v, 'g', -1, 64)
	}
	if p.Units != "" {
		s += " " + p.Units
	}
	return s
}

func (p RcompUnits) SameAs(other Poset) bool {
	o, ok := other.(RcompUnits)
	return ok && o.Units == p.Units
}

// TestChain returns 0, 1, 2, … followed by +Inf as the last element.
func (p RcompUnits) TestChain(n int) []any {
	if n <= 0 {
		return nil
	}
	chain := make([]any, 0, n)
	for i := 0; i < n-1; i++ {
		chain = append(chain, float64(i))
	}
	return append(chain, math.Inf(1))
}
