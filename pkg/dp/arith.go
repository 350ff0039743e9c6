package dp

import (
	"fmt"

	"github.com/gitrdm/gomcdp/pkg/maps"
	"github.com/gitrdm/gomcdp/pkg/posets"
)

// maxSumSplits bounds the enumeration in SumNDP.SolveR.
const maxSumSplits = 10000

// PlusValueDP requires f + c: Solve(f) = ↑{f + c}, SolveR(r) = ↓{r - c}.
type PlusValueDP struct {
	WrapAMap
}

// NewPlusValueDP returns the DP adding c on the numeric poset P.
func NewPlusValueDP(P posets.Poset, c any) (*PlusValueDP, error) {
	m, err := maps.NewPlusValue(P, c)
	if err != nil {
		return nil, &ModelError{Where: "PlusValueDP", Err: err}
	}
	return &PlusValueDP{WrapAMap{amap: m, dual: maps.MinusValue{P: P, C: c}}}, nil
}

// MustPlusValueDP is like NewPlusValueDP but panics on error.
func MustPlusValueDP(P posets.Poset, c any) *PlusValueDP {
	d, err := NewPlusValueDP(P, c)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *PlusValueDP) String() string { return "PlusValueDP(" + d.amap.String() + ")" }

// MultValueDP requires f × c: Solve(f) = ↑{f × c}, SolveR(r) = ↓{r ÷ c}.
type MultValueDP struct {
	WrapAMap
}

// NewMultValueDP returns the DP scaling by c on the numeric poset P.
func NewMultValueDP(P posets.Poset, c any) (*MultValueDP, error) {
	m, err := maps.NewMultValue(P, c)
	if err != nil {
		return nil, &ModelError{Where: "MultValueDP", Err: err}
	}
	return &MultValueDP{WrapAMap{amap: m, dual: maps.DivValue{P: P, C: c}}}, nil
}

// MustMultValueDP is like NewMultValueDP but panics on error.
func MustMultValueDP(P posets.Poset, c any) *MultValueDP {
	d, err := NewMultValueDP(P, c)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *MultValueDP) String() string { return "MultValueDP(" + d.amap.String() + ")" }

// SumNDP requires the sum of n functionalities: F = P^n, R = P.
//
// SolveR enumerates the exact splits of r on Nat. On Rcomp the maximal
// splits form a continuum and SolveR reports ErrNotImplemented.
type SumNDP struct {
	WrapAMap
	n int
	p posets.Poset
}

// NewSumNDP returns the n-ary sum DP on P.
func NewSumNDP(n int, P posets.Poset) (*SumNDP, error) {
	m, err := maps.NewSumN(n, P)
	if err != nil {
		return nil, &ModelError{Where: "SumNDP", Err: err}
	}
	return &SumNDP{WrapAMap: WrapAMap{amap: m}, n: n, p: P}, nil
}

// MustSumNDP is like NewSumNDP but panics on error.
func MustSumNDP(n int, P posets.Poset) *SumNDP {
	d, err := NewSumNDP(n, P)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *SumNDP) SolveR(_ *Tracer, r any) (posets.LowerSet, error) {
	if _, isNat := d.p.(posets.NatPoset); !isNat {
		return posets.LowerSet{}, notImplemented(d, "solve_r on a continuous poset")
	}
	if _, isTop := r.(posets.Top); isTop {
		top := make(posets.Tuple, d.n)
		for i := range top {
			top[i] = posets.Top{}
		}
		return posets.LowerSetFromPoint(d.FunSpace(), top), nil
	}
	total := r.(int)
	if d.n == 1 {
		return posets.LowerSetFromPoint(d.FunSpace(), posets.Tuple{total}), nil
	}
	// With two or more summands there are at least total+1 splits.
	if total > maxSumSplits || binomial(total+d.n-1, d.n-1) > maxSumSplits {
		return posets.LowerSet{}, notImplemented(d, fmt.Sprintf("solve_r(%d) has too many splits", total))
	}
	var points []any
	splits(d.n, total, nil, func(t posets.Tuple) { points = append(points, t) })
	return posets.NewLowerSet(d.FunSpace(), points), nil
}

func (d *SumNDP) String() string { return fmt.Sprintf("SumNDP(%d, %s)", d.n, d.p) }

// splits calls emit with every n-tuple of naturals summing to total.
func splits(n, total int, prefix posets.Tuple, emit func(posets.Tuple)) {
	if n == 1 {
		t := append(append(posets.Tuple(nil), prefix...), total)
		emit(t)
		return
	}
	for v := 0; v <= total; v++ {
		splits(n-1, total-v, append(prefix, v), emit)
	}
}

// binomial returns C(n, k), saturating at maxSumSplits+1.
func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	c := 1
	for i := 1; i <= k; i++ {
		c = c * (n - k + i) / i
		if c > maxSumSplits {
			return maxSumSplits + 1
		}
	}
	return c
}
