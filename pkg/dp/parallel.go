package dp

import (
	"fmt"

	"github.com/gitrdm/gomcdp/pkg/posets"
)

// Parallel runs two independent DPs side by side on product spaces:
// F = F1 × F2 and R = R1 × R2.
type Parallel struct {
	dp1, dp2 PrimitiveDP
	f, r     posets.PosetProduct
}

// NewParallel returns Parallel(dp1, dp2).
func NewParallel(dp1, dp2 PrimitiveDP) *Parallel {
	return &Parallel{
		dp1: dp1,
		dp2: dp2,
		f:   posets.NewPosetProduct(dp1.FunSpace(), dp2.FunSpace()),
		r:   posets.NewPosetProduct(dp1.ResSpace(), dp2.ResSpace()),
	}
}

// First returns the left branch.
func (p *Parallel) First() PrimitiveDP { return p.dp1 }

// Second returns the right branch.
func (p *Parallel) Second() PrimitiveDP { return p.dp2 }

func (p *Parallel) Children() []PrimitiveDP { return []PrimitiveDP{p.dp1, p.dp2} }

func (p *Parallel) FunSpace() posets.Poset { return p.f }
func (p *Parallel) ResSpace() posets.Poset { return p.r }

func (p *Parallel) Solve(tr *Tracer, f any) (posets.UpperSet, error) {
	t := f.(posets.Tuple)
	u1, err := p.dp1.Solve(tr, t[0])
	if err != nil {
		return posets.UpperSet{}, err
	}
	u2, err := p.dp2.Solve(tr, t[1])
	if err != nil {
		return posets.UpperSet{}, err
	}
	return posets.UpperSetProduct(p.r, u1, u2), nil
}

func (p *Parallel) SolveR(tr *Tracer, r any) (posets.LowerSet, error) {
	t := r.(posets.Tuple)
	l1, err := p.dp1.SolveR(tr, t[0])
	if err != nil {
		return posets.LowerSet{}, err
	}
	l2, err := p.dp2.SolveR(tr, t[1])
	if err != nil {
		return posets.LowerSet{}, err
	}
	return posets.LowerSetProduct(p.f, l1, l2), nil
}

// Implementations returns the pairs (i1, i2) as Tuples.
func (p *Parallel) Implementations(f, r any) ([]any, error) {
	ft, rt := f.(posets.Tuple), r.(posets.Tuple)
	i1s, err := p.dp1.Implementations(ft[0], rt[0])
	if err != nil {
		return nil, err
	}
	i2s, err := p.dp2.Implementations(ft[1], rt[1])
	if err != nil {
		return nil, err
	}
	return posets.Cartesian([][]any{i1s, i2s}), nil
}

func (p *Parallel) String() string { return fmt.Sprintf("Parallel(%s, %s)", p.dp1, p.dp2) }
