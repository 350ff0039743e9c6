package simplify

import (
	"github.com/gitrdm/gomcdp/pkg/dp"
	"github.com/gitrdm/gomcdp/pkg/maps"
	"github.com/gitrdm/gomcdp/pkg/posets"
)

// Rule rewrites the junction dp1 ; dp2 of a series into an equivalent DP.
// Execute may only be called when Applies returned true, and its result must
// have dp1's functionality space and dp2's resource space.
type Rule interface {
	Name() string
	Applies(dp1, dp2 dp.PrimitiveDP) bool
	Execute(dp1, dp2 dp.PrimitiveDP) (dp.PrimitiveDP, error)
}

// DefaultRules returns the rule list in priority order.
func DefaultRules() []Rule {
	return []Rule{
		MuxMux{},
		ConstantMux{},
		MuxLimit{},
		PermutationParallel{},
		MuxParallel{},
		ParallelMux{},
		ParallelParallel{},
		MuxLoop{},
		LoopMux{},
	}
}

// RuleNames returns the names of rules, in order.
func RuleNames(rules []Rule) []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name()
	}
	return names
}

// MuxMux fuses two consecutive multiplexers into one, or into the identity
// when the composition rebuilds the input.
type MuxMux struct{}

func (MuxMux) Name() string { return "mux-mux" }

func (MuxMux) Applies(dp1, dp2 dp.PrimitiveDP) bool {
	_, ok1 := dp1.(*dp.Mux)
	_, ok2 := dp2.(*dp.Mux)
	return ok1 && ok2
}

func (MuxMux) Execute(dp1, dp2 dp.PrimitiveDP) (dp.PrimitiveDP, error) {
	m1, m2 := dp1.(*dp.Mux), dp2.(*dp.Mux)
	F := m1.FunSpace()
	c := maps.CanonicalCoords(F, maps.ComposeCoords(m1.Coords(), m2.Coords()))
	if maps.IsIdentityCoords(F, c) {
		return dp.NewIdentity(F), nil
	}
	return dp.NewMux(F, c)
}

// ConstantMux pushes a constant through a multiplexer.
type ConstantMux struct{}

func (ConstantMux) Name() string { return "constant-mux" }

func (ConstantMux) Applies(dp1, dp2 dp.PrimitiveDP) bool {
	_, ok1 := dp1.(*dp.Constant)
	_, ok2 := dp2.(*dp.Mux)
	return ok1 && ok2
}

func (ConstantMux) Execute(dp1, dp2 dp.PrimitiveDP) (dp.PrimitiveDP, error) {
	c, m := dp1.(*dp.Constant), dp2.(*dp.Mux)
	return dp.NewConstant(m.ResSpace(), maps.ApplyCoords(m.Coords(), c.Value))
}

// MuxLimit pulls a limit back through a multiplexer using the coordinate
// dual. It applies only when the dual is defined at the limit value.
type MuxLimit struct{}

func (MuxLimit) Name() string { return "mux-limit" }

func (MuxLimit) Applies(dp1, dp2 dp.PrimitiveDP) bool {
	m, ok1 := dp1.(*dp.Mux)
	l, ok2 := dp2.(*dp.Limit)
	if !ok1 || !ok2 {
		return false
	}
	_, defined := maps.DualCoords(m.FunSpace(), m.Coords(), l.Value)
	return defined
}

func (MuxLimit) Execute(dp1, dp2 dp.PrimitiveDP) (dp.PrimitiveDP, error) {
	m, l := dp1.(*dp.Mux), dp2.(*dp.Limit)
	v, _ := maps.DualCoords(m.FunSpace(), m.Coords(), l.Value)
	return dp.NewLimit(m.FunSpace(), v)
}

var swap = maps.Indices(1, 0)

func isSwap(m *dp.Mux) bool {
	prod, ok := m.FunSpace().(posets.PosetProduct)
	if !ok || prod.Len() != 2 {
		return false
	}
	return maps.EqualCoords(maps.CanonicalCoords(prod, m.Coords()), swap)
}

func swapMux(a, b posets.Poset) (*dp.Mux, error) {
	return dp.NewMux(posets.NewPosetProduct(a, b), swap)
}

// PermutationParallel moves a swap to the far side of a Parallel:
// swap ; Parallel(A, B) becomes Parallel(B, A) ; swap.
type PermutationParallel struct{}

func (PermutationParallel) Name() string { return "permutation-parallel" }

func (PermutationParallel) Applies(dp1, dp2 dp.PrimitiveDP) bool {
	m, ok1 := dp1.(*dp.Mux)
	_, ok2 := dp2.(*dp.Parallel)
	return ok1 && ok2 && isSwap(m)
}

func (PermutationParallel) Execute(_, dp2 dp.PrimitiveDP) (dp.PrimitiveDP, error) {
	p := dp2.(*dp.Parallel)
	a, b := p.First(), p.Second()
	after, err := swapMux(b.ResSpace(), a.ResSpace())
	if err != nil {
		return nil, err
	}
	return dp.NewSeries(dp.NewParallel(b, a), after)
}

// split returns the two halves of a multiplexer on a pair whose outputs
// each read a single component, with the component each half reads.
func split(m *dp.Mux) (halves [2]maps.Coords, roots [2]int, ok bool) {
	prod, isProd := m.FunSpace().(posets.PosetProduct)
	if !isProd || prod.Len() != 2 {
		return halves, roots, false
	}
	g, isGroup := maps.CanonicalCoords(prod, m.Coords()).(maps.Group)
	if !isGroup || len(g) != 2 {
		return halves, roots, false
	}
	for i, c := range g {
		root, ok := maps.ReferencedRoot(c)
		if !ok || root < 0 {
			return halves, roots, false
		}
		halves[i] = maps.StripRoot(c)
		roots[i] = root
	}
	if roots[0] == roots[1] {
		return halves, roots, false
	}
	return halves, roots, true
}

// MuxParallel pushes a multiplexer into the branches of a Parallel when each
// branch reads from a single input component. When the reads cross, the
// branches are swapped and a swap follows.
type MuxParallel struct{}

func (MuxParallel) Name() string { return "mux-parallel" }

func (MuxParallel) Applies(dp1, dp2 dp.PrimitiveDP) bool {
	m, ok1 := dp1.(*dp.Mux)
	_, ok2 := dp2.(*dp.Parallel)
	if !ok1 || !ok2 {
		return false
	}
	_, _, ok := split(m)
	return ok
}

func (MuxParallel) Execute(dp1, dp2 dp.PrimitiveDP) (dp.PrimitiveDP, error) {
	m, p := dp1.(*dp.Mux), dp2.(*dp.Parallel)
	halves, roots, _ := split(m)
	F := m.FunSpace().(posets.PosetProduct)
	branches := [2]dp.PrimitiveDP{p.First(), p.Second()}

	// Branch k of the result reads input component k.
	var out [2]dp.PrimitiveDP
	for i := range branches {
		k := roots[i]
		pre, err := dp.NewMux(F.Sub(k), halves[i])
		if err != nil {
			return nil, err
		}
		s, err := dp.NewSeries(pre, branches[i])
		if err != nil {
			return nil, err
		}
		out[k] = s
	}
	par := dp.NewParallel(out[0], out[1])
	if roots[0] == 0 {
		return par, nil
	}
	after, err := swapMux(out[0].ResSpace(), out[1].ResSpace())
	if err != nil {
		return nil, err
	}
	return dp.NewSeries(par, after)
}

// ParallelMux pushes a multiplexer that follows a Parallel into its branches
// when each output reads from a single branch. When the reads cross, a swap
// is placed before the Parallel. A crossing with nothing to push is left
// alone since it would undo PermutationParallel.
type ParallelMux struct{}

func (ParallelMux) Name() string { return "parallel-mux" }

func (ParallelMux) Applies(dp1, dp2 dp.PrimitiveDP) bool {
	_, ok1 := dp1.(*dp.Parallel)
	m, ok2 := dp2.(*dp.Mux)
	if !ok1 || !ok2 {
		return false
	}
	halves, roots, ok := split(m)
	if !ok {
		return false
	}
	if roots[0] == 1 && isPathIdentity(halves[0]) && isPathIdentity(halves[1]) {
		return false
	}
	return true
}

func isPathIdentity(c maps.Coords) bool {
	p, ok := c.(maps.Path)
	return ok && len(p) == 0
}

func (ParallelMux) Execute(dp1, dp2 dp.PrimitiveDP) (dp.PrimitiveDP, error) {
	p, m := dp1.(*dp.Parallel), dp2.(*dp.Mux)
	halves, roots, _ := split(m)
	R := m.FunSpace().(posets.PosetProduct)
	branches := [2]dp.PrimitiveDP{p.First(), p.Second()}

	// Output i is produced by the branch it reads.
	var out [2]dp.PrimitiveDP
	for i := range out {
		k := roots[i]
		post, err := dp.NewMux(R.Sub(k), halves[i])
		if err != nil {
			return nil, err
		}
		s, err := dp.NewSeries(branches[k], post)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	par := dp.NewParallel(out[0], out[1])
	if roots[0] == 0 {
		return par, nil
	}
	before, err := swapMux(branches[0].FunSpace(), branches[1].FunSpace())
	if err != nil {
		return nil, err
	}
	return dp.NewSeries(before, par)
}

// ParallelParallel interleaves two consecutive Parallels:
// Parallel(A, B) ; Parallel(C, D) becomes Parallel(A ; C, B ; D).
type ParallelParallel struct{}

func (ParallelParallel) Name() string { return "parallel-parallel" }

func (ParallelParallel) Applies(dp1, dp2 dp.PrimitiveDP) bool {
	_, ok1 := dp1.(*dp.Parallel)
	_, ok2 := dp2.(*dp.Parallel)
	return ok1 && ok2
}

func (ParallelParallel) Execute(dp1, dp2 dp.PrimitiveDP) (dp.PrimitiveDP, error) {
	p1, p2 := dp1.(*dp.Parallel), dp2.(*dp.Parallel)
	left, err := dp.NewSeries(p1.First(), p2.First())
	if err != nil {
		return nil, err
	}
	right, err := dp.NewSeries(p1.Second(), p2.Second())
	if err != nil {
		return nil, err
	}
	return dp.NewParallel(left, right), nil
}

// feedbackSpace returns R2 of a loop whose inner DP maps F1×R2 to R1×R2.
func feedbackSpace(l *dp.Loop) posets.Poset {
	return l.Inner().ResSpace().(posets.PosetProduct).Sub(1)
}

// lift extends a multiplexer on X to X × R2, passing the feedback through.
func lift(X, R2 posets.Poset, c maps.Coords) (*dp.Mux, error) {
	return dp.NewMux(posets.NewPosetProduct(X, R2), maps.Group{maps.PrefixCoords(c, 0), maps.Path{1}})
}

// MuxLoop moves a multiplexer inside the loop that follows it.
type MuxLoop struct{}

func (MuxLoop) Name() string { return "mux-loop" }

func (MuxLoop) Applies(dp1, dp2 dp.PrimitiveDP) bool {
	_, ok1 := dp1.(*dp.Mux)
	_, ok2 := dp2.(*dp.Loop)
	return ok1 && ok2
}

func (MuxLoop) Execute(dp1, dp2 dp.PrimitiveDP) (dp.PrimitiveDP, error) {
	m, l := dp1.(*dp.Mux), dp2.(*dp.Loop)
	pre, err := lift(m.FunSpace(), feedbackSpace(l), m.Coords())
	if err != nil {
		return nil, err
	}
	inner, err := dp.NewSeries(pre, l.Inner())
	if err != nil {
		return nil, err
	}
	return dp.NewLoop(inner, dp.WithMaxIterations(l.MaxIterations()))
}

// LoopMux moves a multiplexer inside the loop that precedes it.
type LoopMux struct{}

func (LoopMux) Name() string { return "loop-mux" }

func (LoopMux) Applies(dp1, dp2 dp.PrimitiveDP) bool {
	_, ok1 := dp1.(*dp.Loop)
	_, ok2 := dp2.(*dp.Mux)
	return ok1 && ok2
}

func (LoopMux) Execute(dp1, dp2 dp.PrimitiveDP) (dp.PrimitiveDP, error) {
	l, m := dp1.(*dp.Loop), dp2.(*dp.Mux)
	post, err := lift(m.FunSpace(), feedbackSpace(l), m.Coords())
	if err != nil {
		return nil, err
	}
	inner, err := dp.NewSeries(l.Inner(), post)
	if err != nil {
		return nil, err
	}
	return dp.NewLoop(inner, dp.WithMaxIterations(l.MaxIterations()))
}
