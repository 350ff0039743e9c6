package dp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/gomcdp/pkg/maps"
	"github.com/gitrdm/gomcdp/pkg/posets"
)

func TestSeriesSolve(t *testing.T) {
	kg := posets.NewRcompUnits("kg")
	s := MustSeries(MustPlusValueDP(kg, 1.0), MustMultValueDP(kg, 2.0))

	u, err := s.Solve(nil, 3.0)
	require.NoError(t, err)
	assert.Equal(t, []any{8.0}, u.Minimals())

	l, err := s.SolveR(nil, 8.0)
	require.NoError(t, err)
	assert.Equal(t, []any{3.0}, l.Maximals())

	assert.Equal(t, "Series(PlusValueDP(+1 kg), MultValueDP(×2 kg))", s.String())
}

func TestSeriesSpaceMismatch(t *testing.T) {
	_, err := NewSeries(NewIdentity(posets.Nat()), NewIdentity(posets.Rcomp()))
	require.Error(t, err)
	assert.True(t, IsModelError(err))
	assert.Contains(t, err.Error(), "does not match")
}

func catalogues(t *testing.T) (*CatalogueDP, *CatalogueDP) {
	t.Helper()
	motors, err := NewCatalogueDP(posets.Nat(), posets.Nat(), []CatalogueEntry{
		{Name: "small", F: 2, R: 3},
		{Name: "big", F: 5, R: 4},
	})
	require.NoError(t, err)
	batteries, err := NewCatalogueDP(posets.Nat(), posets.Nat(), []CatalogueEntry{
		{Name: "batA", F: 3, R: 10},
		{Name: "batB", F: 4, R: 12},
	})
	require.NoError(t, err)
	return motors, batteries
}

func TestCatalogueDP(t *testing.T) {
	motors, _ := catalogues(t)

	u, err := motors.Solve(nil, 2)
	require.NoError(t, err)
	assert.Equal(t, []any{3}, u.Minimals())

	u, err = motors.Solve(nil, 4)
	require.NoError(t, err)
	assert.Equal(t, []any{4}, u.Minimals())

	u, err = motors.Solve(nil, 6)
	require.NoError(t, err)
	assert.True(t, u.IsEmpty())

	l, err := motors.SolveR(nil, 3)
	require.NoError(t, err)
	assert.Equal(t, []any{2}, l.Maximals())

	imps, err := motors.Implementations(2, 10)
	require.NoError(t, err)
	assert.Equal(t, []any{"small", "big"}, imps)

	_, err = NewCatalogueDP(posets.Nat(), posets.Nat(), []CatalogueEntry{{Name: "x", F: 1, R: 1}, {Name: "x", F: 2, R: 2}})
	assert.True(t, IsModelError(err))
	_, err = NewCatalogueDP(posets.Nat(), posets.Nat(), []CatalogueEntry{{Name: "x", F: 1.5, R: 1}})
	assert.True(t, IsModelError(err))
}

func TestSeriesImplementations(t *testing.T) {
	motors, batteries := catalogues(t)
	s := MustSeries(motors, batteries)

	u, err := s.Solve(nil, 2)
	require.NoError(t, err)
	assert.Equal(t, []any{10}, u.Minimals())

	imps, err := s.Implementations(2, 12)
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{
		SeriesImp{I1: "small", M: 3, I2: "batA"},
		SeriesImp{I1: "small", M: 3, I2: "batB"},
	}, imps)

	imps, err = s.Implementations(2, 9)
	require.NoError(t, err)
	assert.Empty(t, imps)
}

func TestParallel(t *testing.T) {
	kg := posets.NewRcompUnits("kg")
	p := NewParallel(MustPlusValueDP(kg, 1.0), MustJoinNDualDP(2, posets.Nat()))

	u, err := p.Solve(nil, posets.Tuple{1.0, 3})
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{
		posets.Tuple{2.0, posets.Tuple{3, 0}},
		posets.Tuple{2.0, posets.Tuple{0, 3}},
	}, u.Minimals())

	l, err := p.SolveR(nil, posets.Tuple{5.0, posets.Tuple{1, 4}})
	require.NoError(t, err)
	assert.Equal(t, []any{posets.Tuple{4.0, 4}}, l.Maximals())

	imps, err := p.Implementations(posets.Tuple{1.0, 3}, posets.Tuple{2.0, posets.Tuple{3, 0}})
	require.NoError(t, err)
	assert.Equal(t, []any{posets.Tuple{1.0, 3}}, imps)
}

func TestParallelEmptyBranch(t *testing.T) {
	p := NewParallel(MustLimit(posets.Nat(), 2), NewIdentity(posets.Nat()))
	u, err := p.Solve(nil, posets.Tuple{3, 1})
	require.NoError(t, err)
	assert.True(t, u.IsEmpty(), "one infeasible branch makes the product infeasible")
}

func TestCoProductDP(t *testing.T) {
	motors, _ := catalogues(t)
	cheap := MustConstant(posets.Nat(), 7)
	_, err := NewCoProductDP(motors, cheap)
	assert.True(t, IsModelError(err), "alternatives must share spaces")

	other, err := NewCatalogueDP(posets.Nat(), posets.Nat(), []CatalogueEntry{{Name: "mid", F: 3, R: 1}})
	require.NoError(t, err)
	c, err := NewCoProductDP(motors, other)
	require.NoError(t, err)

	u, err := c.Solve(nil, 2)
	require.NoError(t, err)
	assert.Equal(t, []any{1}, u.Minimals())

	l, err := c.SolveR(nil, 3)
	require.NoError(t, err)
	assert.Equal(t, []any{3}, l.Maximals())

	imps, err := c.Implementations(2, 3)
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{
		CoProductImp{Index: 0, Imp: "small"},
		CoProductImp{Index: 1, Imp: "mid"},
	}, imps)

	_, err = NewCoProductDP()
	assert.Error(t, err)
}

// shiftLoop feeds back r2 = f1 + 1 and requires r1 = f2 + 2, so the loop
// needs r1 = f1 + 3.
func shiftLoop(t *testing.T, opts ...LoopOption) *Loop {
	t.Helper()
	inner := MustSeries(
		MustMux(natPair(), maps.Indices(1, 0)),
		NewParallel(MustPlusValueDP(posets.Nat(), 2), MustPlusValueDP(posets.Nat(), 1)),
	)
	l, err := NewLoop(inner, opts...)
	require.NoError(t, err)
	return l
}

func TestLoopSolve(t *testing.T) {
	l := shiftLoop(t)
	assert.True(t, l.FunSpace().SameAs(posets.Nat()))
	assert.True(t, l.ResSpace().SameAs(posets.Nat()))

	tr := NewTracer("test", nil)
	u, err := l.Solve(tr, 4)
	require.NoError(t, err)
	assert.Equal(t, []any{7}, u.Minimals())
	assert.True(t, tr.Contains("loop: iteration 3"))

	low, err := l.SolveR(nil, 7)
	require.NoError(t, err)
	assert.Equal(t, []any{4}, low.Maximals())
}

func TestLoopImplementations(t *testing.T) {
	l := shiftLoop(t)
	imps, err := l.Implementations(4, 9)
	require.NoError(t, err)
	assert.Equal(t, []any{SeriesImp{
		I1: posets.Tuple{4, 5},
		M:  posets.Tuple{5, 4},
		I2: posets.Tuple{5, 4},
	}}, imps)

	imps, err = l.Implementations(4, 6)
	require.NoError(t, err)
	assert.Empty(t, imps)
}

func TestLoopNotConverged(t *testing.T) {
	// r2 = f2 + 1 can never be fed back within itself.
	inner := MustSeries(
		MustMux(natPair(), maps.Indices(1, 1)),
		NewParallel(NewIdentity(posets.Nat()), MustPlusValueDP(posets.Nat(), 1)),
	)
	l := MustLoop(inner, WithMaxIterations(5))
	assert.Equal(t, 5, l.MaxIterations())

	_, err := l.Solve(nil, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotConverged)
	assert.True(t, IsModelError(err))
}

func TestLoopSpaceValidation(t *testing.T) {
	_, err := NewLoop(NewIdentity(posets.Nat()))
	assert.True(t, IsModelError(err))

	mixed := NewParallel(NewIdentity(posets.Nat()), MustConstant(posets.Rcomp(), 1.0))
	_, err = NewLoop(mixed)
	assert.True(t, IsModelError(err))
}

func TestTracerIsNilSafe(t *testing.T) {
	var tr *Tracer
	tr.Logf("ignored %d", 1)
	assert.Nil(t, tr.Child("x"))
	assert.Empty(t, tr.Lines())

	root := NewTracer("root", nil)
	root.Log("start")
	root.Child("sub").Log("inside")
	assert.Equal(t, []string{"start", "[root/sub]", "  inside"}, root.Lines())
}

func TestReprAndSize(t *testing.T) {
	s := MustSeries(NewIdentity(posets.Nat()), NewParallel(NewIdentity(posets.Nat()), NewIdentity(posets.Nat())))
	assert.Equal(t, 7, Size(NewParallel(s, NewIdentity(posets.Nat()))))

	r := Repr(s)
	lines := strings.Split(strings.TrimSpace(r), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "Series"))
	assert.True(t, strings.HasPrefix(lines[2], "  Parallel"))
	assert.True(t, strings.HasPrefix(lines[3], "    Id(Nat)"))
}
