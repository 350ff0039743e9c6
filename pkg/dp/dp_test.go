package dp

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/gomcdp/pkg/maps"
	"github.com/gitrdm/gomcdp/pkg/posets"
)

func natPair() posets.PosetProduct {
	return posets.NewPosetProduct(posets.Nat(), posets.Nat())
}

func TestJoinNDPSolve(t *testing.T) {
	d := MustJoinNDP(2, posets.Nat())
	u, err := d.Solve(nil, posets.Tuple{4, 7})
	require.NoError(t, err)
	assert.Equal(t, []any{7}, u.Minimals())

	l, err := d.SolveR(nil, 5)
	require.NoError(t, err)
	assert.Equal(t, []any{posets.Tuple{5, 5}}, l.Maximals())
}

func TestJoinNDPNotJoinableIsEmpty(t *testing.T) {
	P, err := posets.NewFinitePoset([]string{"a", "b"}, nil)
	require.NoError(t, err)
	d := MustJoinNDP(2, P)
	u, err := d.Solve(nil, posets.Tuple{"a", "b"})
	require.NoError(t, err)
	assert.True(t, u.IsEmpty())
}

func TestMeetNDPSolveR(t *testing.T) {
	d := MustMeetNDP(2, posets.Nat())
	l, err := d.SolveR(nil, 5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{
		posets.Tuple{5, posets.Top{}},
		posets.Tuple{posets.Top{}, 5},
	}, l.Maximals())

	u, err := d.Solve(nil, posets.Tuple{4, 7})
	require.NoError(t, err)
	assert.Equal(t, []any{4}, u.Minimals())

	l, err = d.SolveR(nil, posets.Top{})
	require.NoError(t, err)
	assert.Equal(t, 1, l.Len(), "both points collapse to (⊤, ⊤)")
}

func TestMeetNDPWithoutTop(t *testing.T) {
	P, err := posets.NewFinitePoset([]string{"a", "b"}, nil)
	require.NoError(t, err)
	_, err = MustMeetNDP(2, P).SolveR(nil, "a")
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestJoinNDualDP(t *testing.T) {
	d := MustJoinNDualDP(3, posets.Nat())
	u, err := d.Solve(nil, 4)
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{
		posets.Tuple{4, 0, 0},
		posets.Tuple{0, 4, 0},
		posets.Tuple{0, 0, 4},
	}, u.Minimals())

	l, err := d.SolveR(nil, posets.Tuple{1, 6, 2})
	require.NoError(t, err)
	assert.Equal(t, []any{6}, l.Maximals())
	assert.True(t, d.ResSpace().SameAs(maps.Power(posets.Nat(), 3)))
}

func TestMeetNDualDP(t *testing.T) {
	d := MustMeetNDualDP(2, posets.Rcomp())
	u, err := d.Solve(nil, 1.5)
	require.NoError(t, err)
	assert.Equal(t, []any{posets.Tuple{1.5, 1.5}}, u.Minimals())

	l, err := d.SolveR(nil, posets.Tuple{3.0, 2.0})
	require.NoError(t, err)
	assert.Equal(t, []any{2.0}, l.Maximals())
}

func TestArityValidation(t *testing.T) {
	_, err := NewJoinNDP(0, posets.Nat())
	assert.True(t, IsModelError(err))
	_, err = NewMeetNDualDP(-1, posets.Nat())
	assert.True(t, IsModelError(err))
}

func TestConstantAndLimit(t *testing.T) {
	kg := posets.NewRcompUnits("kg")
	c := MustConstant(kg, 2.5)
	assert.True(t, c.FunSpace().SameAs(posets.One()))

	u, err := c.Solve(nil, posets.Tuple{})
	require.NoError(t, err)
	assert.Equal(t, []any{2.5}, u.Minimals())

	l, err := c.SolveR(nil, 3.0)
	require.NoError(t, err)
	assert.Equal(t, []any{posets.Tuple{}}, l.Maximals())
	l, err = c.SolveR(nil, 2.0)
	require.NoError(t, err)
	assert.True(t, l.IsEmpty())

	lim := MustLimit(kg, 10.0)
	u, err = lim.Solve(nil, 12.0)
	require.NoError(t, err)
	assert.True(t, u.IsEmpty())
	u, err = lim.Solve(nil, 8.0)
	require.NoError(t, err)
	assert.Equal(t, []any{posets.Tuple{}}, u.Minimals())
	l, err = lim.SolveR(nil, posets.Tuple{})
	require.NoError(t, err)
	assert.Equal(t, []any{10.0}, l.Maximals())

	_, err = NewConstant(posets.Nat(), -1)
	assert.True(t, IsModelError(err))
}

func TestWrapAMapWithoutDual(t *testing.T) {
	d, err := NewWrapAMap(maps.Identity{P: posets.Nat()}, nil)
	require.NoError(t, err)

	u, err := d.Solve(nil, 3)
	require.NoError(t, err)
	assert.Equal(t, []any{3}, u.Minimals())

	_, err = d.SolveR(nil, 3)
	assert.ErrorIs(t, err, ErrNotImplemented)

	_, err = NewWrapAMap(maps.Identity{P: posets.Nat()}, maps.Identity{P: posets.Rcomp()})
	assert.True(t, IsModelError(err))
}

func TestMuxSolveAndDual(t *testing.T) {
	m := MustMux(natPair(), maps.Indices(1, 0))
	u, err := m.Solve(nil, posets.Tuple{3, 5})
	require.NoError(t, err)
	assert.Equal(t, []any{posets.Tuple{5, 3}}, u.Minimals())

	l, err := m.SolveR(nil, posets.Tuple{5, 3})
	require.NoError(t, err)
	assert.Equal(t, []any{posets.Tuple{3, 5}}, l.Maximals())
	assert.False(t, m.IsIdentity())
	assert.True(t, MustMux(natPair(), maps.Indices(0, 1)).IsIdentity())

	_, err = NewMux(natPair(), maps.Path{4})
	assert.True(t, IsModelError(err))
}

func TestMuxDualUndefined(t *testing.T) {
	P, err := posets.NewFinitePoset([]string{"a", "b"}, nil)
	require.NoError(t, err)
	F := posets.NewPosetProduct(P, P)
	m := MustMux(F, maps.Indices(0, 0))
	_, err = m.SolveR(nil, posets.Tuple{"a", "b"})
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestPlusAndMultValueDP(t *testing.T) {
	kg := posets.NewRcompUnits("kg")
	plus := MustPlusValueDP(kg, 1.0)
	u, err := plus.Solve(nil, 2.0)
	require.NoError(t, err)
	assert.Equal(t, []any{3.0}, u.Minimals())

	l, err := plus.SolveR(nil, 0.5)
	require.NoError(t, err)
	assert.True(t, l.IsEmpty(), "no functionality fits below the constant")

	mult := MustMultValueDP(kg, 2.0)
	l, err = mult.SolveR(nil, 8.0)
	require.NoError(t, err)
	assert.Equal(t, []any{4.0}, l.Maximals())

	u, err = mult.Solve(nil, math.Inf(1))
	require.NoError(t, err)
	assert.True(t, math.IsInf(u.Minimals()[0].(float64), 1))

	_, err = NewPlusValueDP(posets.Int(), 1)
	assert.True(t, IsModelError(err))
}

func TestSumNDP(t *testing.T) {
	d := MustSumNDP(2, posets.Nat())
	u, err := d.Solve(nil, posets.Tuple{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []any{5}, u.Minimals())

	l, err := d.SolveR(nil, 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{
		posets.Tuple{0, 2},
		posets.Tuple{1, 1},
		posets.Tuple{2, 0},
	}, l.Maximals())
	require.NoError(t, posets.CheckAntichain(d.FunSpace(), l.Maximals()))

	l, err = d.SolveR(nil, posets.Top{})
	require.NoError(t, err)
	assert.Equal(t, []any{posets.Tuple{posets.Top{}, posets.Top{}}}, l.Maximals())

	_, err = MustSumNDP(2, posets.Rcomp()).SolveR(nil, 1.0)
	assert.ErrorIs(t, err, ErrNotImplemented)

	_, err = MustSumNDP(6, posets.Nat()).SolveR(nil, 1000)
	assert.ErrorIs(t, err, ErrNotImplemented)

	// Counting the splits of a huge resource must not overflow.
	for _, n := range []int{2, 3} {
		_, err = MustSumNDP(n, posets.Nat()).SolveR(nil, math.MaxInt)
		assert.ErrorIs(t, err, ErrNotImplemented, n)
	}
}

func TestIdentity(t *testing.T) {
	id := NewIdentity(posets.Rcomp())
	u, err := id.Solve(nil, 1.0)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0}, u.Minimals())
	l, err := id.SolveR(nil, 2.0)
	require.NoError(t, err)
	assert.Equal(t, []any{2.0}, l.Maximals())
	assert.Equal(t, "Id(Rcomp)", id.String())

	imps, err := id.Implementations(1.0, 2.0)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0}, imps)
	imps, err = id.Implementations(3.0, 2.0)
	require.NoError(t, err)
	assert.Empty(t, imps)
}

func TestErrorKinds(t *testing.T) {
	me := NewModelError("Series", "bad %s", "spaces")
	assert.Equal(t, "Series: bad spaces", me.Error())

	ie := &InternalError{Op: "simplify", Rule: "mux-mux", Operands: []string{"A", "B"}, Err: errors.New("signature changed")}
	assert.Equal(t, "internal error in simplify (rule mux-mux): signature changed", ie.Error())
	assert.Contains(t, ie.Detail(), "--- operand 2 ---\nB")
	assert.True(t, IsInternalError(ie))
	assert.False(t, IsModelError(ie))
}

// Every primitive returns antichains on its test chain.
func TestSolveReturnsAntichains(t *testing.T) {
	dps := []PrimitiveDP{
		MustJoinNDP(2, posets.Nat()),
		MustMeetNDP(3, posets.Nat()),
		MustJoinNDualDP(2, posets.Rcomp()),
		MustMeetNDualDP(2, posets.Nat()),
		MustSumNDP(3, posets.Nat()),
		MustMux(natPair(), maps.Indices(1, 0, 1)),
		MustPlusValueDP(posets.Nat(), 2),
	}
	for _, d := range dps {
		for _, f := range d.FunSpace().TestChain(5) {
			u, err := d.Solve(nil, f)
			require.NoError(t, err, "%s", d)
			require.NoError(t, posets.CheckAntichain(d.ResSpace(), u.Minimals()), "%s at %v", d, f)
		}
		for _, r := range d.ResSpace().TestChain(5) {
			l, err := d.SolveR(nil, r)
			if errors.Is(err, ErrNotImplemented) {
				continue
			}
			require.NoError(t, err, "%s", d)
			require.NoError(t, posets.CheckAntichain(d.FunSpace(), l.Maximals()), "%s at %v", d, r)
		}
	}
}

// Solve and SolveR agree: r ∈ Solve(f) iff f ∈ SolveR(r).
func TestSolveAndSolveRAgree(t *testing.T) {
	dps := []PrimitiveDP{
		MustJoinNDP(2, posets.Nat()),
		MustMeetNDP(2, posets.Nat()),
		MustJoinNDualDP(2, posets.Nat()),
		MustMeetNDualDP(2, posets.Nat()),
		MustSumNDP(2, posets.Nat()),
		MustMultValueDP(posets.Nat(), 3),
	}
	for _, d := range dps {
		for _, f := range d.FunSpace().TestChain(4) {
			u, err := d.Solve(nil, f)
			require.NoError(t, err)
			for _, r := range d.ResSpace().TestChain(4) {
				l, err := d.SolveR(nil, r)
				require.NoError(t, err)
				assert.Equal(t, u.Contains(r), l.Contains(f), "%s f=%v r=%v", d, f, r)
			}
		}
	}
}
