package maps

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/gomcdp/pkg/posets"
)

func natPair() posets.PosetProduct {
	return posets.NewPosetProduct(posets.Nat(), posets.Nat())
}

func TestCoordsString(t *testing.T) {
	c := Group{Path{1}, Path{0, 2}, Group{}, Path{}}
	assert.Equal(t, "[1, (0, 2), [], ()]", c.String())
	assert.Equal(t, "[1, 0]", Indices(1, 0).String())
}

func TestCoordsCodomain(t *testing.T) {
	F := posets.NewPosetProduct(posets.Nat(), posets.NewPosetProduct(posets.Rcomp(), posets.Int()))

	R, err := CoordsCodomain(F, Group{Path{1, 0}, Path{0}, Group{}})
	require.NoError(t, err)
	want := posets.NewPosetProduct(posets.Rcomp(), posets.Nat(), posets.One())
	assert.True(t, R.SameAs(want), "got %s", R)

	_, err = CoordsCodomain(F, Path{2})
	assert.Error(t, err)
	_, err = CoordsCodomain(F, Path{0, 0})
	assert.Error(t, err, "Nat is not a product")
}

func TestSwapComposedWithSwapIsIdentity(t *testing.T) {
	F := natPair()
	swap := Indices(1, 0)

	c := ComposeCoords(swap, swap)
	assert.Empty(t, cmp.Diff(Group{Path{0}, Path{1}}, c))
	assert.True(t, IsIdentityCoords(F, c))

	x := posets.Tuple{3, 5}
	assert.Equal(t, posets.Tuple{3, 5}, ApplyCoords(c, x))
	assert.Equal(t, posets.Tuple{5, 3}, ApplyCoords(swap, x))
}

func TestCanonicalCoords(t *testing.T) {
	F := posets.NewPosetProduct(natPair(), posets.Nat())

	assert.Empty(t, cmp.Diff(Path{}, CanonicalCoords(F, Group{Group{Path{0, 0}, Path{0, 1}}, Path{1}})))
	assert.Empty(t, cmp.Diff(Group{Path{0}}, CanonicalCoords(F, Group{Group{Path{0, 0}, Path{0, 1}}})),
		"a partial group is kept")
	assert.False(t, IsIdentityCoords(F, Group{Path{1}, Path{0}}))
	assert.True(t, IsIdentityCoords(posets.Nat(), Path{}))
}

func TestReferencedRoot(t *testing.T) {
	root, ok := ReferencedRoot(Group{Path{1, 0}, Path{1}, Group{}})
	assert.True(t, ok)
	assert.Equal(t, 1, root)

	root, ok = ReferencedRoot(Group{})
	assert.True(t, ok)
	assert.Equal(t, -1, root)

	_, ok = ReferencedRoot(Group{Path{0}, Path{1}})
	assert.False(t, ok)
	_, ok = ReferencedRoot(Path{})
	assert.False(t, ok)

	assert.Empty(t, cmp.Diff(Group{Path{0}, Path{}}, StripRoot(Group{Path{1, 0}, Path{1}})))
	assert.Empty(t, cmp.Diff(Group{Path{2, 1, 0}, Path{2, 1}}, PrefixCoords(Group{Path{1, 0}, Path{1}}, 2)))
}

func TestDualCoords(t *testing.T) {
	F := posets.NewPosetProduct(posets.Nat(), posets.Nat(), posets.Nat())

	// r = (x0, x0, x2): x0 must be below both readings, x1 is unread.
	c := Group{Path{0}, Path{0}, Path{2}}
	f, ok := DualCoords(F, c, posets.Tuple{4, 7, 1})
	require.True(t, ok)
	assert.Equal(t, posets.Tuple{4, posets.Top{}, 1}, f)

	// The Galois property: apply(c, f) ≤ r.
	R, err := CoordsCodomain(F, c)
	require.NoError(t, err)
	assert.True(t, R.Leq(ApplyCoords(c, f), posets.Tuple{4, 7, 1}))

	// Reading a whole sub-tuple and one of its components.
	G := posets.NewPosetProduct(natPair(), posets.Nat())
	f, ok = DualCoords(G, Group{Path{0}, Path{0, 1}}, posets.Tuple{posets.Tuple{5, 5}, 2})
	require.True(t, ok)
	assert.Equal(t, posets.Tuple{posets.Tuple{5, 2}, posets.Top{}}, f)
}

func TestDualCoordsUndefined(t *testing.T) {
	P, err := posets.NewFinitePoset([]string{"a", "b"}, nil)
	require.NoError(t, err)
	F := posets.NewPosetProduct(P, P)

	_, ok := DualCoords(F, Group{Path{0}, Path{0}}, posets.Tuple{"a", "b"})
	assert.False(t, ok, "a and b have no meet")

	_, ok = DualCoords(F, Group{Path{0}}, posets.Tuple{"a"})
	assert.False(t, ok, "the unread component has no top")
}

// randomCoords builds a random tree over F with the given nesting budget.
func randomCoords(rng *rand.Rand, F posets.Poset, depth int) Coords {
	prod, isProd := F.(posets.PosetProduct)
	if depth == 0 || rng.Intn(3) == 0 {
		if !isProd || prod.Len() == 0 {
			return Path{}
		}
		i := rng.Intn(prod.Len())
		if sub, ok := prod.Sub(i).(posets.PosetProduct); ok && sub.Len() > 0 && rng.Intn(2) == 0 {
			return Path{i, rng.Intn(sub.Len())}
		}
		return Path{i}
	}
	g := make(Group, rng.Intn(4))
	for i := range g {
		g[i] = randomCoords(rng, F, depth-1)
	}
	return g
}

func TestComposeCoordsMatchesSequentialApplication(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	F := posets.NewPosetProduct(posets.Nat(), natPair(), posets.Nat())
	sample := posets.Tuple{1, posets.Tuple{2, 3}, 4}
	require.NoError(t, F.Belongs(sample))

	for trial := 0; trial < 500; trial++ {
		c1 := randomCoords(rng, F, 3)
		G, err := CoordsCodomain(F, c1)
		require.NoError(t, err, "c1=%s", c1)
		c2 := randomCoords(rng, G, 3)
		H, err := CoordsCodomain(G, c2)
		require.NoError(t, err, "c2=%s", c2)

		c := ComposeCoords(c1, c2)
		direct, err := CoordsCodomain(F, c)
		require.NoError(t, err)
		require.True(t, direct.SameAs(H), "c1=%s c2=%s composed=%s", c1, c2, c)

		want := ApplyCoords(c2, ApplyCoords(c1, sample))
		got := ApplyCoords(c, sample)
		require.True(t, H.Equal(want, got), "c1=%s c2=%s composed=%s: %v != %v", c1, c2, c, want, got)

		canon := CanonicalCoords(F, c)
		require.True(t, H.Equal(want, ApplyCoords(canon, sample)), "canonical form of %s changed meaning", c)
	}
}
