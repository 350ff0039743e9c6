package dp

import (
	"fmt"

	"github.com/gitrdm/gomcdp/pkg/maps"
	"github.com/gitrdm/gomcdp/pkg/posets"
)

func checkArity(where string, n int) error {
	if n < 1 {
		return NewModelError(where, "arity must be at least 1, got %d", n)
	}
	return nil
}

// JoinNDP requires the join of n functionalities: F = P^n, R = P,
// Solve(f) = ↑{join(f)} and SolveR(r) = ↓{(r, …, r)}.
//
// SolveR is a single point because join(f) ≤ r holds exactly when every
// component is below r. MeetNDP is the one whose SolveR has n points.
type JoinNDP struct {
	WrapAMap
	n int
	p posets.Poset
}

// NewJoinNDP returns the n-ary join DP on P.
func NewJoinNDP(n int, P posets.Poset) (*JoinNDP, error) {
	if err := checkArity("JoinNDP", n); err != nil {
		return nil, err
	}
	return &JoinNDP{
		WrapAMap: WrapAMap{amap: maps.JoinN{N: n, P: P}, dual: maps.Diagonal{N: n, P: P}},
		n:        n,
		p:        P,
	}, nil
}

// MustJoinNDP is like NewJoinNDP but panics on error.
func MustJoinNDP(n int, P posets.Poset) *JoinNDP {
	d, err := NewJoinNDP(n, P)
	if err != nil {
		panic(err)
	}
	return d
}

// N returns the arity.
func (d *JoinNDP) N() int { return d.n }

func (d *JoinNDP) String() string { return fmt.Sprintf("JoinNDP(%d, %s)", d.n, d.p) }

// MeetNDP requires the meet of n functionalities: F = P^n, R = P,
// Solve(f) = ↑{meet(f)}.
//
// SolveR(r) returns the n tuples with r in one slot and the top of P in the
// others. The result is exact when P is a chain.
type MeetNDP struct {
	WrapAMap
	n int
	p posets.Poset
}

// NewMeetNDP returns the n-ary meet DP on P.
func NewMeetNDP(n int, P posets.Poset) (*MeetNDP, error) {
	if err := checkArity("MeetNDP", n); err != nil {
		return nil, err
	}
	return &MeetNDP{WrapAMap: WrapAMap{amap: maps.MeetN{N: n, P: P}}, n: n, p: P}, nil
}

// MustMeetNDP is like NewMeetNDP but panics on error.
func MustMeetNDP(n int, P posets.Poset) *MeetNDP {
	d, err := NewMeetNDP(n, P)
	if err != nil {
		panic(err)
	}
	return d
}

// N returns the arity.
func (d *MeetNDP) N() int { return d.n }

func (d *MeetNDP) SolveR(_ *Tracer, r any) (posets.LowerSet, error) {
	top, err := d.p.Top()
	if err != nil {
		return posets.LowerSet{}, notImplemented(d, "solve_r on a poset without top")
	}
	return posets.NewLowerSet(d.FunSpace(), spread(d.n, r, top)), nil
}

func (d *MeetNDP) String() string { return fmt.Sprintf("MeetNDP(%d, %s)", d.n, d.p) }

// spread returns the n tuples with x in one slot and fill in the others.
func spread(n int, x, fill any) []any {
	points := make([]any, n)
	for i := range points {
		t := make(posets.Tuple, n)
		for j := range t {
			t[j] = fill
		}
		t[i] = x
		points[i] = t
	}
	return points
}

// JoinNDualDP splits one functionality into n resources, any one of which
// suffices: F = P, R = P^n, Solve(f) returns the n tuples with f in one slot
// and the bottom of P in the others, and SolveR(r) = ↓{join(r)}.
type JoinNDualDP struct {
	n int
	p posets.Poset
}

// NewJoinNDualDP returns the n-ary dual-join DP on P.
func NewJoinNDualDP(n int, P posets.Poset) (*JoinNDualDP, error) {
	if err := checkArity("JoinNDualDP", n); err != nil {
		return nil, err
	}
	return &JoinNDualDP{n: n, p: P}, nil
}

// MustJoinNDualDP is like NewJoinNDualDP but panics on error.
func MustJoinNDualDP(n int, P posets.Poset) *JoinNDualDP {
	d, err := NewJoinNDualDP(n, P)
	if err != nil {
		panic(err)
	}
	return d
}

// N returns the arity.
func (d *JoinNDualDP) N() int { return d.n }

func (d *JoinNDualDP) FunSpace() posets.Poset { return d.p }
func (d *JoinNDualDP) ResSpace() posets.Poset { return maps.Power(d.p, d.n) }

func (d *JoinNDualDP) Solve(_ *Tracer, f any) (posets.UpperSet, error) {
	bottom, err := d.p.Bottom()
	if err != nil {
		return posets.UpperSet{}, notImplemented(d, "solve on a poset without bottom")
	}
	return posets.NewUpperSet(d.ResSpace(), spread(d.n, f, bottom)), nil
}

func (d *JoinNDualDP) SolveR(_ *Tracer, r any) (posets.LowerSet, error) {
	y, ok := maps.JoinN{N: d.n, P: d.p}.Apply(r)
	if !ok {
		return posets.EmptyLowerSet(d.p), nil
	}
	return posets.LowerSetFromPoint(d.p, y), nil
}

func (d *JoinNDualDP) Implementations(f, r any) ([]any, error) { return feasibleImps(d, f, r) }

func (d *JoinNDualDP) String() string { return fmt.Sprintf("JoinNDualDP(%d, %s)", d.n, d.p) }

// MeetNDualDP copies one functionality to n resources: F = P, R = P^n,
// Solve(f) = ↑{(f, …, f)} and SolveR(r) = ↓{meet(r)}.
type MeetNDualDP struct {
	WrapAMap
	n int
	p posets.Poset
}

// NewMeetNDualDP returns the n-ary dual-meet DP on P.
func NewMeetNDualDP(n int, P posets.Poset) (*MeetNDualDP, error) {
	if err := checkArity("MeetNDualDP", n); err != nil {
		return nil, err
	}
	return &MeetNDualDP{
		WrapAMap: WrapAMap{amap: maps.Diagonal{N: n, P: P}, dual: maps.MeetN{N: n, P: P}},
		n:        n,
		p:        P,
	}, nil
}

// MustMeetNDualDP is like NewMeetNDualDP but panics on error.
func MustMeetNDualDP(n int, P posets.Poset) *MeetNDualDP {
	d, err := NewMeetNDualDP(n, P)
	if err != nil {
		panic(err)
	}
	return d
}

// N returns the arity.
func (d *MeetNDualDP) N() int { return d.n }

func (d *MeetNDualDP) String() string { return fmt.Sprintf("MeetNDualDP(%d, %s)", d.n, d.p) }
