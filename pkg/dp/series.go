package dp

import (
	"fmt"

	"github.com/gitrdm/gomcdp/pkg/posets"
)

// Series connects the resources of the first DP to the functionality of the
// second. It requires R1 and F2 to be the same space.
type Series struct {
	dp1, dp2 PrimitiveDP
}

// SeriesImp is an implementation of a Series: an implementation of each
// stage and the intermediate value that links them.
type SeriesImp struct {
	I1 any
	M  any
	I2 any
}

// NewSeries returns dp1 ; dp2.
func NewSeries(dp1, dp2 PrimitiveDP) (*Series, error) {
	if !dp1.ResSpace().SameAs(dp2.FunSpace()) {
		return nil, NewModelError("Series",
			"resource space %s of %s does not match functionality space %s of %s",
			dp1.ResSpace(), dp1, dp2.FunSpace(), dp2)
	}
	return &Series{dp1: dp1, dp2: dp2}, nil
}

// MustSeries is like NewSeries but panics on error.
func MustSeries(dp1, dp2 PrimitiveDP) *Series {
	s, err := NewSeries(dp1, dp2)
	if err != nil {
		panic(err)
	}
	return s
}

// First returns the upstream DP.
func (s *Series) First() PrimitiveDP { return s.dp1 }

// Second returns the downstream DP.
func (s *Series) Second() PrimitiveDP { return s.dp2 }

func (s *Series) Children() []PrimitiveDP { return []PrimitiveDP{s.dp1, s.dp2} }

func (s *Series) FunSpace() posets.Poset { return s.dp1.FunSpace() }
func (s *Series) ResSpace() posets.Poset { return s.dp2.ResSpace() }

// Solve solves the first stage, then the second from every minimal
// intermediate, and returns the minimal union.
func (s *Series) Solve(tr *Tracer, f any) (posets.UpperSet, error) {
	u1, err := s.dp1.Solve(tr, f)
	if err != nil {
		return posets.UpperSet{}, err
	}
	tr.Logf("series: intermediate %s", u1)
	var points []any
	for _, m := range u1.Minimals() {
		u2, err := s.dp2.Solve(tr, m)
		if err != nil {
			return posets.UpperSet{}, err
		}
		points = append(points, u2.Minimals()...)
	}
	return posets.NewUpperSet(s.ResSpace(), points), nil
}

func (s *Series) SolveR(tr *Tracer, r any) (posets.LowerSet, error) {
	l2, err := s.dp2.SolveR(tr, r)
	if err != nil {
		return posets.LowerSet{}, err
	}
	tr.Logf("series: intermediate %s", l2)
	var points []any
	for _, m := range l2.Maximals() {
		l1, err := s.dp1.SolveR(tr, m)
		if err != nil {
			return posets.LowerSet{}, err
		}
		points = append(points, l1.Maximals()...)
	}
	return posets.NewLowerSet(s.FunSpace(), points), nil
}

// Implementations enumerates, for every minimal intermediate m reachable from
// f that can still reach r, the pairs of stage implementations through m.
func (s *Series) Implementations(f, r any) ([]any, error) {
	u1, err := s.dp1.Solve(nil, f)
	if err != nil {
		return nil, err
	}
	var out []any
	for _, m := range u1.Minimals() {
		i2s, err := s.dp2.Implementations(m, r)
		if err != nil {
			return nil, err
		}
		if len(i2s) == 0 {
			continue
		}
		i1s, err := s.dp1.Implementations(f, m)
		if err != nil {
			return nil, err
		}
		for _, i1 := range i1s {
			for _, i2 := range i2s {
				out = append(out, SeriesImp{I1: i1, M: m, I2: i2})
			}
		}
	}
	return out, nil
}

func (s *Series) String() string { return fmt.Sprintf("Series(%s, %s)", s.dp1, s.dp2) }
