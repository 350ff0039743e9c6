package dp

import (
	"strings"

	"github.com/gitrdm/gomcdp/pkg/posets"
)

// CoProductDP is a choice among alternative DPs with the same spaces. Any
// alternative may be used, so Solve and SolveR return the union of the
// alternatives' answers.
type CoProductDP struct {
	dps []PrimitiveDP
}

// CoProductImp is an implementation of alternative Index.
type CoProductImp struct {
	Index int
	Imp   any
}

// NewCoProductDP returns the choice among dps.
func NewCoProductDP(dps ...PrimitiveDP) (*CoProductDP, error) {
	if len(dps) == 0 {
		return nil, NewModelError("CoProductDP", "no alternatives")
	}
	for _, d := range dps[1:] {
		if !d.FunSpace().SameAs(dps[0].FunSpace()) || !d.ResSpace().SameAs(dps[0].ResSpace()) {
			return nil, NewModelError("CoProductDP", "alternative %s has spaces %s → %s, want %s → %s",
				d, d.FunSpace(), d.ResSpace(), dps[0].FunSpace(), dps[0].ResSpace())
		}
	}
	return &CoProductDP{dps: append([]PrimitiveDP(nil), dps...)}, nil
}

func (d *CoProductDP) Children() []PrimitiveDP { return append([]PrimitiveDP(nil), d.dps...) }

func (d *CoProductDP) FunSpace() posets.Poset { return d.dps[0].FunSpace() }
func (d *CoProductDP) ResSpace() posets.Poset { return d.dps[0].ResSpace() }

func (d *CoProductDP) Solve(tr *Tracer, f any) (posets.UpperSet, error) {
	sets := make([]posets.UpperSet, len(d.dps))
	for i, alt := range d.dps {
		u, err := alt.Solve(tr, f)
		if err != nil {
			return posets.UpperSet{}, err
		}
		sets[i] = u
	}
	return posets.UpperSetUnion(d.ResSpace(), sets...), nil
}

func (d *CoProductDP) SolveR(tr *Tracer, r any) (posets.LowerSet, error) {
	sets := make([]posets.LowerSet, len(d.dps))
	for i, alt := range d.dps {
		l, err := alt.SolveR(tr, r)
		if err != nil {
			return posets.LowerSet{}, err
		}
		sets[i] = l
	}
	return posets.LowerSetUnion(d.FunSpace(), sets...), nil
}

func (d *CoProductDP) Implementations(f, r any) ([]any, error) {
	var out []any
	for i, alt := range d.dps {
		imps, err := alt.Implementations(f, r)
		if err != nil {
			return nil, err
		}
		for _, imp := range imps {
			out = append(out, CoProductImp{Index: i, Imp: imp})
		}
	}
	return out, nil
}

func (d *CoProductDP) String() string {
	parts := make([]string, len(d.dps))
	for i, alt := range d.dps {
		parts[i] = alt.String()
	}
	return "CoProduct(" + strings.Join(parts, ", ") + ")"
}
