// Package maps provides maps between posets and the coordinate-tree algebra
// used by multiplexer design problems.
//
// A Map is a function between two posets that may be undefined at some
// points. Undefinedness is an ordinary outcome, not an error:
//
//	y, ok := m.Apply(x)
//	if !ok {
//	    // no output for this input
//	}
//
// Maps are immutable and safe for concurrent use.
package maps

import (
	"fmt"
	"strings"

	"github.com/gitrdm/gomcdp/pkg/posets"
)

// Map is a possibly partial function from Domain to Codomain.
type Map interface {
	fmt.Stringer
	Domain() posets.Poset
	Codomain() posets.Poset

	// Apply returns the image of x, or defined=false if the map is not
	// defined at x. x must belong to Domain.
	Apply(x any) (y any, defined bool)
}

// Identity is the identity map on a poset.
type Identity struct {
	P posets.Poset
}

func (m Identity) Domain() posets.Poset    { return m.P }
func (m Identity) Codomain() posets.Poset  { return m.P }
func (m Identity) Apply(x any) (any, bool) { return x, true }
func (m Identity) String() string          { return "Id(" + m.P.String() + ")" }

// Constant maps every point of From to Value in To.
type Constant struct {
	From  posets.Poset
	To    posets.Poset
	Value any
}

func (m Constant) Domain() posets.Poset   { return m.From }
func (m Constant) Codomain() posets.Poset { return m.To }
func (m Constant) Apply(any) (any, bool)  { return m.Value, true }
func (m Constant) String() string         { return "Const(" + m.To.Format(m.Value) + ")" }

// Mux applies a coordinate tree.
type Mux struct {
	F      posets.Poset
	R      posets.Poset
	Coords Coords
}

// NewMux checks coords against F and computes the codomain.
func NewMux(F posets.Poset, coords Coords) (Mux, error) {
	R, err := CoordsCodomain(F, coords)
	if err != nil {
		return Mux{}, err
	}
	return Mux{F: F, R: R, Coords: coords}, nil
}

func (m Mux) Domain() posets.Poset    { return m.F }
func (m Mux) Codomain() posets.Poset  { return m.R }
func (m Mux) Apply(x any) (any, bool) { return ApplyCoords(m.Coords, x), true }
func (m Mux) String() string          { return "Mux(" + m.Coords.String() + ")" }

// MuxDual is the dual of a Mux: it maps r to the greatest f whose image is
// below r.
type MuxDual struct {
	Mux Mux
}

func (m MuxDual) Domain() posets.Poset   { return m.Mux.R }
func (m MuxDual) Codomain() posets.Poset { return m.Mux.F }
func (m MuxDual) Apply(r any) (any, bool) {
	return DualCoords(m.Mux.F, m.Mux.Coords, r)
}
func (m MuxDual) String() string { return "MuxDual(" + m.Mux.Coords.String() + ")" }

// JoinN maps a tuple of N values of P to their join. It is undefined where
// the join does not exist.
type JoinN struct {
	N int
	P posets.Poset
}

func (m JoinN) Domain() posets.Poset   { return power(m.P, m.N) }
func (m JoinN) Codomain() posets.Poset { return m.P }
func (m JoinN) Apply(x any) (any, bool) {
	return fold(m.P.Join, x.(posets.Tuple))
}
func (m JoinN) String() string { return fmt.Sprintf("Join%d(%s)", m.N, m.P) }

// MeetN maps a tuple of N values of P to their meet.
type MeetN struct {
	N int
	P posets.Poset
}

func (m MeetN) Domain() posets.Poset   { return power(m.P, m.N) }
func (m MeetN) Codomain() posets.Poset { return m.P }
func (m MeetN) Apply(x any) (any, bool) {
	return fold(m.P.Meet, x.(posets.Tuple))
}
func (m MeetN) String() string { return fmt.Sprintf("Meet%d(%s)", m.N, m.P) }

// Diagonal maps x to the tuple (x, …, x) of length N.
type Diagonal struct {
	N int
	P posets.Poset
}

func (m Diagonal) Domain() posets.Poset   { return m.P }
func (m Diagonal) Codomain() posets.Poset { return power(m.P, m.N) }
func (m Diagonal) Apply(x any) (any, bool) {
	out := make(posets.Tuple, m.N)
	for i := range out {
		out[i] = x
	}
	return out, true
}
func (m Diagonal) String() string { return fmt.Sprintf("Diag%d(%s)", m.N, m.P) }

// Compose applies maps in sequence. It is undefined wherever any stage is.
type Compose struct {
	Maps []Map
}

// NewCompose checks that consecutive stages agree on their spaces.
func NewCompose(stages ...Map) (Compose, error) {
	if len(stages) == 0 {
		return Compose{}, fmt.Errorf("NewCompose: no stages")
	}
	for i := 1; i < len(stages); i++ {
		if !stages[i-1].Codomain().SameAs(stages[i].Domain()) {
			return Compose{}, fmt.Errorf("NewCompose: stage %d produces %s but stage %d expects %s",
				i-1, stages[i-1].Codomain(), i, stages[i].Domain())
		}
	}
	return Compose{Maps: stages}, nil
}

func (m Compose) Domain() posets.Poset   { return m.Maps[0].Domain() }
func (m Compose) Codomain() posets.Poset { return m.Maps[len(m.Maps)-1].Codomain() }
func (m Compose) Apply(x any) (any, bool) {
	for _, stage := range m.Maps {
		y, ok := stage.Apply(x)
		if !ok {
			return nil, false
		}
		x = y
	}
	return x, true
}
func (m Compose) String() string {
	parts := make([]string, len(m.Maps))
	for i, s := range m.Maps {
		parts[i] = s.String()
	}
	return strings.Join(parts, " ∘ ")
}

// Power returns the product of n copies of P.
func Power(P posets.Poset, n int) posets.PosetProduct { return power(P, n) }

func power(P posets.Poset, n int) posets.PosetProduct {
	subs := make([]posets.Poset, n)
	for i := range subs {
		subs[i] = P
	}
	return posets.NewPosetProduct(subs...)
}

func fold(op func(a, b any) (any, error), xs posets.Tuple) (any, bool) {
	if len(xs) == 0 {
		return nil, false
	}
	acc := xs[0]
	for _, x := range xs[1:] {
		v, err := op(acc, x)
		if err != nil {
			return nil, false
		}
		acc = v
	}
	return acc, true
}
