package posets

import (
	"fmt"
	"slices"
	"strings"
)

// PosetProduct is the ordered product of sub-posets with the componentwise
// order. Its elements are Tuple values of the same length.
//
// The product of zero posets is the unit space One, whose only element is
// Tuple{}.
type PosetProduct struct {
	subs []Poset
}

// NewPosetProduct returns the product of subs.
func NewPosetProduct(subs ...Poset) PosetProduct {
	return PosetProduct{subs: slices.Clone(subs)}
}

// One returns the unit space.
func One() PosetProduct { return PosetProduct{} }

// Len returns the number of factors.
func (p PosetProduct) Len() int { return len(p.subs) }

// Sub returns factor i.
func (p PosetProduct) Sub(i int) Poset { return p.subs[i] }

// Subs returns a copy of the factors.
func (p PosetProduct) Subs() []Poset { return slices.Clone(p.subs) }

func (p PosetProduct) String() string {
	if len(p.subs) == 0 {
		return "𝟙"
	}
	parts := make([]string, len(p.subs))
	for i, s := range p.subs {
		parts[i] = s.String()
	}
	return "(" + strings.Join(parts, "×") + ")"
}

func (p PosetProduct) Belongs(x any) error {
	t, ok := x.(Tuple)
	if !ok {
		return notBelongs(p, x, "expected Tuple")
	}
	if len(t) != len(p.subs) {
		return notBelongs(p, x, fmt.Sprintf("expected %d components, got %d", len(p.subs), len(t)))
	}
	for i, sub := range p.subs {
		if err := sub.Belongs(t[i]); err != nil {
			return fmt.Errorf("component %d: %w", i, err)
		}
	}
	return nil
}

func (p PosetProduct) Leq(a, b any) bool {
	ta, tb := a.(Tuple), b.(Tuple)
	for i, sub := range p.subs {
		if !sub.Leq(ta[i], tb[i]) {
			return false
		}
	}
	return true
}

func (p PosetProduct) Equal(a, b any) bool {
	ta, tb := a.(Tuple), b.(Tuple)
	for i, sub := range p.subs {
		if !sub.Equal(ta[i], tb[i]) {
			return false
		}
	}
	return true
}

func (p PosetProduct) Join(a, b any) (any, error) {
	ta, tb := a.(Tuple), b.(Tuple)
	out := make(Tuple, len(p.subs))
	for i, sub := range p.subs {
		v, err := sub.Join(ta[i], tb[i])
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (p PosetProduct) Meet(a, b any) (any, error) {
	ta, tb := a.(Tuple), b.(Tuple)
	out := make(Tuple, len(p.subs))
	for i, sub := range p.subs {
		v, err := sub.Meet(ta[i], tb[i])
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (p PosetProduct) Top() (any, error) {
	out := make(Tuple, len(p.subs))
	for i, sub := range p.subs {
		v, err := sub.Top()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (p PosetProduct) Bottom() (any, error) {
	out := make(Tuple, len(p.subs))
	for i, sub := range p.subs {
		v, err := sub.Bottom()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Minimal returns the Cartesian product of each factor's minimal elements.
func (p PosetProduct) Minimal() []any {
	sets := make([][]any, len(p.subs))
	for i, sub := range p.subs {
		sets[i] = sub.Minimal()
	}
	return Cartesian(sets)
}

// Maximal returns the Cartesian product of each factor's maximal elements.
func (p PosetProduct) Maximal() []any {
	sets := make([][]any, len(p.subs))
	for i, sub := range p.subs {
		sets[i] = sub.Maximal()
	}
	return Cartesian(sets)
}

func (p PosetProduct) Format(x any) string {
	t, ok := x.(Tuple)
	if !ok || len(t) != len(p.subs) {
		return "?" + toString(x)
	}
	i := 0
	return formatTuple(t, func(v any) string {
		s := p.subs[i].Format(v)
		i++
		return s
	})
}

func (p PosetProduct) SameAs(other Poset) bool {
	o, ok := other.(PosetProduct)
	if !ok || len(o.subs) != len(p.subs) {
		return false
	}
	for i, sub := range p.subs {
		if !sub.SameAs(o.subs[i]) {
			return false
		}
	}
	return true
}

// TestChain zips the factors' chains, repeating the last element of shorter
// chains.
func (p PosetProduct) TestChain(n int) []any {
	if n <= 0 {
		return nil
	}
	if len(p.subs) == 0 {
		return []any{Tuple{}}
	}
	chains := make([][]any, len(p.subs))
	longest := 0
	for i, sub := range p.subs {
		chains[i] = sub.TestChain(n)
		if len(chains[i]) == 0 {
			return nil
		}
		longest = max(longest, len(chains[i]))
	}
	out := make([]any, longest)
	for k := 0; k < longest; k++ {
		t := make(Tuple, len(p.subs))
		for i, c := range chains {
			t[i] = c[min(k, len(c)-1)]
		}
		out[k] = t
	}
	return out
}

// Cartesian returns every Tuple picking one element from each set.
func Cartesian(sets [][]any) []any {
	out := []any{Tuple{}}
	for _, set := range sets {
		next := make([]any, 0, len(out)*len(set))
		for _, prefix := range out {
			for _, x := range set {
				t := make(Tuple, len(prefix.(Tuple)), len(prefix.(Tuple))+1)
				copy(t, prefix.(Tuple))
				next = append(next, append(t, x))
			}
		}
		out = next
	}
	return out
}

func formatTuple(t Tuple, format func(any) string) string {
	parts := make([]string, len(t))
	for i, v := range t {
		parts[i] = format(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func toString(x any) string { return fmt.Sprint(x) }
