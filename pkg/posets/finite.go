package posets

import (
	"fmt"
	"slices"
	"strings"
)

// FinitePoset is a poset over a finite set of named elements. The order is
// the reflexive-transitive closure of the relations given at construction.
//
// Example:
//
//	P, _ := NewFinitePoset([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"a", "c"}})
//	P.Join("b", "c") // ErrNotJoinable: b and c have no upper bound
//	P.Meet("b", "c") // "a"
type FinitePoset struct {
	elements []string
	index    map[string]int
	leq      [][]bool
}

// NewFinitePoset builds the closure of relations over elements. Each relation
// {a, b} states a ≤ b. Relations that would identify two distinct elements
// (a cycle) are rejected.
func NewFinitePoset(elements []string, relations [][2]string) (*FinitePoset, error) {
	if len(elements) == 0 {
		return nil, fmt.Errorf("NewFinitePoset: elements cannot be empty")
	}
	p := &FinitePoset{
		elements: slices.Clone(elements),
		index:    make(map[string]int, len(elements)),
		leq:      make([][]bool, len(elements)),
	}
	for i, e := range elements {
		if _, dup := p.index[e]; dup {
			return nil, fmt.Errorf("NewFinitePoset: duplicate element %q", e)
		}
		p.index[e] = i
		p.leq[i] = make([]bool, len(elements))
		p.leq[i][i] = true
	}
	for _, rel := range relations {
		i, ok := p.index[rel[0]]
		if !ok {
			return nil, fmt.Errorf("NewFinitePoset: unknown element %q in relation", rel[0])
		}
		j, ok := p.index[rel[1]]
		if !ok {
			return nil, fmt.Errorf("NewFinitePoset: unknown element %q in relation", rel[1])
		}
		p.leq[i][j] = true
	}

	// Warshall closure
	n := len(elements)
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if !p.leq[i][k] {
				continue
			}
			for j := 0; j < n; j++ {
				if p.leq[k][j] {
					p.leq[i][j] = true
				}
			}
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if p.leq[i][j] && p.leq[j][i] {
				return nil, fmt.Errorf("NewFinitePoset: relations form a cycle through %q and %q", elements[i], elements[j])
			}
		}
	}
	return p, nil
}

// Elements returns the carrier in declaration order.
func (p *FinitePoset) Elements() []string { return slices.Clone(p.elements) }

func (p *FinitePoset) String() string {
	return "{" + strings.Join(p.elements, ", ") + "}"
}

func (p *FinitePoset) Belongs(x any) error {
	s, ok := x.(string)
	if !ok {
		return notBelongs(p, x, "expected string")
	}
	if _, ok := p.index[s]; !ok {
		return notBelongs(p, x, "unknown element")
	}
	return nil
}

func (p *FinitePoset) Leq(a, b any) bool {
	return p.leq[p.index[a.(string)]][p.index[b.(string)]]
}

func (p *FinitePoset) Equal(a, b any) bool { return a.(string) == b.(string) }

func (p *FinitePoset) Join(a, b any) (any, error) {
	var bounds []int
	ia, ib := p.index[a.(string)], p.index[b.(string)]
	for u := range p.elements {
		if p.leq[ia][u] && p.leq[ib][u] {
			bounds = append(bounds, u)
		}
	}
	if least, ok := p.extreme(bounds, true); ok {
		return p.elements[least], nil
	}
	return nil, fmt.Errorf("%w: %s and %s in %s", ErrNotJoinable, a, b, p)
}

func (p *FinitePoset) Meet(a, b any) (any, error) {
	var bounds []int
	ia, ib := p.index[a.(string)], p.index[b.(string)]
	for l := range p.elements {
		if p.leq[l][ia] && p.leq[l][ib] {
			bounds = append(bounds, l)
		}
	}
	if greatest, ok := p.extreme(bounds, false); ok {
		return p.elements[greatest], nil
	}
	return nil, fmt.Errorf("%w: %s and %s in %s", ErrNotMeetable, a, b, p)
}

// extreme finds the least (or greatest) element of candidates, if one exists.
func (p *FinitePoset) extreme(candidates []int, least bool) (int, bool) {
	for _, c := range candidates {
		ok := true
		for _, d := range candidates {
			if least && !p.leq[c][d] || !least && !p.leq[d][c] {
				ok = false
				break
			}
		}
		if ok {
			return c, true
		}
	}
	return 0, false
}

func (p *FinitePoset) all() []int {
	all := make([]int, len(p.elements))
	for i := range all {
		all[i] = i
	}
	return all
}

func (p *FinitePoset) Top() (any, error) {
	if t, ok := p.extreme(p.all(), false); ok {
		return p.elements[t], nil
	}
	return nil, fmt.Errorf("%w: %s has no top", ErrNotBounded, p)
}

func (p *FinitePoset) Bottom() (any, error) {
	if b, ok := p.extreme(p.all(), true); ok {
		return p.elements[b], nil
	}
	return nil, fmt.Errorf("%w: %s has no bottom", ErrNotBounded, p)
}

func (p *FinitePoset) Minimal() []any {
	var out []any
	for i, e := range p.elements {
		minimal := true
		for j := range p.elements {
			if j != i && p.leq[j][i] {
				minimal = false
				break
			}
		}
		if minimal {
			out = append(out, e)
		}
	}
	return out
}

func (p *FinitePoset) Maximal() []any {
	var out []any
	for i, e := range p.elements {
		maximal := true
		for j := range p.elements {
			if j != i && p.leq[i][j] {
				maximal = false
				break
			}
		}
		if maximal {
			out = append(out, e)
		}
	}
	return out
}

func (p *FinitePoset) Format(x any) string { return toString(x) }

func (p *FinitePoset) SameAs(other Poset) bool {
	o, ok := other.(*FinitePoset)
	if !ok {
		return false
	}
	if o == p {
		return true
	}
	if len(o.elements) != len(p.elements) {
		return false
	}
	for _, a := range p.elements {
		if _, ok := o.index[a]; !ok {
			return false
		}
		for _, b := range p.elements {
			if p.Leq(a, b) != o.Leq(a, b) {
				return false
			}
		}
	}
	return true
}

// TestChain climbs from the first minimal element through immediate
// successors.
func (p *FinitePoset) TestChain(n int) []any {
	if n <= 0 {
		return nil
	}
	cur := p.index[p.Minimal()[0].(string)]
	chain := []any{p.elements[cur]}
	for len(chain) < n {
		next := -1
		for j := range p.elements {
			if j == cur || !p.leq[cur][j] {
				continue
			}
			if next == -1 || p.leq[j][next] {
				next = j
			}
		}
		if next == -1 {
			break
		}
		chain = append(chain, p.elements[next])
		cur = next
	}
	return chain
}
