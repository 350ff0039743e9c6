package posets

import (
	"strconv"
)

// NatPoset is the natural numbers {0, 1, 2, …} completed with Top{}.
// Finite values are carried as int.
type NatPoset struct{}

// Nat returns the completed natural numbers.
func Nat() NatPoset { return NatPoset{} }

func (NatPoset) String() string { return "Nat" }

func (p NatPoset) Belongs(x any) error {
	switch v := x.(type) {
	case Top:
		return nil
	case int:
		if v < 0 {
			return notBelongs(p, x, "negative")
		}
		return nil
	}
	return notBelongs(p, x, "expected int or Top")
}

func (NatPoset) Leq(a, b any) bool {
	if _, ok := b.(Top); ok {
		return true
	}
	if _, ok := a.(Top); ok {
		return false
	}
	return a.(int) <= b.(int)
}

func (NatPoset) Equal(a, b any) bool { return a == b }

func (p NatPoset) Join(a, b any) (any, error) {
	if p.Leq(a, b) {
		return b, nil
	}
	return a, nil
}

func (p NatPoset) Meet(a, b any) (any, error) {
	if p.Leq(a, b) {
		return a, nil
	}
	return b, nil
}

func (NatPoset) Top() (any, error)    { return Top{}, nil }
func (NatPoset) Bottom() (any, error) { return 0, nil }
func (NatPoset) Minimal() []any       { return []any{0} }
func (NatPoset) Maximal() []any       { return []any{Top{}} }

func (NatPoset) Format(x any) string {
	switch v := x.(type) {
	case Top:
		return "⊤"
	case int:
		return strconv.Itoa(v)
	}
	return "?" + toString(x)
}

func (NatPoset) SameAs(other Poset) bool {
	_, ok := other.(NatPoset)
	return ok
}

// TestChain returns 0, 1, … followed by Top{} as the last element.
func (NatPoset) TestChain(n int) []any {
	if n <= 0 {
		return nil
	}
	chain := make([]any, 0, n)
	for i := 0; i < n-1; i++ {
		chain = append(chain, i)
	}
	return append(chain, Top{})
}

// IntPoset is the integers completed with Bottom{} and Top{}.
type IntPoset struct{}

// Int returns the completed integers.
func Int() IntPoset { return IntPoset{} }

func (IntPoset) String() string { return "Int" }

func (p IntPoset) Belongs(x any) error {
	switch x.(type) {
	case int, Top, Bottom:
		return nil
	}
	return notBelongs(p, x, "expected int, Top or Bottom")
}

func (IntPoset) Leq(a, b any) bool {
	switch {
	case isTop(b), isBottom(a):
		return true
	case isTop(a), isBottom(b):
		return false
	}
	return a.(int) <= b.(int)
}

func (IntPoset) Equal(a, b any) bool { return a == b }

func (p IntPoset) Join(a, b any) (any, error) {
	if p.Leq(a, b) {
		return b, nil
	}
	return a, nil
}

func (p IntPoset) Meet(a, b any) (any, error) {
	if p.Leq(a, b) {
		return a, nil
	}
	return b, nil
}

func (IntPoset) Top() (any, error)    { return Top{}, nil }
func (IntPoset) Bottom() (any, error) { return Bottom{}, nil }
func (IntPoset) Minimal() []any       { return []any{Bottom{}} }
func (IntPoset) Maximal() []any       { return []any{Top{}} }

func (IntPoset) Format(x any) string {
	switch v := x.(type) {
	case Top:
		return "⊤"
	case Bottom:
		return "⊥"
	case int:
		return strconv.Itoa(v)
	}
	return "?" + toString(x)
}

func (IntPoset) SameAs(other Poset) bool {
	_, ok := other.(IntPoset)
	return ok
}

// TestChain returns Bottom{}, 0, 1, … and Top{}.
func (IntPoset) TestChain(n int) []any {
	if n <= 0 {
		return nil
	}
	chain := []any{Bottom{}}
	for i := 0; len(chain) < n-1; i++ {
		chain = append(chain, i)
	}
	if len(chain) < n {
		chain = append(chain, Top{})
	}
	return chain
}

func isTop(x any) bool {
	_, ok := x.(Top)
	return ok
}

func isBottom(x any) bool {
	_, ok := x.(Bottom)
	return ok
}
