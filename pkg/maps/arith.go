package maps

import (
	"fmt"
	"math"

	"github.com/gitrdm/gomcdp/pkg/posets"
)

// Arithmetic maps operate on the numeric posets: RcompUnits (float64, top
// +Inf) and Nat (int, top Top{}). Top is absorbing for addition and for
// multiplication by a positive constant.

func checkNumeric(op string, P posets.Poset, c any) error {
	switch P.(type) {
	case posets.RcompUnits, posets.NatPoset:
	default:
		return fmt.Errorf("%s: %s is not a numeric poset", op, P)
	}
	if err := P.Belongs(c); err != nil {
		return fmt.Errorf("%s: constant: %w", op, err)
	}
	if _, isTop := c.(posets.Top); isTop {
		return fmt.Errorf("%s: constant cannot be top", op)
	}
	if f, ok := c.(float64); ok && math.IsInf(f, 1) {
		return fmt.Errorf("%s: constant cannot be infinite", op)
	}
	return nil
}

func add(a, b any) any {
	switch a := a.(type) {
	case float64:
		return a + b.(float64)
	case int:
		if bi, ok := b.(int); ok {
			return a + bi
		}
	}
	return posets.Top{}
}

// sub returns a-b, undefined when a < b.
func sub(a, b any) (any, bool) {
	switch a := a.(type) {
	case float64:
		if math.IsInf(a, 1) {
			return a, true
		}
		if a < b.(float64) {
			return nil, false
		}
		return a - b.(float64), true
	case int:
		if a < b.(int) {
			return nil, false
		}
		return a - b.(int), true
	}
	return posets.Top{}, true
}

func mul(a, c any) any {
	switch a := a.(type) {
	case float64:
		if c.(float64) == 0 {
			return 0.0
		}
		return a * c.(float64)
	case int:
		return a * c.(int)
	}
	if c == 0 {
		return 0
	}
	return posets.Top{}
}

// div returns the greatest x with x*c ≤ a.
func div(a, c any) any {
	switch a := a.(type) {
	case float64:
		if c.(float64) == 0 {
			return math.Inf(1)
		}
		return a / c.(float64)
	case int:
		if c.(int) == 0 {
			return posets.Top{}
		}
		return a / c.(int)
	}
	return posets.Top{}
}

// PlusValue maps x to x + C.
type PlusValue struct {
	P posets.Poset
	C any
}

// NewPlusValue validates that P is numeric and C a finite value of P.
func NewPlusValue(P posets.Poset, c any) (PlusValue, error) {
	if err := checkNumeric("NewPlusValue", P, c); err != nil {
		return PlusValue{}, err
	}
	return PlusValue{P: P, C: c}, nil
}

func (m PlusValue) Domain() posets.Poset    { return m.P }
func (m PlusValue) Codomain() posets.Poset  { return m.P }
func (m PlusValue) Apply(x any) (any, bool) { return add(x, m.C), true }
func (m PlusValue) String() string          { return "+" + m.P.Format(m.C) }

// MinusValue maps x to x - C and is undefined below C. It is the dual of
// PlusValue.
type MinusValue struct {
	P posets.Poset
	C any
}

func (m MinusValue) Domain() posets.Poset    { return m.P }
func (m MinusValue) Codomain() posets.Poset  { return m.P }
func (m MinusValue) Apply(x any) (any, bool) { return sub(x, m.C) }
func (m MinusValue) String() string          { return "-" + m.P.Format(m.C) }

// MultValue maps x to x · C.
type MultValue struct {
	P posets.Poset
	C any
}

// NewMultValue validates that P is numeric and C a finite value of P.
func NewMultValue(P posets.Poset, c any) (MultValue, error) {
	if err := checkNumeric("NewMultValue", P, c); err != nil {
		return MultValue{}, err
	}
	return MultValue{P: P, C: c}, nil
}

func (m MultValue) Domain() posets.Poset    { return m.P }
func (m MultValue) Codomain() posets.Poset  { return m.P }
func (m MultValue) Apply(x any) (any, bool) { return mul(x, m.C), true }
func (m MultValue) String() string          { return "×" + m.P.Format(m.C) }

// DivValue maps x to the greatest y with y · C ≤ x. It is the dual of
// MultValue.
type DivValue struct {
	P posets.Poset
	C any
}

func (m DivValue) Domain() posets.Poset    { return m.P }
func (m DivValue) Codomain() posets.Poset  { return m.P }
func (m DivValue) Apply(x any) (any, bool) { return div(x, m.C), true }
func (m DivValue) String() string          { return "÷" + m.P.Format(m.C) }

// SumN maps a tuple of N values to their sum.
type SumN struct {
	N int
	P posets.Poset
}

// NewSumN validates that P is numeric.
func NewSumN(n int, P posets.Poset) (SumN, error) {
	if n < 1 {
		return SumN{}, fmt.Errorf("NewSumN: n must be >= 1, got %d", n)
	}
	bottom, err := P.Bottom()
	if err != nil {
		return SumN{}, fmt.Errorf("NewSumN: %w", err)
	}
	if err := checkNumeric("NewSumN", P, bottom); err != nil {
		return SumN{}, err
	}
	return SumN{N: n, P: P}, nil
}

func (m SumN) Domain() posets.Poset   { return power(m.P, m.N) }
func (m SumN) Codomain() posets.Poset { return m.P }
func (m SumN) Apply(x any) (any, bool) {
	t := x.(posets.Tuple)
	acc := t[0]
	for _, v := range t[1:] {
		acc = add(acc, v)
	}
	return acc, true
}
func (m SumN) String() string { return fmt.Sprintf("Sum%d(%s)", m.N, m.P) }
