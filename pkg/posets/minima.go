package posets

import "fmt"

// PosetMinima returns the minimal elements of points: duplicates are dropped
// and any point strictly above another point is removed. The relative order
// of the survivors is preserved, so the result is deterministic.
//
// PosetMinima is idempotent: applied to an antichain it returns the same
// elements in the same order.
func PosetMinima(p Poset, points []any) []any {
	return extremes(p, points, func(a, b any) bool { return Lt(p, a, b) })
}

// PosetMaxima returns the maximal elements of points.
func PosetMaxima(p Poset, points []any) []any {
	return extremes(p, points, func(a, b any) bool { return Lt(p, b, a) })
}

// extremes drops duplicates and then the points strictly dominated under
// below.
func extremes(p Poset, points []any, below func(a, b any) bool) []any {
	unique := make([]any, 0, len(points))
	for _, x := range points {
		dup := false
		for _, y := range unique {
			if p.Equal(x, y) {
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, x)
		}
	}
	out := make([]any, 0, len(unique))
	for i, x := range unique {
		dominated := false
		for j, y := range unique {
			if i != j && below(y, x) {
				dominated = true
				break
			}
		}
		if !dominated {
			out = append(out, x)
		}
	}
	return out
}

// CheckAntichain returns an error if two of the points are comparable.
func CheckAntichain(p Poset, points []any) error {
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			if Comparable(p, points[i], points[j]) {
				return fmt.Errorf("CheckAntichain: %s and %s are comparable in %s",
					p.Format(points[i]), p.Format(points[j]), p)
			}
		}
	}
	return nil
}
