package posets

import "fmt"

// ExamplePosetMinima shows how candidate resources are reduced to an antichain.
func ExamplePosetMinima() {
	P := NewPosetProduct(NewRcompUnits("kg"), NewRcompUnits("W"))
	u := NewUpperSet(P, []any{
		Tuple{1.0, 10.0},
		Tuple{2.0, 5.0},
		Tuple{2.0, 12.0}, // dominated by (1, 10)
	})
	fmt.Println(u)
	fmt.Println(u.Contains(Tuple{3.0, 6.0}))

	// Output:
	// ↑{(1 kg, 10 W), (2 kg, 5 W)}
	// true
}

// ExampleFinitePoset demonstrates joins in a finite lattice.
func ExampleFinitePoset() {
	P, _ := NewFinitePoset(
		[]string{"none", "wifi", "lte", "both"},
		[][2]string{{"none", "wifi"}, {"none", "lte"}, {"wifi", "both"}, {"lte", "both"}},
	)
	j, _ := P.Join("wifi", "lte")
	m, _ := P.Meet("wifi", "lte")
	fmt.Println(j, m)

	// Output:
	// both none
}
