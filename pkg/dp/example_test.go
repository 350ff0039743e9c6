package dp_test

import (
	"fmt"

	"github.com/gitrdm/gomcdp/pkg/dp"
	"github.com/gitrdm/gomcdp/pkg/posets"
)

// A battery whose mass grows with the payload it must carry: one unit of
// overhead, then twice the total.
func ExampleSeries() {
	kg := posets.NewRcompUnits("kg")
	d := dp.MustSeries(dp.MustPlusValueDP(kg, 1.0), dp.MustMultValueDP(kg, 2.0))

	u, _ := d.Solve(nil, 3.0)
	l, _ := d.SolveR(nil, 8.0)
	fmt.Println(u)
	fmt.Println(l)
	// Output:
	// ↑{8 kg}
	// ↓{3 kg}
}

func ExampleMeetNDP_SolveR() {
	d := dp.MustMeetNDP(2, posets.Nat())
	l, _ := d.SolveR(nil, 5)
	fmt.Println(l)
	// Output:
	// ↓{(5, ⊤), (⊤, 5)}
}

func ExampleCatalogueDP() {
	motors, _ := dp.NewCatalogueDP(posets.NewRcompUnits("N"), posets.NewRcompUnits("W"), []dp.CatalogueEntry{
		{Name: "m1", F: 1.0, R: 5.0},
		{Name: "m2", F: 2.0, R: 12.0},
	})
	u, _ := motors.Solve(nil, 1.5)
	imps, _ := motors.Implementations(1.5, 20.0)
	fmt.Println(u, imps)
	// Output:
	// ↑{12 W} [m2]
}
