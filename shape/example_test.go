package shape_test

import (
	"fmt"

	"github.com/cwbudde/algo-peakfit/shape"
)

func ExampleLookup() {
	p, err := shape.Lookup("lorentzian")
	if err != nil {
		panic(err)
	}

	fmt.Printf("%.3f %.3f\n", p(0, 2), p(2, 2))

	// Output:
	// 1.000 0.667
}
