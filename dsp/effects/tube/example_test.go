package tube_test

import (
	"fmt"

	"github.com/cwbudde/algo-tube/dsp/effects/tube"
)

func ExampleBuildSaturation() {
	c, err := tube.BuildSaturation(0, tube.VariantStandard)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("f(0)  = %.4f\n", c.Lookup(0))
	fmt.Printf("f(1)  = %.4f\n", c.Lookup(1))
	fmt.Printf("f(-1) = %.4f\n", c.Lookup(-1))
	// Output:
	// f(0)  = 0.0000
	// f(1)  = 0.9968
	// f(-1) = -0.9968
}

func ExampleStage() {
	pentode, err := tube.BuildPentode(50, tube.Tube6U8A)
	if err != nil {
		fmt.Println(err)
		return
	}

	stage, err := tube.NewStage()
	if err != nil {
		fmt.Println(err)
		return
	}

	block := make([]float64, 64)
	stage.ProcessBlock(block, block, pentode)

	fmt.Printf("latency=%d silence=%v\n", stage.Latency(), block[63] == 0)
	// Output:
	// latency=16 silence=true
}

func ExampleParseTubeType() {
	t, err := tube.ParseTubeType("ecc83")
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(t, tube.Pentode.Supports(t), tube.Triode.Supports(tube.Tube12AX7))
	// Output:
	// ECC83 true false
}
