package engine_test

import (
	"fmt"

	"github.com/cwbudde/algo-tube/dsp/effects/tube"
	"github.com/cwbudde/algo-tube/engine"
)

func ExampleEngine_Process() {
	e, err := engine.New(engine.WithChannels(1), engine.WithMeterInterval(0))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer e.Close()

	if err := e.SetMix(0); err != nil {
		fmt.Println(err)
		return
	}

	src := [][]float64{{0.5, -0.5, 0.25}}
	dst := [][]float64{make([]float64, 3)}
	e.Process(dst, src)

	fmt.Println(dst[0])
	// Output:
	// [0.375 -0.375 0.1875]
}

func ExampleEngine_SetStage() {
	e, err := engine.New(engine.WithMeterInterval(0))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer e.Close()

	fmt.Println(e.SetStage(tube.Triode, 40, tube.Tube12AT7) == nil, e.Version())
	fmt.Println(e.SetStage(tube.Pentode, 40, tube.Tube12AT7))
	// Output:
	// true 2
	// engine: invalid pentode.tube 12AT7: tube: unsupported tube for stage
}
