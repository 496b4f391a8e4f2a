package ui

import (
	"fmt"

	"github.com/cwbudde/algo-tube/dsp/core"
	"github.com/cwbudde/algo-tube/dsp/effects/tube"
	"github.com/cwbudde/algo-tube/engine"
)

// param is one editable row. adjust moves the value by dir steps.
type param struct {
	name   string
	value  func(c engine.Config) string
	adjust func(c *engine.Config, dir int)
}

func level(name string, field func(c *engine.Config) *float64) param {
	return param{
		name: name,
		value: func(c engine.Config) string {
			return fmt.Sprintf("%3.0f", *field(&c))
		},
		adjust: func(c *engine.Config, dir int) {
			p := field(c)
			*p = core.Clamp(*p+float64(dir), 0, 100)
		},
	}
}

func tubeParam(name string, k tube.StageKind, field func(c *engine.Config) *tube.TubeType) param {
	return param{
		name: name,
		value: func(c engine.Config) string {
			return field(&c).String()
		},
		adjust: func(c *engine.Config, dir int) {
			p := field(c)
			*p = nextTube(k, *p, dir)
		},
	}
}

// nextTube steps through the tubes stage k accepts.
func nextTube(k tube.StageKind, t tube.TubeType, dir int) tube.TubeType {
	const n = int(tube.TubeECC83) + 1

	step := 1
	if dir < 0 {
		step = n - 1
	}

	next := t
	for range n {
		next = tube.TubeType((int(next) + step) % n)
		if k.Supports(next) {
			return next
		}
	}

	return t
}

func cycle(v, n, dir int) int {
	if dir < 0 {
		return (v + n - 1) % n
	}

	return (v + 1) % n
}

var params = []param{
	level("pentode drive", func(c *engine.Config) *float64 { return &c.Pentode.Drive }),
	tubeParam("pentode tube", tube.Pentode, func(c *engine.Config) *tube.TubeType { return &c.Pentode.Tube }),
	level("triode drive", func(c *engine.Config) *float64 { return &c.Triode.Drive }),
	tubeParam("triode tube", tube.Triode, func(c *engine.Config) *tube.TubeType { return &c.Triode.Tube }),
	{
		name: "saturation",
		value: func(c engine.Config) string {
			if c.Saturation.Enabled {
				return "on"
			}

			return "off"
		},
		adjust: func(c *engine.Config, _ int) {
			c.Saturation.Enabled = !c.Saturation.Enabled
		},
	},
	level("sat amount", func(c *engine.Config) *float64 { return &c.Saturation.Amount }),
	{
		name:  "sat variant",
		value: func(c engine.Config) string { return c.Saturation.Variant.String() },
		adjust: func(c *engine.Config, dir int) {
			c.Saturation.Variant = tube.Variant(cycle(int(c.Saturation.Variant), 2, dir))
		},
	},
	{
		name:  "sat frequency",
		value: func(c engine.Config) string { return c.Saturation.Frequency.String() },
		adjust: func(c *engine.Config, dir int) {
			c.Saturation.Frequency = engine.FrequencyMode(cycle(int(c.Saturation.Frequency), 3, dir))
		},
	},
	level("density", func(c *engine.Config) *float64 { return &c.Mix.Density }),
	level("air", func(c *engine.Config) *float64 { return &c.Mix.Air }),
	level("mix", func(c *engine.Config) *float64 { return &c.Mix.Mix }),
	level("output", func(c *engine.Config) *float64 { return &c.Mix.OutputGain }),
	{
		name:  "calibration",
		value: func(c engine.Config) string { return c.Mix.Calibration.String() },
		adjust: func(c *engine.Config, dir int) {
			c.Mix.Calibration = engine.Calibration(cycle(int(c.Mix.Calibration), 3, dir))
		},
	},
}
