package engine

import (
	"testing"

	"github.com/cwbudde/algo-tube/dsp/effects/tube"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()

	e, err := New(append([]Option{WithMeterInterval(0)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	t.Cleanup(func() {
		if e.Lifecycle() != Terminated {
			_ = e.Close()
		}
	})

	return e
}

// render processes one planar block through e and returns the output.
func render(e *Engine, src [][]float64) [][]float64 {
	dst := make([][]float64, len(src))
	for c := range dst {
		dst[c] = make([]float64, len(src[0]))
	}

	e.Process(dst, src)

	return dst
}

// requireEqual compares by value so that +0 and -0 match.
func requireEqual(t *testing.T, got, want []float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func hotConfig() Config {
	cfg := DefaultConfig()
	cfg.Pentode = StageConfig{Drive: 90, Tube: tube.Tube12AX7}
	cfg.Triode = StageConfig{Drive: 70, Tube: tube.TubeECC83}
	cfg.Saturation = SaturationConfig{
		Enabled:   true,
		Amount:    80,
		Variant:   tube.VariantAggressive,
		Frequency: FrequencyHigh,
	}
	cfg.Mix.Density = 100
	cfg.Mix.Air = 100
	cfg.Mix.Calibration = CalibrationBright

	return cfg
}
