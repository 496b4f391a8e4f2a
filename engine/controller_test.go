package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-tube/dsp/effects/tube"
	"github.com/cwbudde/algo-tube/internal/testutil"
)

func TestRejectedParametersKeepState(t *testing.T) {
	tests := []struct {
		name  string
		call  func(e *Engine) error
		field string
	}{
		{"density above range", func(e *Engine) error { return e.SetDensity(101) }, "density"},
		{"air NaN", func(e *Engine) error { return e.SetAir(math.NaN()) }, "air"},
		{"mix negative", func(e *Engine) error { return e.SetMix(-1) }, "mix"},
		{"output above range", func(e *Engine) error { return e.SetOutputGain(100.5) }, "output"},
		{"pentode tube", func(e *Engine) error { return e.SetStage(tube.Pentode, 50, tube.Tube12AT7) }, "pentode.tube"},
		{"triode tube", func(e *Engine) error { return e.SetStage(tube.Triode, 50, tube.Tube12AX7) }, "triode.tube"},
		{"triode drive", func(e *Engine) error { return e.SetStage(tube.Triode, 200, tube.Tube6U8A) }, "triode.drive"},
		{"unknown stage", func(e *Engine) error { return e.SetStage(tube.StageKind(7), 50, tube.Tube6U8A) }, "stage"},
		{"saturation amount", func(e *Engine) error {
			return e.SetSaturation(true, -5, tube.VariantStandard, FrequencyFlat)
		}, "saturation.amount"},
		{"saturation variant", func(e *Engine) error {
			return e.SetSaturation(true, 5, tube.Variant(9), FrequencyFlat)
		}, "saturation.variant"},
		{"saturation frequency", func(e *Engine) error {
			return e.SetSaturation(false, 5, tube.VariantStandard, FrequencyMode(-1))
		}, "saturation.frequency"},
		{"calibration", func(e *Engine) error { return e.SetCalibration(Calibration(3)) }, "calibration"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine(t)
			before := e.snapshot()

			err := tc.call(e)
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("error = %v, want ErrConfiguration", err)
			}

			var ce *ConfigurationError
			if !errors.As(err, &ce) || ce.Field != tc.field {
				t.Fatalf("error = %#v, want field %q", err, tc.field)
			}

			if e.snapshot() != before {
				t.Fatal("rejected change replaced the published state")
			}
		})
	}
}

func TestConfigReturnsCopy(t *testing.T) {
	e := newTestEngine(t, WithChannels(1))
	src := [][]float64{testutil.DeterministicNoise(5, 0.5, 512)}
	want := render(newTestEngine(t, WithChannels(1)), src)

	version := e.Version()

	cfg := e.Config()
	cfg.Pentode.Drive = 100
	cfg.Mix.Mix = 0

	if got := e.Config(); got != DefaultConfig() {
		t.Fatalf("Config() = %+v after editing the returned value", got)
	}

	if e.Version() != version {
		t.Fatalf("Version() = %d, want %d", e.Version(), version)
	}

	testutil.RequireIdentical(t, render(e, src)[0], want[0])
}

func TestAcceptedChangesPublishOnce(t *testing.T) {
	e := newTestEngine(t)

	if e.Version() != 1 {
		t.Fatalf("initial version = %d", e.Version())
	}

	if err := e.SetDensity(60); err != nil {
		t.Fatal(err)
	}

	if e.Version() != 2 || e.Config().Mix.Density != 60 {
		t.Fatalf("version=%d density=%v", e.Version(), e.Config().Mix.Density)
	}

	if err := e.SetDensity(60); err != nil {
		t.Fatal(err)
	}

	if e.Version() != 2 {
		t.Fatalf("unchanged value republished, version %d", e.Version())
	}

	if err := e.Apply(hotConfig()); err != nil {
		t.Fatal(err)
	}

	if e.Version() != 3 || e.Config() != hotConfig() {
		t.Fatalf("Apply: version=%d config=%+v", e.Version(), e.Config())
	}
}

func TestSetStageAndSaturation(t *testing.T) {
	e := newTestEngine(t)

	if err := e.SetStage(tube.Triode, 20, tube.Tube12AT7); err != nil {
		t.Fatal(err)
	}

	if err := e.SetSaturation(true, 30, tube.VariantAggressive, FrequencyLow); err != nil {
		t.Fatal(err)
	}

	cfg := e.Config()
	if cfg.Stage(tube.Triode) != (StageConfig{Drive: 20, Tube: tube.Tube12AT7}) {
		t.Fatalf("triode = %+v", cfg.Triode)
	}

	if cfg.Stage(tube.Pentode) != DefaultConfig().Pentode {
		t.Fatalf("pentode changed: %+v", cfg.Pentode)
	}

	want := SaturationConfig{Enabled: true, Amount: 30, Variant: tube.VariantAggressive, Frequency: FrequencyLow}
	if cfg.Saturation != want {
		t.Fatalf("saturation = %+v", cfg.Saturation)
	}

	triode, _ := tube.BuildTriode(20, tube.Tube12AT7)
	if !e.snapshot().Triode.Equal(triode) {
		t.Fatal("published triode curve does not match its config")
	}
}

func TestUnchangedCurvesAreShared(t *testing.T) {
	e := newTestEngine(t)
	before := e.snapshot()

	if err := e.SetMix(40); err != nil {
		t.Fatal(err)
	}

	after := e.snapshot()
	if after == before {
		t.Fatal("state not republished")
	}

	if after.Pentode != before.Pentode || after.Triode != before.Triode || after.Saturation != before.Saturation {
		t.Fatal("curves rebuilt for a mix change")
	}

	if err := e.SetStage(tube.Pentode, 51, tube.Tube6U8A); err != nil {
		t.Fatal(err)
	}

	if e.snapshot().Pentode == after.Pentode || e.snapshot().Triode != after.Triode {
		t.Fatal("only the pentode curve should be rebuilt")
	}
}

func TestFrequencyModeChangeResetsOnlyBranchFilter(t *testing.T) {
	e := newTestEngine(t, WithChannels(1))
	ch := e.channels[0]

	noise := testutil.DeterministicNoise(2, 0.5, 256)
	silence := make([]float64, 256)
	dst := make([]float64, 256)

	if err := e.SetSaturation(true, 50, tube.VariantStandard, FrequencyLow); err != nil {
		t.Fatal(err)
	}

	processSatFilter(e.snapshot(), ch, dst, [maxPorts][]float64{noise})

	if ch.satFilter.State() == [2]float64{} {
		t.Fatal("filter memory empty after noise")
	}

	// Amount and enable changes keep the filter memory.
	if err := e.SetSaturation(false, 90, tube.VariantStandard, FrequencyLow); err != nil {
		t.Fatal(err)
	}

	processSatFilter(e.snapshot(), ch, dst, [maxPorts][]float64{silence})

	if maxAbs(dst) == 0 {
		t.Fatal("filter tail lost on amount change")
	}

	if err := e.SetSaturation(false, 90, tube.VariantStandard, FrequencyHigh); err != nil {
		t.Fatal(err)
	}

	processSatFilter(e.snapshot(), ch, dst, [maxPorts][]float64{silence})

	if maxAbs(dst) != 0 {
		t.Fatal("filter memory survived a mode change")
	}
}

func TestParametersAfterCloseFail(t *testing.T) {
	e := newTestEngine(t)

	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	err := e.SetMix(10)
	if !errors.Is(err, ErrGraphState) {
		t.Fatalf("error = %v, want ErrGraphState", err)
	}

	var gse *GraphStateError
	if !errors.As(err, &gse) || gse.State != Terminated {
		t.Fatalf("error = %#v", err)
	}
}
