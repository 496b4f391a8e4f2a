package tube

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-tube/dsp/oversample"
	"github.com/cwbudde/algo-tube/internal/testutil"
)

func TestNewStageValidation(t *testing.T) {
	for _, factor := range []int{0, 2, 3, 17} {
		if _, err := NewStage(WithStageOversampling(factor)); err == nil {
			t.Fatalf("factor %d: expected error", factor)
		}
	}

	s, err := NewStage(WithStageOversampling(8))
	if err != nil {
		t.Fatalf("NewStage(8) error = %v", err)
	}

	if s.Oversampling() != 8 || s.Latency() != 16 {
		t.Fatalf("oversampling=%d latency=%d", s.Oversampling(), s.Latency())
	}
}

func TestStageSettlesOnCurveValue(t *testing.T) {
	c, _ := BuildPentode(50, Tube6U8A)

	for _, factor := range []int{4, 8} {
		s, _ := NewStage(WithStageOversampling(factor))

		for _, level := range []float64{1, -0.6, 0.25} {
			s.Reset()

			buf := testutil.DC(level, 128)
			s.ProcessBlock(buf, buf, c)

			if got, want := buf[len(buf)-1], c.Lookup(level); math.Abs(got-want) > 1e-9 {
				t.Fatalf("factor %d level %v: settled %v, want %v", factor, level, got, want)
			}
		}
	}
}

func TestStageImpulsePeaksAtLatency(t *testing.T) {
	c, _ := BuildTriode(0, Tube6U8A)
	s, _ := NewStage()

	buf := testutil.Impulse(64, 0)
	s.ProcessBlock(buf, buf, c)

	testutil.RequireBounded(t, buf, CurveCeiling)

	peak := 0
	for i := range buf {
		if math.Abs(buf[i]) > math.Abs(buf[peak]) {
			peak = i
		}
	}

	if peak != s.Latency() {
		t.Fatalf("impulse peak at %d, want %d", peak, s.Latency())
	}
}

func TestStageKeepsHistoryAcrossCurveSwap(t *testing.T) {
	a, _ := BuildPentode(10, Tube6U8A)
	b, _ := BuildPentode(90, Tube12AX7)

	in := testutil.DeterministicSine(440, 48000, 0.7, 256)

	// Reference: same stage, curve swapped at sample 128.
	ref, _ := NewStage()
	want := make([]float64, len(in))
	for i, x := range in {
		c := a
		if i >= 128 {
			c = b
		}

		ref.ProcessBlock(want[i:i+1], []float64{x}, c)
	}

	s, _ := NewStage()
	got := make([]float64, len(in))
	s.ProcessBlock(got[:128], in[:128], a)
	s.ProcessBlock(got[128:], in[128:], b)

	testutil.RequireIdentical(t, got, want)

	fresh, _ := NewStage()
	restart := make([]float64, 128)
	fresh.ProcessBlock(restart, in[128:], b)

	if restart[0] == got[128] {
		t.Fatal("curve swap appears to have reset the stage history")
	}
}

func TestStageFilterOptionsReachOversampler(t *testing.T) {
	c, _ := BuildTriode(0, Tube6U8A)
	in := testutil.DeterministicNoise(4, 0.5, 256)

	def, _ := NewStage()
	narrow, err := NewStage(WithStageFilter(oversample.WithCutoffScale(0.5), oversample.WithKaiserBeta(9)))
	if err != nil {
		t.Fatalf("NewStage() error = %v", err)
	}

	a := make([]float64, len(in))
	b := make([]float64, len(in))
	def.ProcessBlock(a, in, c)
	narrow.ProcessBlock(b, in, c)

	if testutil.MaxAbsDiff(a, b) == 0 {
		t.Fatal("filter options had no effect")
	}

	if narrow.Latency() != def.Latency() {
		t.Fatalf("latency changed to %d", narrow.Latency())
	}
}

func TestStageDoesNotAllocate(t *testing.T) {
	c, _ := BuildSaturation(60, VariantAggressive)
	s, _ := NewStage()
	buf := testutil.DeterministicNoise(3, 0.9, 512)

	allocs := testing.AllocsPerRun(20, func() {
		s.ProcessBlock(buf, buf, c)
	})
	if allocs != 0 {
		t.Fatalf("ProcessBlock allocated %.1f times per run", allocs)
	}
}

func TestStageSeriesSettlesOnComposedCurves(t *testing.T) {
	pentode, _ := BuildPentode(50, Tube6U8A)
	triode, _ := BuildTriode(0, Tube6U8A)

	p, _ := NewStage()
	tr, _ := NewStage()

	buf := testutil.DC(0.8, 160)
	p.ProcessBlock(buf, buf, pentode)
	tr.ProcessBlock(buf, buf, triode)

	want := triode.Lookup(pentode.Lookup(0.8))
	if got := buf[len(buf)-1]; math.Abs(got-want) > 1e-9 {
		t.Fatalf("settled %v, want %v", got, want)
	}
}
