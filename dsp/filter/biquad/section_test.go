package biquad

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-tube/internal/testutil"
)

const eps = 1e-12

var lowpassish = Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}

func TestNewSectionStartsSilent(t *testing.T) {
	s := NewSection(lowpassish)
	if s.Coefficients != lowpassish {
		t.Fatalf("coefficients = %v, want %v", s.Coefficients, lowpassish)
	}

	if st := s.State(); st != [2]float64{} {
		t.Fatalf("initial state = %v", st)
	}
}

func TestIdentityPassesInputUnchanged(t *testing.T) {
	input := []float64{1, 0, -1, 0.5, 0.25, 1e-300, -0.123456789}

	s := NewSection(Identity())
	out := make([]float64, len(input))
	s.Process(out, input)

	for i := range input {
		if out[i] != input[i] {
			t.Fatalf("sample %d: got %v, want %v", i, out[i], input[i])
		}
	}

	if !Identity().IsIdentity() || lowpassish.IsIdentity() {
		t.Fatal("IsIdentity misclassifies")
	}
}

func TestProcessSampleHandTrace(t *testing.T) {
	s := NewSection(lowpassish)

	want := []float64{0.25, 0.55, 0.35, 0.048}
	for i, w := range want {
		var x float64
		if i == 0 {
			x = 1
		}

		if y := s.ProcessSample(x); math.Abs(y-w) > eps {
			t.Fatalf("n=%d: got %v, want %v", i, y, w)
		}
	}
}

func TestProcessMatchesProcessSample(t *testing.T) {
	c := Coefficients{B0: 0.2, B1: 0.4, B2: 0.2, A1: -0.5, A2: 0.1}
	a := NewSection(c)
	b := NewSection(c)

	src := testutil.DeterministicSine(700, 48000, 0.8, 37)

	want := make([]float64, len(src))
	for i, x := range src {
		want[i] = a.ProcessSample(x)
	}

	got := make([]float64, len(src))
	b.Process(got[:20], src[:20])
	b.Process(got[20:], src[20:])

	testutil.RequireSliceNearlyEqual(t, got, want, eps)

	if a.State() != b.State() {
		t.Fatalf("state diverged: %v vs %v", a.State(), b.State())
	}
}

func TestProcessInPlace(t *testing.T) {
	src := testutil.DeterministicNoise(3, 0.5, 64)

	ref := NewSection(lowpassish)
	want := make([]float64, len(src))
	ref.Process(want, src)

	buf := append([]float64(nil), src...)
	NewSection(lowpassish).Process(buf, buf)

	testutil.RequireIdentical(t, buf, want)
}

func TestProcessEmptyBlock(t *testing.T) {
	s := NewSection(lowpassish)
	s.Process(nil, nil)

	if s.State() != [2]float64{} {
		t.Fatalf("state = %v after empty block", s.State())
	}
}

func TestRetuneKeepsDelayLine(t *testing.T) {
	s := NewSection(Coefficients{B0: 0.5, B1: 0.5, A1: -0.3})
	s.ProcessSample(1)
	s.ProcessSample(0.5)

	before := s.State()
	s.SetCoefficients(Coefficients{B0: 1, A1: 0.1})

	if s.State() != before {
		t.Fatalf("state changed on retune: %v -> %v", before, s.State())
	}
}

func TestIdentityDrainsPendingMemory(t *testing.T) {
	s := NewSection(lowpassish)
	s.ProcessSample(1)

	s.SetCoefficients(Identity())

	out := make([]float64, 4)
	s.Process(out, []float64{0, 0, 0, 0})

	// The first two outputs carry the stored memory, then the line is empty.
	if math.Abs(out[0]-0.55) > eps || math.Abs(out[1]-0.24) > eps || out[2] != 0 || out[3] != 0 {
		t.Fatalf("drain = %v", out)
	}

	if s.State() != [2]float64{} {
		t.Fatalf("state = %v, want drained", s.State())
	}
}

func TestResetSilencesDelayLine(t *testing.T) {
	s := NewSection(Coefficients{B0: 0.3, B1: 0.2, B2: 0.1, A1: -0.4, A2: 0.05})
	s.ProcessSample(1)

	if s.State() == [2]float64{} {
		t.Fatal("impulse left no state")
	}

	s.Reset()

	if s.State() != [2]float64{} {
		t.Fatalf("Reset left state %v", s.State())
	}

	fresh := NewSection(s.Coefficients)
	if got, want := s.ProcessSample(0.5), fresh.ProcessSample(0.5); got != want {
		t.Fatalf("after Reset got %v, fresh section %v", got, want)
	}
}

func TestResponse(t *testing.T) {
	want := 1.0 / (1 - 0.2 + 0.04)
	if got := lowpassish.DCGain(); math.Abs(got-want) > eps {
		t.Fatalf("DCGain = %v, want %v", got, want)
	}

	if g := lowpassish.Gain(0, 48000); math.Abs(g-want) > 1e-9 {
		t.Fatalf("Gain(0) = %v, want %v", g, want)
	}

	// B0+B2 = B1 places a double zero at Nyquist.
	if g := lowpassish.Gain(24000, 48000); g > 1e-9 {
		t.Fatalf("Gain(Nyquist) = %v, want 0", g)
	}

	if db := Identity().MagnitudeDB(5000, 48000); db != 0 {
		t.Fatalf("identity MagnitudeDB = %v", db)
	}
}
