package delay

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-tube/internal/testutil"
)

func TestNewRejectsNegativeLength(t *testing.T) {
	if _, err := New(-1); !errors.Is(err, ErrNegative) {
		t.Fatalf("New(-1) error = %v, want ErrNegative", err)
	}
}

func TestZeroLengthCopies(t *testing.T) {
	d, err := New(0)
	if err != nil {
		t.Fatal(err)
	}

	src := testutil.DeterministicNoise(9, 1, 32)
	out := make([]float64, len(src))
	d.ProcessBlock(out, src)

	testutil.RequireIdentical(t, out, src)

	if d.Len() != 0 {
		t.Fatalf("Len() = %d", d.Len())
	}
}

func TestProcessBlockDelaysByLen(t *testing.T) {
	tests := []struct {
		name  string
		size  int
		block int
	}{
		{name: "block larger than line", size: 16, block: 100},
		{name: "block smaller than line", size: 32, block: 7},
		{name: "single sample line", size: 1, block: 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := New(tc.size)
			if err != nil {
				t.Fatal(err)
			}

			src := testutil.DeterministicNoise(3, 1, 400)
			got := make([]float64, len(src))

			for pos := 0; pos < len(src); pos += tc.block {
				end := min(pos+tc.block, len(src))
				d.ProcessBlock(got[pos:end], src[pos:end])
			}

			want := make([]float64, len(src))
			copy(want[tc.size:], src)

			testutil.RequireIdentical(t, got, want)
		})
	}
}

func TestProcessBlockInPlace(t *testing.T) {
	d, _ := New(3)
	buf := []float64{1, 2, 3, 4, 5}
	d.ProcessBlock(buf, buf)

	testutil.RequireIdentical(t, buf, []float64{0, 0, 0, 1, 2})
}

func TestSingleSampleBlocksMatchOneBlock(t *testing.T) {
	a, _ := New(5)
	b, _ := New(5)
	src := testutil.DeterministicSine(440, 48000, 0.5, 64)

	block := make([]float64, len(src))
	b.ProcessBlock(block, src)

	got := make([]float64, len(src))
	for i := range src {
		a.ProcessBlock(got[i:i+1], src[i:i+1])
	}

	testutil.RequireIdentical(t, got, block)
}

func TestReset(t *testing.T) {
	d, _ := New(4)
	d.ProcessBlock(make([]float64, 4), []float64{1, 1, 1, 1})
	d.Reset()

	out := make([]float64, 4)
	d.ProcessBlock(out, []float64{2, 2, 2, 2})
	testutil.RequireIdentical(t, out, make([]float64, 4))
}

func TestProcessBlockDoesNotAllocate(t *testing.T) {
	d, _ := New(16)
	buf := make([]float64, 256)

	allocs := testing.AllocsPerRun(50, func() {
		d.ProcessBlock(buf, buf)
	})
	if allocs != 0 {
		t.Fatalf("ProcessBlock allocated %.1f times per run", allocs)
	}
}
