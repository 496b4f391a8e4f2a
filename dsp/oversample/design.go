package oversample

import (
	"errors"
	"fmt"
	"math"
)

// prototype designs the shared lowpass of length factor*tapsPerPhase+1.
// The cutoff sits at cutoffScale times the base-rate Nyquist frequency.
func prototype(factor int, cfg config) ([]float64, error) {
	n := factor*cfg.tapsPerPhase + 1

	fc := (0.5 / float64(factor)) * cfg.cutoffScale
	if fc <= 0 || fc >= 0.5 {
		return nil, fmt.Errorf("oversample: invalid cutoff %.6f", fc)
	}

	taps := make([]float64, n)
	center := 0.5 * float64(n-1)

	for i := range n {
		t := float64(i) - center
		taps[i] = 2 * fc * sinc(2*fc*t) * kaiserWindow(i, n, cfg.kaiserBeta)
	}

	if err := normalize(taps); err != nil {
		return nil, err
	}

	return taps, nil
}

// splitPhases returns the interpolator branches. Branch p holds
// h[p], h[p+L], h[p+2L], ... stored newest-sample-last so it can be dotted
// directly against a chronological history window. Each branch is
// normalized to unity DC gain.
func splitPhases(taps []float64, factor int) ([][]float64, error) {
	phases := make([][]float64, factor)

	for p := range factor {
		count := (len(taps) - p + factor - 1) / factor
		phase := make([]float64, count)

		for j := range count {
			phase[count-1-j] = taps[p+j*factor]
		}

		if err := normalize(phase); err != nil {
			return nil, err
		}

		phases[p] = phase
	}

	return phases, nil
}

func normalize(taps []float64) error {
	var sum float64
	for _, v := range taps {
		sum += v
	}

	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return errors.New("oversample: designed zero-sum filter")
	}

	for i := range taps {
		taps[i] /= sum
	}

	return nil
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}

	pix := math.Pi * x

	return math.Sin(pix) / pix
}

func kaiserWindow(i, n int, beta float64) float64 {
	if n <= 1 || beta == 0 {
		return 1
	}

	t := 2*float64(i)/float64(n-1) - 1
	a := math.Sqrt(math.Max(0, 1-t*t))

	return i0(beta*a) / i0(beta)
}

// i0 is the zeroth-order modified Bessel function of the first kind,
// evaluated by its power series.
func i0(x float64) float64 {
	sum := 1.0
	term := 1.0

	x2 := (x * x) / 4
	for k := 1; k < 64; k++ {
		term *= x2 / float64(k*k)

		sum += term
		if term < 1e-16*sum {
			break
		}
	}

	return sum
}
