package oversample

import (
	vecmath "github.com/cwbudde/algo-vecmath"
)

// history is a fixed-size delay line written twice so the most recent
// size samples are always contiguous in chronological order.
type history struct {
	buf  []float64
	pos  int
	size int
}

func newHistory(size int) history {
	return history{buf: make([]float64, 2*size), size: size}
}

func (h *history) push(x float64) {
	h.buf[h.pos] = x
	h.buf[h.pos+h.size] = x

	h.pos++
	if h.pos == h.size {
		h.pos = 0
	}
}

// window returns the last size samples, oldest first.
func (h *history) window() []float64 {
	return h.buf[h.pos : h.pos+h.size]
}

func (h *history) reset() {
	clear(h.buf)
	h.pos = 0
}

// Interpolator raises the sample rate by an integer factor with one
// polyphase branch per output phase.
type Interpolator struct {
	phases [][]float64
	hist   history
}

func newInterpolator(taps []float64, factor int) (*Interpolator, error) {
	phases, err := splitPhases(taps, factor)
	if err != nil {
		return nil, err
	}

	longest := 0
	for _, p := range phases {
		longest = max(longest, len(p))
	}

	return &Interpolator{phases: phases, hist: newHistory(longest)}, nil
}

// Factor returns the number of output samples per input sample.
func (ip *Interpolator) Factor() int {
	return len(ip.phases)
}

// ProcessSample consumes one base-rate sample and writes Factor()
// high-rate samples into dst.
func (ip *Interpolator) ProcessSample(dst []float64, x float64) {
	ip.hist.push(x)
	win := ip.hist.window()
	size := len(win)

	for p, phase := range ip.phases {
		dst[p] = vecmath.DotProduct(phase, win[size-len(phase):])
	}
}

// Reset clears the input history.
func (ip *Interpolator) Reset() {
	ip.hist.reset()
}

// Decimator lowers the sample rate by an integer factor, evaluating the
// anti-aliasing filter only at retained output instants.
type Decimator struct {
	factor int
	taps   []float64
	hist   history
}

func newDecimator(taps []float64, factor int) *Decimator {
	rev := make([]float64, len(taps))
	for i, v := range taps {
		rev[len(taps)-1-i] = v
	}

	// The output instant is the first sample of each group, so the window
	// keeps factor-1 newer samples beyond the filter span.
	return &Decimator{
		factor: factor,
		taps:   rev,
		hist:   newHistory(len(taps) + factor - 1),
	}
}

// ProcessGroup consumes exactly Factor() high-rate samples and returns one
// base-rate sample.
func (d *Decimator) ProcessGroup(src []float64) float64 {
	for _, v := range src[:d.factor] {
		d.hist.push(v)
	}

	return vecmath.DotProduct(d.taps, d.hist.window()[:len(d.taps)])
}

// Reset clears the input history.
func (d *Decimator) Reset() {
	d.hist.reset()
}
