package design

import (
	"math"

	"github.com/cwbudde/algo-tube/dsp/filter/biquad"
)

// Q is the Butterworth quality factor shared by every engine filter.
const Q = 1 / math.Sqrt2

// maxCorner is the highest corner, as a fraction of the sample rate, that
// the designers accept. Higher corners are pulled down to it.
const maxCorner = 0.45

// Lowpass designs a second-order lowpass with its -3 dB point at freq.
// An invalid corner or sample rate yields zero coefficients.
func Lowpass(freq, sampleRate float64) biquad.Coefficients {
	p, ok := newPrototype(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	b := (1 - p.cos) / 2

	return p.allPole(b, 2*b, b)
}

// Highpass designs a second-order highpass with its -3 dB point at freq.
func Highpass(freq, sampleRate float64) biquad.Coefficients {
	p, ok := newPrototype(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	b := (1 + p.cos) / 2

	return p.allPole(b, -2*b, b)
}

// HighShelf designs a shelf that leaves DC untouched and reaches gainDB at
// Nyquist, with the midpoint at freq. A gain of exactly 0 dB returns
// [biquad.Identity] so the section becomes a plain copy.
func HighShelf(freq, gainDB, sampleRate float64) biquad.Coefficients {
	if gainDB == 0 {
		return biquad.Identity()
	}

	p, ok := newPrototype(freq, sampleRate)
	if !ok || math.IsNaN(gainDB) || math.IsInf(gainDB, 0) {
		return biquad.Coefficients{}
	}

	a := math.Pow(10, gainDB/40)
	beta := 2 * math.Sqrt(a) * p.alpha
	up, down := a+1, a-1

	a0 := up - down*p.cos + beta

	return biquad.Coefficients{
		B0: a * (up + down*p.cos + beta) / a0,
		B1: -2 * a * (down + up*p.cos) / a0,
		B2: a * (up + down*p.cos - beta) / a0,
		A1: 2 * (down - up*p.cos) / a0,
		A2: (up - down*p.cos - beta) / a0,
	}
}

// prototype holds the cookbook terms of one corner frequency.
type prototype struct {
	cos, alpha float64
}

func newPrototype(freq, sampleRate float64) (prototype, bool) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return prototype{}, false
	}

	if !(freq > 0) || math.IsInf(freq, 0) {
		return prototype{}, false
	}

	w0 := 2 * math.Pi * clampCorner(freq, sampleRate) / sampleRate

	return prototype{cos: math.Cos(w0), alpha: math.Sin(w0) / (2 * Q)}, true
}

// allPole completes the lowpass and highpass designs, which share their
// denominator.
func (p prototype) allPole(b0, b1, b2 float64) biquad.Coefficients {
	a0 := 1 + p.alpha

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: -2 * p.cos / a0,
		A2: (1 - p.alpha) / a0,
	}
}

// clampCorner keeps fixed corners such as the 10 kHz air shelf designable
// at low sample rates.
func clampCorner(freq, sampleRate float64) float64 {
	return min(freq, maxCorner*sampleRate)
}
