package biquad

import (
	"math"
	"math/cmplx"
)

// Response evaluates H(z) on the unit circle at freqHz.
func (c Coefficients) Response(freqHz, sampleRate float64) complex128 {
	z1 := cmplx.Rect(1, -2*math.Pi*freqHz/sampleRate)
	z2 := z1 * z1

	num := complex(c.B0, 0) + complex(c.B1, 0)*z1 + complex(c.B2, 0)*z2
	den := 1 + complex(c.A1, 0)*z1 + complex(c.A2, 0)*z2

	return num / den
}

// Gain returns |H| at freqHz as a linear factor.
func (c Coefficients) Gain(freqHz, sampleRate float64) float64 {
	return cmplx.Abs(c.Response(freqHz, sampleRate))
}

// MagnitudeDB returns the gain at freqHz in decibels.
func (c Coefficients) MagnitudeDB(freqHz, sampleRate float64) float64 {
	return 20 * math.Log10(c.Gain(freqHz, sampleRate))
}

// DCGain returns H(1), the gain applied to a constant input.
func (c Coefficients) DCGain() float64 {
	return (c.B0 + c.B1 + c.B2) / (1 + c.A1 + c.A2)
}
