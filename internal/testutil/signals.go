// Package testutil holds deterministic signal generators and tolerance
// assertions shared by the engine and DSP tests.
package testutil

import (
	"math"
	"math/rand"
)

func generate(length int, at func(i int) float64) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = at(i)
	}

	return out
}

// DeterministicSine is a sine at freqHz starting from phase 0.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	w := 2 * math.Pi * freqHz / sampleRate

	return generate(length, func(i int) float64 {
		return amplitude * math.Sin(w*float64(i))
	})
}

// DeterministicNoise is uniform white noise in [-amplitude, amplitude)
// that repeats for the same seed.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	rng := rand.New(rand.NewSource(seed))

	return generate(length, func(int) float64 {
		return (rng.Float64()*2 - 1) * amplitude
	})
}

// Impulse is a unit sample at pos. A pos outside the signal gives silence.
func Impulse(length, pos int) []float64 {
	return generate(length, func(i int) float64 {
		if i == pos {
			return 1
		}

		return 0
	})
}

// DC is a constant signal.
func DC(value float64, length int) []float64 {
	return generate(length, func(int) float64 { return value })
}

// Step is silent before at and value from at onwards.
func Step(value float64, length, at int) []float64 {
	return generate(length, func(i int) float64 {
		if i < at {
			return 0
		}

		return value
	})
}

// Planar returns channels independent copies of src, laid out the way the
// engine expects its block buffers.
func Planar(channels int, src []float64) [][]float64 {
	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = append([]float64(nil), src...)
	}

	return out
}

// Zeros returns channels silent buffers of n frames.
func Zeros(channels, n int) [][]float64 {
	return Planar(channels, make([]float64, n))
}
