// Package design provides the RBJ cookbook coefficient designers used by
// the tube engine: the saturation branch lowpass and highpass, the
// calibration tilt and the air shelf.
//
// The functions return [biquad.Coefficients] normalized to a0 = 1 and are
// meant to be called off the audio path when a new engine state is built.
package design
