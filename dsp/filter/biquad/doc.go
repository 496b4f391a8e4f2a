// Package biquad provides the second-order IIR section used by every
// filtering node of the tube engine.
//
// A [Section] pairs immutable [Coefficients] with its own delay line. The
// coefficients can be swapped between blocks without touching the delay
// line, which lets the engine publish new filter designs while keeping the
// filter memory continuous.
//
// Coefficient design (RBJ lowpass, highpass, shelves) lives in
// dsp/filter/design.
package biquad
