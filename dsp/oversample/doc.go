// Package oversample runs a memoryless nonlinearity at an integer multiple
// of the working sample rate.
//
// An [Oversampler] pairs a polyphase [Interpolator] with a polyphase
// [Decimator] built from one Kaiser-windowed sinc prototype of length
// L*P+1, where L is the oversampling factor and P the taps per phase.
// Every interpolator phase and the decimator are normalized to unity DC
// gain, so a constant input passes through unchanged. The prototype is
// symmetric about L*P/2, which puts the round-trip latency at exactly P
// base-rate samples.
//
// Default matrix:
//
//	factor   taps/phase   prototype taps   latency
//	4        16           65               16
//	8        16           129              16
//
// Filter histories persist across calls. Processing never allocates.
package oversample
