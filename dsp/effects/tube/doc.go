// Package tube synthesizes vacuum-tube style transfer curves and runs them
// through oversampled gain stages.
//
// Curves are built by [BuildPentode], [BuildTriode] and [BuildSaturation].
// Each maps the drive control (0 to 100) linearly onto an input gain and
// evaluates a closed-form voicing at [CurveSize] points across [-1, 1]:
//
//	pentode     1x to 5x    biased tanh/power voicings, asymmetric
//	triode      1x to 4x    tanh voicings with a small bias
//	saturation  1x to 11x   symmetric tanh (standard) or power-law (aggressive)
//
// Every curve passes through the origin and is bounded by [CurveCeiling].
// Drive 0 still shapes the signal; no curve is an identity.
//
// A [Stage] applies a curve at 4x (or higher) oversampling with an exact
// latency of 16 samples. Stages keep their filter memory across blocks and
// across curve swaps, and never allocate while processing.
package tube
