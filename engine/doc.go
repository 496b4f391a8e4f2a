// Package engine runs the tube saturation graph.
//
// Signal flow per channel:
//
//	input -> density -> pentode -> triode ----------> join -> calibration -> air -> mix -> output
//	              \--> sat-shaper -> sat-filter -> sat-gain --/                      /
//	input ---------------------------------------------------------------------------/
//
// Parameters are validated on the control path and compiled into an
// immutable [State] that the audio path picks up with one atomic load per
// block. Curves, filter coefficients and gains are derived there; filter
// memory lives with the engine and survives every publication.
//
// The lifecycle is Idle after [New], Running between [Engine.Attach] and
// [Engine.Detach], and Terminated after [Engine.Close]. [Engine.Process]
// is usable for offline rendering in Idle as well.
package engine
